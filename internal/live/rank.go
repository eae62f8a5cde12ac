package live

import (
	"sort"
	"time"
)

// LeaderboardEntry is one ranked row. ElapsedSeconds is set for finished
// FOR_TIME entries and for EMOM cumulative times; TotalReps for everything
// scored in reps. Derived, never persisted.
type LeaderboardEntry struct {
	UserID         int64  `json:"user_id"`
	Rank           int    `json:"rank"`
	Finished       bool   `json:"finished"`
	ElapsedSeconds *int   `json:"elapsed_seconds"`
	TotalReps      *int   `json:"total_reps"`
	Scaling        string `json:"scaling,omitempty"`

	bucket   int
	sortKey  int
	sortKey2 int
}

// Facts is the read-only snapshot Rank consumes. Missing rows are fine: a
// participant with no progress or scores ranks as zero/unfinished rather
// than being excluded.
type Facts struct {
	Participants []int64
	Progress     map[int64]Progress
	Interval     map[int64][]IntervalScore
	Emom         map[int64][]EmomMark
	Scaling      map[int64]string
}

// Rank orders the class leaderboard. The ranking rule is selected by the
// session's workout type; everything here is pure arithmetic over the
// snapshot.
func Rank(s *Session, facts Facts, now time.Time) []LeaderboardEntry {
	var entries []LeaderboardEntry
	switch s.WorkoutType {
	case Amrap:
		entries = rankByReps(s, facts)
	case Interval, Tabata:
		entries = rankInterval(s, facts)
	case Emom:
		entries = rankEmom(s, facts, now)
	default: // FOR_TIME
		entries = rankForTime(s, facts)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.bucket != b.bucket {
			return a.bucket < b.bucket
		}
		if a.sortKey != b.sortKey {
			return a.sortKey < b.sortKey
		}
		if a.sortKey2 != b.sortKey2 {
			return a.sortKey2 < b.sortKey2
		}
		return a.UserID < b.UserID
	})
	for i := range entries {
		entries[i].Rank = i + 1
		entries[i].Scaling = scalingFor(facts, entries[i].UserID)
	}
	return entries
}

// rankForTime puts finishers first ordered by finish time, then everyone
// else ordered by rep count. The bucket dominates: a fast DNF never beats
// a slow finisher.
func rankForTime(s *Session, facts Facts) []LeaderboardEntry {
	entries := make([]LeaderboardEntry, 0, len(facts.Participants))
	for _, uid := range facts.Participants {
		p := facts.Progress[uid]
		reps := TotalReps(&p, s)
		e := LeaderboardEntry{UserID: uid, TotalReps: &reps}
		if p.FinishedAt != nil {
			secs := int(p.FinishedAt.Sub(s.StartedAt).Seconds())
			e.Finished = true
			e.ElapsedSeconds = &secs
			e.bucket = 0
			e.sortKey = secs
		} else {
			e.bucket = 1
			e.sortKey = -reps
		}
		entries = append(entries, e)
	}
	return entries
}

func rankByReps(s *Session, facts Facts) []LeaderboardEntry {
	entries := make([]LeaderboardEntry, 0, len(facts.Participants))
	for _, uid := range facts.Participants {
		p := facts.Progress[uid]
		reps := TotalReps(&p, s)
		entries = append(entries, LeaderboardEntry{
			UserID:    uid,
			TotalReps: &reps,
			sortKey:   -reps,
		})
	}
	return entries
}

// rankInterval sums each participant's step scores; the count of steps
// meeting their target breaks ties.
func rankInterval(s *Session, facts Facts) []LeaderboardEntry {
	entries := make([]LeaderboardEntry, 0, len(facts.Participants))
	for _, uid := range facts.Participants {
		total, hits := 0, 0
		for _, sc := range facts.Interval[uid] {
			total += sc.Reps
			if sc.StepIndex < len(s.Steps) {
				if t := s.Steps[sc.StepIndex].TargetReps; t != nil && sc.Reps >= *t {
					hits++
				}
			}
		}
		reps := total
		entries = append(entries, LeaderboardEntry{
			UserID:    uid,
			TotalReps: &reps,
			// total reps dominate; target hits only split exact ties
			sortKey:  -total,
			sortKey2: -hits,
		})
	}
	return entries
}

// rankEmom accumulates per-minute times: every elapsed minute costs its
// recorded finish seconds, or the full 60 when unfinished or unmarked. The
// minute currently in progress counts only once finished. Lower is better.
func rankEmom(s *Session, facts Facts, now time.Time) []LeaderboardEntry {
	planned := PlannedMinutes(s.Metadata)

	fullMinutes := planned
	if s.Status != StatusEnded {
		fullMinutes = s.ElapsedSeconds(now) / 60
		if fullMinutes > planned {
			fullMinutes = planned
		}
	}

	entries := make([]LeaderboardEntry, 0, len(facts.Participants))
	for _, uid := range facts.Participants {
		marks := map[int]EmomMark{}
		for _, m := range facts.Emom[uid] {
			marks[m.MinuteIndex] = m
		}

		total := 0
		for minute := 0; minute < fullMinutes; minute++ {
			total += pastMinuteSeconds(marks, minute)
		}
		if s.Status != StatusEnded && fullMinutes < planned {
			if m, ok := marks[fullMinutes]; ok && m.Finished {
				total += clampMinute(m.FinishSeconds)
			}
		}

		secs := total
		entries = append(entries, LeaderboardEntry{
			UserID:         uid,
			Finished:       true, // EMOM entries always display as times
			ElapsedSeconds: &secs,
			sortKey:        secs,
		})
	}
	return entries
}

func pastMinuteSeconds(marks map[int]EmomMark, minute int) int {
	m, ok := marks[minute]
	if !ok || !m.Finished {
		return 60
	}
	return clampMinute(m.FinishSeconds)
}

// clampMinute bounds a finished minute's seconds to 0..59.
func clampMinute(sec int) int {
	if sec < 0 {
		return 0
	}
	if sec > 59 {
		return 59
	}
	return sec
}

// RankFinal orders the persisted attendance scores for an ended class.
// Attendance keeps one integer score per member, so higher score wins for
// every non-EMOM type; coach and member score edits made after the stop
// show up here without touching the live progress rows.
func RankFinal(scores []FinalScore) []LeaderboardEntry {
	entries := make([]LeaderboardEntry, 0, len(scores))
	for _, fs := range scores {
		reps := fs.Score
		sc := fs.Scaling
		if sc == "" {
			sc = "RX"
		}
		entries = append(entries, LeaderboardEntry{
			UserID:    fs.UserID,
			TotalReps: &reps,
			Scaling:   sc,
			sortKey:   -fs.Score,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.sortKey != b.sortKey {
			return a.sortKey < b.sortKey
		}
		return a.UserID < b.UserID
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

func scalingFor(facts Facts, userID int64) string {
	if sc, ok := facts.Scaling[userID]; ok && sc != "" {
		return sc
	}
	return "RX"
}
