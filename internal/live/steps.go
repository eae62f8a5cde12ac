package live

import (
	"fmt"
	"sort"
)

// Step is one flattened unit of work inside a workout. Exactly one of Reps
// or DurationSec is set. Immutable once a session has started.
type Step struct {
	Index        int    `json:"index"`
	Name         string `json:"name"`
	Reps         *int   `json:"reps,omitempty"`
	DurationSec  *int   `json:"duration,omitempty"`
	Round        int    `json:"round"`
	Subround     int    `json:"subround"`
	TargetReps   *int   `json:"target_reps,omitempty"`
	QuantityType string `json:"quantity_type,omitempty"`
}

// FlattenRow is one exercise instance as stored by the workout collaborator,
// ordered by (round, subround, position).
type FlattenRow struct {
	RoundNumber    int
	SubroundNumber int
	Position       int
	Name           string
	QuantityType   string // "reps" or "duration"
	Quantity       int
	TargetReps     *int
}

// Catalog is the ordered step list for a session plus the prefix sums the
// progress math runs on. CumReps has one entry per step; duration-only
// steps contribute zero.
type Catalog struct {
	Steps       []Step
	CumReps     []int
	WorkoutType WorkoutType
	Metadata    WorkoutMetadata
}

// BuildCatalog flattens workout rows into the session step list.
//
// TABATA/INTERVAL quantities are always seconds; QuantityType still says
// whether the member enters reps for the step. EMOM regroups steps by
// subround, each subround becoming one minute group. Single-round
// FOR_TIME/TABATA/INTERVAL templates expand number_of_rounds times.
func BuildCatalog(rows []FlattenRow, workoutType WorkoutType, meta WorkoutMetadata) Catalog {
	base := make([]Step, 0, len(rows))
	for i, row := range rows {
		s := Step{
			Index:        i,
			Round:        row.RoundNumber,
			Subround:     row.SubroundNumber,
			QuantityType: row.QuantityType,
			TargetReps:   row.TargetReps,
		}
		if workoutType == Tabata || workoutType == Interval {
			secs := row.Quantity
			s.Name = fmt.Sprintf("%s %ds", row.Name, secs)
			s.DurationSec = &secs
		} else if row.QuantityType == "reps" {
			reps := row.Quantity
			s.Name = fmt.Sprintf("%dx %s", reps, row.Name)
			s.Reps = &reps
		} else {
			secs := row.Quantity
			s.Name = fmt.Sprintf("%s %ds", row.Name, secs)
			s.DurationSec = &secs
		}
		base = append(base, s)
	}

	var steps []Step
	switch {
	case workoutType == Emom:
		steps = regroupBySubround(base)
	case workoutType == ForTime || workoutType == Tabata || workoutType == Interval:
		repeats := meta.NumberOfRounds
		if repeats < 1 {
			repeats = 1
		}
		steps = expandSingleRound(base, repeats)
	default:
		steps = reindex(base)
	}

	cum := make([]int, len(steps))
	running := 0
	for i, s := range steps {
		if s.Reps != nil {
			running += *s.Reps
		}
		cum[i] = running
	}

	return Catalog{Steps: steps, CumReps: cum, WorkoutType: workoutType, Metadata: meta}
}

// PlannedMinutes is the number of EMOM minute windows, the sum of the
// emom_repeats metadata array.
func PlannedMinutes(meta WorkoutMetadata) int {
	total := 0
	for _, n := range meta.EmomRepeats {
		total += n
	}
	return total
}

// expandSingleRound repeats a one-round template N times. Workouts that
// already span multiple rounds are left as authored.
func expandSingleRound(steps []Step, repeats int) []Step {
	rounds := map[int]bool{}
	for _, s := range steps {
		rounds[s.Round] = true
	}
	if repeats <= 1 || len(rounds) != 1 {
		return reindex(steps)
	}

	template := append([]Step(nil), steps...)
	sort.SliceStable(template, func(i, j int) bool {
		if template[i].Subround != template[j].Subround {
			return template[i].Subround < template[j].Subround
		}
		return template[i].Index < template[j].Index
	})

	out := make([]Step, 0, len(template)*repeats)
	idx := 0
	for r := 1; r <= repeats; r++ {
		for _, t := range template {
			t.Round = r
			t.Index = idx
			out = append(out, t)
			idx++
		}
	}
	return out
}

// regroupBySubround orders EMOM steps by subround; the subround number
// becomes the step's round (its minute group).
func regroupBySubround(steps []Step) []Step {
	bySub := map[int][]Step{}
	for _, s := range steps {
		sr := s.Subround
		if sr < 1 {
			sr = 1
		}
		bySub[sr] = append(bySub[sr], s)
	}

	subs := make([]int, 0, len(bySub))
	for sr := range bySub {
		subs = append(subs, sr)
	}
	sort.Ints(subs)

	out := make([]Step, 0, len(steps))
	idx := 0
	for _, sr := range subs {
		group := bySub[sr]
		sort.SliceStable(group, func(i, j int) bool { return group[i].Index < group[j].Index })
		for _, s := range group {
			s.Round = sr
			s.Index = idx
			out = append(out, s)
			idx++
		}
	}
	return out
}

func reindex(steps []Step) []Step {
	out := append([]Step(nil), steps...)
	for i := range out {
		out[i].Index = i
	}
	return out
}
