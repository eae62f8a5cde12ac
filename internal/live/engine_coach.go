package live

import (
	"context"
	"fmt"
	"time"
)

// Coach override surface. Every edit requires the requesting coach to own
// the class; the set-final-total edits additionally require the session to
// have ended.

// UserScore is one row of a coach's batch score submission.
type UserScore struct {
	UserID int64 `json:"user_id"`
	Score  int   `json:"score"`
}

// CoachSetForTimeFinish sets (or, with nil, clears) a member's FOR_TIME
// finish, expressed as seconds from session start.
func (e *Engine) CoachSetForTimeFinish(ctx context.Context, classID, coachID, userID int64, finishSeconds *int) error {
	if err := e.requireCoachOwns(ctx, classID, coachID); err != nil {
		return err
	}
	s, err := e.store.GetSession(ctx, classID)
	if err != nil {
		return err
	}

	_, err = e.store.UpdateProgress(ctx, classID, userID, func(p *Progress) error {
		if finishSeconds == nil {
			p.FinishedAt = nil
		} else {
			secs := *finishSeconds
			if secs < 0 {
				secs = 0
			}
			at := s.StartedAt.Add(time.Duration(secs) * time.Second)
			p.FinishedAt = &at
			p.CurrentStep = len(s.Steps)
			p.DNFPartialReps = 0
		}
		p.UpdatedAt = e.now()
		return nil
	})
	return err
}

// CoachSetAmrapTotal back-solves a coach-entered total rep count into
// (rounds, step, partial) so the stored progress reproduces it.
func (e *Engine) CoachSetAmrapTotal(ctx context.Context, classID, coachID, userID int64, totalReps int) error {
	if err := e.requireCoachOwns(ctx, classID, coachID); err != nil {
		return err
	}
	s, err := e.store.GetSession(ctx, classID)
	if err != nil {
		return err
	}
	if s.WorkoutType != Amrap {
		return fmt.Errorf("workout type %s: %w", s.WorkoutType, ErrInvalidState)
	}

	rounds, step, partial := AmrapFromTotal(s, totalReps)
	_, err = e.store.UpdateProgress(ctx, classID, userID, func(p *Progress) error {
		p.RoundsCompleted = rounds
		p.CurrentStep = step
		p.DNFPartialReps = partial
		p.UpdatedAt = e.now()
		return nil
	})
	return err
}

// CoachPostIntervalScore edits one interval step's reps for any member.
func (e *Engine) CoachPostIntervalScore(ctx context.Context, classID, coachID, userID int64, stepIndex, reps int) error {
	if err := e.requireCoachOwns(ctx, classID, coachID); err != nil {
		return err
	}
	s, err := e.store.GetSession(ctx, classID)
	if err != nil {
		return err
	}
	score, err := NewIntervalScore(s, userID, stepIndex, reps)
	if err != nil {
		return err
	}
	return e.store.PutIntervalScore(ctx, score)
}

// CoachPostEmomMark edits one EMOM minute mark for any member.
func (e *Engine) CoachPostEmomMark(ctx context.Context, classID, coachID, userID int64, minuteIndex int, finished bool, finishSeconds *int) error {
	if err := e.requireCoachOwns(ctx, classID, coachID); err != nil {
		return err
	}
	s, err := e.store.GetSession(ctx, classID)
	if err != nil {
		return err
	}
	mark, err := NewEmomMark(s, userID, minuteIndex, finished, finishSeconds)
	if err != nil {
		return err
	}
	return e.store.PutEmomMark(ctx, mark)
}

// CoachSetFinalScore writes a member's final attendance score after the
// fact. Only valid once the session has ended.
func (e *Engine) CoachSetFinalScore(ctx context.Context, classID, coachID, userID int64, score int) error {
	if err := e.requireCoachOwns(ctx, classID, coachID); err != nil {
		return err
	}
	s, err := e.store.GetSession(ctx, classID)
	if err != nil {
		return err
	}
	if s.Status != StatusEnded {
		return fmt.Errorf("session is %s: %w", s.Status, ErrInvalidState)
	}
	if err := e.requireBooked(ctx, classID, userID); err != nil {
		return err
	}
	if score < 0 {
		score = 0
	}
	return e.store.UpsertFinalScore(ctx, classID, userID, score)
}

// SubmitCoachScores upserts a batch of final scores for the coach's class.
// Rows with negative scores are skipped; returns the number written.
func (e *Engine) SubmitCoachScores(ctx context.Context, classID, coachID int64, scores []UserScore) (int, error) {
	if err := e.requireCoachOwns(ctx, classID, coachID); err != nil {
		return 0, err
	}
	updated := 0
	for _, row := range scores {
		if row.Score < 0 || row.UserID == 0 {
			continue
		}
		if err := e.store.UpsertFinalScore(ctx, classID, row.UserID, row.Score); err != nil {
			return updated, err
		}
		updated++
	}
	return updated, nil
}

// SubmitMemberScore lets a booked member record their own final score.
func (e *Engine) SubmitMemberScore(ctx context.Context, classID, userID int64, score int) error {
	if score < 0 {
		return fmt.Errorf("score %d: %w", score, ErrInvalidInput)
	}
	if err := e.requireBooked(ctx, classID, userID); err != nil {
		return err
	}
	return e.store.UpsertFinalScore(ctx, classID, userID, score)
}

// CoachNote returns the session's note text.
func (e *Engine) CoachNote(ctx context.Context, classID int64) (string, error) {
	s, err := e.store.GetSession(ctx, classID)
	if err != nil {
		return "", err
	}
	return s.CoachNote, nil
}

// SetCoachNote replaces the session's note. Coach-ownership gated.
func (e *Engine) SetCoachNote(ctx context.Context, classID, coachID int64, note string) error {
	if err := e.requireCoachOwns(ctx, classID, coachID); err != nil {
		return err
	}
	return e.store.SetCoachNote(ctx, classID, note)
}

// Scaling returns a member's RX/SC flag, defaulting to RX.
func (e *Engine) Scaling(ctx context.Context, classID, userID int64) (string, error) {
	sc, err := e.store.GetScaling(ctx, classID, userID)
	if err != nil {
		return "", err
	}
	if sc == "" {
		sc = "RX"
	}
	return sc, nil
}

// SetScaling records a booked member's RX/SC choice.
func (e *Engine) SetScaling(ctx context.Context, classID, userID int64, scaling string) error {
	if scaling != "RX" && scaling != "SC" {
		return fmt.Errorf("scaling %q: %w", scaling, ErrInvalidInput)
	}
	if err := e.requireBooked(ctx, classID, userID); err != nil {
		return err
	}
	return e.store.PutScaling(ctx, classID, userID, scaling)
}
