package live

import (
	"fmt"
	"time"
)

// IntervalScore is one participant's rep count for one interval step.
// Upserted repeatedly; last write wins.
type IntervalScore struct {
	ClassID   int64     `json:"class_id"`
	UserID    int64     `json:"user_id"`
	StepIndex int       `json:"step_index"`
	Reps      int       `json:"reps"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EmomMark records the outcome of one EMOM minute window. FinishSeconds is
// seconds into the minute at completion; 60 is the full-minute penalty for
// an unfinished window.
type EmomMark struct {
	ClassID       int64     `json:"class_id"`
	UserID        int64     `json:"user_id"`
	MinuteIndex   int       `json:"minute_index"`
	Finished      bool      `json:"finished"`
	FinishSeconds int       `json:"finish_seconds"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewIntervalScore validates an interval score submission against the
// session's type and step range.
func NewIntervalScore(s *Session, userID int64, stepIndex, reps int) (IntervalScore, error) {
	if !s.WorkoutType.IsInterval() {
		return IntervalScore{}, fmt.Errorf("workout type %s: %w", s.WorkoutType, ErrInvalidState)
	}
	if stepIndex < 0 || stepIndex >= len(s.Steps) {
		return IntervalScore{}, fmt.Errorf("step index %d out of range [0,%d): %w",
			stepIndex, len(s.Steps), ErrInvalidInput)
	}
	if reps < 0 {
		reps = 0
	}
	return IntervalScore{
		ClassID:   s.ClassID,
		UserID:    userID,
		StepIndex: stepIndex,
		Reps:      reps,
	}, nil
}

// NewEmomMark validates and normalizes an EMOM minute submission.
//
// A nil finishSeconds takes the default the leaderboard arithmetic relies
// on: 0 when finished, 60 (full-minute penalty) when not. Explicit values
// clamp to 0..60. The minute index clamps into 0..plannedMinutes-1 when
// the plan is known.
func NewEmomMark(s *Session, userID int64, minuteIndex int, finished bool, finishSeconds *int) (EmomMark, error) {
	if s.WorkoutType != Emom {
		return EmomMark{}, fmt.Errorf("workout type %s: %w", s.WorkoutType, ErrInvalidState)
	}

	if minuteIndex < 0 {
		minuteIndex = 0
	}
	if planned := PlannedMinutes(s.Metadata); planned > 0 && minuteIndex > planned-1 {
		minuteIndex = planned - 1
	}

	var sec int
	switch {
	case finishSeconds == nil && finished:
		sec = 0
	case finishSeconds == nil:
		sec = 60
	default:
		sec = *finishSeconds
		if sec < 0 {
			sec = 0
		}
		if sec > 60 {
			sec = 60
		}
	}

	return EmomMark{
		ClassID:       s.ClassID,
		UserID:        userID,
		MinuteIndex:   minuteIndex,
		Finished:      finished,
		FinishSeconds: sec,
	}, nil
}
