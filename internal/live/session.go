package live

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a class session.
type Status string

const (
	StatusReady  Status = "ready"
	StatusLive   Status = "live"
	StatusPaused Status = "paused"
	StatusEnded  Status = "ended"
)

// WorkoutType selects the scoring and ranking rules for a session.
type WorkoutType string

const (
	ForTime  WorkoutType = "FOR_TIME"
	Amrap    WorkoutType = "AMRAP"
	Interval WorkoutType = "INTERVAL"
	Tabata   WorkoutType = "TABATA"
	Emom     WorkoutType = "EMOM"
)

// IsInterval reports whether the type scores per-step rep counts rather
// than step advancement.
func (t WorkoutType) IsInterval() bool {
	return t == Interval || t == Tabata || t == Emom
}

// WorkoutMetadata is the subset of workout metadata the engine consumes.
type WorkoutMetadata struct {
	TimeLimitMinutes int   `json:"time_limit,omitempty"`
	NumberOfRounds   int   `json:"number_of_rounds,omitempty"`
	EmomRepeats      []int `json:"emom_repeats,omitempty"`
}

// Session is the live instance of a class. One row per class; restarting a
// class overwrites the row rather than transitioning out of ended.
type Session struct {
	ClassID           int64           `json:"class_id"`
	WorkoutID         int64           `json:"workout_id"`
	Status            Status          `json:"status"`
	TimeCapSeconds    int             `json:"time_cap_seconds"`
	StartedAt         time.Time       `json:"started_at"`
	PausedAt          *time.Time      `json:"paused_at,omitempty"`
	PauseAccumSeconds int             `json:"pause_accum_seconds"`
	EndedAt           *time.Time      `json:"ended_at,omitempty"`
	Steps             []Step          `json:"steps"`
	StepsCumReps      []int           `json:"steps_cum_reps"`
	WorkoutType       WorkoutType     `json:"workout_type"`
	Metadata          WorkoutMetadata `json:"workout_metadata"`
	CoachNote         string          `json:"coach_note,omitempty"`
}

// NewSession builds a fresh live session from a step catalog.
func NewSession(classID, workoutID int64, timeCapSeconds int, cat Catalog, now time.Time) *Session {
	return &Session{
		ClassID:        classID,
		WorkoutID:      workoutID,
		Status:         StatusLive,
		TimeCapSeconds: timeCapSeconds,
		StartedAt:      now,
		Steps:          cat.Steps,
		StepsCumReps:   cat.CumReps,
		WorkoutType:    cat.WorkoutType,
		Metadata:       cat.Metadata,
	}
}

// ElapsedSeconds is the wall-clock running time of the session, with all
// paused time removed. Never negative.
func (s *Session) ElapsedSeconds(now time.Time) int {
	elapsed := int(now.Sub(s.StartedAt).Seconds()) - s.PauseAccumSeconds
	if s.PausedAt != nil {
		elapsed -= int(now.Sub(*s.PausedAt).Seconds())
	}
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// CapReached reports whether a positive time cap has elapsed.
func (s *Session) CapReached(now time.Time) bool {
	return s.TimeCapSeconds > 0 && s.ElapsedSeconds(now) >= s.TimeCapSeconds
}

// Pause transitions live -> paused. Pausing an already-paused session is a
// no-op: PausedAt must not move, or the pause accounting in Resume would
// lose the time already spent paused.
func (s *Session) Pause(now time.Time) error {
	switch s.Status {
	case StatusPaused:
		return nil
	case StatusLive:
		s.Status = StatusPaused
		s.PausedAt = &now
		return nil
	default:
		return fmt.Errorf("pause from %s: %w", s.Status, ErrInvalidState)
	}
}

// Resume transitions paused -> live, folding the completed pause window
// into PauseAccumSeconds.
func (s *Session) Resume(now time.Time) error {
	switch s.Status {
	case StatusLive:
		return nil
	case StatusPaused:
		if s.PausedAt != nil {
			s.PauseAccumSeconds += int(now.Sub(*s.PausedAt).Seconds())
		}
		s.PausedAt = nil
		s.Status = StatusLive
		return nil
	default:
		return fmt.Errorf("resume from %s: %w", s.Status, ErrInvalidState)
	}
}

// Stop ends the session. Idempotent: stopping an ended session changes
// nothing, so a coach's stop and the auto-end check can race safely.
func (s *Session) Stop(now time.Time) {
	if s.Status == StatusEnded {
		return
	}
	if s.PausedAt != nil {
		s.PauseAccumSeconds += int(now.Sub(*s.PausedAt).Seconds())
		s.PausedAt = nil
	}
	s.Status = StatusEnded
	s.EndedAt = &now
}

// AutoEndIfCapReached stops a live session whose time cap has elapsed.
// Returns true when this call performed the stop. Callers must invoke it
// before any read of session or progress state.
func (s *Session) AutoEndIfCapReached(now time.Time) bool {
	if s.Status != StatusLive || !s.CapReached(now) {
		return false
	}
	s.Stop(now)
	return true
}
