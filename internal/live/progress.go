package live

import "time"

// Progress is one participant's position in a FOR_TIME or AMRAP workout.
// CurrentStep ranges 0..len(steps); len(steps) means finished (FOR_TIME).
type Progress struct {
	ClassID         int64      `json:"class_id"`
	UserID          int64      `json:"user_id"`
	CurrentStep     int        `json:"current_step"`
	RoundsCompleted int        `json:"rounds_completed"`
	FinishedAt      *time.Time `json:"finished_at,omitempty"`
	DNFPartialReps  int        `json:"dnf_partial_reps"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Direction of an advance call.
type Direction int

const (
	Next Direction = 1
	Prev Direction = -1
)

// AdvanceForTime moves a participant one step forward or back. Landing on
// the final boundary records the finish time once; stepping back off it
// cancels the finish and any DNF claim.
func AdvanceForTime(p *Progress, stepCount int, dir Direction, now time.Time) {
	next := p.CurrentStep + int(dir)
	if next < 0 {
		next = 0
	}
	if next > stepCount {
		next = stepCount
	}
	p.CurrentStep = next

	if next >= stepCount {
		if p.FinishedAt == nil {
			p.FinishedAt = &now
		}
	} else {
		p.FinishedAt = nil
		p.DNFPartialReps = 0
	}
	p.UpdatedAt = now
}

// AdvanceAmrap moves a participant one step forward or back with modular
// wraparound: forward off the last step starts a new round, backward off
// step zero (with at least one round banked) undoes one. Every successful
// move clears the DNF partial claim.
func AdvanceAmrap(p *Progress, stepCount int, dir Direction, now time.Time) {
	if stepCount <= 0 {
		return
	}
	if dir > 0 {
		if p.CurrentStep+1 >= stepCount {
			p.CurrentStep = 0
			p.RoundsCompleted++
		} else {
			p.CurrentStep++
		}
	} else {
		if p.CurrentStep == 0 {
			if p.RoundsCompleted > 0 {
				p.CurrentStep = stepCount - 1
				p.RoundsCompleted--
			}
		} else {
			p.CurrentStep--
		}
	}
	p.DNFPartialReps = 0
	p.UpdatedAt = now
}

// SubmitPartial records self-reported reps into the step currently in
// progress. Negative input clamps to zero.
func SubmitPartial(p *Progress, reps int, now time.Time) {
	if reps < 0 {
		reps = 0
	}
	p.DNFPartialReps = reps
	p.UpdatedAt = now
}

// TotalReps derives a participant's rep score from the session's prefix
// table. For AMRAP, completed rounds each contribute a full round of reps.
func TotalReps(p *Progress, s *Session) int {
	within := 0
	if p.CurrentStep > 0 && len(s.StepsCumReps) > 0 {
		i := p.CurrentStep - 1
		if i >= len(s.StepsCumReps) {
			i = len(s.StepsCumReps) - 1
		}
		within = s.StepsCumReps[i]
	}

	total := within + p.DNFPartialReps
	if s.WorkoutType == Amrap {
		total += p.RoundsCompleted * repsPerRound(s)
	}
	return total
}

// AmrapFromTotal back-solves a coach-entered total into (rounds, step,
// partial). Inverse of TotalReps up to boundary step credit.
func AmrapFromTotal(s *Session, totalReps int) (rounds, currentStep, partial int) {
	if totalReps < 0 {
		totalReps = 0
	}
	cum := s.StepsCumReps
	perRound := repsPerRound(s)

	within := totalReps
	if perRound > 0 {
		rounds = totalReps / perRound
		within = totalReps - rounds*perRound
	}

	for i, need := range cum {
		if within < need {
			currentStep = i
			prev := 0
			if i > 0 {
				prev = cum[i-1]
			}
			partial = within - prev
			break
		}
		if i == len(cum)-1 {
			currentStep = len(cum)
			partial = 0
		}
	}
	if partial < 0 {
		partial = 0
	}
	return rounds, currentStep, partial
}

func repsPerRound(s *Session) int {
	if len(s.StepsCumReps) == 0 {
		return 0
	}
	return s.StepsCumReps[len(s.StepsCumReps)-1]
}
