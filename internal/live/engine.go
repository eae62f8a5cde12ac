package live

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/wodhq/wodhq/internal/notify"
)

// Store is the persistence collaborator for the engine's own records. The
// Update* methods must run their mutate function inside a per-row critical
// section (row lock or equivalent) so rapid duplicate calls cannot lose
// updates.
type Store interface {
	GetSession(ctx context.Context, classID int64) (*Session, error)
	PutSession(ctx context.Context, s *Session) error
	UpdateSession(ctx context.Context, classID int64, mutate func(*Session) error) (*Session, error)

	EnsureProgress(ctx context.Context, classID, userID int64) error
	SeedProgress(ctx context.Context, classID int64, userIDs []int64) error
	ResetProgress(ctx context.Context, classID int64) error
	GetProgress(ctx context.Context, classID, userID int64) (Progress, error)
	ListProgress(ctx context.Context, classID int64) ([]Progress, error)
	UpdateProgress(ctx context.Context, classID, userID int64, mutate func(*Progress) error) (Progress, error)

	PutIntervalScore(ctx context.Context, score IntervalScore) error
	ListIntervalScores(ctx context.Context, classID int64) ([]IntervalScore, error)
	PutEmomMark(ctx context.Context, mark EmomMark) error
	ListEmomMarks(ctx context.Context, classID int64) ([]EmomMark, error)

	GetScaling(ctx context.Context, classID, userID int64) (string, error)
	PutScaling(ctx context.Context, classID, userID int64, scaling string) error
	ListScaling(ctx context.Context, classID int64) (map[int64]string, error)

	SetCoachNote(ctx context.Context, classID int64, note string) error

	UpsertFinalScore(ctx context.Context, classID, userID int64, score int) error
	ListFinalScores(ctx context.Context, classID int64) ([]FinalScore, error)
}

// ClassMeta is what the class collaborator knows about a class.
type ClassMeta struct {
	ClassID         int64
	CoachID         int64
	WorkoutID       int64 // 0 when no workout assigned
	DurationMinutes int
}

// WorkoutFacts is the raw material for the step catalog.
type WorkoutFacts struct {
	Type     WorkoutType
	Rows     []FlattenRow
	Metadata WorkoutMetadata
}

// OngoingClass is a discovery result: the class a user should be looking
// at right now, from either the coach or member perspective.
type OngoingClass struct {
	Ongoing bool     `json:"ongoing"`
	Role    string   `json:"role,omitempty"`
	ClassID int64    `json:"class_id,omitempty"`
	Session *Session `json:"session,omitempty"`
}

// Directory is the class/workout/booking collaborator boundary.
type Directory interface {
	ClassMeta(ctx context.Context, classID int64) (ClassMeta, error)
	WorkoutFacts(ctx context.Context, workoutID int64) (WorkoutFacts, error)
	BookedUserIDs(ctx context.Context, classID int64) ([]int64, error)
	IsBooked(ctx context.Context, classID, userID int64) (bool, error)
	LiveClassIDForCoach(ctx context.Context, coachID int64) (int64, error)
	LiveClassIDForMember(ctx context.Context, memberID int64) (int64, error)
}

// FinalScore is one persisted attendance score.
type FinalScore struct {
	ClassID int64     `json:"class_id"`
	UserID  int64     `json:"user_id"`
	Score   int       `json:"score"`
	Scaling string    `json:"scaling,omitempty"`
	SavedAt time.Time `json:"saved_at"`
}

// AdvanceResult is what a member's advance call reports back to the UI.
type AdvanceResult struct {
	CurrentStep     int  `json:"current_step"`
	RoundsCompleted int  `json:"rounds_completed"`
	Finished        bool `json:"finished"`
}

// ProgressReport is a member's own view of their state.
type ProgressReport struct {
	Progress
	TotalReps      int  `json:"total_reps"`
	ElapsedSeconds *int `json:"elapsed_seconds"`
}

// Engine drives live class sessions: the session state machine, member
// progress, interval/EMOM scoring, leaderboards and coach overrides.
type Engine struct {
	store  Store
	dir    Directory
	events *notify.Bus
	log    *slog.Logger
	now    func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the engine's time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithEvents attaches a notification bus for lifecycle events.
func WithEvents(bus *notify.Bus) Option {
	return func(e *Engine) { e.events = bus }
}

// NewEngine wires the engine to its collaborators.
func NewEngine(store Store, dir Directory, log *slog.Logger, opts ...Option) *Engine {
	e := &Engine{store: store, dir: dir, log: log, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) publish(kind notify.Kind, classID int64) {
	if e.events != nil {
		e.events.Publish(notify.NewEvent(kind, classID))
	}
}

// Start creates (or overwrites) the session for a class, flips it live and
// seeds a zeroed progress row for every booked member. Restarting an ended
// class goes through the same path.
func (e *Engine) Start(ctx context.Context, classID int64) (*Session, error) {
	meta, err := e.dir.ClassMeta(ctx, classID)
	if err != nil {
		return nil, err
	}
	if meta.WorkoutID == 0 {
		return nil, fmt.Errorf("class %d: %w", classID, ErrWorkoutNotAssigned)
	}

	facts, err := e.dir.WorkoutFacts(ctx, meta.WorkoutID)
	if err != nil {
		return nil, err
	}
	cat := BuildCatalog(facts.Rows, facts.Type, facts.Metadata)

	capSeconds := facts.Metadata.TimeLimitMinutes * 60
	if capSeconds <= 0 {
		capSeconds = meta.DurationMinutes * 60
	}

	session := NewSession(classID, meta.WorkoutID, capSeconds, cat, e.now())
	if err := e.store.PutSession(ctx, session); err != nil {
		return nil, fmt.Errorf("storing session: %w", err)
	}

	booked, err := e.dir.BookedUserIDs(ctx, classID)
	if err != nil {
		return nil, err
	}
	if err := e.store.SeedProgress(ctx, classID, booked); err != nil {
		return nil, fmt.Errorf("seeding progress: %w", err)
	}
	if err := e.store.ResetProgress(ctx, classID); err != nil {
		return nil, fmt.Errorf("resetting progress: %w", err)
	}

	e.log.Info("class started", "class_id", classID, "workout_id", meta.WorkoutID,
		"type", cat.WorkoutType, "steps", len(cat.Steps), "cap_seconds", capSeconds)
	e.publish(notify.ClassStarted, classID)
	return session, nil
}

// Stop ends the session and persists final scores. Idempotent.
func (e *Engine) Stop(ctx context.Context, classID int64) error {
	var justEnded bool
	_, err := e.store.UpdateSession(ctx, classID, func(s *Session) error {
		justEnded = s.Status != StatusEnded
		s.Stop(e.now())
		return nil
	})
	if err != nil {
		return err
	}
	if !justEnded {
		return nil
	}

	// Score persistence is best effort: a hiccup here must not undo the stop.
	if err := e.persistFinalScores(ctx, classID); err != nil {
		e.log.Error("persisting final scores failed", "class_id", classID, "error", err)
	}
	e.publish(notify.ClassEnded, classID)
	return nil
}

// Pause freezes the session clock.
func (e *Engine) Pause(ctx context.Context, classID int64) error {
	_, err := e.store.UpdateSession(ctx, classID, func(s *Session) error {
		return s.Pause(e.now())
	})
	if err == nil {
		e.publish(notify.ClassPaused, classID)
	}
	return err
}

// Resume restarts the session clock.
func (e *Engine) Resume(ctx context.Context, classID int64) error {
	_, err := e.store.UpdateSession(ctx, classID, func(s *Session) error {
		return s.Resume(e.now())
	})
	if err == nil {
		e.publish(notify.ClassResumed, classID)
	}
	return err
}

// Session returns the current session state, auto-ending it first if the
// time cap has elapsed. Readers never observe a silently overrun session.
func (e *Engine) Session(ctx context.Context, classID int64) (*Session, error) {
	s, _, err := e.autoEnd(ctx, classID)
	return s, err
}

// autoEnd applies the cap check and returns the fresh session plus whether
// this call performed the stop.
func (e *Engine) autoEnd(ctx context.Context, classID int64) (*Session, bool, error) {
	var justEnded bool
	s, err := e.store.UpdateSession(ctx, classID, func(s *Session) error {
		justEnded = s.AutoEndIfCapReached(e.now())
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if justEnded {
		e.log.Info("time cap reached, session auto-ended", "class_id", classID)
		if err := e.persistFinalScores(ctx, classID); err != nil {
			e.log.Error("persisting final scores failed", "class_id", classID, "error", err)
		}
		e.publish(notify.ClassEnded, classID)
	}
	return s, justEnded, nil
}

// WorkoutSteps builds the step catalog for a workout without starting it.
func (e *Engine) WorkoutSteps(ctx context.Context, workoutID int64) (Catalog, error) {
	if workoutID <= 0 {
		return Catalog{}, fmt.Errorf("workout id %d: %w", workoutID, ErrInvalidInput)
	}
	facts, err := e.dir.WorkoutFacts(ctx, workoutID)
	if err != nil {
		return Catalog{}, err
	}
	return BuildCatalog(facts.Rows, facts.Type, facts.Metadata), nil
}

// Advance moves a member one step through a FOR_TIME or AMRAP workout.
// Crossing the time cap stops the session and returns ErrTimeUp.
func (e *Engine) Advance(ctx context.Context, classID, userID int64, dir Direction) (AdvanceResult, error) {
	if err := e.store.EnsureProgress(ctx, classID, userID); err != nil {
		return AdvanceResult{}, err
	}

	s, justEnded, err := e.autoEnd(ctx, classID)
	if err != nil {
		return AdvanceResult{}, err
	}
	if justEnded {
		return AdvanceResult{}, ErrTimeUp
	}
	if s.Status != StatusLive {
		return AdvanceResult{}, fmt.Errorf("session is %s: %w", s.Status, ErrInvalidState)
	}
	if len(s.Steps) == 0 {
		return AdvanceResult{}, fmt.Errorf("session has no steps: %w", ErrInvalidState)
	}

	p, err := e.store.UpdateProgress(ctx, classID, userID, func(p *Progress) error {
		if s.WorkoutType == Amrap {
			AdvanceAmrap(p, len(s.Steps), dir, e.now())
		} else {
			AdvanceForTime(p, len(s.Steps), dir, e.now())
		}
		return nil
	})
	if err != nil {
		return AdvanceResult{}, err
	}
	return AdvanceResult{
		CurrentStep:     p.CurrentStep,
		RoundsCompleted: p.RoundsCompleted,
		Finished:        p.FinishedAt != nil,
	}, nil
}

// SubmitPartial records a member's self-reported reps into the step in
// progress. Accepted in any session state so a DNF can be claimed right
// after the cap ends the class.
func (e *Engine) SubmitPartial(ctx context.Context, classID, userID int64, reps int) error {
	if err := e.store.EnsureProgress(ctx, classID, userID); err != nil {
		return err
	}
	_, err := e.store.UpdateProgress(ctx, classID, userID, func(p *Progress) error {
		SubmitPartial(p, reps, e.now())
		return nil
	})
	if err != nil {
		return err
	}

	// If the class already ended, fold the late claim into the final scores.
	if s, serr := e.store.GetSession(ctx, classID); serr == nil && s.Status == StatusEnded {
		if perr := e.persistFinalScores(ctx, classID); perr != nil {
			e.log.Error("persisting final scores failed", "class_id", classID, "error", perr)
		}
	}
	return nil
}

// MyProgress reports a member's own derived state.
func (e *Engine) MyProgress(ctx context.Context, classID, userID int64) (ProgressReport, error) {
	s, _, err := e.autoEnd(ctx, classID)
	if err != nil {
		return ProgressReport{}, err
	}
	p, err := e.store.GetProgress(ctx, classID, userID)
	if err != nil {
		return ProgressReport{}, err
	}

	report := ProgressReport{Progress: p, TotalReps: TotalReps(&p, s)}
	if p.FinishedAt != nil {
		secs := int(p.FinishedAt.Sub(s.StartedAt).Seconds())
		report.ElapsedSeconds = &secs
	}
	return report, nil
}

// PostIntervalScore upserts a booked member's rep count for one interval
// step. Valid only for INTERVAL/TABATA/EMOM sessions.
func (e *Engine) PostIntervalScore(ctx context.Context, classID, userID int64, stepIndex, reps int) error {
	s, err := e.store.GetSession(ctx, classID)
	if err != nil {
		return err
	}
	score, err := NewIntervalScore(s, userID, stepIndex, reps)
	if err != nil {
		return err
	}
	if err := e.requireBooked(ctx, classID, userID); err != nil {
		return err
	}
	return e.store.PutIntervalScore(ctx, score)
}

// PostEmomMark upserts a booked member's minute mark for an EMOM session.
func (e *Engine) PostEmomMark(ctx context.Context, classID, userID int64, minuteIndex int, finished bool, finishSeconds *int) error {
	s, err := e.store.GetSession(ctx, classID)
	if err != nil {
		return err
	}
	mark, err := NewEmomMark(s, userID, minuteIndex, finished, finishSeconds)
	if err != nil {
		return err
	}
	if err := e.requireBooked(ctx, classID, userID); err != nil {
		return err
	}
	return e.store.PutEmomMark(ctx, mark)
}

// Leaderboard computes the realtime ranking for a class. The cap check
// runs first, so an overrun class ends before anyone reads its board.
// Once a non-EMOM class has ended the board comes from the persisted
// attendance scores, so later coach and member score edits are visible;
// EMOM stays on the live calculation because its marks cover every
// booked member.
func (e *Engine) Leaderboard(ctx context.Context, classID int64) ([]LeaderboardEntry, error) {
	s, _, err := e.autoEnd(ctx, classID)
	if err != nil {
		return nil, err
	}
	if s.Status == StatusEnded && s.WorkoutType != Emom {
		finals, err := e.store.ListFinalScores(ctx, classID)
		if err != nil {
			return nil, err
		}
		return RankFinal(finals), nil
	}
	facts, err := e.collectFacts(ctx, s)
	if err != nil {
		return nil, err
	}
	return Rank(s, facts, e.now()), nil
}

// IntervalLeaderboard is the per-step board for INTERVAL/TABATA sessions.
func (e *Engine) IntervalLeaderboard(ctx context.Context, classID int64) ([]LeaderboardEntry, error) {
	s, _, err := e.autoEnd(ctx, classID)
	if err != nil {
		return nil, err
	}
	if !s.WorkoutType.IsInterval() {
		return nil, fmt.Errorf("workout type %s: %w", s.WorkoutType, ErrInvalidState)
	}
	facts, err := e.collectFacts(ctx, s)
	if err != nil {
		return nil, err
	}
	return Rank(s, facts, e.now()), nil
}

// FinalScores returns the persisted attendance scores for a class.
func (e *Engine) FinalScores(ctx context.Context, classID int64) ([]FinalScore, error) {
	return e.store.ListFinalScores(ctx, classID)
}

// collectFacts snapshots progress and score rows for the ranker. Per-user
// rows may be read at slightly different instants; exact cross-user
// simultaneity is not required.
func (e *Engine) collectFacts(ctx context.Context, s *Session) (Facts, error) {
	booked, err := e.dir.BookedUserIDs(ctx, s.ClassID)
	if err != nil {
		return Facts{}, err
	}
	facts := Facts{
		Participants: booked,
		Progress:     map[int64]Progress{},
		Interval:     map[int64][]IntervalScore{},
		Emom:         map[int64][]EmomMark{},
	}

	progress, err := e.store.ListProgress(ctx, s.ClassID)
	if err != nil {
		return Facts{}, err
	}
	seen := map[int64]bool{}
	for _, uid := range booked {
		seen[uid] = true
	}
	for _, p := range progress {
		facts.Progress[p.UserID] = p
		if !seen[p.UserID] {
			// late joiner with a progress row but no booking still ranks
			facts.Participants = append(facts.Participants, p.UserID)
			seen[p.UserID] = true
		}
	}

	if s.WorkoutType.IsInterval() {
		scores, err := e.store.ListIntervalScores(ctx, s.ClassID)
		if err != nil {
			return Facts{}, err
		}
		for _, sc := range scores {
			facts.Interval[sc.UserID] = append(facts.Interval[sc.UserID], sc)
		}
	}
	if s.WorkoutType == Emom {
		marks, err := e.store.ListEmomMarks(ctx, s.ClassID)
		if err != nil {
			return Facts{}, err
		}
		for _, m := range marks {
			facts.Emom[m.UserID] = append(facts.Emom[m.UserID], m)
		}
	}

	scaling, err := e.store.ListScaling(ctx, s.ClassID)
	if err != nil {
		return Facts{}, err
	}
	facts.Scaling = scaling
	return facts, nil
}

// persistFinalScores writes each participant's derived score into the
// attendance records. EMOM classes are skipped: their board is always
// computed from the live marks.
func (e *Engine) persistFinalScores(ctx context.Context, classID int64) error {
	s, err := e.store.GetSession(ctx, classID)
	if err != nil {
		return err
	}
	if s.WorkoutType == Emom {
		return nil
	}
	facts, err := e.collectFacts(ctx, s)
	if err != nil {
		return err
	}
	for _, entry := range Rank(s, facts, e.now()) {
		score := 0
		if entry.TotalReps != nil {
			score = *entry.TotalReps
		}
		if err := e.store.UpsertFinalScore(ctx, classID, entry.UserID, score); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) requireBooked(ctx context.Context, classID, userID int64) error {
	booked, err := e.dir.IsBooked(ctx, classID, userID)
	if err != nil {
		return err
	}
	if !booked {
		return fmt.Errorf("user %d class %d: %w", userID, classID, ErrNotBooked)
	}
	return nil
}

func (e *Engine) requireCoachOwns(ctx context.Context, classID, coachID int64) error {
	meta, err := e.dir.ClassMeta(ctx, classID)
	if err != nil {
		return err
	}
	if meta.CoachID != coachID {
		return fmt.Errorf("coach %d class %d: %w", coachID, classID, ErrForbidden)
	}
	return nil
}

// LiveClassFor finds the class a user should see right now. Coaches get
// their own running class first; members fall back to a class they are
// booked into. A live session row is the source of truth for "ongoing".
func (e *Engine) LiveClassFor(ctx context.Context, userID int64, roles []string) (OngoingClass, error) {
	has := func(role string) bool {
		for _, r := range roles {
			if r == role {
				return true
			}
		}
		return false
	}

	if has("coach") {
		classID, err := e.dir.LiveClassIDForCoach(ctx, userID)
		if err != nil {
			return OngoingClass{}, err
		}
		if classID != 0 {
			s, err := e.ongoingSession(ctx, classID)
			if err != nil {
				return OngoingClass{}, err
			}
			if s != nil {
				return OngoingClass{Ongoing: true, Role: "coach", ClassID: classID, Session: s}, nil
			}
		}
	}
	if has("member") {
		classID, err := e.dir.LiveClassIDForMember(ctx, userID)
		if err != nil {
			return OngoingClass{}, err
		}
		if classID != 0 {
			s, err := e.ongoingSession(ctx, classID)
			if err != nil {
				return OngoingClass{}, err
			}
			if s != nil {
				return OngoingClass{Ongoing: true, Role: "member", ClassID: classID, Session: s}, nil
			}
		}
	}
	return OngoingClass{Ongoing: false}, nil
}

// ongoingSession applies the cap check and reports the session when it is
// still running. A missing session row means not ongoing, not a failure.
func (e *Engine) ongoingSession(ctx context.Context, classID int64) (*Session, error) {
	s, _, err := e.autoEnd(ctx, classID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if s.Status == StatusEnded {
		return nil, nil
	}
	return s, nil
}
