package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/wodhq/wodhq/internal/live"
)

const sessionColumns = `class_id, workout_id, status, time_cap_seconds,
	started_at, paused_at, pause_accum_seconds, ended_at,
	steps, steps_cum_reps, workout_type, workout_metadata, coach_note`

// GetSession loads the session for a class.
func (db *DB) GetSession(ctx context.Context, classID int64) (*live.Session, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM class_sessions WHERE class_id = $1`, classID)
	return scanSession(row)
}

// PutSession upserts the session row, overwriting any previous run of the
// class.
func (db *DB) PutSession(ctx context.Context, s *live.Session) error {
	steps, cum, meta, err := marshalSessionJSON(s)
	if err != nil {
		return err
	}
	_, err = db.Pool.Exec(ctx,
		`INSERT INTO class_sessions (class_id, workout_id, status, time_cap_seconds,
		 started_at, paused_at, pause_accum_seconds, ended_at,
		 steps, steps_cum_reps, workout_type, workout_metadata, coach_note)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		 ON CONFLICT (class_id) DO UPDATE SET
		   workout_id = EXCLUDED.workout_id,
		   status = EXCLUDED.status,
		   time_cap_seconds = EXCLUDED.time_cap_seconds,
		   started_at = EXCLUDED.started_at,
		   paused_at = EXCLUDED.paused_at,
		   pause_accum_seconds = EXCLUDED.pause_accum_seconds,
		   ended_at = EXCLUDED.ended_at,
		   steps = EXCLUDED.steps,
		   steps_cum_reps = EXCLUDED.steps_cum_reps,
		   workout_type = EXCLUDED.workout_type,
		   workout_metadata = EXCLUDED.workout_metadata,
		   coach_note = EXCLUDED.coach_note`,
		s.ClassID, s.WorkoutID, s.Status, s.TimeCapSeconds,
		s.StartedAt, s.PausedAt, s.PauseAccumSeconds, s.EndedAt,
		steps, cum, s.WorkoutType, meta, s.CoachNote)
	if err != nil {
		return fmt.Errorf("upserting session: %w", err)
	}
	return nil
}

// UpdateSession applies mutate to the session under a row lock, so a
// coach's stop and the auto-end check cannot clobber each other.
func (db *DB) UpdateSession(ctx context.Context, classID int64, mutate func(*live.Session) error) (*live.Session, error) {
	var out *live.Session
	err := db.withTx(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`SELECT `+sessionColumns+` FROM class_sessions WHERE class_id = $1 FOR UPDATE`, classID)
		s, err := scanSession(row)
		if err != nil {
			return err
		}
		if err := mutate(s); err != nil {
			return err
		}

		steps, cum, meta, err := marshalSessionJSON(s)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			`UPDATE class_sessions SET
			   status = $2, time_cap_seconds = $3, started_at = $4, paused_at = $5,
			   pause_accum_seconds = $6, ended_at = $7, steps = $8, steps_cum_reps = $9,
			   workout_type = $10, workout_metadata = $11, coach_note = $12
			 WHERE class_id = $1`,
			s.ClassID, s.Status, s.TimeCapSeconds, s.StartedAt, s.PausedAt,
			s.PauseAccumSeconds, s.EndedAt, steps, cum, s.WorkoutType, meta, s.CoachNote)
		if err != nil {
			return fmt.Errorf("updating session: %w", err)
		}
		out = s
		return nil
	})
	return out, err
}

// SetCoachNote replaces the session's note text.
func (db *DB) SetCoachNote(ctx context.Context, classID int64, note string) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE class_sessions SET coach_note = $2 WHERE class_id = $1`, classID, note)
	if err != nil {
		return fmt.Errorf("setting coach note: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("session for class %d: %w", classID, live.ErrNotFound)
	}
	return nil
}

func marshalSessionJSON(s *live.Session) (steps, cum, meta []byte, err error) {
	if steps, err = json.Marshal(s.Steps); err != nil {
		return nil, nil, nil, fmt.Errorf("marshaling steps: %w", err)
	}
	if cum, err = json.Marshal(s.StepsCumReps); err != nil {
		return nil, nil, nil, fmt.Errorf("marshaling cum reps: %w", err)
	}
	if meta, err = json.Marshal(s.Metadata); err != nil {
		return nil, nil, nil, fmt.Errorf("marshaling metadata: %w", err)
	}
	return steps, cum, meta, nil
}

func scanSession(row pgx.Row) (*live.Session, error) {
	var s live.Session
	var steps, cum, meta []byte
	err := row.Scan(&s.ClassID, &s.WorkoutID, &s.Status, &s.TimeCapSeconds,
		&s.StartedAt, &s.PausedAt, &s.PauseAccumSeconds, &s.EndedAt,
		&steps, &cum, &s.WorkoutType, &meta, &s.CoachNote)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("class session: %w", live.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning session: %w", err)
	}
	if err := json.Unmarshal(steps, &s.Steps); err != nil {
		return nil, fmt.Errorf("unmarshaling steps: %w", err)
	}
	if err := json.Unmarshal(cum, &s.StepsCumReps); err != nil {
		return nil, fmt.Errorf("unmarshaling cum reps: %w", err)
	}
	if err := json.Unmarshal(meta, &s.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshaling metadata: %w", err)
	}
	return &s, nil
}
