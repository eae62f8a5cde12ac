package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/wodhq/wodhq/internal/live"
)

const progressColumns = `class_id, user_id, current_step, rounds_completed,
	finished_at, dnf_partial_reps, updated_at`

// EnsureProgress creates a zeroed progress row if one does not exist yet.
func (db *DB) EnsureProgress(ctx context.Context, classID, userID int64) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO live_progress (class_id, user_id)
		 VALUES ($1, $2)
		 ON CONFLICT (class_id, user_id) DO NOTHING`, classID, userID)
	if err != nil {
		return fmt.Errorf("ensuring progress row: %w", err)
	}
	return nil
}

// SeedProgress batch-inserts zeroed progress rows for the given users.
func (db *DB) SeedProgress(ctx context.Context, classID int64, userIDs []int64) error {
	if len(userIDs) == 0 {
		return nil
	}

	query := `INSERT INTO live_progress (class_id, user_id) VALUES `
	args := make([]any, 0, len(userIDs)*2)
	valueStrings := make([]string, 0, len(userIDs))

	for i, uid := range userIDs {
		base := i * 2
		valueStrings = append(valueStrings, fmt.Sprintf("($%d,$%d)", base+1, base+2))
		args = append(args, classID, uid)
	}

	query += strings.Join(valueStrings, ",") + " ON CONFLICT (class_id, user_id) DO NOTHING"

	if _, err := db.Pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("seeding progress rows: %w", err)
	}
	return nil
}

// ResetProgress zeroes every participant's progress for a class. Called
// whenever the session (re)starts.
func (db *DB) ResetProgress(ctx context.Context, classID int64) error {
	_, err := db.Pool.Exec(ctx,
		`UPDATE live_progress
		 SET current_step = 0, rounds_completed = 0, finished_at = NULL,
		     dnf_partial_reps = 0, updated_at = NOW()
		 WHERE class_id = $1`, classID)
	if err != nil {
		return fmt.Errorf("resetting progress: %w", err)
	}
	return nil
}

// GetProgress loads one participant's progress row.
func (db *DB) GetProgress(ctx context.Context, classID, userID int64) (live.Progress, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT `+progressColumns+` FROM live_progress
		 WHERE class_id = $1 AND user_id = $2`, classID, userID)
	return scanProgress(row)
}

// ListProgress loads all progress rows for a class.
func (db *DB) ListProgress(ctx context.Context, classID int64) ([]live.Progress, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+progressColumns+` FROM live_progress
		 WHERE class_id = $1 ORDER BY user_id`, classID)
	if err != nil {
		return nil, fmt.Errorf("querying progress: %w", err)
	}
	defer rows.Close()

	var result []live.Progress
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// UpdateProgress applies mutate to one progress row under a row lock. A
// double-tapped advance serializes here instead of losing an update.
func (db *DB) UpdateProgress(ctx context.Context, classID, userID int64, mutate func(*live.Progress) error) (live.Progress, error) {
	var out live.Progress
	err := db.withTx(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`SELECT `+progressColumns+` FROM live_progress
			 WHERE class_id = $1 AND user_id = $2 FOR UPDATE`, classID, userID)
		p, err := scanProgress(row)
		if err != nil {
			return err
		}
		if err := mutate(&p); err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			`UPDATE live_progress
			 SET current_step = $3, rounds_completed = $4, finished_at = $5,
			     dnf_partial_reps = $6, updated_at = $7
			 WHERE class_id = $1 AND user_id = $2`,
			classID, userID, p.CurrentStep, p.RoundsCompleted, p.FinishedAt,
			p.DNFPartialReps, p.UpdatedAt)
		if err != nil {
			return fmt.Errorf("updating progress: %w", err)
		}
		out = p
		return nil
	})
	return out, err
}

func scanProgress(row pgx.Row) (live.Progress, error) {
	var p live.Progress
	err := row.Scan(&p.ClassID, &p.UserID, &p.CurrentStep, &p.RoundsCompleted,
		&p.FinishedAt, &p.DNFPartialReps, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return live.Progress{}, fmt.Errorf("progress row: %w", live.ErrNotFound)
	}
	if err != nil {
		return live.Progress{}, fmt.Errorf("scanning progress: %w", err)
	}
	return p, nil
}
