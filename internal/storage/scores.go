package storage

import (
	"context"
	"fmt"

	"github.com/wodhq/wodhq/internal/live"
)

// PutIntervalScore upserts a participant's rep count for one step. Last
// write wins.
func (db *DB) PutIntervalScore(ctx context.Context, score live.IntervalScore) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO live_interval_scores (class_id, user_id, step_index, reps)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (class_id, user_id, step_index) DO UPDATE
		   SET reps = EXCLUDED.reps, updated_at = NOW()`,
		score.ClassID, score.UserID, score.StepIndex, score.Reps)
	if err != nil {
		return fmt.Errorf("upserting interval score: %w", err)
	}
	return nil
}

// ListIntervalScores returns every interval score for a class.
func (db *DB) ListIntervalScores(ctx context.Context, classID int64) ([]live.IntervalScore, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT class_id, user_id, step_index, reps, updated_at
		 FROM live_interval_scores
		 WHERE class_id = $1
		 ORDER BY user_id, step_index`, classID)
	if err != nil {
		return nil, fmt.Errorf("querying interval scores: %w", err)
	}
	defer rows.Close()

	var result []live.IntervalScore
	for rows.Next() {
		var s live.IntervalScore
		if err := rows.Scan(&s.ClassID, &s.UserID, &s.StepIndex, &s.Reps, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning interval score: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// PutEmomMark upserts one minute's completion mark. Last write wins.
func (db *DB) PutEmomMark(ctx context.Context, mark live.EmomMark) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO live_emom_scores (class_id, user_id, minute_index, finished, finish_seconds)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (class_id, user_id, minute_index) DO UPDATE
		   SET finished = EXCLUDED.finished,
		       finish_seconds = EXCLUDED.finish_seconds,
		       updated_at = NOW()`,
		mark.ClassID, mark.UserID, mark.MinuteIndex, mark.Finished, mark.FinishSeconds)
	if err != nil {
		return fmt.Errorf("upserting emom mark: %w", err)
	}
	return nil
}

// ListEmomMarks returns every minute mark for a class.
func (db *DB) ListEmomMarks(ctx context.Context, classID int64) ([]live.EmomMark, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT class_id, user_id, minute_index, finished, finish_seconds, updated_at
		 FROM live_emom_scores
		 WHERE class_id = $1
		 ORDER BY user_id, minute_index`, classID)
	if err != nil {
		return nil, fmt.Errorf("querying emom marks: %w", err)
	}
	defer rows.Close()

	var result []live.EmomMark
	for rows.Next() {
		var m live.EmomMark
		if err := rows.Scan(&m.ClassID, &m.UserID, &m.MinuteIndex, &m.Finished, &m.FinishSeconds, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning emom mark: %w", err)
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

// GetScaling returns a member's RX/SC flag, empty when unset.
func (db *DB) GetScaling(ctx context.Context, classID, userID int64) (string, error) {
	var scaling string
	err := db.Pool.QueryRow(ctx,
		`SELECT COALESCE(
		   (SELECT scaling FROM live_scaling WHERE class_id = $1 AND user_id = $2), '')`,
		classID, userID).Scan(&scaling)
	if err != nil {
		return "", fmt.Errorf("querying scaling: %w", err)
	}
	return scaling, nil
}

// PutScaling upserts a member's RX/SC flag.
func (db *DB) PutScaling(ctx context.Context, classID, userID int64, scaling string) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO live_scaling (class_id, user_id, scaling)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (class_id, user_id) DO UPDATE
		   SET scaling = EXCLUDED.scaling, updated_at = NOW()`,
		classID, userID, scaling)
	if err != nil {
		return fmt.Errorf("upserting scaling: %w", err)
	}
	return nil
}

// ListScaling returns the scaling flags for a class keyed by user.
func (db *DB) ListScaling(ctx context.Context, classID int64) (map[int64]string, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT user_id, scaling FROM live_scaling WHERE class_id = $1`, classID)
	if err != nil {
		return nil, fmt.Errorf("querying scaling: %w", err)
	}
	defer rows.Close()

	result := map[int64]string{}
	for rows.Next() {
		var uid int64
		var scaling string
		if err := rows.Scan(&uid, &scaling); err != nil {
			return nil, fmt.Errorf("scanning scaling: %w", err)
		}
		result[uid] = scaling
	}
	return result, rows.Err()
}
