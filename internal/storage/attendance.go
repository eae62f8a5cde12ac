package storage

import (
	"context"
	"fmt"

	"github.com/wodhq/wodhq/internal/live"
)

// UpsertFinalScore writes a participant's final attendance score.
func (db *DB) UpsertFinalScore(ctx context.Context, classID, userID int64, score int) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO class_attendance (class_id, member_id, score)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (class_id, member_id) DO UPDATE
		   SET score = EXCLUDED.score, marked_at = NOW()`,
		classID, userID, score)
	if err != nil {
		return fmt.Errorf("upserting final score: %w", err)
	}
	return nil
}

// ListFinalScores returns the persisted attendance scores for a class,
// best first, with each member's scaling flag attached.
func (db *DB) ListFinalScores(ctx context.Context, classID int64) ([]live.FinalScore, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT ca.class_id, ca.member_id, ca.score,
		        COALESCE(ls.scaling, 'RX'), ca.marked_at
		 FROM class_attendance ca
		 LEFT JOIN live_scaling ls
		   ON ls.class_id = ca.class_id AND ls.user_id = ca.member_id
		 WHERE ca.class_id = $1
		 ORDER BY ca.score DESC, ca.member_id`, classID)
	if err != nil {
		return nil, fmt.Errorf("querying final scores: %w", err)
	}
	defer rows.Close()

	var result []live.FinalScore
	for rows.Next() {
		var fs live.FinalScore
		if err := rows.Scan(&fs.ClassID, &fs.UserID, &fs.Score, &fs.Scaling, &fs.SavedAt); err != nil {
			return nil, fmt.Errorf("scanning final score: %w", err)
		}
		result = append(result, fs)
	}
	return result, rows.Err()
}
