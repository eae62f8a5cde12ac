package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/wodhq/wodhq/internal/live"
)

// ClassMeta looks up a class's coach, workout and scheduled duration.
func (db *DB) ClassMeta(ctx context.Context, classID int64) (live.ClassMeta, error) {
	var meta live.ClassMeta
	var workoutID *int64
	err := db.Pool.QueryRow(ctx,
		`SELECT class_id, coach_id, workout_id, COALESCE(duration_minutes, 0)
		 FROM classes WHERE class_id = $1`, classID).
		Scan(&meta.ClassID, &meta.CoachID, &workoutID, &meta.DurationMinutes)
	if errors.Is(err, pgx.ErrNoRows) {
		return live.ClassMeta{}, fmt.Errorf("class %d: %w", classID, live.ErrClassNotFound)
	}
	if err != nil {
		return live.ClassMeta{}, fmt.Errorf("querying class: %w", err)
	}
	if workoutID != nil {
		meta.WorkoutID = *workoutID
	}
	return meta, nil
}

// WorkoutFacts loads everything the step catalog builder needs: the
// workout's type and metadata plus its exercise rows flattened in
// (round, subround, position) order.
func (db *DB) WorkoutFacts(ctx context.Context, workoutID int64) (live.WorkoutFacts, error) {
	var facts live.WorkoutFacts
	var typ string
	var metaJSON []byte
	err := db.Pool.QueryRow(ctx,
		`SELECT COALESCE(type, 'FOR_TIME'), COALESCE(metadata, '{}'::jsonb)
		 FROM workouts WHERE workout_id = $1`, workoutID).Scan(&typ, &metaJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return live.WorkoutFacts{}, fmt.Errorf("workout %d: %w", workoutID, live.ErrNotFound)
	}
	if err != nil {
		return live.WorkoutFacts{}, fmt.Errorf("querying workout: %w", err)
	}
	facts.Type = live.WorkoutType(typ)
	if err := json.Unmarshal(metaJSON, &facts.Metadata); err != nil {
		return live.WorkoutFacts{}, fmt.Errorf("unmarshaling workout metadata: %w", err)
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT r.round_number, sr.subround_number, se.position, e.name,
		        se.quantity_type, se.quantity, et.target_reps
		 FROM rounds r
		 JOIN subrounds sr ON sr.round_id = r.round_id
		 JOIN subround_exercises se ON se.subround_id = sr.subround_id
		 JOIN exercises e ON e.exercise_id = se.exercise_id
		 LEFT JOIN emom_targets et ON et.subround_exercise_id = se.subround_exercise_id
		 WHERE r.workout_id = $1
		 ORDER BY r.round_number ASC, sr.subround_number ASC, se.position ASC`, workoutID)
	if err != nil {
		return live.WorkoutFacts{}, fmt.Errorf("querying workout rows: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var fr live.FlattenRow
		if err := rows.Scan(&fr.RoundNumber, &fr.SubroundNumber, &fr.Position,
			&fr.Name, &fr.QuantityType, &fr.Quantity, &fr.TargetReps); err != nil {
			return live.WorkoutFacts{}, fmt.Errorf("scanning workout row: %w", err)
		}
		facts.Rows = append(facts.Rows, fr)
	}
	return facts, rows.Err()
}

// BookedUserIDs lists the members booked into a class.
func (db *DB) BookedUserIDs(ctx context.Context, classID int64) ([]int64, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT member_id FROM class_bookings WHERE class_id = $1 ORDER BY member_id`, classID)
	if err != nil {
		return nil, fmt.Errorf("querying bookings: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning booking: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// IsBooked reports whether a member is booked into a class.
func (db *DB) IsBooked(ctx context.Context, classID, userID int64) (bool, error) {
	var exists bool
	err := db.Pool.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM class_bookings WHERE class_id = $1 AND member_id = $2)`,
		classID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking booking: %w", err)
	}
	return exists, nil
}

// LiveClassIDForCoach finds a coach's class with a running session, 0 when
// none.
func (db *DB) LiveClassIDForCoach(ctx context.Context, coachID int64) (int64, error) {
	var classID int64
	err := db.Pool.QueryRow(ctx,
		`SELECT c.class_id
		 FROM classes c
		 JOIN class_sessions cs ON cs.class_id = c.class_id
		 WHERE c.coach_id = $1 AND cs.status IN ('live', 'paused')
		 ORDER BY cs.started_at DESC
		 LIMIT 1`, coachID).Scan(&classID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("querying coach live class: %w", err)
	}
	return classID, nil
}

// LiveClassIDForMember finds a class with a running session that the
// member is booked into, 0 when none.
func (db *DB) LiveClassIDForMember(ctx context.Context, memberID int64) (int64, error) {
	var classID int64
	err := db.Pool.QueryRow(ctx,
		`SELECT cb.class_id
		 FROM class_bookings cb
		 JOIN class_sessions cs ON cs.class_id = cb.class_id
		 WHERE cb.member_id = $1 AND cs.status IN ('live', 'paused')
		 ORDER BY cs.started_at DESC
		 LIMIT 1`, memberID).Scan(&classID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("querying member live class: %w", err)
	}
	return classID, nil
}
