package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// User is an account row. PasswordHash never leaves the auth layer.
type User struct {
	UserID       int64    `json:"user_id"`
	Email        string   `json:"email"`
	FirstName    string   `json:"first_name"`
	LastName     string   `json:"last_name"`
	PasswordHash string   `json:"-"`
	Roles        []string `json:"roles"`
}

// ErrUserNotFound is returned when no account matches.
var ErrUserNotFound = errors.New("user not found")

// ErrEmailTaken is returned when registering an existing email.
var ErrEmailTaken = errors.New("email already registered")

// CreateUser inserts an account with the given role and returns its ID.
func (db *DB) CreateUser(ctx context.Context, email, firstName, lastName, passwordHash, role string) (int64, error) {
	var id int64
	err := db.withTx(ctx, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists); err != nil {
			return fmt.Errorf("checking email: %w", err)
		}
		if exists {
			return ErrEmailTaken
		}

		err := tx.QueryRow(ctx,
			`INSERT INTO users (email, first_name, last_name, password_hash)
			 VALUES ($1, $2, $3, $4)
			 RETURNING user_id`,
			email, firstName, lastName, passwordHash).Scan(&id)
		if err != nil {
			return fmt.Errorf("inserting user: %w", err)
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO user_roles (user_id, role) VALUES ($1, $2)
			 ON CONFLICT DO NOTHING`, id, role); err != nil {
			return fmt.Errorf("inserting role: %w", err)
		}
		return nil
	})
	return id, err
}

// GetUserByEmail loads an account and its roles for login.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := db.Pool.QueryRow(ctx,
		`SELECT user_id, email, first_name, last_name, password_hash
		 FROM users WHERE email = $1`, email).
		Scan(&u.UserID, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}

	roles, err := db.RolesByUserID(ctx, u.UserID)
	if err != nil {
		return nil, err
	}
	u.Roles = roles
	return &u, nil
}

// RolesByUserID lists an account's roles.
func (db *DB) RolesByUserID(ctx context.Context, userID int64) ([]string, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT role FROM user_roles WHERE user_id = $1 ORDER BY role`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying roles: %w", err)
	}
	defer rows.Close()

	var roles []string
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, fmt.Errorf("scanning role: %w", err)
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// UserNames maps user IDs to display names for leaderboard rendering.
func (db *DB) UserNames(ctx context.Context, userIDs []int64) (map[int64]string, error) {
	if len(userIDs) == 0 {
		return map[int64]string{}, nil
	}
	rows, err := db.Pool.Query(ctx,
		`SELECT user_id, first_name || ' ' || last_name
		 FROM users WHERE user_id = ANY($1)`, userIDs)
	if err != nil {
		return nil, fmt.Errorf("querying user names: %w", err)
	}
	defer rows.Close()

	result := map[int64]string{}
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scanning user name: %w", err)
		}
		result[id] = name
	}
	return result, rows.Err()
}
