// Package auth issues and verifies the bearer tokens the API runs on.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/wodhq/wodhq/internal/storage"
)

// Identity is the authenticated caller, as carried in the token claims.
type Identity struct {
	UserID int64    `json:"user_id"`
	Roles  []string `json:"roles"`
}

// HasRole reports whether the identity carries the given role.
func (id Identity) HasRole(role string) bool {
	for _, r := range id.Roles {
		if r == role {
			return true
		}
	}
	return false
}

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrInvalidRole        = errors.New("role must be coach or member")
)

// Service handles registration, login and token verification.
type Service struct {
	db       *storage.DB
	secret   []byte
	tokenTTL time.Duration
}

// NewService creates an auth service signing tokens with secret.
func NewService(db *storage.DB, secret string, tokenTTL time.Duration) *Service {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &Service{db: db, secret: []byte(secret), tokenTTL: tokenTTL}
}

type claims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// Result is a successful register/login response.
type Result struct {
	Token string       `json:"token"`
	User  storage.User `json:"user"`
}

// Register creates an account with a bcrypt-hashed password and returns a
// fresh token.
func (s *Service) Register(ctx context.Context, email, firstName, lastName, password, role string) (*Result, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("email %q: %w", email, ErrInvalidCredentials)
	}
	if len(password) < 8 {
		return nil, ErrWeakPassword
	}
	if role != "coach" && role != "member" {
		return nil, ErrInvalidRole
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	userID, err := s.db.CreateUser(ctx, email, firstName, lastName, string(hash), role)
	if err != nil {
		return nil, err
	}

	user := storage.User{
		UserID:    userID,
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		Roles:     []string{role},
	}
	token, err := s.issueToken(user.UserID, user.Roles)
	if err != nil {
		return nil, err
	}
	return &Result{Token: token, User: user}, nil
}

// Login verifies credentials and returns a fresh token.
func (s *Service) Login(ctx context.Context, email, password string) (*Result, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.db.GetUserByEmail(ctx, email)
	if errors.Is(err, storage.ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.issueToken(user.UserID, user.Roles)
	if err != nil {
		return nil, err
	}
	return &Result{Token: token, User: *user}, nil
}

// TokenFor mints a token for a known user, for seed tooling and tests.
func (s *Service) TokenFor(userID int64, roles []string) (string, error) {
	return s.issueToken(userID, roles)
}

func (s *Service) issueToken(userID int64, roles []string) (string, error) {
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	})
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// VerifyToken parses a bearer token back into an Identity.
func (s *Service) VerifyToken(tokenString string) (Identity, error) {
	var c claims
	tok, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !tok.Valid {
		return Identity{}, ErrInvalidToken
	}

	var userID int64
	if _, err := fmt.Sscanf(c.Subject, "%d", &userID); err != nil || userID <= 0 {
		return Identity{}, ErrInvalidToken
	}
	return Identity{UserID: userID, Roles: c.Roles}, nil
}
