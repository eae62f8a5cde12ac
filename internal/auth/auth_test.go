package auth

import (
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-0123456789"

func mintToken(t *testing.T, secret string, userID int64, roles []string, ttl time.Duration) string {
	t.Helper()
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	signed, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestVerifyToken(t *testing.T) {
	svc := NewService(nil, testSecret, time.Hour)

	token := mintToken(t, testSecret, 42, []string{"coach", "member"}, time.Hour)
	id, err := svc.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id.UserID)
	assert.Equal(t, []string{"coach", "member"}, id.Roles)
}

func TestVerifyTokenWrongSecret(t *testing.T) {
	svc := NewService(nil, testSecret, time.Hour)

	token := mintToken(t, "some-other-secret", 42, []string{"member"}, time.Hour)
	_, err := svc.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyTokenExpired(t *testing.T) {
	svc := NewService(nil, testSecret, time.Hour)

	token := mintToken(t, testSecret, 42, []string{"member"}, -time.Minute)
	_, err := svc.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyTokenGarbage(t *testing.T) {
	svc := NewService(nil, testSecret, time.Hour)

	for _, tok := range []string{"", "not-a-token", "a.b.c"} {
		_, err := svc.VerifyToken(tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	}
}

func TestVerifyTokenBadSubject(t *testing.T) {
	svc := NewService(nil, testSecret, time.Hour)

	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Roles: []string{"member"},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "not-a-number",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	})
	signed, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = svc.VerifyToken(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestHasRole(t *testing.T) {
	id := Identity{UserID: 1, Roles: []string{"member"}}
	assert.True(t, id.HasRole("member"))
	assert.False(t, id.HasRole("coach"))
	assert.False(t, Identity{}.HasRole("member"))
}
