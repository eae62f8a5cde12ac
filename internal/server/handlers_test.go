package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/wodhq/wodhq/internal/auth"
	"github.com/wodhq/wodhq/internal/live"
	"github.com/wodhq/wodhq/internal/storage"
)

// stubStore is an empty Store: every lookup misses.
type stubStore struct{}

func (stubStore) GetSession(context.Context, int64) (*live.Session, error) {
	return nil, live.ErrNotFound
}
func (stubStore) PutSession(context.Context, *live.Session) error { return nil }
func (stubStore) UpdateSession(context.Context, int64, func(*live.Session) error) (*live.Session, error) {
	return nil, live.ErrNotFound
}
func (stubStore) EnsureProgress(context.Context, int64, int64) error { return nil }
func (stubStore) SeedProgress(context.Context, int64, []int64) error { return nil }
func (stubStore) ResetProgress(context.Context, int64) error { return nil }
func (stubStore) GetProgress(context.Context, int64, int64) (live.Progress, error) {
	return live.Progress{}, live.ErrNotFound
}
func (stubStore) ListProgress(context.Context, int64) ([]live.Progress, error) { return nil, nil }
func (stubStore) UpdateProgress(context.Context, int64, int64, func(*live.Progress) error) (live.Progress, error) {
	return live.Progress{}, live.ErrNotFound
}
func (stubStore) PutIntervalScore(context.Context, live.IntervalScore) error { return nil }
func (stubStore) ListIntervalScores(context.Context, int64) ([]live.IntervalScore, error) {
	return nil, nil
}
func (stubStore) PutEmomMark(context.Context, live.EmomMark) error { return nil }
func (stubStore) ListEmomMarks(context.Context, int64) ([]live.EmomMark, error) { return nil, nil }
func (stubStore) GetScaling(context.Context, int64, int64) (string, error) { return "", nil }
func (stubStore) PutScaling(context.Context, int64, int64, string) error { return nil }
func (stubStore) ListScaling(context.Context, int64) (map[int64]string, error) {
	return nil, nil
}
func (stubStore) SetCoachNote(context.Context, int64, string) error { return live.ErrNotFound }
func (stubStore) UpsertFinalScore(context.Context, int64, int64, int) error { return nil }
func (stubStore) ListFinalScores(context.Context, int64) ([]live.FinalScore, error) {
	return nil, nil
}

// stubDir knows no classes.
type stubDir struct{}

func (stubDir) ClassMeta(context.Context, int64) (live.ClassMeta, error) {
	return live.ClassMeta{}, live.ErrClassNotFound
}
func (stubDir) WorkoutFacts(context.Context, int64) (live.WorkoutFacts, error) {
	return live.WorkoutFacts{}, live.ErrNotFound
}
func (stubDir) BookedUserIDs(context.Context, int64) ([]int64, error) { return nil, nil }
func (stubDir) IsBooked(context.Context, int64, int64) (bool, error) { return false, nil }
func (stubDir) LiveClassIDForCoach(context.Context, int64) (int64, error) { return 0, nil }
func (stubDir) LiveClassIDForMember(context.Context, int64) (int64, error) { return 0, nil }

func newTestServer(t *testing.T) (*Server, *auth.Service) {
	t.Helper()
	log := slog.New(slog.DiscardHandler)
	svc := auth.NewService(nil, "handlers-test-secret", time.Hour)
	engine := live.NewEngine(stubStore{}, stubDir{}, log)
	return New(&storage.DB{}, engine, svc, log), svc
}

func bearerFor(t *testing.T, svc *auth.Service, userID int64, roles []string) string {
	t.Helper()
	token, err := svc.TokenFor(userID, roles)
	if err != nil {
		t.Fatalf("minting token: %v", err)
	}
	return "Bearer " + token
}

func doRequest(t *testing.T, srv *Server, method, path, authz, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

// TestRoutesRequireAuth verifies that API routes reject anonymous requests.
func TestRoutesRequireAuth(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{
		"/api/v1/live/class",
		"/api/v1/live/5/session",
		"/api/v1/live/5/leaderboard",
	} {
		rec := doRequest(t, srv, http.MethodGet, path, "", "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("GET %s status = %d, want 401", path, rec.Code)
		}
	}
}

// TestCoachRoutesRejectMembers verifies the coach role gate on lifecycle routes.
func TestCoachRoutesRejectMembers(t *testing.T) {
	srv, svc := newTestServer(t)
	member := bearerFor(t, svc, 10, []string{"member"})

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/coach/live/5/start", member, "")
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

// TestSessionNotFoundMapsTo404 verifies the sentinel-to-status mapping end
// to end through the router.
func TestSessionNotFoundMapsTo404(t *testing.T) {
	srv, svc := newTestServer(t)
	member := bearerFor(t, svc, 10, []string{"member"})

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/live/5/session", member, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body["error"] == "" {
		t.Error("expected an error message in the body")
	}
}

// TestBadClassIDRejected verifies malformed path params fail fast.
func TestBadClassIDRejected(t *testing.T) {
	srv, svc := newTestServer(t)
	member := bearerFor(t, svc, 10, []string{"member"})

	for _, path := range []string{
		"/api/v1/live/abc/session",
		"/api/v1/live/-3/session",
	} {
		rec := doRequest(t, srv, http.MethodGet, path, member, "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("GET %s status = %d, want 400", path, rec.Code)
		}
	}
}

// TestAdvanceRejectsUnknownDirection verifies request validation before any
// engine work happens.
func TestAdvanceRejectsUnknownDirection(t *testing.T) {
	srv, svc := newTestServer(t)
	member := bearerFor(t, svc, 10, []string{"member"})

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/live/5/advance", member,
		`{"direction":"sideways"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

// TestMeReturnsIdentity verifies the token's claims round-trip through the
// auth middleware.
func TestMeReturnsIdentity(t *testing.T) {
	srv, svc := newTestServer(t)
	coach := bearerFor(t, svc, 7, []string{"coach", "member"})

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/auth/me", coach, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		UserID int64    `json:"user_id"`
		Roles  []string `json:"roles"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.UserID != 7 {
		t.Errorf("user_id = %d, want 7", body.UserID)
	}
	if len(body.Roles) != 2 {
		t.Errorf("roles = %v, want two roles", body.Roles)
	}
}

// TestWriteErrorMapping checks each engine sentinel's HTTP status.
func TestWriteErrorMapping(t *testing.T) {
	srv, _ := newTestServer(t)

	cases := []struct {
		err  error
		want int
	}{
		{live.ErrNotFound, http.StatusNotFound},
		{live.ErrClassNotFound, http.StatusNotFound},
		{live.ErrInvalidInput, http.StatusBadRequest},
		{live.ErrWorkoutNotAssigned, http.StatusBadRequest},
		{live.ErrNotBooked, http.StatusBadRequest},
		{live.ErrInvalidState, http.StatusConflict},
		{live.ErrTimeUp, http.StatusConflict},
		{live.ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("database on fire"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		srv.writeError(rec, fmt.Errorf("wrapped: %w", tc.err))
		if rec.Code != tc.want {
			t.Errorf("writeError(%v) status = %d, want %d", tc.err, rec.Code, tc.want)
		}
	}
}
