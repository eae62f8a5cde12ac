package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/wodhq/wodhq/internal/live"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps engine errors onto HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, live.ErrNotFound), errors.Is(err, live.ErrClassNotFound):
		status = http.StatusNotFound
	case errors.Is(err, live.ErrInvalidInput),
		errors.Is(err, live.ErrWorkoutNotAssigned),
		errors.Is(err, live.ErrNotBooked):
		status = http.StatusBadRequest
	case errors.Is(err, live.ErrInvalidState), errors.Is(err, live.ErrTimeUp):
		status = http.StatusConflict
	case errors.Is(err, live.ErrForbidden):
		status = http.StatusForbidden
	}
	if status == http.StatusInternalServerError {
		s.log.Error("handler error", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func idParam(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

func classIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := idParam(r, "classID")
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid class id"})
		return 0, false
	}
	return id, true
}

// decode reads a JSON request body into v.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return false
	}
	return true
}

// namedEntry decorates a leaderboard entry with the user's display name.
type namedEntry struct {
	live.LeaderboardEntry
	Name string `json:"name,omitempty"`
}

func (s *Server) withNames(r *http.Request, entries []live.LeaderboardEntry) []namedEntry {
	ids := make([]int64, len(entries))
	for i, e := range entries {
		ids[i] = e.UserID
	}
	names, err := s.db.UserNames(r.Context(), ids)
	if err != nil {
		s.log.Warn("resolving display names", "error", err)
		names = nil
	}
	out := make([]namedEntry, len(entries))
	for i, e := range entries {
		out[i] = namedEntry{LeaderboardEntry: e, Name: names[e.UserID]}
	}
	return out
}
