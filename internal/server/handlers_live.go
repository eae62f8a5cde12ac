package server

import (
	"net/http"

	"github.com/wodhq/wodhq/internal/live"
)

func (s *Server) handleLiveClass(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r)
	ongoing, err := s.engine.LiveClassFor(r.Context(), id.UserID, id.Roles)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ongoing)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	classID, ok := classIDParam(w, r)
	if !ok {
		return
	}
	session, err := s.engine.Session(r.Context(), classID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleWorkoutSteps(w http.ResponseWriter, r *http.Request) {
	workoutID, err := idParam(r, "workoutID")
	if err != nil || workoutID <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid workout id"})
		return
	}
	catalog, err := s.engine.WorkoutSteps(r.Context(), workoutID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"steps":            catalog.Steps,
		"steps_cum_reps":   catalog.CumReps,
		"workout_type":     catalog.WorkoutType,
		"workout_metadata": catalog.Metadata,
	})
}

func (s *Server) handleRealtimeLeaderboard(w http.ResponseWriter, r *http.Request) {
	classID, ok := classIDParam(w, r)
	if !ok {
		return
	}
	entries, err := s.engine.Leaderboard(r.Context(), classID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.withNames(r, entries))
}

func (s *Server) handleIntervalLeaderboard(w http.ResponseWriter, r *http.Request) {
	classID, ok := classIDParam(w, r)
	if !ok {
		return
	}
	entries, err := s.engine.IntervalLeaderboard(r.Context(), classID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.withNames(r, entries))
}

func (s *Server) handleFinalLeaderboard(w http.ResponseWriter, r *http.Request) {
	classID, ok := classIDParam(w, r)
	if !ok {
		return
	}
	scores, err := s.engine.FinalScores(r.Context(), classID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scores)
}

func (s *Server) handleMyProgress(w http.ResponseWriter, r *http.Request) {
	classID, ok := classIDParam(w, r)
	if !ok {
		return
	}
	id, _ := identityFrom(r)
	report, err := s.engine.MyProgress(r.Context(), classID, id.UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type advanceRequest struct {
	Direction string `json:"direction"`
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	classID, ok := classIDParam(w, r)
	if !ok {
		return
	}
	var req advanceRequest
	if !decode(w, r, &req) {
		return
	}
	var dir live.Direction
	switch req.Direction {
	case "next", "":
		dir = live.Next
	case "prev":
		dir = live.Prev
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "direction must be next or prev"})
		return
	}

	id, _ := identityFrom(r)
	result, err := s.engine.Advance(r.Context(), classID, id.UserID, dir)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type partialRequest struct {
	Reps int `json:"reps"`
}

func (s *Server) handleSubmitPartial(w http.ResponseWriter, r *http.Request) {
	classID, ok := classIDParam(w, r)
	if !ok {
		return
	}
	var req partialRequest
	if !decode(w, r, &req) {
		return
	}
	id, _ := identityFrom(r)
	if err := s.engine.SubmitPartial(r.Context(), classID, id.UserID, req.Reps); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type intervalScoreRequest struct {
	StepIndex int `json:"step_index"`
	Reps      int `json:"reps"`
}

func (s *Server) handlePostIntervalScore(w http.ResponseWriter, r *http.Request) {
	classID, ok := classIDParam(w, r)
	if !ok {
		return
	}
	var req intervalScoreRequest
	if !decode(w, r, &req) {
		return
	}
	id, _ := identityFrom(r)
	if err := s.engine.PostIntervalScore(r.Context(), classID, id.UserID, req.StepIndex, req.Reps); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type emomMarkRequest struct {
	MinuteIndex   int  `json:"minute_index"`
	Finished      bool `json:"finished"`
	FinishSeconds *int `json:"finish_seconds"`
}

func (s *Server) handlePostEmomMark(w http.ResponseWriter, r *http.Request) {
	classID, ok := classIDParam(w, r)
	if !ok {
		return
	}
	var req emomMarkRequest
	if !decode(w, r, &req) {
		return
	}
	id, _ := identityFrom(r)
	if err := s.engine.PostEmomMark(r.Context(), classID, id.UserID, req.MinuteIndex, req.Finished, req.FinishSeconds); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type memberScoreRequest struct {
	Score int `json:"score"`
}

func (s *Server) handleSubmitMemberScore(w http.ResponseWriter, r *http.Request) {
	classID, ok := classIDParam(w, r)
	if !ok {
		return
	}
	var req memberScoreRequest
	if !decode(w, r, &req) {
		return
	}
	id, _ := identityFrom(r)
	if err := s.engine.SubmitMemberScore(r.Context(), classID, id.UserID, req.Score); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleGetScaling(w http.ResponseWriter, r *http.Request) {
	classID, ok := classIDParam(w, r)
	if !ok {
		return
	}
	id, _ := identityFrom(r)
	scaling, err := s.engine.Scaling(r.Context(), classID, id.UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"scaling": scaling})
}

type scalingRequest struct {
	Scaling string `json:"scaling"`
}

func (s *Server) handleSetScaling(w http.ResponseWriter, r *http.Request) {
	classID, ok := classIDParam(w, r)
	if !ok {
		return
	}
	var req scalingRequest
	if !decode(w, r, &req) {
		return
	}
	id, _ := identityFrom(r)
	if err := s.engine.SetScaling(r.Context(), classID, id.UserID, req.Scaling); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"scaling": req.Scaling})
}
