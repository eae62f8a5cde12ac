package server

import (
	"net/http"

	"github.com/wodhq/wodhq/internal/live"
)

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	classID, ok := classIDParam(w, r)
	if !ok {
		return
	}
	session, err := s.engine.Start(r.Context(), classID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	classID, ok := classIDParam(w, r)
	if !ok {
		return
	}
	if err := s.engine.Stop(r.Context(), classID); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	classID, ok := classIDParam(w, r)
	if !ok {
		return
	}
	if err := s.engine.Pause(r.Context(), classID); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	classID, ok := classIDParam(w, r)
	if !ok {
		return
	}
	if err := s.engine.Resume(r.Context(), classID); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleGetCoachNote(w http.ResponseWriter, r *http.Request) {
	classID, ok := classIDParam(w, r)
	if !ok {
		return
	}
	note, err := s.engine.CoachNote(r.Context(), classID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"note": note})
}

type coachNoteRequest struct {
	Note string `json:"note"`
}

func (s *Server) handleSetCoachNote(w http.ResponseWriter, r *http.Request) {
	classID, ok := classIDParam(w, r)
	if !ok {
		return
	}
	var req coachNoteRequest
	if !decode(w, r, &req) {
		return
	}
	id, _ := identityFrom(r)
	if err := s.engine.SetCoachNote(r.Context(), classID, id.UserID, req.Note); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type setFinishRequest struct {
	UserID        int64 `json:"user_id"`
	FinishSeconds *int  `json:"finish_seconds"`
}

func (s *Server) handleCoachSetForTimeFinish(w http.ResponseWriter, r *http.Request) {
	classID, ok := classIDParam(w, r)
	if !ok {
		return
	}
	var req setFinishRequest
	if !decode(w, r, &req) {
		return
	}
	id, _ := identityFrom(r)
	if err := s.engine.CoachSetForTimeFinish(r.Context(), classID, id.UserID, req.UserID, req.FinishSeconds); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type setTotalRequest struct {
	UserID    int64 `json:"user_id"`
	TotalReps int   `json:"total_reps"`
}

func (s *Server) handleCoachSetAmrapTotal(w http.ResponseWriter, r *http.Request) {
	classID, ok := classIDParam(w, r)
	if !ok {
		return
	}
	var req setTotalRequest
	if !decode(w, r, &req) {
		return
	}
	id, _ := identityFrom(r)
	if err := s.engine.CoachSetAmrapTotal(r.Context(), classID, id.UserID, req.UserID, req.TotalReps); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type coachIntervalScoreRequest struct {
	UserID    int64 `json:"user_id"`
	StepIndex int   `json:"step_index"`
	Reps      int   `json:"reps"`
}

func (s *Server) handleCoachPostIntervalScore(w http.ResponseWriter, r *http.Request) {
	classID, ok := classIDParam(w, r)
	if !ok {
		return
	}
	var req coachIntervalScoreRequest
	if !decode(w, r, &req) {
		return
	}
	id, _ := identityFrom(r)
	if err := s.engine.CoachPostIntervalScore(r.Context(), classID, id.UserID, req.UserID, req.StepIndex, req.Reps); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type coachEmomMarkRequest struct {
	UserID        int64 `json:"user_id"`
	MinuteIndex   int   `json:"minute_index"`
	Finished      bool  `json:"finished"`
	FinishSeconds *int  `json:"finish_seconds"`
}

func (s *Server) handleCoachPostEmomMark(w http.ResponseWriter, r *http.Request) {
	classID, ok := classIDParam(w, r)
	if !ok {
		return
	}
	var req coachEmomMarkRequest
	if !decode(w, r, &req) {
		return
	}
	id, _ := identityFrom(r)
	if err := s.engine.CoachPostEmomMark(r.Context(), classID, id.UserID, req.UserID, req.MinuteIndex, req.Finished, req.FinishSeconds); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type coachScoreRequest struct {
	UserID int64 `json:"user_id"`
	Score  int   `json:"score"`
}

func (s *Server) handleCoachSetFinalScore(w http.ResponseWriter, r *http.Request) {
	classID, ok := classIDParam(w, r)
	if !ok {
		return
	}
	var req coachScoreRequest
	if !decode(w, r, &req) {
		return
	}
	id, _ := identityFrom(r)
	if err := s.engine.CoachSetFinalScore(r.Context(), classID, id.UserID, req.UserID, req.Score); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type coachScoresRequest struct {
	Scores []live.UserScore `json:"scores"`
}

func (s *Server) handleCoachSubmitScores(w http.ResponseWriter, r *http.Request) {
	classID, ok := classIDParam(w, r)
	if !ok {
		return
	}
	var req coachScoresRequest
	if !decode(w, r, &req) {
		return
	}
	id, _ := identityFrom(r)
	saved, err := s.engine.SubmitCoachScores(r.Context(), classID, id.UserID, req.Scores)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"saved": saved})
}
