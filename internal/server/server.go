package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/wodhq/wodhq/internal/auth"
	"github.com/wodhq/wodhq/internal/live"
	"github.com/wodhq/wodhq/internal/storage"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	db     *storage.DB
	engine *live.Engine
	auth   *auth.Service
	log    *slog.Logger
	router chi.Router
}

// New creates a new Server with all routes configured.
func New(db *storage.DB, engine *live.Engine, authService *auth.Service, log *slog.Logger) *Server {
	s := &Server{
		db:     db,
		engine: engine,
		auth:   authService,
		log:    log,
		router: chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)

		// Everything below requires a bearer token.
		r.Group(func(r chi.Router) {
			r.Use(BearerAuth(s.auth))

			r.Get("/auth/me", s.handleMe)

			// Discovery and reads
			r.Get("/live/class", s.handleLiveClass)
			r.Get("/live/{classID}/session", s.handleGetSession)
			r.Get("/workout/{workoutID}/steps", s.handleWorkoutSteps)

			// Leaderboards
			r.Get("/leaderboard/{classID}", s.handleFinalLeaderboard)
			r.Get("/live/{classID}/leaderboard", s.handleRealtimeLeaderboard)
			r.Get("/live/{classID}/interval/leaderboard", s.handleIntervalLeaderboard)

			// Member progress and scoring
			r.Get("/live/{classID}/me", s.handleMyProgress)
			r.Post("/live/{classID}/advance", s.handleAdvance)
			r.Post("/live/{classID}/partial", s.handleSubmitPartial)
			r.Post("/live/{classID}/interval/score", s.handlePostIntervalScore)
			r.Post("/live/{classID}/emom/mark", s.handlePostEmomMark)
			r.Post("/live/{classID}/score", s.handleSubmitMemberScore)
			r.Get("/live/{classID}/scaling", s.handleGetScaling)
			r.Post("/live/{classID}/scaling", s.handleSetScaling)

			// Coach surface
			r.Route("/coach/live/{classID}", func(r chi.Router) {
				r.Use(RequireRole("coach"))

				r.Post("/start", s.handleStart)
				r.Post("/stop", s.handleStop)
				r.Post("/pause", s.handlePause)
				r.Post("/resume", s.handleResume)

				r.Get("/note", s.handleGetCoachNote)
				r.Post("/note", s.handleSetCoachNote)

				r.Post("/ft/set-finish", s.handleCoachSetForTimeFinish)
				r.Post("/amrap/set-total", s.handleCoachSetAmrapTotal)
				r.Post("/interval/score", s.handleCoachPostIntervalScore)
				r.Post("/emom/mark", s.handleCoachPostEmomMark)
				r.Post("/score", s.handleCoachSetFinalScore)
				r.Post("/scores", s.handleCoachSubmitScores)
			})
		})
	})
}
