package election

import (
	"net/http"

	"github.com/CampusElect/CE-Backend/internal/auth"
	"github.com/CampusElect/CE-Backend/internal/db"
	"github.com/CampusElect/CE-Backend/internal/middleware"
	"github.com/go-chi/chi/v5"
)

func SetupRoutes() http.Handler {
	r := chi.NewRouter()
	sessionFetcher := auth.SessionInfo{}
	h := NewHandler(NewService(db.DB))

	// Per voter: 30 votes/minute, burst of 10.
	voteThrottle := middleware.NewThrottle(30, 10)

	// Public routes - ballots and results are readable without a session
	r.Get("/positions", h.ListPositions)
	r.Get("/positions/{position_id}/candidates", h.ListCandidates)
	r.Get("/positions/{position_id}/results", h.PositionResults)
	r.Get("/positions/{position_id}/winner", h.PositionWinner)
	r.Get("/results", h.AllResults)

	// Voter routes - require authentication
	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(sessionFetcher))

		r.Get("/votes/mine", h.MyVotes)

		r.Group(func(r chi.Router) {
			r.Use(voteThrottle.Middleware)
			r.Post("/votes", h.CastVote)
		})
	})

	// Admin routes - position and candidate management
	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(sessionFetcher))
		r.Use(middleware.AdminMiddleware(sessionFetcher))

		r.Post("/positions", h.CreatePosition)
		r.Put("/positions/{position_id}", h.UpdatePosition)
		r.Delete("/positions/{position_id}", h.DeletePosition)

		r.Post("/candidates", h.CreateCandidate)
		r.Put("/candidates/{candidate_id}", h.UpdateCandidate)
		r.Delete("/candidates/{candidate_id}", h.DeleteCandidate)
	})

	return r
}
