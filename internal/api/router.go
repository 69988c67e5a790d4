package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	mw "github.com/talentgrid/talentgrid/internal/api/middleware"
	"github.com/talentgrid/talentgrid/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	RateLimit *mw.RateLimit

	HealthHandler http.HandlerFunc
	StagesHandler http.HandlerFunc
	MatchHandler  http.HandlerFunc

	CreateJob http.HandlerFunc
	ListJobs  http.HandlerFunc
	GetJob    http.HandlerFunc
	CloseJob  http.HandlerFunc

	UpsertTalent http.HandlerFunc
	GetTalent    http.HandlerFunc
	ListTalents  http.HandlerFunc

	CreateApplication     http.HandlerFunc
	GetApplication        http.HandlerFunc
	ListJobApplications   http.HandlerFunc
	TransitionApplication http.HandlerFunc

	GetBoard      http.HandlerFunc
	BoardBegin    http.HandlerFunc
	BoardDragOver http.HandlerFunc
	BoardEnd      http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	// Public health check
	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))

	// Everything else requires a gateway-resolved actor identity
	r.Group(func(r chi.Router) {
		r.Use(mw.RequireActor)
		if deps.RateLimit != nil {
			r.Use(deps.RateLimit.Limit)
		}

		r.Get("/api/v1/stages", orNotImplemented(deps.StagesHandler))
		r.Get("/api/v1/match", orNotImplemented(deps.MatchHandler))

		r.Get("/api/v1/jobs", orNotImplemented(deps.ListJobs))
		r.Get("/api/v1/jobs/{jobID}", orNotImplemented(deps.GetJob))
		r.Get("/api/v1/jobs/{jobID}/applications", orNotImplemented(deps.ListJobApplications))

		r.Post("/api/v1/applications", orNotImplemented(deps.CreateApplication))
		r.Get("/api/v1/applications/{appID}", orNotImplemented(deps.GetApplication))

		r.Put("/api/v1/talents/{userID}", orNotImplemented(deps.UpsertTalent))
		r.Get("/api/v1/talents/{userID}", orNotImplemented(deps.GetTalent))
		r.Get("/api/v1/talents", orNotImplemented(deps.ListTalents))

		// Pipeline mutations are restricted to recruiting staff
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole("admin", "company"))

			r.Post("/api/v1/jobs", orNotImplemented(deps.CreateJob))
			r.Post("/api/v1/jobs/{jobID}/close", orNotImplemented(deps.CloseJob))

			r.Post("/api/v1/applications/{appID}/transition", orNotImplemented(deps.TransitionApplication))

			r.Get("/api/v1/jobs/{jobID}/board", orNotImplemented(deps.GetBoard))
			r.Post("/api/v1/jobs/{jobID}/board/begin-drag", orNotImplemented(deps.BoardBegin))
			r.Post("/api/v1/jobs/{jobID}/board/drag-over", orNotImplemented(deps.BoardDragOver))
			r.Post("/api/v1/jobs/{jobID}/board/end-drag", orNotImplemented(deps.BoardEnd))
		})
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
