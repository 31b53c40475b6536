/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the admin frontend

ROUTE GROUPS:
  /api/pricing, /api/quotes   Price table and quotes
  /api/colonia/*              Summer camp quotes
  /api/tutors/*               Tutors
  /api/students/*             Students and their activities
  /api/activities/*           Activity catalogue
  /api/periods/{period}/*     Monthly generation and records
  /api/runs                   Generation audit log
  /api/scenarios/*            Demo scenarios

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// DefaultAllowedOrigins are used when NewRouter gets no origins.
var DefaultAllowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins ...string) *chi.Mux {
	if len(allowedOrigins) == 0 {
		allowedOrigins = DefaultAllowedOrigins
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Pricing routes
		r.Get("/pricing", h.GetPricing)
		r.Post("/quotes", h.CreateQuote)
		r.Post("/colonia/quotes", h.CreateColoniaQuote)

		// Collaborator routes
		r.Route("/tutors", func(r chi.Router) {
			r.Get("/", h.ListTutors)
			r.Post("/", h.CreateTutor)
			r.Get("/{id}", h.GetTutor)
		})
		r.Route("/students", func(r chi.Router) {
			r.Post("/", h.CreateStudent)
			r.Post("/{id}/activities", h.EnrollStudent)
		})
		r.Route("/activities", func(r chi.Router) {
			r.Get("/", h.ListActivities)
			r.Post("/", h.CreateActivity)
		})

		// Period routes
		r.Route("/periods/{period}", func(r chi.Router) {
			r.Post("/generate", h.Generate)
			r.Get("/enrollments", h.ListEnrollments)
			r.Get("/totals", h.GetTotals)
		})
		r.Get("/runs", h.ListRuns)

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
