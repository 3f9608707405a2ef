// Package routes builds the HTTP router for the assistant API.
package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lendkraft/bfsi-assistant/app"
	"github.com/lendkraft/bfsi-assistant/handlers"
	"github.com/lendkraft/bfsi-assistant/middleware"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	queryHandler := handlers.NewQueryHandler(deps.Assistant, deps.Logger)

	var dbChecker handlers.DatabaseChecker
	if deps.DB != nil {
		dbChecker = deps.DB
	}
	healthHandler := handlers.NewHealthHandler(deps.Store, dbChecker, deps.Logger)

	// Health check endpoints
	r.Get("/healthz", healthHandler.HandleHealth)
	r.Get("/readyz", healthHandler.HandleReadiness)

	// Prometheus metrics
	if deps.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/categories", queryHandler.HandleCategories)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(deps.Limiter, deps.Logger))
			r.Post("/query", queryHandler.HandleQuery)
		})

		r.Route("/assistant", func(r chi.Router) {
			r.Get("/info", queryHandler.HandleInfo)
			r.Get("/matches", queryHandler.HandleMatches)
		})
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"endpoint not found"}`))
	})

	return r
}
