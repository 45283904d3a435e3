// Storyloom Recommender - Personalized Story Recommendations
// Copyright 2026 Storyloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storyloom/recommender

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/storyloom/recommender/internal/config"
	"github.com/storyloom/recommender/internal/middleware"
)

// NewRouter builds the full HTTP routing tree.
func NewRouter(h *Handler, cfg *config.APIConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Metrics endpoint sits outside the versioned API and skips rate
	// limiting so scrapes never compete with client traffic.
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.PrometheusMetrics)
		r.Use(httprate.Limit(
			cfg.RateLimitRequests,
			cfg.RateLimitWindow,
			httprate.WithKeyFuncs(httprate.KeyByIP),
		))

		r.Get("/health/live", h.handleHealthLive)
		r.Get("/health/ready", h.handleHealthReady)

		r.Get("/recommendations/{userID}", h.handleRecommendations)

		r.Route("/events", func(r chi.Router) {
			r.Post("/viewed", h.handleViewedEvent)
			r.Post("/completed", h.handleCompletedEvent)
			r.Post("/scored", h.handleScoredEvent)
			r.Post("/mood", h.handleMoodEvent)
		})
	})

	return r
}
