// Storyloom Recommender - Personalized Story Recommendations
// Copyright 2026 Storyloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storyloom/recommender

// Package metrics provides Prometheus metrics for the recommender service.
//
// Metrics are exposed at the /metrics endpoint in Prometheus text format
// and cover HTTP traffic, recommendation latency, event ingestion,
// catalogue refreshes, persistence runs, and upstream circuit breaker
// state.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.45, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)

	HTTPActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_requests",
			Help: "Current number of in-flight HTTP requests",
		},
	)

	// Recommendation Metrics
	RecommendationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_requests_total",
			Help: "Total number of recommendation requests",
		},
		[]string{"outcome"}, // "ok", "invalid_input", "error"
	)

	RecommendationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommendation_duration_seconds",
			Help:    "End-to-end duration of recommendation assembly in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.45, 1, 2.5},
		},
	)

	StrategyFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_strategy_fallbacks_total",
			Help: "Total number of times a strategy shortfall was covered by a fallback",
		},
		[]string{"strategy"},
	)

	// Event Ingestion Metrics
	EventsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_ingested_total",
			Help: "Total number of user events recorded",
		},
		[]string{"type"}, // "viewed", "completed", "scored", "mood"
	)

	EventsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_rejected_total",
			Help: "Total number of user events rejected by validation",
		},
		[]string{"type"},
	)

	ProfileCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "profiles_tracked",
			Help: "Current number of user profiles held in memory",
		},
	)

	// Catalogue Metrics
	CatalogueRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalogue_refreshes_total",
			Help: "Total number of catalogue refresh attempts",
		},
		[]string{"result"}, // "success", "failure"
	)

	CatalogueStories = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalogue_stories",
			Help: "Number of stories in the current catalogue snapshot",
		},
	)

	CatalogueLastRefresh = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalogue_last_refresh_timestamp",
			Help: "Unix timestamp of the last successful catalogue refresh",
		},
	)

	// Persistence Metrics
	PersistRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "persist_runs_total",
			Help: "Total number of profile persistence runs",
		},
		[]string{"result"}, // "success", "failure"
	)

	PersistDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "persist_duration_seconds",
			Help:    "Duration of profile persistence runs in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Upstream Metrics
	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_request_duration_seconds",
			Help:    "Duration of story server calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // "fetch_catalogue", "load_state", "save_state"
	)

	UpstreamErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_errors_total",
			Help: "Total number of failed story server calls",
		},
		[]string{"operation"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordHTTPRequest records one completed HTTP request.
func RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordRecommendation records the outcome and duration of one
// recommendation request.
func RecordRecommendation(outcome string, duration time.Duration) {
	RecommendationRequests.WithLabelValues(outcome).Inc()
	RecommendationDuration.Observe(duration.Seconds())
}

// RecordEvent records an ingested or rejected user event.
func RecordEvent(eventType string, accepted bool) {
	if accepted {
		EventsIngested.WithLabelValues(eventType).Inc()
	} else {
		EventsRejected.WithLabelValues(eventType).Inc()
	}
}

// RecordCatalogueRefresh records a refresh attempt and, on success, the
// snapshot size and timestamp.
func RecordCatalogueRefresh(storyCount int, err error) {
	if err != nil {
		CatalogueRefreshes.WithLabelValues("failure").Inc()
		return
	}
	CatalogueRefreshes.WithLabelValues("success").Inc()
	CatalogueStories.Set(float64(storyCount))
	CatalogueLastRefresh.Set(float64(time.Now().Unix()))
}

// RecordPersistRun records one persistence run.
func RecordPersistRun(duration time.Duration, err error) {
	PersistDuration.Observe(duration.Seconds())
	if err != nil {
		PersistRuns.WithLabelValues("failure").Inc()
	} else {
		PersistRuns.WithLabelValues("success").Inc()
	}
}

// RecordUpstreamCall records one story server call.
func RecordUpstreamCall(operation string, duration time.Duration, err error) {
	UpstreamRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		UpstreamErrors.WithLabelValues(operation).Inc()
	}
}

// TrackActiveRequest tracks in-flight HTTP requests.
func TrackActiveRequest(inc bool) {
	if inc {
		HTTPActiveRequests.Inc()
	} else {
		HTTPActiveRequests.Dec()
	}
}
