// Storyloom Recommender - Personalized Story Recommendations
// Copyright 2026 Storyloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storyloom/recommender

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/storyloom/recommender/internal/engine"
	"github.com/storyloom/recommender/internal/logging"
	"github.com/storyloom/recommender/internal/metrics"
	"github.com/storyloom/recommender/internal/profile"
)

// Recommender produces a fixed-size recommendation list for a user.
type Recommender interface {
	Recommend(userID string) ([]string, error)
}

// EventStore ingests user events.
type EventStore interface {
	RecordViewed(userID, storyID string, ts time.Time) error
	RecordCompleted(userID, storyID string, ts time.Time) error
	RecordScored(userID, storyID string, score int, ts time.Time) error
	RecordMood(userID string, score int, ts time.Time) error
}

// Readiness reports whether the service can serve recommendations.
type Readiness interface {
	Ready() bool
}

// Handler holds the dependencies of every endpoint.
type Handler struct {
	engine      Recommender
	store       EventStore
	readiness   Readiness
	warnLatency time.Duration
}

// NewHandler creates an API handler.
func NewHandler(eng Recommender, store EventStore, readiness Readiness, warnLatency time.Duration) *Handler {
	return &Handler{
		engine:      eng,
		store:       store,
		readiness:   readiness,
		warnLatency: warnLatency,
	}
}

// handleRecommendations serves GET /api/v1/recommendations/{userID}.
func (h *Handler) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	userID := chi.URLParam(r, "userID")

	start := time.Now()
	ids, err := h.engine.Recommend(userID)
	elapsed := time.Since(start)

	if err != nil {
		if errors.Is(err, engine.ErrEmptyUserID) {
			metrics.RecordRecommendation("rejected", elapsed)
			rw.ValidationError("user ID must not be empty", nil)
			return
		}
		metrics.RecordRecommendation("error", elapsed)
		logging.Error().
			Err(err).
			Str("user_id", userID).
			Msg("recommendation request failed")
		rw.InternalError("failed to compute recommendations")
		return
	}

	metrics.RecordRecommendation("ok", elapsed)
	if h.warnLatency > 0 && elapsed > h.warnLatency {
		logging.Warn().
			Str("user_id", userID).
			Dur("elapsed", elapsed).
			Dur("threshold", h.warnLatency).
			Msg("slow recommendation request")
	}

	rw.Success(RecommendationsResponse{UserID: userID, StoryIDs: ids})
}

// handleViewedEvent serves POST /api/v1/events/viewed.
func (h *Handler) handleViewedEvent(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	var req StoryEventRequest
	if !decodeAndValidate(rw, r, &req) {
		metrics.RecordEvent("viewed", false)
		return
	}
	err := h.store.RecordViewed(req.UserID, req.StoryID, eventTimestamp(req.Timestamp))
	h.finishEvent(rw, "viewed", err)
}

// handleCompletedEvent serves POST /api/v1/events/completed.
func (h *Handler) handleCompletedEvent(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	var req StoryEventRequest
	if !decodeAndValidate(rw, r, &req) {
		metrics.RecordEvent("completed", false)
		return
	}
	err := h.store.RecordCompleted(req.UserID, req.StoryID, eventTimestamp(req.Timestamp))
	h.finishEvent(rw, "completed", err)
}

// handleScoredEvent serves POST /api/v1/events/scored.
func (h *Handler) handleScoredEvent(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	var req ScoredEventRequest
	if !decodeAndValidate(rw, r, &req) {
		metrics.RecordEvent("scored", false)
		return
	}
	err := h.store.RecordScored(req.UserID, req.StoryID, req.Score, eventTimestamp(req.Timestamp))
	h.finishEvent(rw, "scored", err)
}

// handleMoodEvent serves POST /api/v1/events/mood.
func (h *Handler) handleMoodEvent(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	var req MoodEventRequest
	if !decodeAndValidate(rw, r, &req) {
		metrics.RecordEvent("mood", false)
		return
	}
	err := h.store.RecordMood(req.UserID, req.Score, eventTimestamp(req.Timestamp))
	h.finishEvent(rw, "mood", err)
}

// finishEvent maps store errors onto the response envelope.
func (h *Handler) finishEvent(rw *ResponseWriter, eventType string, err error) {
	if err != nil {
		metrics.RecordEvent(eventType, false)
		switch {
		case errors.Is(err, profile.ErrEmptyUserID),
			errors.Is(err, profile.ErrEmptyStoryID),
			errors.Is(err, profile.ErrInvalidScore):
			rw.ValidationError(err.Error(), nil)
		default:
			logging.Error().Err(err).Str("event_type", eventType).Msg("event ingestion failed")
			rw.InternalError("failed to record event")
		}
		return
	}
	metrics.RecordEvent(eventType, true)
	rw.Accepted()
}

// handleHealthLive serves GET /api/v1/health/live.
func (h *Handler) handleHealthLive(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	rw.Success(map[string]string{"status": "alive"})
}

// handleHealthReady serves GET /api/v1/health/ready. The service is
// ready once the catalogue has at least one story.
func (h *Handler) handleHealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if !h.readiness.Ready() {
		rw.ServiceUnavailable("catalogue not yet loaded")
		return
	}
	rw.Success(map[string]string{"status": "ready"})
}
