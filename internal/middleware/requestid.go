// Storyloom Recommender - Personalized Story Recommendations
// Copyright 2026 Storyloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storyloom/recommender

// Package middleware provides HTTP middleware shared by all routes.
package middleware

import (
	"net/http"

	"github.com/storyloom/recommender/internal/logging"
)

// RequestID attaches a request ID to every request: reused from the
// X-Request-ID header when an upstream proxy set one, generated
// otherwise. The ID is echoed in the response header and stored in the
// request context for logging.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = logging.GenerateRequestID()
		}

		w.Header().Set("X-Request-ID", requestID)
		ctx := logging.ContextWithRequestID(r.Context(), requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
