// Storyloom Recommender - Personalized Story Recommendations
// Copyright 2026 Storyloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storyloom/recommender

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

// validate is the shared validator instance. Validators are safe for
// concurrent use and cache struct metadata.
var validate = validator.New()

// StoryEventRequest is the body of the viewed and completed endpoints.
type StoryEventRequest struct {
	UserID    string     `json:"user_id"  validate:"required,min=1"`
	StoryID   string     `json:"story_id" validate:"required,min=1"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// ScoredEventRequest is the body of the scored endpoint.
type ScoredEventRequest struct {
	UserID    string     `json:"user_id"  validate:"required,min=1"`
	StoryID   string     `json:"story_id" validate:"required,min=1"`
	Score     int        `json:"score"    validate:"required,min=1,max=5"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// MoodEventRequest is the body of the mood endpoint. Moods carry no
// story ID.
type MoodEventRequest struct {
	UserID    string     `json:"user_id" validate:"required,min=1"`
	Score     int        `json:"score"   validate:"required,min=1,max=5"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// RecommendationsResponse is the payload of the recommendations endpoint.
type RecommendationsResponse struct {
	UserID   string   `json:"user_id"`
	StoryIDs []string `json:"story_ids"`
}

// decodeAndValidate decodes a JSON request body into dst and validates
// it, writing the error response itself on failure.
func decodeAndValidate(rw *ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		rw.BadRequest("request body is not valid JSON")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		fields := make([]string, 0, 4)
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				fields = append(fields, fe.Field()+" failed "+fe.Tag())
			}
		}
		rw.ValidationError("request validation failed", fields)
		return false
	}
	return true
}

// eventTimestamp returns the explicit timestamp or the current UTC time.
func eventTimestamp(ts *time.Time) time.Time {
	if ts != nil {
		return ts.UTC()
	}
	return time.Now().UTC()
}
