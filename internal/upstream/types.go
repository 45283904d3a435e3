// Storyloom Recommender - Personalized Story Recommendations
// Copyright 2026 Storyloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storyloom/recommender

package upstream

import "time"

// StoryPayload is one catalogue entry as served by the story server.
type StoryPayload struct {
	ID     string   `json:"id"`
	Title  string   `json:"title"`
	Themes []string `json:"themes"`
	Tags   []string `json:"tags"`
}

// CataloguePayload is the response body of GET /v1/catalogue.
type CataloguePayload struct {
	Stories []StoryPayload `json:"stories"`
}

// EventPayload is one durable-log entry. StoryID is empty for mood events
// and Score is zero for viewed/completed events.
type EventPayload struct {
	Type      string    `json:"type"`
	StoryID   string    `json:"story_id,omitempty"`
	Score     int       `json:"score,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// UserStatePayload is one user's full event log.
type UserStatePayload struct {
	UserID string         `json:"user_id"`
	Events []EventPayload `json:"events"`
}

// StateBatchPayload is the body of GET and PUT /v1/user-state. The whole
// log is exchanged as one batch.
type StateBatchPayload struct {
	Users []UserStatePayload `json:"users"`
}
