// Storyloom Recommender - Personalized Story Recommendations
// Copyright 2026 Storyloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storyloom/recommender

package profile

import (
	"time"

	"github.com/storyloom/recommender/internal/upstream"
)

// EventType identifies one of the four interaction event kinds.
type EventType string

const (
	EventViewed    EventType = "viewed"
	EventCompleted EventType = "completed"
	EventScored    EventType = "scored"
	EventMood      EventType = "mood"
)

// Event is one immutable interaction event. StoryID is empty for mood
// events; Score is meaningful only for scored and mood events.
type Event struct {
	Type      EventType
	StoryID   string
	Score     int
	Timestamp time.Time
}

// toPayload converts an event to its durable-log wire form.
func (e Event) toPayload() upstream.EventPayload {
	return upstream.EventPayload{
		Type:      string(e.Type),
		StoryID:   e.StoryID,
		Score:     e.Score,
		Timestamp: e.Timestamp,
	}
}

// eventFromPayload converts a durable-log entry back to an Event. The
// second return is false for unknown event types.
func eventFromPayload(p upstream.EventPayload) (Event, bool) {
	switch EventType(p.Type) {
	case EventViewed, EventCompleted, EventScored, EventMood:
	default:
		return Event{}, false
	}
	return Event{
		Type:      EventType(p.Type),
		StoryID:   p.StoryID,
		Score:     p.Score,
		Timestamp: p.Timestamp,
	}, true
}
