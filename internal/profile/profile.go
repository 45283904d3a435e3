// Storyloom Recommender - Personalized Story Recommendations
// Copyright 2026 Storyloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storyloom/recommender

package profile

import "time"

// MoodEntry is one recorded mood reading.
type MoodEntry struct {
	Timestamp time.Time
	Score     int
}

// Profile is one user's preference model. The event log is the durable
// source of truth; every other field is derived from it and reproducible
// by replay. Profiles are owned by the Store and handed out only as deep
// copies.
type Profile struct {
	UserID string

	// Events is the append-only interaction log.
	Events []Event

	Viewed    map[string]struct{}
	Completed map[string]struct{}

	// Scores holds the latest score per story. Weight deltas from earlier
	// scores are not reversed when a later score overwrites the entry.
	Scores map[string]int

	Moods []MoodEntry

	ThemeWeights map[string]float64
	TagWeights   map[string]float64
}

func newProfile(userID string) *Profile {
	return &Profile{
		UserID:       userID,
		Viewed:       make(map[string]struct{}),
		Completed:    make(map[string]struct{}),
		Scores:       make(map[string]int),
		ThemeWeights: make(map[string]float64),
		TagWeights:   make(map[string]float64),
	}
}

// Clone returns an independent deep copy.
func (p *Profile) Clone() Profile {
	out := Profile{
		UserID:       p.UserID,
		Events:       make([]Event, len(p.Events)),
		Viewed:       make(map[string]struct{}, len(p.Viewed)),
		Completed:    make(map[string]struct{}, len(p.Completed)),
		Scores:       make(map[string]int, len(p.Scores)),
		Moods:        make([]MoodEntry, len(p.Moods)),
		ThemeWeights: make(map[string]float64, len(p.ThemeWeights)),
		TagWeights:   make(map[string]float64, len(p.TagWeights)),
	}
	copy(out.Events, p.Events)
	copy(out.Moods, p.Moods)
	for id := range p.Viewed {
		out.Viewed[id] = struct{}{}
	}
	for id := range p.Completed {
		out.Completed[id] = struct{}{}
	}
	for id, score := range p.Scores {
		out.Scores[id] = score
	}
	for theme, w := range p.ThemeWeights {
		out.ThemeWeights[theme] = w
	}
	for tag, w := range p.TagWeights {
		out.TagWeights[tag] = w
	}
	return out
}

// HasViewed reports whether the user has viewed the story.
func (p *Profile) HasViewed(storyID string) bool {
	_, ok := p.Viewed[storyID]
	return ok
}

// HasCompleted reports whether the user has completed the story.
func (p *Profile) HasCompleted(storyID string) bool {
	_, ok := p.Completed[storyID]
	return ok
}
