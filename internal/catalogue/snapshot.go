// Storyloom Recommender - Personalized Story Recommendations
// Copyright 2026 Storyloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storyloom/recommender

// Package catalogue holds the in-memory story catalogue. The catalogue is
// refreshed periodically from the story server and exposed to the scoring
// pipeline as immutable point-in-time snapshots, so a refresh can never
// change the view of an in-flight recommendation pass.
package catalogue

import "sort"

// Story is one catalogue entry. Stories are replaced wholesale on refresh,
// never mutated in place.
type Story struct {
	ID     string
	Title  string
	Themes []string
	Tags   []string
}

// Snapshot is a frozen point-in-time view of the catalogue together with
// its vocabulary: the sorted list of all distinct theme and tag labels,
// each bound to a fixed vector index. All vectors built from one snapshot
// are index-consistent with each other by construction.
//
// Snapshots are immutable after construction and safe for concurrent use.
type Snapshot struct {
	stories []Story
	byID    map[string]int

	themes     []string
	tags       []string
	themeIndex map[string]int
	tagIndex   map[string]int

	// topTag is the most frequent tag across all stories, ties broken
	// lexicographically. Empty for a tagless catalogue.
	topTag string
}

// NewSnapshot builds a snapshot from stories in catalogue order.
func NewSnapshot(stories []Story) *Snapshot {
	s := &Snapshot{
		stories: make([]Story, len(stories)),
		byID:    make(map[string]int, len(stories)),
	}
	copy(s.stories, stories)

	themeSet := make(map[string]struct{})
	tagCounts := make(map[string]int)
	for i, story := range s.stories {
		s.byID[story.ID] = i
		for _, theme := range story.Themes {
			themeSet[theme] = struct{}{}
		}
		for _, tag := range story.Tags {
			tagCounts[tag]++
		}
	}

	s.themes = make([]string, 0, len(themeSet))
	for theme := range themeSet {
		s.themes = append(s.themes, theme)
	}
	sort.Strings(s.themes)

	s.tags = make([]string, 0, len(tagCounts))
	for tag := range tagCounts {
		s.tags = append(s.tags, tag)
	}
	sort.Strings(s.tags)

	s.themeIndex = make(map[string]int, len(s.themes))
	for i, theme := range s.themes {
		s.themeIndex[theme] = i
	}
	s.tagIndex = make(map[string]int, len(s.tags))
	for i, tag := range s.tags {
		s.tagIndex[tag] = i
	}

	best := -1
	for _, tag := range s.tags { // sorted, so first max wins ties
		if tagCounts[tag] > best {
			best = tagCounts[tag]
			s.topTag = tag
		}
	}

	return s
}

// Stories returns all stories in catalogue order. The returned slice is
// shared; callers must not modify it.
func (s *Snapshot) Stories() []Story {
	return s.stories
}

// Story looks up a story by ID.
func (s *Snapshot) Story(id string) (Story, bool) {
	i, ok := s.byID[id]
	if !ok {
		return Story{}, false
	}
	return s.stories[i], true
}

// Contains reports whether the snapshot holds the given story ID.
func (s *Snapshot) Contains(id string) bool {
	_, ok := s.byID[id]
	return ok
}

// Len returns the number of stories in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.stories)
}

// Themes returns the sorted theme vocabulary. Shared slice, read-only.
func (s *Snapshot) Themes() []string {
	return s.themes
}

// Tags returns the sorted tag vocabulary. Shared slice, read-only.
func (s *Snapshot) Tags() []string {
	return s.tags
}

// Dim returns the dimensionality of vectors built from this snapshot.
func (s *Snapshot) Dim() int {
	return len(s.themes) + len(s.tags)
}

// TopTag returns the most frequent tag across the catalogue, ties broken
// lexicographically, or "" when no story carries tags.
func (s *Snapshot) TopTag() string {
	return s.topTag
}

// WeightVector builds a dense vector from per-theme and per-tag weight
// maps. Labels unknown to this snapshot's vocabulary are dropped.
func (s *Snapshot) WeightVector(themeWeights, tagWeights map[string]float64) []float64 {
	vec := make([]float64, s.Dim())
	for theme, w := range themeWeights {
		if i, ok := s.themeIndex[theme]; ok {
			vec[i] = w
		}
	}
	for tag, w := range tagWeights {
		if i, ok := s.tagIndex[tag]; ok {
			vec[len(s.themes)+i] = w
		}
	}
	return vec
}

// StoryVector builds the indicator vector for one story: 1.0 at every
// theme and tag the story carries, 0 elsewhere.
func (s *Snapshot) StoryVector(story Story) []float64 {
	vec := make([]float64, s.Dim())
	for _, theme := range story.Themes {
		if i, ok := s.themeIndex[theme]; ok {
			vec[i] = 1.0
		}
	}
	for _, tag := range story.Tags {
		if i, ok := s.tagIndex[tag]; ok {
			vec[len(s.themes)+i] = 1.0
		}
	}
	return vec
}
