// Storyloom Recommender - Personalized Story Recommendations
// Copyright 2026 Storyloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storyloom/recommender

// Package profile implements the preference store: per-user preference
// models built incrementally from a typed event stream, with replay from
// and persistence to the external durable log.
package profile

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/storyloom/recommender/internal/catalogue"
	"github.com/storyloom/recommender/internal/logging"
	"github.com/storyloom/recommender/internal/metrics"
	"github.com/storyloom/recommender/internal/upstream"
)

var (
	// ErrEmptyUserID is returned when an event carries no user ID.
	ErrEmptyUserID = errors.New("user ID must not be empty")

	// ErrEmptyStoryID is returned when a story-bound event carries no
	// story ID.
	ErrEmptyStoryID = errors.New("story ID must not be empty")

	// ErrInvalidScore is returned when a scored or mood event carries a
	// score outside [1,5].
	ErrInvalidScore = errors.New("score must be between 1 and 5")
)

// Weight deltas applied per event to every theme and tag the referenced
// story carries. A viewed-then-completed story contributes +3.0 total.
const (
	viewedDelta    = 1.0
	completedDelta = 2.0
)

// scoredDelta maps a 1..5 score to its weight delta: 3 is neutral, 5 is
// +1.0, 1 is -1.0.
func scoredDelta(score int) float64 {
	return float64(score-3) * 0.5
}

// StoryLookup provides the current catalogue view used to resolve event
// story IDs into theme and tag labels.
type StoryLookup interface {
	Snapshot() *catalogue.Snapshot
}

// Log is the durable-log boundary. Implemented by the story server client.
type Log interface {
	LoadUserState(ctx context.Context) (*upstream.StateBatchPayload, error)
	SaveUserState(ctx context.Context, batch *upstream.StateBatchPayload) error
}

// Store is the thread-safe map from user ID to preference profile. One
// mutex guards the profile map and every profile's mutable fields; all
// reads hand out deep copies so callers never observe a concurrent write
// mid-update.
type Store struct {
	lookup StoryLookup
	log    Log

	mu       sync.RWMutex
	profiles map[string]*Profile
}

// NewStore creates an empty store.
func NewStore(lookup StoryLookup, log Log) *Store {
	return &Store{
		lookup:   lookup,
		log:      log,
		profiles: make(map[string]*Profile),
	}
}

// getOrCreate returns the live profile for the user, creating an empty
// one on first reference. Callers must hold s.mu for writing.
func (s *Store) getOrCreate(userID string) *Profile {
	p, ok := s.profiles[userID]
	if !ok {
		p = newProfile(userID)
		s.profiles[userID] = p
		metrics.ProfileCount.Set(float64(len(s.profiles)))
	}
	return p
}

// applyEvent folds one event into a profile's derived state. Shared by
// the Record operations and by replay; it never touches the event log
// itself, so replay does not re-append.
func (s *Store) applyEvent(p *Profile, ev Event) {
	snap := s.lookup.Snapshot()

	switch ev.Type {
	case EventViewed:
		p.Viewed[ev.StoryID] = struct{}{}
		s.addWeights(p, snap, ev.StoryID, viewedDelta)
	case EventCompleted:
		p.Completed[ev.StoryID] = struct{}{}
		s.addWeights(p, snap, ev.StoryID, completedDelta)
	case EventScored:
		p.Scores[ev.StoryID] = ev.Score
		s.addWeights(p, snap, ev.StoryID, scoredDelta(ev.Score))
	case EventMood:
		p.Moods = append(p.Moods, MoodEntry{Timestamp: ev.Timestamp, Score: ev.Score})
	}
}

// addWeights adds delta to every theme and tag weight of the story. An
// unknown story ID contributes nothing.
func (s *Store) addWeights(p *Profile, snap *catalogue.Snapshot, storyID string, delta float64) {
	story, ok := snap.Story(storyID)
	if !ok {
		return
	}
	for _, theme := range story.Themes {
		p.ThemeWeights[theme] += delta
	}
	for _, tag := range story.Tags {
		p.TagWeights[tag] += delta
	}
}

// record validates, appends and applies one event.
func (s *Store) record(userID string, ev Event) error {
	if userID == "" {
		return ErrEmptyUserID
	}
	if ev.Type != EventMood && ev.StoryID == "" {
		return ErrEmptyStoryID
	}
	if (ev.Type == EventScored || ev.Type == EventMood) && (ev.Score < 1 || ev.Score > 5) {
		return fmt.Errorf("%w: got %d", ErrInvalidScore, ev.Score)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.getOrCreate(userID)
	p.Events = append(p.Events, ev)
	s.applyEvent(p, ev)
	return nil
}

// RecordViewed records that the user viewed a story.
func (s *Store) RecordViewed(userID, storyID string, ts time.Time) error {
	return s.record(userID, Event{Type: EventViewed, StoryID: storyID, Timestamp: ts})
}

// RecordCompleted records that the user completed a story.
func (s *Store) RecordCompleted(userID, storyID string, ts time.Time) error {
	return s.record(userID, Event{Type: EventCompleted, StoryID: storyID, Timestamp: ts})
}

// RecordScored records a 1..5 score for a story. Repeated scores on one
// story each contribute their weight delta; only the latest raw score is
// retained in Scores.
func (s *Store) RecordScored(userID, storyID string, score int, ts time.Time) error {
	return s.record(userID, Event{Type: EventScored, StoryID: storyID, Score: score, Timestamp: ts})
}

// RecordMood records a 1..5 mood reading. Moods carry no story and have
// no weight effect.
func (s *Store) RecordMood(userID string, score int, ts time.Time) error {
	return s.record(userID, Event{Type: EventMood, Score: score, Timestamp: ts})
}

// GetOrCreate returns a deep copy of the user's profile, materialising an
// empty one on first reference.
func (s *Store) GetOrCreate(userID string) Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getOrCreate(userID).Clone()
}

// AllProfiles returns deep copies of every profile, sorted by user ID.
func (s *Store) AllProfiles() []Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// Len returns the number of tracked profiles.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.profiles)
}

// LoadAll fetches the full event log from the durable log and rebuilds
// every profile by replay. Existing in-memory state is replaced. A fetch
// failure leaves the store untouched for the caller to log.
func (s *Store) LoadAll(ctx context.Context) error {
	batch, err := s.log.LoadUserState(ctx)
	if err != nil {
		return fmt.Errorf("load user state: %w", err)
	}

	rebuilt := make(map[string]*Profile, len(batch.Users))
	skipped := 0

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range batch.Users {
		if user.UserID == "" {
			skipped++
			continue
		}
		p := newProfile(user.UserID)
		for _, payload := range user.Events {
			ev, ok := eventFromPayload(payload)
			if !ok {
				skipped++
				continue
			}
			p.Events = append(p.Events, ev)
			s.applyEvent(p, ev)
		}
		rebuilt[user.UserID] = p
	}

	s.profiles = rebuilt
	metrics.ProfileCount.Set(float64(len(s.profiles)))

	if skipped > 0 {
		logging.Warn().Int("skipped", skipped).Msg("durable log contained entries that could not be replayed")
	}
	logging.Info().Int("profiles", len(s.profiles)).Msg("profiles rebuilt from durable log")
	return nil
}

// PersistAll serialises every profile's event log and sends it to the
// durable log in one batch. Derived state is not persisted; it is always
// rederivable by replay.
func (s *Store) PersistAll(ctx context.Context) error {
	start := time.Now()

	s.mu.RLock()
	batch := &upstream.StateBatchPayload{
		Users: make([]upstream.UserStatePayload, 0, len(s.profiles)),
	}
	for _, p := range s.profiles {
		user := upstream.UserStatePayload{
			UserID: p.UserID,
			Events: make([]upstream.EventPayload, 0, len(p.Events)),
		}
		for _, ev := range p.Events {
			user.Events = append(user.Events, ev.toPayload())
		}
		batch.Users = append(batch.Users, user)
	}
	s.mu.RUnlock()

	sort.Slice(batch.Users, func(i, j int) bool { return batch.Users[i].UserID < batch.Users[j].UserID })

	err := s.log.SaveUserState(ctx, batch)
	metrics.RecordPersistRun(time.Since(start), err)
	if err != nil {
		return fmt.Errorf("persist user state: %w", err)
	}
	return nil
}
