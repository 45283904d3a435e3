// Storyloom Recommender - Personalized Story Recommendations
// Copyright 2026 Storyloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storyloom/recommender

// Package engine composes the four scoring strategies into one
// recommendation pass: fixed slot allocation, deduplication via an
// accumulating exclusion set, shortfall fallbacks, and a final shuffle.
package engine

import (
	"errors"
	"math/rand"
	"sync"

	"github.com/storyloom/recommender/internal/catalogue"
	"github.com/storyloom/recommender/internal/metrics"
	"github.com/storyloom/recommender/internal/profile"
	"github.com/storyloom/recommender/internal/strategy"
)

// ResultSize is the number of story IDs every successful recommendation
// returns for a non-empty catalogue.
const ResultSize = 6

// ErrEmptyUserID is returned for a recommendation request without a user
// ID. An unknown user ID is valid and gets an empty profile.
var ErrEmptyUserID = errors.New("user ID must not be empty")

// ProfileSource provides the point-in-time profile copies one pass reads.
type ProfileSource interface {
	GetOrCreate(userID string) profile.Profile
	AllProfiles() []profile.Profile
}

// SnapshotSource provides the catalogue view for one pass.
type SnapshotSource interface {
	Snapshot() *catalogue.Snapshot
}

// slot binds one strategy to its share of the result.
type slot struct {
	strategy strategy.Strategy
	n        int
}

// Engine is safe for concurrent use; each pass works on copies.
type Engine struct {
	profiles ProfileSource
	cat      SnapshotSource

	slots     []slot
	fallbacks []strategy.Strategy

	mu  sync.Mutex
	rng *rand.Rand
}

// New creates an engine with the fixed slot table: content similarity 2,
// peer similarity 2, topical affinity 1, wildcard 1. Content and peer
// similarity double as the shortfall fallbacks, in that order.
func New(profiles ProfileSource, cat SnapshotSource, seed int64) *Engine {
	content := strategy.NewContent()
	peers := strategy.NewPeers()

	return &Engine{
		profiles: profiles,
		cat:      cat,
		slots: []slot{
			{strategy: content, n: 2},
			{strategy: peers, n: 2},
			{strategy: strategy.NewTopical(), n: 1},
			{strategy: strategy.NewWildcard(seed), n: 1},
		},
		fallbacks: []strategy.Strategy{content, peers},
		rng:       rand.New(rand.NewSource(seed)),
	}
}

// Recommend returns exactly ResultSize story IDs for the user, shuffled
// so slot origin cannot be read off position. An empty catalogue yields
// an empty list; readiness gating keeps that off the serving path.
func (e *Engine) Recommend(userID string) ([]string, error) {
	if userID == "" {
		return nil, ErrEmptyUserID
	}

	snap := e.cat.Snapshot()
	if snap.Len() == 0 {
		return []string{}, nil
	}

	target := e.profiles.GetOrCreate(userID)
	all := e.profiles.AllProfiles()

	exclude := make(map[string]struct{}, ResultSize)
	picks := make([]string, 0, ResultSize)

	accept := func(ids []string) {
		for _, id := range ids {
			if len(picks) >= ResultSize {
				return
			}
			if _, dup := exclude[id]; dup {
				continue
			}
			picks = append(picks, id)
			exclude[id] = struct{}{}
		}
	}

	for _, s := range e.slots {
		if len(picks) >= ResultSize {
			break
		}
		accept(s.strategy.Recommend(target, snap, all, s.n, exclude))
	}

	for _, fb := range e.fallbacks {
		shortfall := ResultSize - len(picks)
		if shortfall <= 0 {
			break
		}
		metrics.StrategyFallbacks.WithLabelValues(fb.Name()).Inc()
		accept(fb.Recommend(target, snap, all, shortfall, exclude))
	}

	if len(picks) < ResultSize {
		accept(e.randomFill(snap, exclude, ResultSize-len(picks)))
	}

	// Catalogue smaller than the result: pad by repeating IDs in
	// catalogue order. The only case where duplicates are allowed.
	stories := snap.Stories()
	for i := 0; len(picks) < ResultSize; i++ {
		picks = append(picks, stories[i%len(stories)].ID)
	}

	e.shuffle(picks)
	return picks, nil
}

// randomFill draws up to n distinct non-excluded story IDs uniformly.
func (e *Engine) randomFill(snap *catalogue.Snapshot, exclude map[string]struct{}, n int) []string {
	candidates := make([]string, 0, snap.Len())
	for _, s := range snap.Stories() {
		if _, skip := exclude[s.ID]; !skip {
			candidates = append(candidates, s.ID)
		}
	}
	if n > len(candidates) {
		n = len(candidates)
	}

	e.mu.Lock()
	perm := e.rng.Perm(len(candidates))
	e.mu.Unlock()

	out := make([]string, 0, n)
	for _, i := range perm[:n] {
		out = append(out, candidates[i])
	}
	return out
}

func (e *Engine) shuffle(ids []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rng.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})
}
