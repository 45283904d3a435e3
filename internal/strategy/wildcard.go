// Storyloom Recommender - Personalized Story Recommendations
// Copyright 2026 Storyloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storyloom/recommender

package strategy

import (
	"math/rand"
	"sync"

	"github.com/storyloom/recommender/internal/catalogue"
	"github.com/storyloom/recommender/internal/profile"
)

// Wildcard injects novelty: it samples uniformly from the first non-empty
// tier of a strict candidate chain, preferring stories whose themes the
// user has never touched.
type Wildcard struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewWildcard creates the wildcard strategy with a seeded RNG.
func NewWildcard(seed int64) *Wildcard {
	return &Wildcard{
		rng: rand.New(rand.NewSource(seed)),
	}
}

func (w *Wildcard) Name() string {
	return "wildcard"
}

func (w *Wildcard) Recommend(target profile.Profile, snap *catalogue.Snapshot, _ []profile.Profile, n int, exclude map[string]struct{}) []string {
	if n <= 0 || snap.Len() == 0 {
		return nil
	}

	pool := wildcardPool(target, snap, exclude)
	return w.sample(pool, n)
}

// wildcardPool walks the tier chain and returns the first non-empty tier:
// unexplored+unviewed+non-excluded, then unviewed+non-excluded, then
// unexplored+non-excluded, then non-excluded, then the whole catalogue.
func wildcardPool(target profile.Profile, snap *catalogue.Snapshot, exclude map[string]struct{}) []catalogue.Story {
	stories := snap.Stories()

	tiers := []func(catalogue.Story) bool{
		func(s catalogue.Story) bool {
			return unexplored(target, s) && !target.HasViewed(s.ID) && !excluded(exclude, s.ID)
		},
		func(s catalogue.Story) bool {
			return !target.HasViewed(s.ID) && !excluded(exclude, s.ID)
		},
		func(s catalogue.Story) bool {
			return unexplored(target, s) && !excluded(exclude, s.ID)
		},
		func(s catalogue.Story) bool {
			return !excluded(exclude, s.ID)
		},
	}

	for _, keep := range tiers {
		pool := make([]catalogue.Story, 0, len(stories))
		for _, s := range stories {
			if keep(s) {
				pool = append(pool, s)
			}
		}
		if len(pool) > 0 {
			return pool
		}
	}
	return stories
}

// unexplored reports whether none of the story's themes appear in the
// target's theme-weight keys.
func unexplored(target profile.Profile, s catalogue.Story) bool {
	for _, theme := range s.Themes {
		if _, ok := target.ThemeWeights[theme]; ok {
			return false
		}
	}
	return true
}

// sample draws min(n, len(pool)) stories uniformly without replacement.
func (w *Wildcard) sample(pool []catalogue.Story, n int) []string {
	if n > len(pool) {
		n = len(pool)
	}

	w.mu.Lock()
	perm := w.rng.Perm(len(pool))
	w.mu.Unlock()

	out := make([]string, 0, n)
	for _, i := range perm[:n] {
		out = append(out, pool[i].ID)
	}
	return out
}
