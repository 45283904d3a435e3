// Storyloom Recommender - Personalized Story Recommendations
// Copyright 2026 Storyloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storyloom/recommender

package strategy

import (
	"sort"

	"github.com/storyloom/recommender/internal/catalogue"
	"github.com/storyloom/recommender/internal/profile"
)

// relevanceTags is how many of the target's strongest tags form the
// overlap-ranking relevance set.
const relevanceTags = 10

// Topical drills into the user's single strongest tag: candidates carry
// that tag and are ranked by how many of the target's top tags they
// share. A user with no tag history gets the catalogue's most frequent
// tag instead.
type Topical struct{}

// NewTopical creates the topical affinity strategy.
func NewTopical() *Topical {
	return &Topical{}
}

func (t *Topical) Name() string {
	return "topical"
}

func (t *Topical) Recommend(target profile.Profile, snap *catalogue.Snapshot, _ []profile.Profile, n int, exclude map[string]struct{}) []string {
	if n <= 0 || snap.Len() == 0 {
		return nil
	}

	selected := topWeightedTag(target.TagWeights)
	if selected == "" {
		selected = snap.TopTag()
	}
	relevance := topRelevanceSet(target.TagWeights)

	pool := topicalPool(target, snap, selected, exclude)
	return rankByScore(pool, func(s catalogue.Story) float64 {
		overlap := 0
		for _, tag := range s.Tags {
			if _, ok := relevance[tag]; ok {
				overlap++
			}
		}
		return float64(overlap)
	}, n)
}

// topWeightedTag returns the tag with the highest weight, ties broken
// lexicographically, or "" for an empty map.
func topWeightedTag(tagWeights map[string]float64) string {
	best := ""
	var bestWeight float64
	for tag, w := range tagWeights {
		if best == "" || w > bestWeight || (w == bestWeight && tag < best) {
			best = tag
			bestWeight = w
		}
	}
	return best
}

// topRelevanceSet returns the target's top weighted tags as a set.
func topRelevanceSet(tagWeights map[string]float64) map[string]struct{} {
	tags := make([]string, 0, len(tagWeights))
	for tag := range tagWeights {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool {
		if tagWeights[tags[i]] != tagWeights[tags[j]] {
			return tagWeights[tags[i]] > tagWeights[tags[j]]
		}
		return tags[i] < tags[j]
	})
	if len(tags) > relevanceTags {
		tags = tags[:relevanceTags]
	}
	out := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		out[tag] = struct{}{}
	}
	return out
}

// topicalPool selects stories carrying the tag, preferring unviewed and
// non-excluded, relaxing the exclusion first, then the unviewed
// constraint, then dropping the tag filter entirely. Each tier relaxes
// only when the previous one is empty; a short pool is never padded
// with stories a stricter tier filtered out.
func topicalPool(target profile.Profile, snap *catalogue.Snapshot, tag string, exclude map[string]struct{}) []catalogue.Story {
	stories := snap.Stories()

	keep := func(s catalogue.Story, needUnviewed, needNotExcluded bool) bool {
		if !hasTag(s, tag) {
			return false
		}
		if needUnviewed && target.HasViewed(s.ID) {
			return false
		}
		if needNotExcluded && excluded(exclude, s.ID) {
			return false
		}
		return true
	}

	pool := make([]catalogue.Story, 0, len(stories))
	for _, s := range stories {
		if keep(s, true, true) {
			pool = append(pool, s)
		}
	}
	if len(pool) > 0 {
		return pool
	}

	for _, s := range stories {
		if keep(s, true, false) {
			pool = append(pool, s)
		}
	}
	if len(pool) > 0 {
		return pool
	}

	for _, s := range stories {
		if keep(s, false, false) {
			pool = append(pool, s)
		}
	}
	if len(pool) > 0 {
		return pool
	}

	return stories
}

func hasTag(s catalogue.Story, tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
