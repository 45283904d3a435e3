// Storyloom Recommender - Personalized Story Recommendations
// Copyright 2026 Storyloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storyloom/recommender

// Package strategy implements the four scoring strategies behind one
// interface: content similarity, peer similarity, topical affinity and
// wildcard. Strategies never fail; scarce data degrades through
// progressively relaxed candidate pools instead.
package strategy

import (
	"math"
	"sort"

	"github.com/storyloom/recommender/internal/catalogue"
	"github.com/storyloom/recommender/internal/profile"
)

// Strategy ranks up to n story IDs for the target user, best first.
// exclude is a soft preference: avoid those IDs, but a strategy's
// last-resort relaxation may return them rather than coming up short.
type Strategy interface {
	Name() string
	Recommend(target profile.Profile, snap *catalogue.Snapshot, all []profile.Profile, n int, exclude map[string]struct{}) []string
}

// cosine returns the cosine similarity of two vectors, defined as 0 when
// either vector is zero.
func cosine(a, b []float64) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// isZero reports whether every component of the vector is zero.
func isZero(vec []float64) bool {
	for _, v := range vec {
		if v != 0 {
			return false
		}
	}
	return true
}

func excluded(exclude map[string]struct{}, id string) bool {
	_, ok := exclude[id]
	return ok
}

// rankByScore sorts stories by descending score, keeping catalogue order
// among ties, and returns the top n IDs.
func rankByScore(pool []catalogue.Story, score func(catalogue.Story) float64, n int) []string {
	type scored struct {
		story catalogue.Story
		score float64
	}
	ranked := make([]scored, 0, len(pool))
	for _, story := range pool {
		ranked = append(ranked, scored{story: story, score: score(story)})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	if n > len(ranked) {
		n = len(ranked)
	}
	out := make([]string, 0, n)
	for _, r := range ranked[:n] {
		out = append(out, r.story.ID)
	}
	return out
}
