// Storyloom Recommender - Personalized Story Recommendations
// Copyright 2026 Storyloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storyloom/recommender

package strategy

import (
	"github.com/storyloom/recommender/internal/catalogue"
	"github.com/storyloom/recommender/internal/profile"
)

// Content ranks candidates by cosine similarity between the target's
// theme/tag weight vector and each story's indicator vector. A target
// with no weights at all falls back to ranking by mean score across all
// users who rated each story.
type Content struct{}

// NewContent creates the content similarity strategy.
func NewContent() *Content {
	return &Content{}
}

func (c *Content) Name() string {
	return "content"
}

func (c *Content) Recommend(target profile.Profile, snap *catalogue.Snapshot, all []profile.Profile, n int, exclude map[string]struct{}) []string {
	if n <= 0 || snap.Len() == 0 {
		return nil
	}

	pool := contentPool(target, snap, n, exclude)

	targetVec := snap.WeightVector(target.ThemeWeights, target.TagWeights)
	if isZero(targetVec) {
		means := meanScores(all)
		return rankByScore(pool, func(s catalogue.Story) float64 { return means[s.ID] }, n)
	}

	return rankByScore(pool, func(s catalogue.Story) float64 {
		return cosine(targetVec, snap.StoryVector(s))
	}, n)
}

// contentPool prefers unviewed non-excluded stories, relaxing to
// non-excluded when fewer than n remain. The full catalogue is the
// last resort only when no non-excluded story exists at all: a short
// pool still beats handing back excluded IDs.
func contentPool(target profile.Profile, snap *catalogue.Snapshot, n int, exclude map[string]struct{}) []catalogue.Story {
	stories := snap.Stories()

	pool := make([]catalogue.Story, 0, len(stories))
	for _, s := range stories {
		if !target.HasViewed(s.ID) && !excluded(exclude, s.ID) {
			pool = append(pool, s)
		}
	}
	if len(pool) >= n {
		return pool
	}

	pool = pool[:0]
	for _, s := range stories {
		if !excluded(exclude, s.ID) {
			pool = append(pool, s)
		}
	}
	if len(pool) > 0 {
		return pool
	}

	return stories
}

// meanScores averages the latest scores per story across every profile
// that scored it. Unrated stories are absent and score 0.
func meanScores(all []profile.Profile) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for i := range all {
		for storyID, score := range all[i].Scores {
			sums[storyID] += float64(score)
			counts[storyID]++
		}
	}
	means := make(map[string]float64, len(sums))
	for storyID, sum := range sums {
		means[storyID] = sum / float64(counts[storyID])
	}
	return means
}
