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

// maxPeers bounds how many nearest peers contribute to the aggregation.
const maxPeers = 20

// Peers scores stories by what similar users engaged with: each of the
// target's top peers contributes its similarity times an engagement score
// per story the peer has viewed or completed. With no usable peers it
// falls back to global completion counts.
type Peers struct{}

// NewPeers creates the peer similarity strategy.
func NewPeers() *Peers {
	return &Peers{}
}

func (p *Peers) Name() string {
	return "peers"
}

type peer struct {
	profile    profile.Profile
	similarity float64
}

func (p *Peers) Recommend(target profile.Profile, snap *catalogue.Snapshot, all []profile.Profile, n int, exclude map[string]struct{}) []string {
	if n <= 0 || snap.Len() == 0 {
		return nil
	}

	targetVec := snap.WeightVector(target.ThemeWeights, target.TagWeights)
	peers := nearestPeers(target, targetVec, snap, all)
	if isZero(targetVec) || len(peers) == 0 {
		return completionFallback(snap, all, n, exclude)
	}

	scores := make(map[string]float64)
	for _, pr := range peers {
		for storyID := range union(pr.profile.Viewed, pr.profile.Completed) {
			if excluded(exclude, storyID) {
				continue
			}
			scores[storyID] += pr.similarity * engagement(pr.profile, target, storyID)
		}
	}
	if len(scores) == 0 {
		return completionFallback(snap, all, n, exclude)
	}

	pool := make([]catalogue.Story, 0, len(scores))
	for _, s := range snap.Stories() {
		if _, ok := scores[s.ID]; ok {
			pool = append(pool, s)
		}
	}
	return rankByScore(pool, func(s catalogue.Story) float64 { return scores[s.ID] }, n)
}

// nearestPeers returns up to maxPeers other users with positive cosine
// similarity to the target, strongest first.
func nearestPeers(target profile.Profile, targetVec []float64, snap *catalogue.Snapshot, all []profile.Profile) []peer {
	peers := make([]peer, 0, len(all))
	for i := range all {
		if all[i].UserID == target.UserID {
			continue
		}
		sim := cosine(targetVec, snap.WeightVector(all[i].ThemeWeights, all[i].TagWeights))
		if sim > 0 {
			peers = append(peers, peer{profile: all[i], similarity: sim})
		}
	}
	sort.SliceStable(peers, func(i, j int) bool { return peers[i].similarity > peers[j].similarity })
	if len(peers) > maxPeers {
		peers = peers[:maxPeers]
	}
	return peers
}

// engagement scores how strongly a peer engaged with one story, halved
// when the target has already viewed it.
func engagement(pr, target profile.Profile, storyID string) float64 {
	var score float64
	if pr.HasViewed(storyID) {
		score += 0.5
	}
	if pr.HasCompleted(storyID) {
		score += 2.0
	}
	if rating, ok := pr.Scores[storyID]; ok {
		score += float64(rating) / 5.0
	}
	if target.HasViewed(storyID) {
		score /= 2
	}
	return score
}

// completionFallback ranks stories by how many users completed them,
// restricted to non-excluded stories when any exist.
func completionFallback(snap *catalogue.Snapshot, all []profile.Profile, n int, exclude map[string]struct{}) []string {
	counts := make(map[string]int)
	for i := range all {
		for storyID := range all[i].Completed {
			counts[storyID]++
		}
	}

	pool := make([]catalogue.Story, 0, snap.Len())
	for _, s := range snap.Stories() {
		if !excluded(exclude, s.ID) {
			pool = append(pool, s)
		}
	}
	if len(pool) == 0 {
		pool = snap.Stories()
	}

	return rankByScore(pool, func(s catalogue.Story) float64 { return float64(counts[s.ID]) }, n)
}

func union(a, b map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(a)+len(b))
	for id := range a {
		out[id] = struct{}{}
	}
	for id := range b {
		out[id] = struct{}{}
	}
	return out
}
