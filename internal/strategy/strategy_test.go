// Storyloom Recommender - Personalized Story Recommendations
// Copyright 2026 Storyloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storyloom/recommender

package strategy

import (
	"math"
	"testing"

	"github.com/storyloom/recommender/internal/catalogue"
	"github.com/storyloom/recommender/internal/profile"
)

// fourStories: a1/a2 adventure, m1 mystery, d1 drama.
func fourStories() *catalogue.Snapshot {
	return catalogue.NewSnapshot([]catalogue.Story{
		{ID: "a1", Title: "Tides", Themes: []string{"adventure"}, Tags: []string{"ocean"}},
		{ID: "a2", Title: "Peaks", Themes: []string{"adventure"}, Tags: []string{"mountain"}},
		{ID: "m1", Title: "Fog", Themes: []string{"mystery"}, Tags: []string{"night"}},
		{ID: "d1", Title: "Ember", Themes: []string{"drama"}, Tags: []string{"family"}},
	})
}

func emptyProfile(userID string) profile.Profile {
	return profile.Profile{
		UserID:       userID,
		Viewed:       map[string]struct{}{},
		Completed:    map[string]struct{}{},
		Scores:       map[string]int{},
		ThemeWeights: map[string]float64{},
		TagWeights:   map[string]float64{},
	}
}

func setOf(ids ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

func contains(ids []string, id string) bool {
	for _, got := range ids {
		if got == id {
			return true
		}
	}
	return false
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 2}, []float64{1, 2}, 1},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0},
		{"opposite", []float64{1, 0}, []float64{-1, 0}, -1},
		{"zero left", []float64{0, 0}, []float64{1, 1}, 0},
		{"zero right", []float64{1, 1}, []float64{0, 0}, 0},
		{"both zero", []float64{0, 0}, []float64{0, 0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cosine(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("cosine(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestRankByScoreTiesKeepCatalogueOrder(t *testing.T) {
	snap := fourStories()
	got := rankByScore(snap.Stories(), func(catalogue.Story) float64 { return 0 }, 4)
	want := []string{"a1", "a2", "m1", "d1"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("rankByScore() = %v, want %v", got, want)
		}
	}
}
