// Storyloom Recommender - Personalized Story Recommendations
// Copyright 2026 Storyloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storyloom/recommender

package catalogue

import (
	"context"
	"fmt"
	"sync"

	"github.com/storyloom/recommender/internal/logging"
	"github.com/storyloom/recommender/internal/metrics"
	"github.com/storyloom/recommender/internal/upstream"
)

// Source fetches catalogue contents. Implemented by the story server
// client and by mocks in tests.
type Source interface {
	FetchCatalogue(ctx context.Context) (*upstream.CataloguePayload, error)
}

// Catalogue caches the story catalogue and refreshes it from a Source.
// Refresh swaps in a new immutable snapshot; a failed refresh keeps the
// last-known-good snapshot so readers are never left without a view.
type Catalogue struct {
	source Source

	mu   sync.RWMutex
	snap *Snapshot
}

// New creates a catalogue backed by the given source. The catalogue is
// empty until the first successful Refresh.
func New(source Source) *Catalogue {
	return &Catalogue{
		source: source,
		snap:   NewSnapshot(nil),
	}
}

// Refresh fetches the catalogue and atomically swaps in a new snapshot.
// On failure the previous snapshot stays in place and the error is
// returned for the caller to log.
func (c *Catalogue) Refresh(ctx context.Context) error {
	payload, err := c.source.FetchCatalogue(ctx)
	if err != nil {
		metrics.RecordCatalogueRefresh(0, err)
		return fmt.Errorf("refresh catalogue: %w", err)
	}

	stories := make([]Story, 0, len(payload.Stories))
	for _, p := range payload.Stories {
		stories = append(stories, Story{
			ID:     p.ID,
			Title:  p.Title,
			Themes: p.Themes,
			Tags:   p.Tags,
		})
	}
	snap := NewSnapshot(stories)

	c.mu.Lock()
	c.snap = snap
	c.mu.Unlock()

	metrics.RecordCatalogueRefresh(snap.Len(), nil)
	logging.Info().
		Int("stories", snap.Len()).
		Int("themes", len(snap.Themes())).
		Int("tags", len(snap.Tags())).
		Msg("catalogue refreshed")
	return nil
}

// Snapshot returns the current point-in-time view. Never nil.
func (c *Catalogue) Snapshot() *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

// Ready reports whether a non-empty catalogue has been loaded.
func (c *Catalogue) Ready() bool {
	return c.Snapshot().Len() > 0
}
