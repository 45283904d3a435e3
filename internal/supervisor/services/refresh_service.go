// Storyloom Recommender - Personalized Story Recommendations
// Copyright 2026 Storyloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storyloom/recommender

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Refresher reloads the catalogue from the story server.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// RefreshService periodically refreshes the catalogue snapshot. A
// failed refresh is logged and retried on the next tick; the previous
// snapshot keeps serving in the meantime.
type RefreshService struct {
	catalogue Refresher
	interval  time.Duration
	logger    zerolog.Logger
	name      string
}

// NewRefreshService creates a catalogue refresh loop.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRefreshService(catalogue Refresher, interval time.Duration, logger zerolog.Logger) *RefreshService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &RefreshService{
		catalogue: catalogue,
		interval:  interval,
		logger:    logger.With().Str("service", "catalogue-refresh").Logger(),
		name:      "catalogue-refresh",
	}
}

// Serve implements suture.Service.
func (s *RefreshService) Serve(ctx context.Context) error {
	s.logger.Info().
		Dur("interval", s.interval).
		Msg("catalogue refresh service starting")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("catalogue refresh service shutting down")
			return ctx.Err()

		case <-ticker.C:
			if err := s.catalogue.Refresh(ctx); err != nil {
				s.logger.Warn().Err(err).Msg("catalogue refresh failed, keeping previous snapshot")
			}
		}
	}
}

// String returns the service name for supervisor logging.
func (s *RefreshService) String() string {
	return s.name
}
