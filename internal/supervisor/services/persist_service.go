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

// Persister writes all user profiles to the durable log.
type Persister interface {
	PersistAll(ctx context.Context) error
}

// PersistService periodically flushes user state to the story server
// and performs a final flush on shutdown so recent events survive a
// restart.
type PersistService struct {
	store        Persister
	interval     time.Duration
	flushTimeout time.Duration
	logger       zerolog.Logger
	name         string
}

// NewPersistService creates a persistence loop.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewPersistService(store Persister, interval time.Duration, logger zerolog.Logger) *PersistService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &PersistService{
		store:        store,
		interval:     interval,
		flushTimeout: 30 * time.Second,
		logger:       logger.With().Str("service", "profile-persist").Logger(),
		name:         "profile-persist",
	}
}

// Serve implements suture.Service.
func (s *PersistService) Serve(ctx context.Context) error {
	s.logger.Info().
		Dur("interval", s.interval).
		Msg("profile persistence service starting")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.finalFlush()
			return ctx.Err()

		case <-ticker.C:
			if err := s.store.PersistAll(ctx); err != nil {
				s.logger.Warn().Err(err).Msg("profile persistence failed, will retry on next tick")
			}
		}
	}
}

// finalFlush persists once more during shutdown. The serve context is
// already canceled, so the flush runs on its own deadline.
func (s *PersistService) finalFlush() {
	s.logger.Info().Msg("profile persistence service shutting down, flushing state")

	flushCtx, cancel := context.WithTimeout(context.Background(), s.flushTimeout)
	defer cancel()

	if err := s.store.PersistAll(flushCtx); err != nil {
		s.logger.Error().Err(err).Msg("final state flush failed")
		return
	}
	s.logger.Info().Msg("final state flush complete")
}

// String returns the service name for supervisor logging.
func (s *PersistService) String() string {
	return s.name
}
