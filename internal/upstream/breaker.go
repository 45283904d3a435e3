// Storyloom Recommender - Personalized Story Recommendations
// Copyright 2026 Storyloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storyloom/recommender

package upstream

import (
	"context"
	"errors"
	"fmt"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/storyloom/recommender/internal/config"
	"github.com/storyloom/recommender/internal/logging"
	"github.com/storyloom/recommender/internal/metrics"
)

// BreakerClient wraps Client with a circuit breaker so a dead story server
// fails fast instead of tying up every refresh and persist cycle.
//
// The breaker uses real time for its interval and timeout bookkeeping.
// Tests exercise the wrapped Client directly or mock StoryServer.
type BreakerClient struct {
	client *Client
	cb     *gobreaker.CircuitBreaker[interface{}]
	name   string
}

// NewBreakerClient creates a story server client with circuit breaker
// protection. The circuit opens after a 60% failure rate over at least 10
// requests, stays open for cfg.BreakerTimeout, then probes with up to 3
// half-open requests.
func NewBreakerClient(cfg *config.UpstreamConfig) *BreakerClient {
	cbName := "story-server"

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0)

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Timeout:     cfg.BreakerTimeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6
			if shouldTrip {
				logging.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("opening story server circuit")
			}
			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)
			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("story server circuit state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return &BreakerClient{
		client: NewClient(cfg),
		cb:     cb,
		name:   cbName,
	}
}

// execute runs one story server call under the breaker. Rejections from an
// open circuit surface as ErrUnavailable like any other upstream failure.
func (bc *BreakerClient) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := bc.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			logging.Warn().Err(err).Msg("story server call rejected by circuit breaker")
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return nil, err
	}
	return result, nil
}

// castResult type-casts a breaker result with error checking.
func castResult[T any](result interface{}, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	typed, ok := result.(*T)
	if !ok {
		return nil, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// FetchCatalogue retrieves the catalogue with circuit breaker protection.
func (bc *BreakerClient) FetchCatalogue(ctx context.Context) (*CataloguePayload, error) {
	return castResult[CataloguePayload](bc.execute(func() (interface{}, error) {
		return bc.client.FetchCatalogue(ctx)
	}))
}

// LoadUserState retrieves the event log with circuit breaker protection.
func (bc *BreakerClient) LoadUserState(ctx context.Context) (*StateBatchPayload, error) {
	return castResult[StateBatchPayload](bc.execute(func() (interface{}, error) {
		return bc.client.LoadUserState(ctx)
	}))
}

// SaveUserState persists the event log with circuit breaker protection.
func (bc *BreakerClient) SaveUserState(ctx context.Context, batch *StateBatchPayload) error {
	_, err := bc.execute(func() (interface{}, error) {
		return nil, bc.client.SaveUserState(ctx, batch)
	})
	return err
}
