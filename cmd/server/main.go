// Storyloom Recommender - Personalized Story Recommendations
// Copyright 2026 Storyloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storyloom/recommender

// Package main is the entry point for the recommender server.
//
// The server initializes components in the following order:
//
//  1. Configuration: layered load from defaults, config file and
//     environment variables (Koanf v2)
//  2. Story server client: circuit-breaker-wrapped HTTP client for the
//     catalogue and the durable user-state log
//  3. Catalogue: initial fetch with bounded startup retries
//  4. Profile store: replay of persisted user events
//  5. Supervisor tree: catalogue refresh loop, persistence loop and
//     the HTTP server under suture supervision
//
// Shutdown on SIGINT or SIGTERM drains in-flight requests and flushes
// user state to the story server one final time.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/storyloom/recommender/internal/api"
	"github.com/storyloom/recommender/internal/catalogue"
	"github.com/storyloom/recommender/internal/config"
	"github.com/storyloom/recommender/internal/engine"
	"github.com/storyloom/recommender/internal/logging"
	"github.com/storyloom/recommender/internal/metrics"
	"github.com/storyloom/recommender/internal/profile"
	"github.com/storyloom/recommender/internal/supervisor"
	"github.com/storyloom/recommender/internal/supervisor/services"
	"github.com/storyloom/recommender/internal/upstream"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Default logger; config not available yet.
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", version).
		Str("upstream_url", cfg.Upstream.URL).
		Int("port", cfg.Server.Port).
		Msg("Starting recommender")

	metrics.AppInfo.WithLabelValues(version, runtime.Version()).Set(1)

	client := upstream.NewBreakerClient(&cfg.Upstream)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cat := catalogue.New(client)
	if err := loadInitialCatalogue(ctx, cat, &cfg.Catalogue); err != nil {
		logging.Fatal().Err(err).Msg("Failed to load initial catalogue")
	}
	logging.Info().Int("stories", cat.Snapshot().Len()).Msg("Catalogue loaded")

	store := profile.NewStore(cat, client)
	if err := store.LoadAll(ctx); err != nil {
		// Persisted state is best effort on startup; an empty store
		// still serves cold-start recommendations.
		logging.Warn().Err(err).Msg("Failed to load persisted user state, starting empty")
	} else {
		logging.Info().Int("profiles", store.Len()).Msg("User state loaded")
	}

	eng := engine.New(store, cat, cfg.Engine.Seed)

	handler := api.NewHandler(eng, store, cat, cfg.Engine.WarnLatency)
	router := api.NewRouter(handler, &cfg.API)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Bridge zerolog to slog for sutureslog.
	slogLogger := logging.NewSlogLogger(logging.Logger())

	tree, err := supervisor.NewTree(slogLogger, supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddDataService(services.NewRefreshService(cat, cfg.Catalogue.RefreshInterval, logging.Logger()))
	tree.AddDataService(services.NewPersistService(store, cfg.Persist.Interval, logging.Logger()))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Drain the error channel until the supervisor has fully stopped.
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}

// loadInitialCatalogue retries the first catalogue fetch so a slow or
// restarting story server does not kill startup. The last error is
// returned once the retry budget is exhausted.
func loadInitialCatalogue(ctx context.Context, cat *catalogue.Catalogue, cfg *config.CatalogueConfig) error {
	retries := cfg.StartupRetries
	if retries <= 0 {
		retries = 1
	}

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		if err := cat.Refresh(ctx); err != nil {
			lastErr = err
			logging.Warn().
				Err(err).
				Int("attempt", attempt).
				Int("retries", retries).
				Msg("Initial catalogue fetch failed")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(cfg.StartupRetryDelay):
			}
			continue
		}
		return nil
	}
	return fmt.Errorf("initial catalogue fetch failed after %d attempts: %w", retries, lastErr)
}
