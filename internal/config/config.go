// Storyloom Recommender - Personalized Story Recommendations
// Copyright 2026 Storyloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storyloom/recommender

// Package config provides layered configuration for the recommender service
// using Koanf v2: struct defaults, then an optional YAML file, then
// environment variables (highest precedence).
package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config is the root configuration for the recommender service.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Upstream  UpstreamConfig  `koanf:"upstream"`
	Catalogue CatalogueConfig `koanf:"catalogue"`
	Persist   PersistConfig   `koanf:"persist"`
	Engine    EngineConfig    `koanf:"engine"`
	API       APIConfig       `koanf:"api"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the listen address.
	Host string `koanf:"host"`

	// Port is the listen port.
	Port int `koanf:"port"`

	// ReadTimeout bounds request read time.
	ReadTimeout time.Duration `koanf:"read_timeout"`

	// WriteTimeout bounds response write time.
	WriteTimeout time.Duration `koanf:"write_timeout"`

	// ShutdownTimeout is the grace period for in-flight requests on shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// UpstreamConfig holds settings for the external story server, which owns
// both the story catalogue and the durable event log.
type UpstreamConfig struct {
	// URL is the base URL of the story server.
	URL string `koanf:"url"`

	// Timeout bounds a single upstream HTTP call.
	Timeout time.Duration `koanf:"timeout"`

	// BreakerTimeout is how long the circuit stays open before probing.
	BreakerTimeout time.Duration `koanf:"breaker_timeout"`
}

// CatalogueConfig holds catalogue cache settings.
type CatalogueConfig struct {
	// RefreshInterval is how often the background refresh runs.
	RefreshInterval time.Duration `koanf:"refresh_interval"`

	// StartupRetryDelay is the wait between initial-load attempts.
	StartupRetryDelay time.Duration `koanf:"startup_retry_delay"`

	// StartupRetries bounds initial-load attempts before startup fails.
	StartupRetries int `koanf:"startup_retries"`
}

// PersistConfig holds preference-state persistence settings.
type PersistConfig struct {
	// Interval is how often profiles are persisted to the story server.
	Interval time.Duration `koanf:"interval"`
}

// EngineConfig holds recommendation engine settings.
type EngineConfig struct {
	// Seed seeds the engine and wildcard RNGs for reproducibility.
	Seed int64 `koanf:"seed"`

	// WarnLatency is the soft latency budget; slower recommendation
	// requests are logged at warn level.
	WarnLatency time.Duration `koanf:"warn_latency"`
}

// APIConfig holds inbound API settings.
type APIConfig struct {
	// RateLimitRequests is the per-IP request budget per window.
	RateLimitRequests int `koanf:"rate_limit_requests"`

	// RateLimitWindow is the rate limit window.
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`

	// CORSOrigins lists allowed CORS origins.
	CORSOrigins []string `koanf:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all default values. Defaults are
// loaded first, then overridden by the config file and environment.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Upstream: UpstreamConfig{
			URL:            "http://localhost:8081",
			Timeout:        10 * time.Second,
			BreakerTimeout: 2 * time.Minute,
		},
		Catalogue: CatalogueConfig{
			RefreshInterval:   5 * time.Minute,
			StartupRetryDelay: 2 * time.Second,
			StartupRetries:    5,
		},
		Persist: PersistConfig{
			Interval: time.Minute,
		},
		Engine: EngineConfig{
			Seed:        42,
			WarnLatency: 450 * time.Millisecond,
		},
		API: APIConfig{
			RateLimitRequests: 100,
			RateLimitWindow:   time.Minute,
			CORSOrigins:       []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Upstream.URL == "" {
		return fmt.Errorf("upstream.url is required")
	}
	u, err := url.Parse(c.Upstream.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("upstream.url %q is not a valid URL", c.Upstream.URL)
	}
	if c.Upstream.Timeout <= 0 {
		return fmt.Errorf("upstream.timeout must be positive")
	}
	if c.Catalogue.RefreshInterval <= 0 {
		return fmt.Errorf("catalogue.refresh_interval must be positive")
	}
	if c.Persist.Interval <= 0 {
		return fmt.Errorf("persist.interval must be positive")
	}
	if c.Engine.WarnLatency <= 0 {
		return fmt.Errorf("engine.warn_latency must be positive")
	}
	if c.API.RateLimitRequests <= 0 || c.API.RateLimitWindow <= 0 {
		return fmt.Errorf("api rate limit must be positive")
	}
	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "error", "fatal", "disabled":
	default:
		return fmt.Errorf("logging.level %q is not a known level", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format %q must be json or console", c.Logging.Format)
	}
	return nil
}
