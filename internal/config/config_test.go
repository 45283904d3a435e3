// Storyloom Recommender - Personalized Story Recommendations
// Copyright 2026 Storyloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storyloom/recommender

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Upstream.URL != "http://localhost:8081" {
		t.Errorf("Upstream.URL = %q, want http://localhost:8081", cfg.Upstream.URL)
	}
	if cfg.Catalogue.RefreshInterval != 5*time.Minute {
		t.Errorf("Catalogue.RefreshInterval = %v, want 5m", cfg.Catalogue.RefreshInterval)
	}
	if cfg.Persist.Interval != time.Minute {
		t.Errorf("Persist.Interval = %v, want 1m", cfg.Persist.Interval)
	}
	if cfg.Engine.WarnLatency != 450*time.Millisecond {
		t.Errorf("Engine.WarnLatency = %v, want 450ms", cfg.Engine.WarnLatency)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config failed validation: %v", err)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("CATALOGUE_REFRESH_INTERVAL", "30s")
	t.Setenv("LOGGING_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Catalogue.RefreshInterval != 30*time.Second {
		t.Errorf("Catalogue.RefreshInterval = %v, want 30s", cfg.Catalogue.RefreshInterval)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("server:\n  port: 7070\nengine:\n  seed: 99\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %d, want 7070", cfg.Server.Port)
	}
	if cfg.Engine.Seed != 99 {
		t.Errorf("Engine.Seed = %d, want 99", cfg.Engine.Seed)
	}
}

func TestEnvFilePrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 7070\n"), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("SERVER_PORT", "6060")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != 6060 {
		t.Errorf("Server.Port = %d, want 6060 (env must win over file)", cfg.Server.Port)
	}
}

func TestEnvTransform(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"SERVER_PORT", "server.port"},
		{"SERVER_READ_TIMEOUT", "server.read_timeout"},
		{"CATALOGUE_REFRESH_INTERVAL", "catalogue.refresh_interval"},
		{"API_RATE_LIMIT_REQUESTS", "api.rate_limit_requests"},
		{"PATH", ""},
		{"HOME", ""},
		{"GOPATH", ""},
	}
	for _, tt := range tests {
		if got := envTransform(tt.in); got != tt.want {
			t.Errorf("envTransform(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.Server.Port = 0 }},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }},
		{"empty upstream url", func(c *Config) { c.Upstream.URL = "" }},
		{"non-positive refresh", func(c *Config) { c.Catalogue.RefreshInterval = 0 }},
		{"non-positive persist", func(c *Config) { c.Persist.Interval = 0 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}
