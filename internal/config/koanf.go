// Storyloom Recommender - Personalized Story Recommendations
// Copyright 2026 Storyloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storyloom/recommender

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched, in
// order of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/storyrec/config.yaml",
	"/etc/storyrec/config.yml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "CONFIG_PATH"

// Load loads configuration with layered sources:
//
//  1. Built-in defaults
//  2. Optional YAML config file
//  3. Environment variables (highest precedence)
//
// Environment variable names map to koanf paths at the first underscore:
// SERVER_PORT -> server.port, CATALOGUE_REFRESH_INTERVAL ->
// catalogue.refresh_interval.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file path, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
		return ""
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// configSections are the top-level keys environment variables may address.
// Variables outside these prefixes (PATH, HOME, ...) are ignored.
var configSections = []string{
	"SERVER_", "UPSTREAM_", "CATALOGUE_", "PERSIST_", "ENGINE_", "API_", "LOGGING_",
}

// envTransform maps an environment variable name to a koanf path, splitting
// at the first underscore: SERVER_READ_TIMEOUT -> server.read_timeout.
func envTransform(key string) string {
	matched := false
	for _, prefix := range configSections {
		if strings.HasPrefix(key, prefix) {
			matched = true
			break
		}
	}
	if !matched {
		return ""
	}

	lower := strings.ToLower(key)
	return strings.Replace(lower, "_", ".", 1)
}
