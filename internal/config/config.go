// Package config loads runtime configuration for the tracker.
// Environment variables are automatically parsed from the POCKETSYNC_ prefix.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the configuration for the tracker and its CLI.
type Config struct {
	// Remote service endpoint. Empty disables the remote store, which
	// pins the tracker offline.
	BaseURL string `envconfig:"BASE_URL" default:"http://localhost:8080"`

	// APIKey is sent as a bearer token on every remote request.
	APIKey string `envconfig:"API_KEY" default:""`

	// DBPath is the local SQLite database file. "auto" derives a
	// per-user path under the OS cache directory.
	DBPath string `envconfig:"DB_PATH" default:"auto"`

	// ProbeInterval paces the connectivity health probe while online.
	ProbeInterval time.Duration `envconfig:"PROBE_INTERVAL" default:"15s"`

	// HTTPTimeout bounds every remote HTTP request.
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// ResolveDefaults validates the parsed values and derives DBPath when
// set to "auto" or empty.
func (c *Config) ResolveDefaults() error {
	if c.ProbeInterval <= 0 {
		return fmt.Errorf("unsupported PROBE_INTERVAL: %s", c.ProbeInterval)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("unsupported HTTP_TIMEOUT: %s", c.HTTPTimeout)
	}

	allowedLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !allowedLevels[c.LogLevel] {
		return fmt.Errorf("unsupported LOG_LEVEL: %s", c.LogLevel)
	}

	if c.DBPath == "" || c.DBPath == "auto" {
		dir, err := os.UserCacheDir()
		if err != nil {
			return fmt.Errorf("derive db path: %w", err)
		}
		c.DBPath = filepath.Join(dir, "pocketsync", "items.db")
	}
	return nil
}

// New creates a Config by parsing environment variables.
// Variables are prefixed with POCKETSYNC_, e.g. POCKETSYNC_BASE_URL,
// POCKETSYNC_PROBE_INTERVAL.
func New() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("POCKETSYNC", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
