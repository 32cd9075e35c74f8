// Shelfwatch - Plex Library Statistics and Media Info
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwatch

// Package config loads and validates the application configuration
// from layered sources: built-in defaults, an optional YAML file, and
// environment variables, in increasing order of precedence.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Plex     PlexConfig     `koanf:"plex"`
	Cache    CacheConfig    `koanf:"cache"`
	History  HistoryConfig  `koanf:"history"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
	// CORSOrigins lists allowed origins; "*" allows any.
	CORSOrigins []string `koanf:"cors_origins"`
	// RateLimitReqs requests per RateLimitWindow per client IP.
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	// Path to the database file. Empty opens an in-memory database.
	Path string `koanf:"path"`
	// Threads for the DuckDB engine; 0 uses runtime.NumCPU().
	Threads int `koanf:"threads"`
}

// PlexConfig holds Plex Media Server connection settings.
type PlexConfig struct {
	URL   string `koanf:"url"`
	Token string `koanf:"token"`
	// RequestsPerSecond caps outbound Plex API calls; 0 disables the
	// limiter.
	RequestsPerSecond float64 `koanf:"requests_per_second"`
}

// CacheConfig holds media-info cache settings.
type CacheConfig struct {
	// Dir is the directory holding the per-scope JSON cache documents.
	Dir string `koanf:"dir"`
	// RefreshInterval between background catalog refreshes; 0 disables
	// the scheduler.
	RefreshInterval time.Duration `koanf:"refresh_interval"`
	// BackfillOnRefresh runs the file-size backfill pass after each
	// scheduled refresh.
	BackfillOnRefresh bool `koanf:"backfill_on_refresh"`
}

// HistoryConfig holds watch-history aggregation settings.
type HistoryConfig struct {
	// GroupTables counts grouped plays (by reference_id) instead of
	// raw session rows.
	GroupTables bool `koanf:"group_tables"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Validate checks the configuration for invalid or inconsistent
// values. It is called by Load after all layers are applied.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %s", c.Server.Timeout)
	}

	if c.Plex.URL == "" {
		return fmt.Errorf("plex.url is required")
	}
	if !strings.HasPrefix(c.Plex.URL, "http://") && !strings.HasPrefix(c.Plex.URL, "https://") {
		return fmt.Errorf("plex.url must start with http:// or https://, got %q", c.Plex.URL)
	}
	if c.Plex.Token == "" {
		return fmt.Errorf("plex.token is required")
	}
	if c.Plex.RequestsPerSecond < 0 {
		return fmt.Errorf("plex.requests_per_second must not be negative, got %f", c.Plex.RequestsPerSecond)
	}

	if c.Cache.Dir == "" {
		return fmt.Errorf("cache.dir is required")
	}
	if c.Cache.RefreshInterval < 0 {
		return fmt.Errorf("cache.refresh_interval must not be negative, got %s", c.Cache.RefreshInterval)
	}

	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of trace, debug, info, warn, error; got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}

	return nil
}

// Addr returns the host:port the HTTP server binds to.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
