// Shelfwatch - Plex Library Statistics and Media Info
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwatch

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Plex.URL = "http://plex.local:32400"
	cfg.Plex.Token = "token"
	return cfg
}

func TestValidateAcceptsDefaultsWithPlex(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port zero", func(c *Config) { c.Server.Port = 0 }},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }},
		{"missing plex url", func(c *Config) { c.Plex.URL = "" }},
		{"plex url without scheme", func(c *Config) { c.Plex.URL = "plex.local:32400" }},
		{"missing plex token", func(c *Config) { c.Plex.Token = "" }},
		{"negative rate", func(c *Config) { c.Plex.RequestsPerSecond = -1 }},
		{"missing cache dir", func(c *Config) { c.Cache.Dir = "" }},
		{"negative refresh interval", func(c *Config) { c.Cache.RefreshInterval = -time.Hour }},
		{"unknown log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"unknown log format", func(c *Config) { c.Logging.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadLayersFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
plex:
  url: http://plex.local:32400
  token: file-token
server:
  port: 4000
cache:
  dir: ` + dir + `
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 4000 {
		t.Errorf("Port = %d, want 4000 from file", cfg.Server.Port)
	}
	if cfg.Plex.Token != "file-token" {
		t.Errorf("Token = %q", cfg.Plex.Token)
	}
	// Untouched values keep their defaults.
	if cfg.Logging.Level != "info" {
		t.Errorf("Level = %q, want default", cfg.Logging.Level)
	}
	if !cfg.History.GroupTables {
		t.Error("GroupTables default should be true")
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
plex:
  url: http://plex.local:32400
  token: file-token
cache:
  dir: ` + dir + `
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("SHELFWATCH_PLEX_TOKEN", "env-token")
	t.Setenv("SHELFWATCH_LOGGING_LEVEL", "debug")
	t.Setenv("SHELFWATCH_SERVER_CORS_ORIGINS", "http://a.local, http://b.local")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Plex.Token != "env-token" {
		t.Errorf("Token = %q, want env override", cfg.Plex.Token)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %q", cfg.Logging.Level)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "http://b.local" {
		t.Errorf("CORSOrigins = %v", cfg.Server.CORSOrigins)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct{ in, want string }{
		{"SHELFWATCH_PLEX_TOKEN", "plex.token"},
		{"SHELFWATCH_CACHE_REFRESH_INTERVAL", "cache.refresh_interval"},
		{"SHELFWATCH_SERVER_RATE_LIMIT_REQS", "server.rate_limit_reqs"},
		{"SHELFWATCH_HISTORY_GROUP_TABLES", "history.group_tables"},
	}
	for _, tt := range tests {
		if got := envTransformFunc(tt.in); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestServerAddr(t *testing.T) {
	s := ServerConfig{Host: "127.0.0.1", Port: 3858}
	if got := s.Addr(); got != "127.0.0.1:3858" {
		t.Errorf("Addr = %q", got)
	}
}
