// Shelfwatch - Plex Library Statistics and Media Info
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwatch

// Package database provides the DuckDB-backed watch-history store:
// library section records, session history, and the aggregate queries
// the dashboard reads (watch stats, watch time, user stats, recently
// watched).
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/shelfwatch/internal/config"
	"github.com/tomtom215/shelfwatch/internal/logging"
)

// ErrNotFound indicates a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// DB wraps the DuckDB connection and provides data access methods.
type DB struct {
	conn *sql.DB
}

// New opens the database and initializes the schema. An empty path
// opens an in-memory database (used by tests).
func New(cfg *config.DatabaseConfig) (*DB, error) {
	connStr := ""
	if cfg.Path != "" {
		dbDir := filepath.Dir(cfg.Path)
		if dbDir != "" && dbDir != "." {
			if err := os.MkdirAll(dbDir, 0o750); err != nil {
				return nil, fmt.Errorf("create database directory %s: %w", dbDir, err)
			}
		}

		numThreads := cfg.Threads
		if numThreads <= 0 {
			numThreads = runtime.NumCPU()
		}
		connStr = fmt.Sprintf("%s?access_mode=read_write&threads=%d", cfg.Path, numThreads)
	}

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logging.Info().Str("path", cfg.Path).Msg("Database initialized")
	return db, nil
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping verifies the connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

func (db *DB) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS library_sections (
			section_id INTEGER PRIMARY KEY,
			section_name VARCHAR NOT NULL,
			section_type VARCHAR NOT NULL,
			count INTEGER DEFAULT 0,
			parent_count INTEGER DEFAULT 0,
			child_count INTEGER DEFAULT 0,
			thumb VARCHAR DEFAULT '',
			custom_thumb_url VARCHAR DEFAULT '',
			art VARCHAR DEFAULT '',
			do_notify BOOLEAN DEFAULT TRUE,
			do_notify_created BOOLEAN DEFAULT TRUE,
			keep_history BOOLEAN DEFAULT TRUE,
			deleted_section BOOLEAN DEFAULT FALSE
		)`,
		`CREATE TABLE IF NOT EXISTS session_history (
			id BIGINT PRIMARY KEY,
			reference_id BIGINT,
			started BIGINT NOT NULL,
			stopped BIGINT,
			paused_counter BIGINT,
			user_id INTEGER,
			username VARCHAR DEFAULT '',
			rating_key VARCHAR NOT NULL,
			parent_rating_key VARCHAR DEFAULT '',
			grandparent_rating_key VARCHAR DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS session_history_metadata (
			id BIGINT PRIMARY KEY,
			rating_key VARCHAR NOT NULL,
			parent_rating_key VARCHAR DEFAULT '',
			grandparent_rating_key VARCHAR DEFAULT '',
			title VARCHAR DEFAULT '',
			parent_title VARCHAR DEFAULT '',
			grandparent_title VARCHAR DEFAULT '',
			full_title VARCHAR DEFAULT '',
			media_index VARCHAR DEFAULT '',
			parent_media_index VARCHAR DEFAULT '',
			thumb VARCHAR DEFAULT '',
			parent_thumb VARCHAR DEFAULT '',
			grandparent_thumb VARCHAR DEFAULT '',
			year VARCHAR DEFAULT '',
			media_type VARCHAR DEFAULT '',
			section_id INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			user_id INTEGER PRIMARY KEY,
			username VARCHAR NOT NULL,
			friendly_name VARCHAR DEFAULT '',
			thumb VARCHAR DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_history_metadata_section
			ON session_history_metadata (section_id)`,
	}

	for _, stmt := range statements {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("execute schema statement: %w", err)
		}
	}
	return nil
}
