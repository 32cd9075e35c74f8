// Shelfwatch - Plex Library Statistics and Media Info
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwatch

package mediainfo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/goccy/go-json"

	"github.com/tomtom215/shelfwatch/internal/logging"
	"github.com/tomtom215/shelfwatch/internal/metrics"
	"github.com/tomtom215/shelfwatch/internal/models"
)

// ErrCacheCorrupt marks a cache document that exists but cannot be
// parsed. Callers treat it as a miss; the distinction only matters for
// logging and diagnostics.
var ErrCacheCorrupt = errors.New("media info cache document corrupt")

// Store persists media-info cache documents as JSON files under a
// configured directory, one document per scope. Documents are replaced
// wholesale on every write; there are no partial updates.
//
// An in-memory scope index (section id -> rating keys) backs
// Invalidate, so section-wide invalidation never depends on filename
// pattern matching. The index is rebuilt from the directory listing at
// construction.
type Store struct {
	dir string

	mu    sync.Mutex
	index map[int]map[string]struct{}
	locks map[string]*sync.Mutex
}

// NewStore creates the cache directory if needed and rebuilds the
// scope index from any documents already on disk.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create cache directory %s: %w", dir, err)
	}

	s := &Store{
		dir:   dir,
		index: make(map[int]map[string]struct{}),
		locks: make(map[string]*sync.Mutex),
	}
	s.rebuildIndex()
	return s, nil
}

// scopeKey is the canonical string form of (sectionID, ratingKey|"").
func scopeKey(sectionID int, ratingKey string) string {
	if ratingKey == "" {
		return strconv.Itoa(sectionID)
	}
	return strconv.Itoa(sectionID) + "-" + ratingKey
}

func (s *Store) documentPath(sectionID int, ratingKey string) string {
	return filepath.Join(s.dir, "media_info_"+scopeKey(sectionID, ratingKey)+".json")
}

// LockScope acquires the mutex serializing read-merge-write sequences
// for one scope and returns the unlock function. Distinct scopes use
// distinct mutexes and proceed concurrently.
func (s *Store) LockScope(sectionID int, ratingKey string) func() {
	key := scopeKey(sectionID, ratingKey)

	s.mu.Lock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// Load reads the cache document for a scope. A missing document
// returns (nil, false, nil); a document that exists but fails to parse
// returns (nil, false, ErrCacheCorrupt). Load never fails the caller.
func (s *Store) Load(sectionID int, ratingKey string) ([]models.MediaInfoRow, bool, error) {
	data, err := os.ReadFile(s.documentPath(sectionID, ratingKey))
	if err != nil {
		if !os.IsNotExist(err) {
			logging.Warn().Err(err).Int("section_id", sectionID).Str("rating_key", ratingKey).
				Msg("Unable to read media info cache document")
		}
		metrics.MediaInfoCacheMisses.Inc()
		return nil, false, nil
	}

	var rows []models.MediaInfoRow
	if err := json.Unmarshal(data, &rows); err != nil {
		logging.Warn().Err(err).Int("section_id", sectionID).Str("rating_key", ratingKey).
			Msg("Media info cache document corrupt, treating as miss")
		metrics.MediaInfoCacheMisses.Inc()
		return nil, false, fmt.Errorf("%w: %v", ErrCacheCorrupt, err)
	}

	metrics.MediaInfoCacheHits.Inc()
	return rows, true, nil
}

// Save replaces the cache document for a scope with the given rows.
// The write is atomic from a reader's perspective (temp file plus
// rename). Failures are logged and reported as false, never fatal.
func (s *Store) Save(sectionID int, ratingKey string, rows []models.MediaInfoRow) bool {
	data, err := json.Marshal(rows)
	if err != nil {
		logging.Error().Err(err).Int("section_id", sectionID).Str("rating_key", ratingKey).
			Msg("Unable to encode media info cache document")
		return false
	}

	tmp, err := os.CreateTemp(s.dir, "media_info_*.tmp")
	if err != nil {
		logging.Warn().Err(err).Int("section_id", sectionID).Str("rating_key", ratingKey).
			Msg("Unable to create media info cache document")
		return false
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		logging.Warn().Err(err).Int("section_id", sectionID).Str("rating_key", ratingKey).
			Msg("Unable to write media info cache document")
		return false
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		logging.Warn().Err(err).Int("section_id", sectionID).Str("rating_key", ratingKey).
			Msg("Unable to close media info cache document")
		return false
	}

	if err := os.Rename(tmpName, s.documentPath(sectionID, ratingKey)); err != nil {
		os.Remove(tmpName)
		logging.Warn().Err(err).Int("section_id", sectionID).Str("rating_key", ratingKey).
			Msg("Unable to replace media info cache document")
		return false
	}

	s.mu.Lock()
	if s.index[sectionID] == nil {
		s.index[sectionID] = make(map[string]struct{})
	}
	s.index[sectionID][ratingKey] = struct{}{}
	s.mu.Unlock()

	return true
}

// Invalidate removes the whole-section document and every
// per-rating-key document under the section.
func (s *Store) Invalidate(sectionID int) {
	s.mu.Lock()
	keys := make([]string, 0, len(s.index[sectionID]))
	for rk := range s.index[sectionID] {
		keys = append(keys, rk)
	}
	delete(s.index, sectionID)
	s.mu.Unlock()

	for _, rk := range keys {
		if err := os.Remove(s.documentPath(sectionID, rk)); err != nil && !os.IsNotExist(err) {
			logging.Warn().Err(err).Int("section_id", sectionID).Str("rating_key", rk).
				Msg("Unable to remove media info cache document")
		}
	}

	logging.Debug().Int("section_id", sectionID).Int("documents", len(keys)).
		Msg("Deleted media info cache for section")
}

// rebuildIndex scans the cache directory for documents surviving from
// a previous run and registers their scopes.
func (s *Store) rebuildIndex() {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		logging.Warn().Err(err).Str("dir", s.dir).Msg("Unable to scan cache directory")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, "media_info_") || !strings.HasSuffix(name, ".json") {
			continue
		}

		key := strings.TrimSuffix(strings.TrimPrefix(name, "media_info_"), ".json")
		sectionPart, ratingKey, _ := strings.Cut(key, "-")
		sectionID, err := strconv.Atoi(sectionPart)
		if err != nil {
			continue
		}

		if s.index[sectionID] == nil {
			s.index[sectionID] = make(map[string]struct{})
		}
		s.index[sectionID][ratingKey] = struct{}{}
	}
}
