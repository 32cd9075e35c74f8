// Shelfwatch - Plex Library Statistics and Media Info
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwatch

package mediainfo

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/tomtom215/shelfwatch/internal/logging"
	"github.com/tomtom215/shelfwatch/internal/metrics"
	"github.com/tomtom215/shelfwatch/internal/models"
)

// ErrNoData indicates that neither the cache nor a live fetch produced
// any rows for the requested scope.
var ErrNoData = errors.New("no media info available for scope")

// MediaClient is the narrow view of the Plex client the reconciler
// consumes. Implementations report upstream failures as errors;
// a successful call with zero rows means the scope is genuinely empty.
type MediaClient interface {
	// SectionChildren lists all items of one library section with
	// media info.
	SectionChildren(ctx context.Context, sectionID int, sectionType string) ([]models.MediaInfoRow, error)

	// ItemChildren lists the direct children of one item with media
	// info (seasons of a show, episodes of a season, ...).
	ItemChildren(ctx context.Context, ratingKey string) ([]models.MediaInfoRow, error)

	// LeafMediaInfo lists the leaf-level descendants of one item with
	// per-file media info, for file-size summation.
	LeafMediaInfo(ctx context.Context, ratingKey string) ([]models.MediaInfoRow, error)
}

// Reconciler merges cached media-info rows with live Plex fetches.
// Live fetches over large libraries are expensive and file sizes need
// an extra per-item query, so previously computed sizes are carried
// forward across refreshes instead of re-derived.
type Reconciler struct {
	store  *Store
	client MediaClient
}

// NewReconciler wires a reconciler over a cache store and media client.
func NewReconciler(store *Store, client MediaClient) *Reconciler {
	return &Reconciler{store: store, client: client}
}

// Reconcile returns the media-info rows for a scope and the scope's
// total item count.
//
// The cached document is used as-is unless forceRefresh is set or the
// cache is empty; a refresh fetches the scope from Plex, carries
// forward cached file sizes for rows the live fetch left without one,
// and replaces the cache document in full. When the upstream is
// unavailable and cached rows exist they are served stale; with no
// cache the result is ErrNoData.
func (r *Reconciler) Reconcile(ctx context.Context, sectionID int, sectionType, ratingKey string, forceRefresh bool) ([]models.MediaInfoRow, int, error) {
	unlock := r.store.LockScope(sectionID, ratingKey)
	defer unlock()

	start := time.Now()
	defer func() {
		metrics.ReconcileDuration.Observe(time.Since(start).Seconds())
	}()

	cached, ok, err := r.store.Load(sectionID, ratingKey)
	if err != nil {
		// Corrupt document: already logged by the store, treated as a miss.
		cached, ok = nil, false
	}

	if !forceRefresh && ok && len(cached) > 0 {
		return cached, len(cached), nil
	}

	// Index of previously computed file sizes, keyed by rating key.
	cachedSizes := make(map[string]string, len(cached))
	for i := range cached {
		cachedSizes[cached[i].RatingKey] = cached[i].FileSize
	}

	var fetched []models.MediaInfoRow
	var fetchErr error
	if ratingKey != "" {
		fetched, fetchErr = r.client.ItemChildren(ctx, ratingKey)
	} else {
		fetched, fetchErr = r.client.SectionChildren(ctx, sectionID, sectionType)
	}

	if fetchErr != nil {
		if len(cached) > 0 {
			logging.Warn().Err(fetchErr).Int("section_id", sectionID).Str("rating_key", ratingKey).
				Msg("Plex fetch failed, serving stale media info cache")
			return cached, len(cached), nil
		}
		logging.Warn().Err(fetchErr).Int("section_id", sectionID).Str("rating_key", ratingKey).
			Msg("Unable to get a list of library items")
		return nil, 0, ErrNoData
	}

	if len(fetched) == 0 {
		logging.Warn().Int("section_id", sectionID).Str("rating_key", ratingKey).
			Msg("Plex returned no library items for scope")
		return nil, 0, ErrNoData
	}

	for i := range fetched {
		fetched[i].SectionID = sectionID
		fetched[i].SectionType = sectionType
		if size, exists := cachedSizes[fetched[i].RatingKey]; exists && size != "" {
			fetched[i].FileSize = size
		}
	}

	r.store.Save(sectionID, ratingKey, fetched)

	return fetched, len(fetched), nil
}

// BackfillFileSizes computes file sizes for cached rows still carrying
// the empty sentinel, by summing the item's leaf-level children, and
// rewrites the cache document. The cost is paid at most once per item
// until the scope is invalidated or force-refreshed.
//
// Photo sections have no per-file sizes worth summing and are skipped.
// Returns true when a document was processed and rewritten.
func (r *Reconciler) BackfillFileSizes(ctx context.Context, sectionID int, sectionType, ratingKey string) (bool, error) {
	if sectionType == models.SectionTypePhoto {
		return false, nil
	}

	unlock := r.store.LockScope(sectionID, ratingKey)
	defer unlock()

	rows, ok, _ := r.store.Load(sectionID, ratingKey)
	if !ok || len(rows) == 0 {
		return false, nil
	}

	updated := 0
	for i := range rows {
		if rows[i].RatingKey == "" || rows[i].FileSize != "" {
			continue
		}

		children, err := r.client.LeafMediaInfo(ctx, rows[i].RatingKey)
		if err != nil {
			logging.Warn().Err(err).Str("rating_key", rows[i].RatingKey).
				Msg("Unable to get child media info for file size")
			continue
		}

		var total int64
		for j := range children {
			total += ToInt(children[j].FileSize)
		}
		rows[i].FileSize = strconv.FormatInt(total, 10)
		updated++

		if err := ctx.Err(); err != nil {
			break
		}
	}

	r.store.Save(sectionID, ratingKey, rows)
	metrics.BackfillItems.Add(float64(updated))

	logging.Debug().Int("section_id", sectionID).Str("rating_key", ratingKey).Int("updated", updated).
		Msg("File sizes updated")
	return true, nil
}
