// Shelfwatch - Plex Library Statistics and Media Info
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwatch

// Package library orchestrates the per-section operations behind the
// API: the media-info grid, watch aggregates, section configuration
// and lifecycle. It composes the history store, the media-info
// reconciler and the Plex section catalog, and memoizes aggregate
// reads in a TTL cache.
package library

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/tomtom215/shelfwatch/internal/cache"
	"github.com/tomtom215/shelfwatch/internal/database"
	"github.com/tomtom215/shelfwatch/internal/logging"
	"github.com/tomtom215/shelfwatch/internal/mediainfo"
	"github.com/tomtom215/shelfwatch/internal/models"
	"github.com/tomtom215/shelfwatch/internal/validation"
)

// ErrInvalidArgument reports a request the facade refused to process.
var ErrInvalidArgument = errors.New("invalid argument")

// HistoryStore is the view of the history database the facade
// consumes.
type HistoryStore interface {
	GetSectionDetails(ctx context.Context, sectionID int) (*models.LibraryDetails, error)
	GetSections(ctx context.Context) ([]models.Section, error)
	UpsertSection(ctx context.Context, sectionID int, name, sectionType, thumb, art string) error
	SetSectionConfig(ctx context.Context, sectionID int, cfg models.SectionConfig) error
	SoftDeleteSection(ctx context.Context, sectionID int) error
	UndeleteSection(ctx context.Context, sectionID int) error
	UndeleteSectionByName(ctx context.Context, sectionName string) error
	GetWatchStats(ctx context.Context, sectionID int, keyColumn string, grouped bool) (map[string]models.WatchStat, error)
	GetWatchTimeStats(ctx context.Context, sectionID int, grouped bool) ([]models.WatchTimeStat, error)
	GetUserStats(ctx context.Context, sectionID int, grouped bool) ([]models.UserStat, error)
	GetRecentlyWatched(ctx context.Context, sectionID int, limit int) ([]models.RecentlyWatchedItem, error)
	DeleteAllHistory(ctx context.Context, sectionID int) error
}

// SectionCatalog lists the library sections configured on the Plex
// server.
type SectionCatalog interface {
	GetLibrarySections(ctx context.Context) ([]models.PlexLibrarySection, error)
}

// MediaReconciler merges cached and live media info for one scope.
type MediaReconciler interface {
	Reconcile(ctx context.Context, sectionID int, sectionType, ratingKey string, forceRefresh bool) ([]models.MediaInfoRow, int, error)
	BackfillFileSizes(ctx context.Context, sectionID int, sectionType, ratingKey string) (bool, error)
}

// CacheInvalidator removes the on-disk media-info documents of a
// section.
type CacheInvalidator interface {
	Invalidate(sectionID int)
}

// Facade bundles the section-level operations. All methods are safe
// for concurrent use.
type Facade struct {
	db       HistoryStore
	catalog  SectionCatalog
	rec      MediaReconciler
	docs     CacheInvalidator
	aggCache *cache.Cache
	grouped  bool
}

// Options configures a Facade.
type Options struct {
	// GroupHistory counts grouped plays instead of raw session rows.
	GroupHistory bool
	// AggregateTTL bounds staleness of memoized aggregates.
	AggregateTTL time.Duration
}

// NewFacade wires a facade over its collaborators.
func NewFacade(db HistoryStore, catalog SectionCatalog, rec MediaReconciler, docs CacheInvalidator, opts Options) *Facade {
	ttl := opts.AggregateTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Facade{
		db:       db,
		catalog:  catalog,
		rec:      rec,
		docs:     docs,
		aggCache: cache.New(ttl),
		grouped:  opts.GroupHistory,
	}
}

// Close releases facade resources.
func (f *Facade) Close() {
	f.aggCache.Stop()
}

// GetMediaInfoTable serves one server-side-processing grid query over
// a section, or over one item's children when ratingKey is set.
//
// Rows come from the reconciler (cache-first), watch aggregates are
// overlaid per request, then search, sort and pagination apply.
// RecordsTotal reflects the scope's full item count independent of the
// search filter.
func (f *Facade) GetMediaInfoTable(ctx context.Context, sectionID int, ratingKey string, req models.TableRequest, forceRefresh bool) (models.TableResponse, error) {
	if sectionID <= 0 && ratingKey == "" {
		return errorResponse(req, "no section or item requested"),
			fmt.Errorf("%w: section_id or rating_key required", ErrInvalidArgument)
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		return errorResponse(req, verr.Error()),
			fmt.Errorf("%w: %s", ErrInvalidArgument, verr.Error())
	}

	details, err := f.GetDetails(ctx, sectionID)
	if err != nil {
		return errorResponse(req, "unable to resolve section"), err
	}

	rows, total, err := f.rec.Reconcile(ctx, sectionID, details.SectionType, ratingKey, forceRefresh)
	if err != nil {
		if errors.Is(err, mediainfo.ErrNoData) {
			resp := mediainfo.Query(nil, req)
			resp.RecordsTotal = 0
			return resp, nil
		}
		return errorResponse(req, "unable to load media info"), err
	}

	req.ChildScope = ratingKey != ""

	keyColumn := mediainfo.GroupKeyForSectionType(details.SectionType)
	if req.ChildScope && len(rows) > 0 {
		keyColumn = mediainfo.GroupKeyForSectionType(rows[0].MediaType)
	}

	stats, err := f.db.GetWatchStats(ctx, sectionID, keyColumn, f.grouped)
	if err != nil {
		// The grid is still useful without overlays.
		logging.Warn().Err(err).Int("section_id", sectionID).
			Msg("Unable to load watch stats for media info table")
		stats = nil
	}
	rows = mediainfo.JoinWatchStats(rows, stats)

	resp := mediainfo.Query(rows, req)
	resp.RecordsTotal = total
	return resp, nil
}

// BackfillFileSizes fills in missing file sizes for a scope's cached
// rows. Returns true when a cache document was processed.
func (f *Facade) BackfillFileSizes(ctx context.Context, sectionID int, ratingKey string) (bool, error) {
	details, err := f.GetDetails(ctx, sectionID)
	if err != nil {
		return false, err
	}
	return f.rec.BackfillFileSizes(ctx, sectionID, details.SectionType, ratingKey)
}

// RefreshMediaInfo force-refreshes a section's media-info cache
// document from Plex. Used by the background refresh schedule.
func (f *Facade) RefreshMediaInfo(ctx context.Context, sectionID int) error {
	details, err := f.GetDetails(ctx, sectionID)
	if err != nil {
		return err
	}
	_, _, err = f.rec.Reconcile(ctx, sectionID, details.SectionType, "", true)
	if errors.Is(err, mediainfo.ErrNoData) {
		return nil
	}
	return err
}

// GetDetails returns a section's metadata record. An unknown section
// triggers one catalog refresh from Plex before giving up; a section
// the server no longer reports resolves to a default record so grid
// pages for stale links still render.
func (f *Facade) GetDetails(ctx context.Context, sectionID int) (*models.LibraryDetails, error) {
	key := detailsKey(sectionID)
	if v, ok := f.aggCache.Get(key); ok {
		return v.(*models.LibraryDetails), nil
	}

	details, err := f.db.GetSectionDetails(ctx, sectionID)
	if errors.Is(err, database.ErrNotFound) {
		if refreshErr := f.RefreshSectionsCatalog(ctx); refreshErr != nil {
			logging.Warn().Err(refreshErr).Msg("Section catalog refresh failed")
		}
		details, err = f.db.GetSectionDetails(ctx, sectionID)
	}
	if errors.Is(err, database.ErrNotFound) {
		return defaultDetails(sectionID), nil
	}
	if err != nil {
		return nil, err
	}

	f.aggCache.Set(key, details)
	return details, nil
}

// RefreshSectionsCatalog pulls the section list from Plex and upserts
// each section's record.
func (f *Facade) RefreshSectionsCatalog(ctx context.Context) error {
	sections, err := f.catalog.GetLibrarySections(ctx)
	if err != nil {
		return fmt.Errorf("list library sections: %w", err)
	}

	for _, s := range sections {
		id, err := strconv.Atoi(s.Key)
		if err != nil {
			logging.Warn().Str("key", s.Key).Msg("Skipping section with non-numeric key")
			continue
		}
		if err := f.db.UpsertSection(ctx, id, s.Title, s.Type, s.Thumb, s.Art); err != nil {
			return err
		}
		f.aggCache.Delete(detailsKey(id))
	}

	logging.Info().Int("sections", len(sections)).Msg("Section catalog refreshed")
	return nil
}

// GetWatchTimeStats returns watch time and play count over the
// standard day windows.
func (f *Facade) GetWatchTimeStats(ctx context.Context, sectionID int) ([]models.WatchTimeStat, error) {
	key := sectionKey(sectionID, "watch_time")
	if v, ok := f.aggCache.Get(key); ok {
		return v.([]models.WatchTimeStat), nil
	}

	stats, err := f.db.GetWatchTimeStats(ctx, sectionID, f.grouped)
	if err != nil {
		return nil, err
	}
	f.aggCache.Set(key, stats)
	return stats, nil
}

// GetUserStats returns per-user play counts, busiest first.
func (f *Facade) GetUserStats(ctx context.Context, sectionID int) ([]models.UserStat, error) {
	key := sectionKey(sectionID, "users")
	if v, ok := f.aggCache.Get(key); ok {
		return v.([]models.UserStat), nil
	}

	stats, err := f.db.GetUserStats(ctx, sectionID, f.grouped)
	if err != nil {
		return nil, err
	}
	f.aggCache.Set(key, stats)
	return stats, nil
}

// GetRecentlyWatched returns a section's most recent plays, one per
// item.
func (f *Facade) GetRecentlyWatched(ctx context.Context, sectionID int, limit int) ([]models.RecentlyWatchedItem, error) {
	return f.db.GetRecentlyWatched(ctx, sectionID, limit)
}

// GetSections lists all non-deleted sections.
func (f *Facade) GetSections(ctx context.Context) ([]models.Section, error) {
	return f.db.GetSections(ctx)
}

// SetConfig updates a section's user-editable flags.
func (f *Facade) SetConfig(ctx context.Context, sectionID int, cfg models.SectionConfig) error {
	if sectionID <= 0 {
		return fmt.Errorf("%w: section_id required", ErrInvalidArgument)
	}
	if err := f.db.SetSectionConfig(ctx, sectionID, cfg); err != nil {
		return err
	}
	f.invalidateSection(sectionID)
	return nil
}

// Delete removes a section's history and marks the section deleted.
// The section record itself survives so it can be undeleted.
func (f *Facade) Delete(ctx context.Context, sectionID int) error {
	if sectionID <= 0 {
		return fmt.Errorf("%w: section_id required", ErrInvalidArgument)
	}
	if err := f.db.DeleteAllHistory(ctx, sectionID); err != nil {
		return err
	}
	if err := f.db.SoftDeleteSection(ctx, sectionID); err != nil {
		return err
	}
	f.invalidateSection(sectionID)
	return nil
}

// Undelete restores a soft-deleted section by id, or by name when the
// id is unknown (section ids change across server rebuilds).
func (f *Facade) Undelete(ctx context.Context, sectionID int, sectionName string) error {
	switch {
	case sectionID > 0:
		if err := f.db.UndeleteSection(ctx, sectionID); err != nil {
			return err
		}
		f.invalidateSection(sectionID)
		return nil
	case sectionName != "":
		return f.db.UndeleteSectionByName(ctx, sectionName)
	default:
		return fmt.Errorf("%w: section_id or section_name required", ErrInvalidArgument)
	}
}

// DeleteAllHistory removes a section's watch history, keeping the
// section itself.
func (f *Facade) DeleteAllHistory(ctx context.Context, sectionID int) error {
	if sectionID <= 0 {
		return fmt.Errorf("%w: section_id required", ErrInvalidArgument)
	}
	if err := f.db.DeleteAllHistory(ctx, sectionID); err != nil {
		return err
	}
	f.invalidateSection(sectionID)
	return nil
}

// DeleteMediaInfoCache drops a section's on-disk media-info documents
// so the next grid query rebuilds them from Plex.
func (f *Facade) DeleteMediaInfoCache(ctx context.Context, sectionID int) error {
	if sectionID <= 0 {
		return fmt.Errorf("%w: section_id required", ErrInvalidArgument)
	}
	f.docs.Invalidate(sectionID)
	return nil
}

func (f *Facade) invalidateSection(sectionID int) {
	f.aggCache.DeletePrefix(fmt.Sprintf("section:%d:", sectionID))
}

func detailsKey(sectionID int) string {
	return sectionKey(sectionID, "details")
}

func sectionKey(sectionID int, what string) string {
	return fmt.Sprintf("section:%d:%s", sectionID, what)
}

// defaultDetails is served for sections the Plex server no longer
// reports.
func defaultDetails(sectionID int) *models.LibraryDetails {
	return &models.LibraryDetails{
		SectionID:    sectionID,
		SectionName:  "Local",
		LibraryThumb: models.DefaultCoverThumb,
	}
}

// errorResponse is the grid reply for a request that could not be
// served: empty page, zero counts, the draw token echoed back.
func errorResponse(req models.TableRequest, msg string) models.TableResponse {
	return models.TableResponse{
		Draw:  req.Draw,
		Rows:  []models.MediaInfoRow{},
		Error: "Unable to execute database query: " + msg,
	}
}
