// Shelfwatch - Plex Library Statistics and Media Info
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwatch

// Package api provides the HTTP surface: chi routing, the library
// endpoints and the standard response envelope.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/shelfwatch/internal/library"
	"github.com/tomtom215/shelfwatch/internal/models"
)

// LibraryService is the facade surface the handlers call.
type LibraryService interface {
	GetMediaInfoTable(ctx context.Context, sectionID int, ratingKey string, req models.TableRequest, forceRefresh bool) (models.TableResponse, error)
	BackfillFileSizes(ctx context.Context, sectionID int, ratingKey string) (bool, error)
	GetDetails(ctx context.Context, sectionID int) (*models.LibraryDetails, error)
	GetSections(ctx context.Context) ([]models.Section, error)
	RefreshSectionsCatalog(ctx context.Context) error
	GetWatchTimeStats(ctx context.Context, sectionID int) ([]models.WatchTimeStat, error)
	GetUserStats(ctx context.Context, sectionID int) ([]models.UserStat, error)
	GetRecentlyWatched(ctx context.Context, sectionID int, limit int) ([]models.RecentlyWatchedItem, error)
	SetConfig(ctx context.Context, sectionID int, cfg models.SectionConfig) error
	Delete(ctx context.Context, sectionID int) error
	Undelete(ctx context.Context, sectionID int, sectionName string) error
	DeleteAllHistory(ctx context.Context, sectionID int) error
	DeleteMediaInfoCache(ctx context.Context, sectionID int) error
}

// Pinger reports whether the history store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the library API.
type Handler struct {
	svc LibraryService
	db  Pinger
}

// NewHandler wires a handler over the library facade.
func NewHandler(svc LibraryService, db Pinger) *Handler {
	return &Handler{svc: svc, db: db}
}

// Health reports liveness and history-store reachability.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok", "database": "ok"}
	code := http.StatusOK
	if err := h.db.Ping(r.Context()); err != nil {
		status["status"] = "degraded"
		status["database"] = "unreachable"
		code = http.StatusServiceUnavailable
	}
	respondJSON(w, r, code, status)
}

// Sections lists all non-deleted library sections.
//
// GET /api/v1/libraries
func (h *Handler) Sections(w http.ResponseWriter, r *http.Request) {
	sections, err := h.svc.GetSections(r.Context())
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Unable to list sections", err)
		return
	}
	if sections == nil {
		sections = []models.Section{}
	}
	respondJSON(w, r, http.StatusOK, sections)
}

// RefreshSections pulls the section catalog from Plex.
//
// POST /api/v1/libraries/refresh
func (h *Handler) RefreshSections(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.RefreshSectionsCatalog(r.Context()); err != nil {
		respondError(w, r, http.StatusBadGateway, "UPSTREAM_ERROR", "Unable to refresh section catalog", err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]string{"result": "refreshed"})
}

// Details returns one section's metadata record.
//
// GET /api/v1/libraries/{sectionID}
func (h *Handler) Details(w http.ResponseWriter, r *http.Request) {
	sectionID, ok := h.sectionID(w, r)
	if !ok {
		return
	}

	details, err := h.svc.GetDetails(r.Context(), sectionID)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Unable to load section details", err)
		return
	}
	respondJSON(w, r, http.StatusOK, details)
}

// MediaInfo serves the media-info grid for a section or for one
// item's children.
//
// GET /api/v1/libraries/{sectionID}/media-info
//
// Query parameters: search, order (column:dir,...), start, length,
// draw, rating_key, refresh.
func (h *Handler) MediaInfo(w http.ResponseWriter, r *http.Request) {
	sectionID, ok := h.sectionID(w, r)
	if !ok {
		return
	}

	req := models.TableRequest{
		SearchValue: r.URL.Query().Get("search"),
		SortColumns: parseSortColumns(r.URL.Query().Get("order")),
		Start:       getIntParam(r, "start", 0),
		Length:      getIntParam(r, "length", 25),
		Draw:        getIntParam(r, "draw", 0),
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	ratingKey := r.URL.Query().Get("rating_key")
	refresh := getBoolParam(r, "refresh", false)

	resp, err := h.svc.GetMediaInfoTable(r.Context(), sectionID, ratingKey, req, refresh)
	if err != nil {
		if errors.Is(err, library.ErrInvalidArgument) {
			respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", resp.Error, err)
			return
		}
		respondError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Unable to load media info", err)
		return
	}
	respondJSON(w, r, http.StatusOK, resp)
}

// Backfill computes missing file sizes for a scope's cached rows.
//
// POST /api/v1/libraries/{sectionID}/media-info/backfill
func (h *Handler) Backfill(w http.ResponseWriter, r *http.Request) {
	sectionID, ok := h.sectionID(w, r)
	if !ok {
		return
	}

	processed, err := h.svc.BackfillFileSizes(r.Context(), sectionID, r.URL.Query().Get("rating_key"))
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Unable to backfill file sizes", err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]bool{"processed": processed})
}

// WatchTimeStats returns watch time over the standard day windows.
//
// GET /api/v1/libraries/{sectionID}/watch-time-stats
func (h *Handler) WatchTimeStats(w http.ResponseWriter, r *http.Request) {
	sectionID, ok := h.sectionID(w, r)
	if !ok {
		return
	}

	stats, err := h.svc.GetWatchTimeStats(r.Context(), sectionID)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Unable to load watch time stats", err)
		return
	}
	respondJSON(w, r, http.StatusOK, stats)
}

// UserStats returns per-user play counts for a section.
//
// GET /api/v1/libraries/{sectionID}/user-stats
func (h *Handler) UserStats(w http.ResponseWriter, r *http.Request) {
	sectionID, ok := h.sectionID(w, r)
	if !ok {
		return
	}

	stats, err := h.svc.GetUserStats(r.Context(), sectionID)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Unable to load user stats", err)
		return
	}
	if stats == nil {
		stats = []models.UserStat{}
	}
	respondJSON(w, r, http.StatusOK, stats)
}

// RecentlyWatched returns a section's most recent plays.
//
// GET /api/v1/libraries/{sectionID}/recently-watched
func (h *Handler) RecentlyWatched(w http.ResponseWriter, r *http.Request) {
	sectionID, ok := h.sectionID(w, r)
	if !ok {
		return
	}

	items, err := h.svc.GetRecentlyWatched(r.Context(), sectionID, getIntParam(r, "limit", 10))
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Unable to load recent history", err)
		return
	}
	if items == nil {
		items = []models.RecentlyWatchedItem{}
	}
	respondJSON(w, r, http.StatusOK, items)
}

// SetConfig updates a section's user-editable flags.
//
// PUT /api/v1/libraries/{sectionID}/config
func (h *Handler) SetConfig(w http.ResponseWriter, r *http.Request) {
	sectionID, ok := h.sectionID(w, r)
	if !ok {
		return
	}

	var cfg models.SectionConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", err)
		return
	}

	if err := h.svc.SetConfig(r.Context(), sectionID, cfg); err != nil {
		h.respondFacadeError(w, r, err, "Unable to update section config")
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]string{"result": "updated"})
}

// Delete removes a section's history and soft-deletes the section.
//
// DELETE /api/v1/libraries/{sectionID}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	sectionID, ok := h.sectionID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), sectionID); err != nil {
		h.respondFacadeError(w, r, err, "Unable to delete section")
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]string{"result": "deleted"})
}

// Undelete restores a soft-deleted section by id or name.
//
// POST /api/v1/libraries/undelete?section_id=...&section_name=...
func (h *Handler) Undelete(w http.ResponseWriter, r *http.Request) {
	sectionID := getIntParam(r, "section_id", 0)
	sectionName := r.URL.Query().Get("section_name")

	if err := h.svc.Undelete(r.Context(), sectionID, sectionName); err != nil {
		h.respondFacadeError(w, r, err, "Unable to undelete section")
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]string{"result": "undeleted"})
}

// DeleteHistory removes a section's watch history.
//
// DELETE /api/v1/libraries/{sectionID}/history
func (h *Handler) DeleteHistory(w http.ResponseWriter, r *http.Request) {
	sectionID, ok := h.sectionID(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteAllHistory(r.Context(), sectionID); err != nil {
		h.respondFacadeError(w, r, err, "Unable to delete section history")
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]string{"result": "deleted"})
}

// DeleteMediaInfoCache drops a section's media-info cache documents.
//
// DELETE /api/v1/libraries/{sectionID}/media-info-cache
func (h *Handler) DeleteMediaInfoCache(w http.ResponseWriter, r *http.Request) {
	sectionID, ok := h.sectionID(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteMediaInfoCache(r.Context(), sectionID); err != nil {
		h.respondFacadeError(w, r, err, "Unable to delete media info cache")
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]string{"result": "deleted"})
}

// sectionID parses the section id path parameter, responding with a
// validation error when it is not a positive integer.
func (h *Handler) sectionID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "sectionID"))
	if err != nil || id <= 0 {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR",
			"section id must be a positive integer", nil)
		return 0, false
	}
	return id, true
}

func (h *Handler) respondFacadeError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	if errors.Is(err, library.ErrInvalidArgument) {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	respondError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", msg, err)
}
