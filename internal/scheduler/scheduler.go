// Shelfwatch - Plex Library Statistics and Media Info
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwatch

// Package scheduler runs the background work under a suture
// supervisor: the periodic media-info refresh and the HTTP server.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"

	"github.com/tomtom215/shelfwatch/internal/logging"
	"github.com/tomtom215/shelfwatch/internal/models"
)

// SectionRefresher is the facade surface the refresh schedule drives.
type SectionRefresher interface {
	RefreshSectionsCatalog(ctx context.Context) error
	GetSections(ctx context.Context) ([]models.Section, error)
	RefreshMediaInfo(ctx context.Context, sectionID int) error
	BackfillFileSizes(ctx context.Context, sectionID int, ratingKey string) (bool, error)
}

// RefreshService periodically refreshes the section catalog and each
// section's media-info cache. Implements suture.Service.
type RefreshService struct {
	refresher SectionRefresher
	interval  time.Duration
	backfill  bool
}

// NewRefreshService builds the refresh schedule. An interval of zero
// disables the ticks; the service then just waits for shutdown.
func NewRefreshService(refresher SectionRefresher, interval time.Duration, backfill bool) *RefreshService {
	return &RefreshService{refresher: refresher, interval: interval, backfill: backfill}
}

// Serve implements suture.Service. Runs one refresh on startup, then
// one per interval until the context is canceled.
func (s *RefreshService) Serve(ctx context.Context) error {
	if s.interval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	s.refreshAll(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.refreshAll(ctx)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *RefreshService) refreshAll(ctx context.Context) {
	start := time.Now()

	if err := s.refresher.RefreshSectionsCatalog(ctx); err != nil {
		logging.Warn().Err(err).Msg("Scheduled section catalog refresh failed")
		return
	}

	sections, err := s.refresher.GetSections(ctx)
	if err != nil {
		logging.Warn().Err(err).Msg("Unable to list sections for scheduled refresh")
		return
	}

	for _, section := range sections {
		if ctx.Err() != nil {
			return
		}
		if err := s.refresher.RefreshMediaInfo(ctx, section.SectionID); err != nil {
			logging.Warn().Err(err).Int("section_id", section.SectionID).
				Msg("Scheduled media info refresh failed")
			continue
		}
		if s.backfill {
			if _, err := s.refresher.BackfillFileSizes(ctx, section.SectionID, ""); err != nil {
				logging.Warn().Err(err).Int("section_id", section.SectionID).
					Msg("Scheduled file size backfill failed")
			}
		}
	}

	logging.Info().Int("sections", len(sections)).
		Dur("elapsed", time.Since(start)).Msg("Scheduled media info refresh complete")
}

// String implements fmt.Stringer for supervisor logs.
func (s *RefreshService) String() string {
	return "media-info-refresh"
}

// NewSupervisor builds the root supervisor with sutureslog event
// logging and suture's stock failure policy.
func NewSupervisor(name string, logger *slog.Logger) *suture.Supervisor {
	handler := &sutureslog.Handler{Logger: logger}
	return suture.New(name, suture.Spec{
		EventHook:        handler.MustHook(),
		FailureThreshold: 5.0,
		FailureDecay:     30.0,
		FailureBackoff:   15 * time.Second,
		Timeout:          10 * time.Second,
	})
}
