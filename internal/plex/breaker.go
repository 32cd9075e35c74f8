// Shelfwatch - Plex Library Statistics and Media Info
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwatch

package plex

import (
	"context"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/shelfwatch/internal/logging"
	"github.com/tomtom215/shelfwatch/internal/metrics"
	"github.com/tomtom215/shelfwatch/internal/models"
)

// Breaker wraps Client with a circuit breaker so a slow or unreachable
// Plex server cannot stack up reconcile requests. It satisfies the
// reconciler's MediaClient interface.
//
// The breaker uses real time for its interval and timeout windows;
// tests exercise the wrapped client directly.
type Breaker struct {
	client *Client
	cb     *gobreaker.CircuitBreaker[[]models.MediaInfoRow]
	name   string
}

// NewBreaker wraps a Plex client with a circuit breaker.
//
// Configuration: opens after a 60% failure rate over at least 10
// requests within a 1 minute window; half-open after 2 minutes with up
// to 3 probe requests.
func NewBreaker(client *Client) *Breaker {
	cbName := "plex-api"

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[[]models.MediaInfoRow](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}

			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6

			if shouldTrip {
				logging.Warn().Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("[CIRCUIT BREAKER] Opening circuit")
			}

			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := stateToString(from), stateToString(to)

			logging.Info().Str("from", fromStr).Str("to", toStr).
				Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return &Breaker{client: client, cb: cb, name: cbName}
}

// SectionChildren lists a section's items through the breaker.
func (b *Breaker) SectionChildren(ctx context.Context, sectionID int, sectionType string) ([]models.MediaInfoRow, error) {
	return b.cb.Execute(func() ([]models.MediaInfoRow, error) {
		return b.client.SectionChildren(ctx, sectionID, sectionType)
	})
}

// ItemChildren lists an item's children through the breaker.
func (b *Breaker) ItemChildren(ctx context.Context, ratingKey string) ([]models.MediaInfoRow, error) {
	return b.cb.Execute(func() ([]models.MediaInfoRow, error) {
		return b.client.ItemChildren(ctx, ratingKey)
	})
}

// LeafMediaInfo lists an item's leaf descendants through the breaker.
func (b *Breaker) LeafMediaInfo(ctx context.Context, ratingKey string) ([]models.MediaInfoRow, error) {
	return b.cb.Execute(func() ([]models.MediaInfoRow, error) {
		return b.client.LeafMediaInfo(ctx, ratingKey)
	})
}

// GetLibrarySections lists library sections, bypassing the breaker:
// the section list backs catalog refresh, which already falls back to
// a default record on failure.
func (b *Breaker) GetLibrarySections(ctx context.Context) ([]models.PlexLibrarySection, error) {
	return b.client.GetLibrarySections(ctx)
}

func stateToString(s gobreaker.State) string {
	switch s {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
