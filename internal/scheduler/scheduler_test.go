// Shelfwatch - Plex Library Statistics and Media Info
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwatch

package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/shelfwatch/internal/models"
)

type fakeRefresher struct {
	mu         sync.Mutex
	catalogs   int
	refreshes  []int
	backfills  []int
	catalogErr error
}

func (f *fakeRefresher) RefreshSectionsCatalog(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.catalogs++
	return f.catalogErr
}

func (f *fakeRefresher) GetSections(ctx context.Context) ([]models.Section, error) {
	return []models.Section{{SectionID: 1}, {SectionID: 2}}, nil
}

func (f *fakeRefresher) RefreshMediaInfo(ctx context.Context, sectionID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes = append(f.refreshes, sectionID)
	return nil
}

func (f *fakeRefresher) BackfillFileSizes(ctx context.Context, sectionID int, ratingKey string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.backfills = append(f.backfills, sectionID)
	return true, nil
}

func (f *fakeRefresher) snapshot() (int, []int, []int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.catalogs, append([]int(nil), f.refreshes...), append([]int(nil), f.backfills...)
}

func TestRefreshServiceRunsOnStartup(t *testing.T) {
	refresher := &fakeRefresher{}
	svc := NewRefreshService(refresher, time.Hour, true)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	deadline := time.After(2 * time.Second)
	for {
		catalogs, refreshes, backfills := refresher.snapshot()
		if catalogs == 1 && len(refreshes) == 2 && len(backfills) == 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("startup refresh incomplete: catalogs=%d refreshes=%v backfills=%v",
				catalogs, refreshes, backfills)
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve returned %v, want context.Canceled", err)
	}
}

func TestRefreshServiceSkipsBackfillWhenDisabled(t *testing.T) {
	refresher := &fakeRefresher{}
	svc := NewRefreshService(refresher, time.Hour, false)

	ctx, cancel := context.WithCancel(context.Background())
	go svc.Serve(ctx)

	deadline := time.After(2 * time.Second)
	for {
		_, refreshes, backfills := refresher.snapshot()
		if len(refreshes) == 2 {
			if len(backfills) != 0 {
				t.Errorf("backfills = %v, want none", backfills)
			}
			break
		}
		select {
		case <-deadline:
			t.Fatal("refresh did not run")
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()
}

func TestRefreshServiceStopsOnCatalogError(t *testing.T) {
	refresher := &fakeRefresher{catalogErr: errors.New("plex down")}
	svc := NewRefreshService(refresher, time.Hour, true)

	ctx, cancel := context.WithCancel(context.Background())
	go svc.Serve(ctx)

	time.Sleep(50 * time.Millisecond)
	cancel()

	_, refreshes, _ := refresher.snapshot()
	if len(refreshes) != 0 {
		t.Errorf("refreshes = %v, want none after catalog failure", refreshes)
	}
}

func TestRefreshServiceZeroIntervalIdles(t *testing.T) {
	refresher := &fakeRefresher{}
	svc := NewRefreshService(refresher, 0, true)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	catalogs, _, _ := refresher.snapshot()
	if catalogs != 0 {
		t.Errorf("catalogs = %d, want 0 with interval disabled", catalogs)
	}
}
