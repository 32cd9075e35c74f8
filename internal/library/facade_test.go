// Shelfwatch - Plex Library Statistics and Media Info
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwatch

package library

import (
	"context"
	"errors"
	"testing"

	"github.com/tomtom215/shelfwatch/internal/database"
	"github.com/tomtom215/shelfwatch/internal/mediainfo"
	"github.com/tomtom215/shelfwatch/internal/models"
)

type fakeStore struct {
	details      map[int]*models.LibraryDetails
	sections     []models.Section
	watchStats   map[string]models.WatchStat
	watchStatKey string
	upserts      int
	configs      map[int]models.SectionConfig
	deletedHist  []int
	softDeleted  []int
	undeleted    []int
	undeletedBy  []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		details: make(map[int]*models.LibraryDetails),
		configs: make(map[int]models.SectionConfig),
	}
}

func (s *fakeStore) GetSectionDetails(ctx context.Context, sectionID int) (*models.LibraryDetails, error) {
	if d, ok := s.details[sectionID]; ok {
		return d, nil
	}
	return nil, database.ErrNotFound
}

func (s *fakeStore) GetSections(ctx context.Context) ([]models.Section, error) {
	return s.sections, nil
}

func (s *fakeStore) UpsertSection(ctx context.Context, sectionID int, name, sectionType, thumb, art string) error {
	s.upserts++
	s.details[sectionID] = &models.LibraryDetails{
		SectionID: sectionID, SectionName: name, SectionType: sectionType,
	}
	return nil
}

func (s *fakeStore) SetSectionConfig(ctx context.Context, sectionID int, cfg models.SectionConfig) error {
	s.configs[sectionID] = cfg
	return nil
}

func (s *fakeStore) SoftDeleteSection(ctx context.Context, sectionID int) error {
	s.softDeleted = append(s.softDeleted, sectionID)
	return nil
}

func (s *fakeStore) UndeleteSection(ctx context.Context, sectionID int) error {
	s.undeleted = append(s.undeleted, sectionID)
	return nil
}

func (s *fakeStore) UndeleteSectionByName(ctx context.Context, sectionName string) error {
	s.undeletedBy = append(s.undeletedBy, sectionName)
	return nil
}

func (s *fakeStore) GetWatchStats(ctx context.Context, sectionID int, keyColumn string, grouped bool) (map[string]models.WatchStat, error) {
	s.watchStatKey = keyColumn
	return s.watchStats, nil
}

func (s *fakeStore) GetWatchTimeStats(ctx context.Context, sectionID int, grouped bool) ([]models.WatchTimeStat, error) {
	return []models.WatchTimeStat{{QueryDays: 1}, {QueryDays: 7}, {QueryDays: 30}, {QueryDays: 0}}, nil
}

func (s *fakeStore) GetUserStats(ctx context.Context, sectionID int, grouped bool) ([]models.UserStat, error) {
	return []models.UserStat{{User: "alice", TotalPlays: 3}}, nil
}

func (s *fakeStore) GetRecentlyWatched(ctx context.Context, sectionID int, limit int) ([]models.RecentlyWatchedItem, error) {
	return nil, nil
}

func (s *fakeStore) DeleteAllHistory(ctx context.Context, sectionID int) error {
	s.deletedHist = append(s.deletedHist, sectionID)
	return nil
}

type fakeCatalog struct {
	sections []models.PlexLibrarySection
	err      error
	calls    int
}

func (c *fakeCatalog) GetLibrarySections(ctx context.Context) ([]models.PlexLibrarySection, error) {
	c.calls++
	return c.sections, c.err
}

type fakeReconciler struct {
	rows      []models.MediaInfoRow
	err       error
	backfills int
	lastType  string
}

func (r *fakeReconciler) Reconcile(ctx context.Context, sectionID int, sectionType, ratingKey string, forceRefresh bool) ([]models.MediaInfoRow, int, error) {
	r.lastType = sectionType
	if r.err != nil {
		return nil, 0, r.err
	}
	return r.rows, len(r.rows), nil
}

func (r *fakeReconciler) BackfillFileSizes(ctx context.Context, sectionID int, sectionType, ratingKey string) (bool, error) {
	r.backfills++
	r.lastType = sectionType
	return true, nil
}

type fakeInvalidator struct {
	invalidated []int
}

func (d *fakeInvalidator) Invalidate(sectionID int) {
	d.invalidated = append(d.invalidated, sectionID)
}

func newTestFacade(store *fakeStore, catalog *fakeCatalog, rec *fakeReconciler, docs *fakeInvalidator) *Facade {
	f := NewFacade(store, catalog, rec, docs, Options{GroupHistory: true})
	return f
}

func TestGetMediaInfoTableJoinsAndCounts(t *testing.T) {
	store := newFakeStore()
	store.details[1] = &models.LibraryDetails{SectionID: 1, SectionType: "movie"}
	store.watchStats = map[string]models.WatchStat{
		"m1": {RatingKey: "m1", LastWatched: 500, PlayCount: 2},
	}
	rec := &fakeReconciler{rows: []models.MediaInfoRow{
		{RatingKey: "m1", Title: "Alpha"},
		{RatingKey: "m2", Title: "Beta"},
	}}
	f := newTestFacade(store, &fakeCatalog{}, rec, &fakeInvalidator{})
	defer f.Close()

	resp, err := f.GetMediaInfoTable(context.Background(), 1, "",
		models.TableRequest{Draw: 7, Length: 25}, false)
	if err != nil {
		t.Fatalf("GetMediaInfoTable: %v", err)
	}

	if resp.Draw != 7 {
		t.Errorf("Draw = %d", resp.Draw)
	}
	if resp.RecordsTotal != 2 || resp.RecordsFiltered != 2 {
		t.Errorf("counts = %d/%d", resp.RecordsTotal, resp.RecordsFiltered)
	}
	if store.watchStatKey != "rating_key" {
		t.Errorf("watch stat key = %q for movie section", store.watchStatKey)
	}
	if resp.Rows[0].PlayCount == nil || *resp.Rows[0].PlayCount != 2 {
		t.Errorf("watch stats not joined: %+v", resp.Rows[0])
	}
	if resp.Rows[1].PlayCount != nil {
		t.Error("row without history must keep nil overlay")
	}
}

func TestGetMediaInfoTableShowSectionGroupsByGrandparent(t *testing.T) {
	store := newFakeStore()
	store.details[2] = &models.LibraryDetails{SectionID: 2, SectionType: "show"}
	rec := &fakeReconciler{rows: []models.MediaInfoRow{{RatingKey: "show1", MediaType: "show", Title: "X"}}}
	f := newTestFacade(store, &fakeCatalog{}, rec, &fakeInvalidator{})
	defer f.Close()

	_, err := f.GetMediaInfoTable(context.Background(), 2, "", models.TableRequest{Length: 10}, false)
	if err != nil {
		t.Fatal(err)
	}
	if store.watchStatKey != "grandparent_rating_key" {
		t.Errorf("watch stat key = %q, want grandparent_rating_key", store.watchStatKey)
	}
}

func TestGetMediaInfoTableChildScopeUsesRowMediaType(t *testing.T) {
	store := newFakeStore()
	store.details[2] = &models.LibraryDetails{SectionID: 2, SectionType: "show"}
	rec := &fakeReconciler{rows: []models.MediaInfoRow{
		{RatingKey: "s1", MediaType: "season", Title: "Season 1", MediaIndex: "1"},
	}}
	f := newTestFacade(store, &fakeCatalog{}, rec, &fakeInvalidator{})
	defer f.Close()

	_, err := f.GetMediaInfoTable(context.Background(), 2, "show1", models.TableRequest{Length: 10}, false)
	if err != nil {
		t.Fatal(err)
	}
	if store.watchStatKey != "parent_rating_key" {
		t.Errorf("watch stat key = %q, want parent_rating_key for seasons", store.watchStatKey)
	}
}

func TestGetMediaInfoTableNoDataIsEmptyResponse(t *testing.T) {
	store := newFakeStore()
	store.details[1] = &models.LibraryDetails{SectionID: 1, SectionType: "movie"}
	rec := &fakeReconciler{err: mediainfo.ErrNoData}
	f := newTestFacade(store, &fakeCatalog{}, rec, &fakeInvalidator{})
	defer f.Close()

	resp, err := f.GetMediaInfoTable(context.Background(), 1, "", models.TableRequest{Draw: 3, Length: 10}, false)
	if err != nil {
		t.Fatalf("no-data must not be an error: %v", err)
	}
	if resp.Draw != 3 || resp.RecordsTotal != 0 || len(resp.Rows) != 0 {
		t.Errorf("resp = %+v", resp)
	}
	if resp.Rows == nil {
		t.Error("Rows must be an empty slice, not nil")
	}
}

func TestGetMediaInfoTableRejectsInvalidRequest(t *testing.T) {
	f := newTestFacade(newFakeStore(), &fakeCatalog{}, &fakeReconciler{}, &fakeInvalidator{})
	defer f.Close()

	_, err := f.GetMediaInfoTable(context.Background(), 0, "", models.TableRequest{}, false)
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("err = %v, want ErrInvalidArgument", err)
	}

	resp, err := f.GetMediaInfoTable(context.Background(), 1, "",
		models.TableRequest{Draw: 9, Start: -5, Length: 10}, false)
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("err = %v, want ErrInvalidArgument", err)
	}
	if resp.Draw != 9 || resp.Error == "" {
		t.Errorf("error response = %+v", resp)
	}
}

func TestGetDetailsRefreshesCatalogOnMiss(t *testing.T) {
	store := newFakeStore()
	catalog := &fakeCatalog{sections: []models.PlexLibrarySection{
		{Key: "5", Type: "movie", Title: "Movies"},
	}}
	f := newTestFacade(store, catalog, &fakeReconciler{}, &fakeInvalidator{})
	defer f.Close()

	d, err := f.GetDetails(context.Background(), 5)
	if err != nil {
		t.Fatal(err)
	}
	if catalog.calls != 1 {
		t.Errorf("catalog calls = %d, want 1", catalog.calls)
	}
	if d.SectionName != "Movies" {
		t.Errorf("details = %+v", d)
	}

	// Second read is served from the aggregate cache.
	if _, err := f.GetDetails(context.Background(), 5); err != nil {
		t.Fatal(err)
	}
	if catalog.calls != 1 {
		t.Errorf("catalog calls after cached read = %d", catalog.calls)
	}
}

func TestGetDetailsUnknownSectionDefaults(t *testing.T) {
	f := newTestFacade(newFakeStore(), &fakeCatalog{}, &fakeReconciler{}, &fakeInvalidator{})
	defer f.Close()

	d, err := f.GetDetails(context.Background(), 42)
	if err != nil {
		t.Fatal(err)
	}
	if d.SectionID != 42 || d.SectionName != "Local" {
		t.Errorf("default details = %+v", d)
	}
	if d.LibraryThumb != models.DefaultCoverThumb {
		t.Errorf("LibraryThumb = %q", d.LibraryThumb)
	}
}

func TestDeleteRemovesHistoryThenSection(t *testing.T) {
	store := newFakeStore()
	f := newTestFacade(store, &fakeCatalog{}, &fakeReconciler{}, &fakeInvalidator{})
	defer f.Close()

	if err := f.Delete(context.Background(), 3); err != nil {
		t.Fatal(err)
	}
	if len(store.deletedHist) != 1 || store.deletedHist[0] != 3 {
		t.Errorf("deletedHist = %v", store.deletedHist)
	}
	if len(store.softDeleted) != 1 || store.softDeleted[0] != 3 {
		t.Errorf("softDeleted = %v", store.softDeleted)
	}
}

func TestUndeleteByIDOrName(t *testing.T) {
	store := newFakeStore()
	f := newTestFacade(store, &fakeCatalog{}, &fakeReconciler{}, &fakeInvalidator{})
	defer f.Close()

	if err := f.Undelete(context.Background(), 3, ""); err != nil {
		t.Fatal(err)
	}
	if err := f.Undelete(context.Background(), 0, "Movies"); err != nil {
		t.Fatal(err)
	}
	if err := f.Undelete(context.Background(), 0, ""); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("err = %v, want ErrInvalidArgument", err)
	}

	if len(store.undeleted) != 1 || store.undeleted[0] != 3 {
		t.Errorf("undeleted = %v", store.undeleted)
	}
	if len(store.undeletedBy) != 1 || store.undeletedBy[0] != "Movies" {
		t.Errorf("undeletedBy = %v", store.undeletedBy)
	}
}

func TestDeleteMediaInfoCache(t *testing.T) {
	docs := &fakeInvalidator{}
	f := newTestFacade(newFakeStore(), &fakeCatalog{}, &fakeReconciler{}, docs)
	defer f.Close()

	if err := f.DeleteMediaInfoCache(context.Background(), 7); err != nil {
		t.Fatal(err)
	}
	if len(docs.invalidated) != 1 || docs.invalidated[0] != 7 {
		t.Errorf("invalidated = %v", docs.invalidated)
	}
}

func TestBackfillUsesSectionType(t *testing.T) {
	store := newFakeStore()
	store.details[4] = &models.LibraryDetails{SectionID: 4, SectionType: "show"}
	rec := &fakeReconciler{}
	f := newTestFacade(store, &fakeCatalog{}, rec, &fakeInvalidator{})
	defer f.Close()

	done, err := f.BackfillFileSizes(context.Background(), 4, "")
	if err != nil {
		t.Fatal(err)
	}
	if !done || rec.backfills != 1 || rec.lastType != "show" {
		t.Errorf("backfill: done=%v calls=%d type=%q", done, rec.backfills, rec.lastType)
	}
}

func TestAggregateCaching(t *testing.T) {
	store := newFakeStore()
	f := newTestFacade(store, &fakeCatalog{}, &fakeReconciler{}, &fakeInvalidator{})
	defer f.Close()

	stats, err := f.GetWatchTimeStats(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(stats) != 4 {
		t.Fatalf("got %d windows", len(stats))
	}

	users, err := f.GetUserStats(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(users) != 1 || users[0].User != "alice" {
		t.Errorf("users = %+v", users)
	}
}

func TestSetConfigStores(t *testing.T) {
	store := newFakeStore()
	f := newTestFacade(store, &fakeCatalog{}, &fakeReconciler{}, &fakeInvalidator{})
	defer f.Close()

	cfg := models.SectionConfig{KeepHistory: true, CustomThumbURL: "/x"}
	if err := f.SetConfig(context.Background(), 2, cfg); err != nil {
		t.Fatal(err)
	}
	if store.configs[2].CustomThumbURL != "/x" {
		t.Errorf("config not stored: %+v", store.configs)
	}

	if err := f.SetConfig(context.Background(), 0, cfg); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("err = %v, want ErrInvalidArgument", err)
	}
}
