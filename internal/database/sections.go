// Shelfwatch - Plex Library Statistics and Media Info
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwatch

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/shelfwatch/internal/metrics"
	"github.com/tomtom215/shelfwatch/internal/models"
)

// GetSectionDetails returns the metadata record for one section, with
// the custom-thumb fallback applied. Returns ErrNotFound when the
// section is unknown.
func (db *DB) GetSectionDetails(ctx context.Context, sectionID int) (*models.LibraryDetails, error) {
	start := time.Now()

	row := db.conn.QueryRowContext(ctx,
		`SELECT section_id, section_name, section_type, count, parent_count, child_count,
		        thumb, custom_thumb_url, art, do_notify, do_notify_created, keep_history
		 FROM library_sections
		 WHERE section_id = ?`, sectionID)

	var d models.LibraryDetails
	var thumb, customThumb string
	err := row.Scan(&d.SectionID, &d.SectionName, &d.SectionType, &d.Count,
		&d.ParentCount, &d.ChildCount, &thumb, &customThumb, &d.LibraryArt,
		&d.DoNotify, &d.DoNotifyCreated, &d.KeepHistory)
	metrics.RecordDBQuery("get_section_details", time.Since(start), err)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query section details: %w", err)
	}

	switch {
	case customThumb != "" && customThumb != thumb:
		d.LibraryThumb = customThumb
	case thumb != "":
		d.LibraryThumb = thumb
	default:
		d.LibraryThumb = models.DefaultCoverThumb
	}

	return &d, nil
}

// GetSections lists the id and name of every non-deleted section.
func (db *DB) GetSections(ctx context.Context) ([]models.Section, error) {
	start := time.Now()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT section_id, section_name FROM library_sections WHERE NOT deleted_section`)
	metrics.RecordDBQuery("get_sections", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("query sections: %w", err)
	}
	defer rows.Close()

	var sections []models.Section
	for rows.Next() {
		var s models.Section
		if err := rows.Scan(&s.SectionID, &s.SectionName); err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		sections = append(sections, s)
	}
	return sections, rows.Err()
}

// UpsertSection inserts or refreshes one library section record from
// the Plex catalog. Counts and flags of existing records survive;
// name, type, thumb and art follow the catalog.
func (db *DB) UpsertSection(ctx context.Context, sectionID int, name, sectionType, thumb, art string) error {
	start := time.Now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO library_sections (section_id, section_name, section_type, thumb, art)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (section_id) DO UPDATE SET
			section_name = excluded.section_name,
			section_type = excluded.section_type,
			thumb = excluded.thumb,
			art = excluded.art`,
		sectionID, name, sectionType, thumb, art)
	metrics.RecordDBQuery("upsert_section", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("upsert section: %w", err)
	}
	return nil
}

// SetSectionConfig updates the user-editable flags of one section.
func (db *DB) SetSectionConfig(ctx context.Context, sectionID int, cfg models.SectionConfig) error {
	start := time.Now()

	_, err := db.conn.ExecContext(ctx,
		`UPDATE library_sections
		 SET custom_thumb_url = ?, do_notify = ?, do_notify_created = ?, keep_history = ?
		 WHERE section_id = ?`,
		cfg.CustomThumbURL, cfg.DoNotify, cfg.DoNotifyCreated, cfg.KeepHistory, sectionID)
	metrics.RecordDBQuery("set_section_config", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("set section config: %w", err)
	}
	return nil
}

// SoftDeleteSection marks a section deleted and disables its flags.
// History rows are removed separately via DeleteAllHistory.
func (db *DB) SoftDeleteSection(ctx context.Context, sectionID int) error {
	start := time.Now()

	_, err := db.conn.ExecContext(ctx,
		`UPDATE library_sections
		 SET deleted_section = TRUE, keep_history = FALSE,
		     do_notify = FALSE, do_notify_created = FALSE
		 WHERE section_id = ?`, sectionID)
	metrics.RecordDBQuery("soft_delete_section", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("soft delete section: %w", err)
	}
	return nil
}

// UndeleteSection restores a soft-deleted section by id, re-enabling
// its flags.
func (db *DB) UndeleteSection(ctx context.Context, sectionID int) error {
	return db.undelete(ctx, "section_id = ?", sectionID)
}

// UndeleteSectionByName restores a soft-deleted section by name, for
// sections whose id changed across server rebuilds.
func (db *DB) UndeleteSectionByName(ctx context.Context, sectionName string) error {
	return db.undelete(ctx, "section_name = ?", sectionName)
}

func (db *DB) undelete(ctx context.Context, where string, arg interface{}) error {
	start := time.Now()

	_, err := db.conn.ExecContext(ctx,
		`UPDATE library_sections
		 SET deleted_section = FALSE, keep_history = TRUE,
		     do_notify = TRUE, do_notify_created = TRUE
		 WHERE `+where, arg)
	metrics.RecordDBQuery("undelete_section", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("undelete section: %w", err)
	}
	return nil
}
