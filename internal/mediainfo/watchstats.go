// Shelfwatch - Plex Library Statistics and Media Info
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwatch

package mediainfo

import "github.com/tomtom215/shelfwatch/internal/models"

// GroupKeyForSectionType returns the history column watch aggregates
// group by for a section type: the grandparent rating key for
// show/artist sections, the parent rating key for season/album, and
// the item's own rating key otherwise.
func GroupKeyForSectionType(sectionType string) string {
	switch sectionType {
	case models.SectionTypeShow, models.SectionTypeArtist:
		return "grandparent_rating_key"
	case models.SectionTypeSeason, models.SectionTypeAlbum:
		return "parent_rating_key"
	default:
		return "rating_key"
	}
}

// JoinWatchStats overlays last-watched timestamps and play counts onto
// rows, matching each row's own rating key against the precomputed
// aggregate map. Rows without an aggregate get nil overlays.
func JoinWatchStats(rows []models.MediaInfoRow, stats map[string]models.WatchStat) []models.MediaInfoRow {
	for i := range rows {
		if stat, ok := stats[rows[i].RatingKey]; ok {
			lastWatched, playCount := stat.LastWatched, stat.PlayCount
			rows[i].LastWatched = &lastWatched
			rows[i].PlayCount = &playCount
		} else {
			rows[i].LastWatched = nil
			rows[i].PlayCount = nil
		}
	}
	return rows
}
