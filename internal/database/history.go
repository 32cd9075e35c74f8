// Shelfwatch - Plex Library Statistics and Media Info
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwatch

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/shelfwatch/internal/metrics"
	"github.com/tomtom215/shelfwatch/internal/models"
)

// watchStatKeyColumns whitelists the metadata columns a watch-stats
// aggregate may group by. Interpolated into SQL, so never extend this
// set with caller-supplied values.
var watchStatKeyColumns = map[string]bool{
	"rating_key":             true,
	"parent_rating_key":      true,
	"grandparent_rating_key": true,
}

// groupBy returns the history column that collapses grouped sessions
// into one play. With grouping off every session row counts.
func groupBy(grouped bool) string {
	if grouped {
		return "session_history.reference_id"
	}
	return "session_history.id"
}

// GetWatchStats aggregates last-watched time and play count for every
// item of a section, keyed by the given metadata column (rating_key,
// parent_rating_key or grandparent_rating_key depending on how the
// grid groups the section's rows).
func (db *DB) GetWatchStats(ctx context.Context, sectionID int, keyColumn string, grouped bool) (map[string]models.WatchStat, error) {
	if !watchStatKeyColumns[keyColumn] {
		return nil, fmt.Errorf("invalid watch-stat key column %q", keyColumn)
	}

	start := time.Now()

	query := fmt.Sprintf(
		`SELECT session_history_metadata.%[1]s,
		        MAX(session_history.started) AS last_watched,
		        COUNT(DISTINCT %[2]s) AS play_count
		 FROM session_history
		 JOIN session_history_metadata ON session_history_metadata.id = session_history.id
		 WHERE session_history_metadata.section_id = ?
		   AND session_history_metadata.%[1]s != ''
		 GROUP BY session_history_metadata.%[1]s`,
		keyColumn, groupBy(grouped))

	rows, err := db.conn.QueryContext(ctx, query, sectionID)
	metrics.RecordDBQuery("get_watch_stats", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("query watch stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]models.WatchStat)
	for rows.Next() {
		var s models.WatchStat
		if err := rows.Scan(&s.RatingKey, &s.LastWatched, &s.PlayCount); err != nil {
			return nil, fmt.Errorf("scan watch stat: %w", err)
		}
		stats[s.RatingKey] = s
	}
	return stats, rows.Err()
}

// WatchTimeWindows are the day windows of the watch-time summary, in
// presentation order. Zero means all time.
var WatchTimeWindows = []int{1, 7, 30, 0}

// GetWatchTimeStats returns total watch time and play count for each
// window of WatchTimeWindows. Watch time excludes paused time and only
// counts completed sessions.
func (db *DB) GetWatchTimeStats(ctx context.Context, sectionID int, grouped bool) ([]models.WatchTimeStat, error) {
	start := time.Now()
	now := start.Unix()

	stats := make([]models.WatchTimeStat, 0, len(WatchTimeWindows))
	for _, days := range WatchTimeWindows {
		var cutoff int64
		if days > 0 {
			cutoff = now - int64(days)*86400
		}

		query := fmt.Sprintf(
			`SELECT COALESCE(SUM(CASE WHEN session_history.stopped > 0
			                          THEN session_history.stopped - session_history.started
			                          ELSE 0 END), 0)
			        - COALESCE(SUM(COALESCE(session_history.paused_counter, 0)), 0) AS total_time,
			        COUNT(DISTINCT %s) AS total_plays
			 FROM session_history
			 JOIN session_history_metadata ON session_history_metadata.id = session_history.id
			 WHERE session_history_metadata.section_id = ?
			   AND session_history.started >= ?`,
			groupBy(grouped))

		var s models.WatchTimeStat
		s.QueryDays = days
		err := db.conn.QueryRowContext(ctx, query, sectionID, cutoff).
			Scan(&s.TotalTime, &s.TotalPlays)
		if err != nil {
			metrics.RecordDBQuery("get_watch_time_stats", time.Since(start), err)
			return nil, fmt.Errorf("query watch time stats (%d days): %w", days, err)
		}
		stats = append(stats, s)
	}

	metrics.RecordDBQuery("get_watch_time_stats", time.Since(start), nil)
	return stats, nil
}

// GetUserStats returns per-user play counts for a section, busiest
// user first. The friendly name wins over the account name when set.
func (db *DB) GetUserStats(ctx context.Context, sectionID int, grouped bool) ([]models.UserStat, error) {
	start := time.Now()

	query := fmt.Sprintf(
		`SELECT CASE WHEN users.friendly_name != '' THEN users.friendly_name
		             ELSE users.username END AS user,
		        users.user_id,
		        users.thumb,
		        COUNT(DISTINCT %s) AS total_plays
		 FROM session_history
		 JOIN session_history_metadata ON session_history_metadata.id = session_history.id
		 JOIN users ON users.user_id = session_history.user_id
		 WHERE session_history_metadata.section_id = ?
		 GROUP BY users.user_id, users.username, users.friendly_name, users.thumb
		 ORDER BY total_plays DESC, user ASC`,
		groupBy(grouped))

	rows, err := db.conn.QueryContext(ctx, query, sectionID)
	metrics.RecordDBQuery("get_user_stats", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("query user stats: %w", err)
	}
	defer rows.Close()

	var stats []models.UserStat
	for rows.Next() {
		var s models.UserStat
		if err := rows.Scan(&s.User, &s.UserID, &s.Thumb, &s.TotalPlays); err != nil {
			return nil, fmt.Errorf("scan user stat: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// GetRecentlyWatched returns a section's most recent history, one
// entry per item. Tracks collapse onto their album so one listening
// session does not flood the list.
func (db *DB) GetRecentlyWatched(ctx context.Context, sectionID int, limit int) ([]models.RecentlyWatchedItem, error) {
	if limit <= 0 {
		limit = 10
	}

	start := time.Now()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, media_type, rating_key, title, parent_title, grandparent_title,
		        thumb, parent_thumb, media_index, parent_media_index, year, started, username
		 FROM (
			SELECT session_history.id, session_history.started, session_history.username,
			       session_history_metadata.media_type,
			       session_history_metadata.rating_key,
			       session_history_metadata.title,
			       session_history_metadata.parent_title,
			       session_history_metadata.grandparent_title,
			       session_history_metadata.thumb,
			       session_history_metadata.parent_thumb,
			       session_history_metadata.media_index,
			       session_history_metadata.parent_media_index,
			       session_history_metadata.year,
			       ROW_NUMBER() OVER (
				PARTITION BY CASE WHEN session_history_metadata.media_type = 'track'
				                  THEN session_history_metadata.parent_rating_key
				                  ELSE session_history_metadata.rating_key END
				ORDER BY session_history.started DESC) AS rn
			FROM session_history
			JOIN session_history_metadata ON session_history_metadata.id = session_history.id
			WHERE session_history_metadata.section_id = ?
		 ) AS ranked
		 WHERE rn = 1
		 ORDER BY started DESC
		 LIMIT ?`, sectionID, limit)
	metrics.RecordDBQuery("get_recently_watched", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("query recently watched: %w", err)
	}
	defer rows.Close()

	var items []models.RecentlyWatchedItem
	for rows.Next() {
		var it models.RecentlyWatchedItem
		var parentThumb string
		if err := rows.Scan(&it.RowID, &it.MediaType, &it.RatingKey, &it.Title,
			&it.ParentTitle, &it.GrandparentTitle, &it.Thumb, &parentThumb,
			&it.MediaIndex, &it.ParentMediaIndex, &it.Year, &it.Time, &it.User); err != nil {
			return nil, fmt.Errorf("scan recently watched: %w", err)
		}
		// Episodes without their own thumb show the season's.
		if it.MediaType == models.SectionTypeEpisode && parentThumb != "" {
			it.Thumb = parentThumb
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// DeleteAllHistory removes every history row of a section. Session
// rows go first so the metadata subquery still resolves them.
func (db *DB) DeleteAllHistory(ctx context.Context, sectionID int) error {
	start := time.Now()

	_, err := db.conn.ExecContext(ctx,
		`DELETE FROM session_history
		 WHERE id IN (SELECT id FROM session_history_metadata WHERE section_id = ?)`,
		sectionID)
	if err == nil {
		_, err = db.conn.ExecContext(ctx,
			`DELETE FROM session_history_metadata WHERE section_id = ?`, sectionID)
	}
	metrics.RecordDBQuery("delete_all_history", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("delete section history: %w", err)
	}
	return nil
}
