// Shelfwatch - Plex Library Statistics and Media Info
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwatch

package models

// DefaultCoverThumb is served when a section has neither a library
// thumb nor a custom one.
const DefaultCoverThumb = "interfaces/default/images/cover.png"

// LibraryDetails is the per-section metadata record from the history
// store, with the custom-thumb fallback already applied.
type LibraryDetails struct {
	SectionID       int    `json:"section_id"`
	SectionName     string `json:"section_name"`
	SectionType     string `json:"section_type"`
	LibraryThumb    string `json:"library_thumb"`
	LibraryArt      string `json:"library_art"`
	Count           int    `json:"count"`
	ParentCount     int    `json:"parent_count"`
	ChildCount      int    `json:"child_count"`
	DoNotify        bool   `json:"do_notify"`
	DoNotifyCreated bool   `json:"do_notify_created"`
	KeepHistory     bool   `json:"keep_history"`
}

// Section is the short id/name listing of a library section.
type Section struct {
	SectionID   int    `json:"section_id"`
	SectionName string `json:"section_name"`
}

// SectionConfig carries the user-editable per-section flags.
type SectionConfig struct {
	CustomThumbURL  string `json:"custom_thumb_url"`
	DoNotify        bool   `json:"do_notify"`
	DoNotifyCreated bool   `json:"do_notify_created"`
	KeepHistory     bool   `json:"keep_history"`
}

// WatchTimeStat is total watch time and plays over one query window.
// QueryDays of zero means all time.
type WatchTimeStat struct {
	QueryDays  int   `json:"query_days"`
	TotalTime  int64 `json:"total_time"`
	TotalPlays int64 `json:"total_plays"`
}

// UserStat is one user's play count within a section.
type UserStat struct {
	User       string `json:"user"`
	UserID     int    `json:"user_id"`
	Thumb      string `json:"thumb"`
	TotalPlays int64  `json:"total_plays"`
}

// RecentlyWatchedItem is one entry of a section's recent history,
// grouped per item with the episode thumb fallback applied.
type RecentlyWatchedItem struct {
	RowID            int64  `json:"row_id"`
	MediaType        string `json:"media_type"`
	RatingKey        string `json:"rating_key"`
	Title            string `json:"title"`
	ParentTitle      string `json:"parent_title"`
	GrandparentTitle string `json:"grandparent_title"`
	Thumb            string `json:"thumb"`
	MediaIndex       string `json:"media_index"`
	ParentMediaIndex string `json:"parent_media_index"`
	Year             string `json:"year"`
	Time             int64  `json:"time"`
	User             string `json:"user"`
}
