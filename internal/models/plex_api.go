// Shelfwatch - Plex Library Statistics and Media Info
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwatch

package models

// Plex API response structures for library content endpoints.
// Based on Plex Media Server API: /library/sections/{key}/all and
// /library/metadata/{ratingKey}/children.

// PlexChildrenResponse is the top-level response for section or item
// children listings.
type PlexChildrenResponse struct {
	MediaContainer PlexChildrenContainer `json:"MediaContainer"`
}

// PlexChildrenContainer wraps the metadata array of a children listing.
type PlexChildrenContainer struct {
	Size      int                 `json:"size"`
	TotalSize int                 `json:"totalSize"`
	Metadata  []PlexChildMetadata `json:"Metadata"`
}

// PlexChildMetadata is one media item in a children listing, with
// optional media/part descriptors when media info was requested.
type PlexChildMetadata struct {
	RatingKey            string `json:"ratingKey"`
	Key                  string `json:"key"`
	ParentRatingKey      string `json:"parentRatingKey,omitempty"`
	GrandparentRatingKey string `json:"grandparentRatingKey,omitempty"`

	Type  string `json:"type"` // "movie", "show", "episode", "track", ...
	Title string `json:"title"`
	Thumb string `json:"thumb,omitempty"`

	Year        int   `json:"year,omitempty"`
	Index       int   `json:"index,omitempty"`       // episode/track number
	ParentIndex int   `json:"parentIndex,omitempty"` // season/disc number
	AddedAt     int64 `json:"addedAt,omitempty"`     // unix seconds

	Media []PlexMedia `json:"Media,omitempty"`
}

// PlexMedia is one media version of an item (codec, bitrate, parts).
type PlexMedia struct {
	ID              int        `json:"id"`
	Bitrate         int        `json:"bitrate,omitempty"` // kbps
	Container       string     `json:"container,omitempty"`
	VideoCodec      string     `json:"videoCodec,omitempty"`
	VideoResolution string     `json:"videoResolution,omitempty"`
	VideoFrameRate  string     `json:"videoFrameRate,omitempty"`
	AudioCodec      string     `json:"audioCodec,omitempty"`
	AudioChannels   int        `json:"audioChannels,omitempty"`
	Part            []PlexPart `json:"Part,omitempty"`
}

// PlexPart is one file of a media version.
type PlexPart struct {
	ID        int    `json:"id"`
	File      string `json:"file,omitempty"`
	Size      int64  `json:"size,omitempty"` // bytes
	Container string `json:"container,omitempty"`
}

// PlexLibrarySectionsResponse is the response from /library/sections.
type PlexLibrarySectionsResponse struct {
	MediaContainer PlexSectionsContainer `json:"MediaContainer"`
}

// PlexSectionsContainer wraps the directory array of library sections.
type PlexSectionsContainer struct {
	Size      int                  `json:"size"`
	Directory []PlexLibrarySection `json:"Directory"`
}

// PlexLibrarySection is one configured library section.
type PlexLibrarySection struct {
	Key   string `json:"key"` // section id
	Type  string `json:"type"`
	Title string `json:"title"`
	Thumb string `json:"thumb,omitempty"`
	Art   string `json:"art,omitempty"`
}
