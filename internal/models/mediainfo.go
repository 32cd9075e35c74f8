// Shelfwatch - Plex Library Statistics and Media Info
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwatch

package models

// Section types as reported by Plex library sections.
const (
	SectionTypeMovie   = "movie"
	SectionTypeShow    = "show"
	SectionTypeSeason  = "season"
	SectionTypeEpisode = "episode"
	SectionTypeArtist  = "artist"
	SectionTypeAlbum   = "album"
	SectionTypeTrack   = "track"
	SectionTypePhoto   = "photo"
)

// MediaInfoRow is one media item belonging to a library section, as
// persisted in the media-info cache document and served to the grid.
//
// Numeric-ish fields that the Plex API may omit (bitrate, file_size,
// media_index, ...) are carried as strings with the empty string as the
// "value unknown" sentinel. The empty sentinel sorts and sums as zero
// via mediainfo.ToInt; file_size is never negative and never null.
type MediaInfoRow struct {
	SectionID   int    `json:"section_id"`
	SectionType string `json:"section_type"`
	AddedAt     string `json:"added_at"`
	MediaType   string `json:"media_type"`

	// RatingKey is unique within one cache document. Parent and
	// grandparent keys are back-references, empty at the top level.
	RatingKey            string `json:"rating_key"`
	ParentRatingKey      string `json:"parent_rating_key"`
	GrandparentRatingKey string `json:"grandparent_rating_key"`

	Title            string `json:"title"`
	Year             string `json:"year"`
	MediaIndex       string `json:"media_index"`
	ParentMediaIndex string `json:"parent_media_index"`
	Thumb            string `json:"thumb"`

	Container       string `json:"container"`
	Bitrate         string `json:"bitrate"`
	VideoCodec      string `json:"video_codec"`
	VideoResolution string `json:"video_resolution"`
	VideoFramerate  string `json:"video_framerate"`
	AudioCodec      string `json:"audio_codec"`
	AudioChannels   string `json:"audio_channels"`
	FileSize        string `json:"file_size"`

	// Overlay fields, joined per request from the history store and
	// never persisted to the cache document.
	LastWatched *int64 `json:"last_watched,omitempty"`
	PlayCount   *int64 `json:"play_count,omitempty"`
}

// Field returns the row value for a grid column name, as the string
// form used for searching and native-order sorting. Unknown columns
// return the empty string.
func (r *MediaInfoRow) Field(column string) string {
	switch column {
	case "title":
		return r.Title
	case "year":
		return r.Year
	case "added_at":
		return r.AddedAt
	case "media_type":
		return r.MediaType
	case "rating_key":
		return r.RatingKey
	case "media_index":
		return r.MediaIndex
	case "parent_media_index":
		return r.ParentMediaIndex
	case "container":
		return r.Container
	case "bitrate":
		return r.Bitrate
	case "video_codec":
		return r.VideoCodec
	case "video_resolution":
		return r.VideoResolution
	case "video_framerate":
		return r.VideoFramerate
	case "audio_codec":
		return r.AudioCodec
	case "audio_channels":
		return r.AudioChannels
	case "file_size":
		return r.FileSize
	default:
		return ""
	}
}

// DefaultSearchableColumns is the column set matched by free-text
// search when the request does not restrict it.
var DefaultSearchableColumns = []string{
	"title", "year", "media_type", "container", "bitrate",
	"video_codec", "video_resolution", "video_framerate",
	"audio_codec", "audio_channels", "file_size",
}

// WatchStat is a per-item watch-history aggregate: the latest session
// start time and the distinct play count. Recomputed per request from
// the history store, never persisted.
type WatchStat struct {
	RatingKey   string `json:"rating_key"`
	LastWatched int64  `json:"last_watched"`
	PlayCount   int64  `json:"play_count"`
}

// SortColumn is one (column, direction) pair of a table sort request.
type SortColumn struct {
	Column string `json:"column"`
	Desc   bool   `json:"desc"`
}

// TableRequest describes one server-side-processing grid query.
// Sort columns apply least-significant-first: the engine processes the
// list from last to first with a stable sort per pass, so the
// first-declared column dominates.
type TableRequest struct {
	SearchValue string       `json:"search_value"`
	SortColumns []SortColumn `json:"sort_columns"`
	Start       int          `json:"start" validate:"min=0"`
	Length      int          `json:"length" validate:"min=0,max=1000"`

	// Draw is an opaque correlation token echoed back unchanged.
	Draw int `json:"draw"`

	// SearchableColumns restricts free-text search; empty means
	// DefaultSearchableColumns.
	SearchableColumns []string `json:"searchable_columns,omitempty"`

	// ChildScope marks a query over a single item's children, where
	// sorting by title falls back to numeric media_index order.
	ChildScope bool `json:"-"`
}

// TableResponse is the grid reply for one TableRequest.
type TableResponse struct {
	Draw            int            `json:"draw"`
	RecordsFiltered int            `json:"records_filtered"`
	RecordsTotal    int            `json:"records_total"`
	Rows            []MediaInfoRow `json:"data"`

	// FilteredFileSize sums file_size over the returned page;
	// TotalFileSize sums over all search-filtered rows.
	FilteredFileSize int64 `json:"filtered_file_size"`
	TotalFileSize    int64 `json:"total_file_size"`

	Error string `json:"error,omitempty"`
}
