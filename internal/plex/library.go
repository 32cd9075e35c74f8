// Shelfwatch - Plex Library Statistics and Media Info
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwatch

package plex

import (
	"context"
	"net/url"
	"strconv"

	"github.com/tomtom215/shelfwatch/internal/models"
)

// SectionChildren retrieves all items of a library section with media
// info.
//
// Endpoint: GET /library/sections/{sectionID}/all
func (c *Client) SectionChildren(ctx context.Context, sectionID int, sectionType string) ([]models.MediaInfoRow, error) {
	query := url.Values{}
	if t := plexTypeFilter(sectionType); t != "" {
		query.Add("type", t)
	}

	var resp models.PlexChildrenResponse
	path := "/library/sections/" + strconv.Itoa(sectionID) + "/all"
	if err := c.doJSONRequestWithQuery(ctx, path, query, &resp); err != nil {
		return nil, err
	}
	return rowsFromMetadata(resp.MediaContainer.Metadata), nil
}

// ItemChildren retrieves the direct children of one item with media
// info (seasons of a show, episodes of a season, tracks of an album).
//
// Endpoint: GET /library/metadata/{ratingKey}/children
func (c *Client) ItemChildren(ctx context.Context, ratingKey string) ([]models.MediaInfoRow, error) {
	var resp models.PlexChildrenResponse
	if err := c.doJSONRequest(ctx, "/library/metadata/"+ratingKey+"/children", &resp); err != nil {
		return nil, err
	}
	return rowsFromMetadata(resp.MediaContainer.Metadata), nil
}

// LeafMediaInfo retrieves the leaf-level descendants of one item with
// per-file media info. Items that are themselves leaves (movies,
// episodes, tracks) fall back to their own metadata record.
//
// Endpoint: GET /library/metadata/{ratingKey}/allLeaves
func (c *Client) LeafMediaInfo(ctx context.Context, ratingKey string) ([]models.MediaInfoRow, error) {
	var resp models.PlexChildrenResponse
	if err := c.doJSONRequest(ctx, "/library/metadata/"+ratingKey+"/allLeaves", &resp); err != nil {
		return nil, err
	}

	if len(resp.MediaContainer.Metadata) == 0 {
		var self models.PlexChildrenResponse
		if err := c.doJSONRequest(ctx, "/library/metadata/"+ratingKey, &self); err != nil {
			return nil, err
		}
		return rowsFromMetadata(self.MediaContainer.Metadata), nil
	}

	return rowsFromMetadata(resp.MediaContainer.Metadata), nil
}

// GetLibrarySections retrieves all configured library sections.
//
// Endpoint: GET /library/sections
func (c *Client) GetLibrarySections(ctx context.Context) ([]models.PlexLibrarySection, error) {
	var resp models.PlexLibrarySectionsResponse
	if err := c.doJSONRequest(ctx, "/library/sections", &resp); err != nil {
		return nil, err
	}
	return resp.MediaContainer.Directory, nil
}

// plexTypeFilter maps a section type to the numeric type filter of the
// /all endpoint, so show sections list episodes-bearing containers the
// way the grid expects. Unknown types apply no filter.
func plexTypeFilter(sectionType string) string {
	switch sectionType {
	case models.SectionTypeMovie:
		return "1"
	case models.SectionTypeShow:
		return "2"
	case models.SectionTypeArtist:
		return "8"
	case models.SectionTypePhoto:
		return "13"
	default:
		return ""
	}
}

// rowsFromMetadata maps Plex metadata records to media-info rows.
// Absent numeric attributes map to the empty sentinel, never zero.
func rowsFromMetadata(metadata []models.PlexChildMetadata) []models.MediaInfoRow {
	rows := make([]models.MediaInfoRow, 0, len(metadata))
	for i := range metadata {
		rows = append(rows, rowFromMetadata(&metadata[i]))
	}
	return rows
}

func rowFromMetadata(m *models.PlexChildMetadata) models.MediaInfoRow {
	row := models.MediaInfoRow{
		MediaType:            m.Type,
		RatingKey:            m.RatingKey,
		ParentRatingKey:      m.ParentRatingKey,
		GrandparentRatingKey: m.GrandparentRatingKey,
		Title:                m.Title,
		Thumb:                m.Thumb,
		Year:                 intAttr(m.Year),
		MediaIndex:           intAttr(m.Index),
		ParentMediaIndex:     intAttr(m.ParentIndex),
		AddedAt:              int64Attr(m.AddedAt),
	}

	if len(m.Media) == 0 {
		return row
	}

	media := m.Media[0]
	row.Container = media.Container
	row.Bitrate = intAttr(media.Bitrate)
	row.VideoCodec = media.VideoCodec
	row.VideoResolution = media.VideoResolution
	row.VideoFramerate = media.VideoFrameRate
	row.AudioCodec = media.AudioCodec
	row.AudioChannels = intAttr(media.AudioChannels)

	var size int64
	for _, part := range media.Part {
		size += part.Size
	}
	if size > 0 {
		row.FileSize = strconv.FormatInt(size, 10)
	}

	return row
}

func intAttr(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}

func int64Attr(v int64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatInt(v, 10)
}
