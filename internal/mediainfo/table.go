// Shelfwatch - Plex Library Statistics and Media Info
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwatch

package mediainfo

import (
	"sort"
	"strings"

	"github.com/tomtom215/shelfwatch/internal/models"
)

// Query applies free-text search, multi-column sorting and pagination
// to a merged row set and computes the file-size sums.
//
// RecordsTotal is NOT derived here: it is the scope's total item count
// from reconciliation, independent of search filtering, and must be
// set by the caller on the returned response.
//
// The engine assumes a validated request; malformed fields are a
// collaborator concern.
func Query(rows []models.MediaInfoRow, req models.TableRequest) models.TableResponse {
	results := searchRows(rows, req)
	recordsFiltered := len(results)

	sortRows(results, req)

	var totalFileSize int64
	for i := range results {
		totalFileSize += ToInt(results[i].FileSize)
	}

	page := paginate(results, req.Start, req.Length)

	var filteredFileSize int64
	for i := range page {
		filteredFileSize += ToInt(page[i].FileSize)
	}

	return models.TableResponse{
		Draw:             req.Draw,
		RecordsFiltered:  recordsFiltered,
		Rows:             page,
		FilteredFileSize: filteredFileSize,
		TotalFileSize:    totalFileSize,
	}
}

// searchRows keeps rows where any searchable column contains the
// case-folded search value. Input order is preserved; an empty search
// keeps everything.
func searchRows(rows []models.MediaInfoRow, req models.TableRequest) []models.MediaInfoRow {
	results := make([]models.MediaInfoRow, 0, len(rows))

	search := strings.ToLower(req.SearchValue)
	if search == "" {
		return append(results, rows...)
	}

	columns := req.SearchableColumns
	if len(columns) == 0 {
		columns = models.DefaultSearchableColumns
	}

	for i := range rows {
		for _, col := range columns {
			if strings.Contains(strings.ToLower(rows[i].Field(col)), search) {
				results = append(results, rows[i])
				break
			}
		}
	}
	return results
}

// sortRows establishes the baseline title order, then applies the
// requested sort columns in reverse-declared order. Each pass is a
// full stable re-sort by one column, so the cumulative effect respects
// multi-column precedence as declared. Stability of every pass is
// load-bearing; do not replace this with a single multi-key comparator.
func sortRows(results []models.MediaInfoRow, req models.TableRequest) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Title < results[j].Title
	})

	for n := len(req.SortColumns) - 1; n >= 0; n-- {
		col := req.SortColumns[n]
		less := lessForColumn(col.Column, req.ChildScope)
		if col.Desc {
			asc := less
			less = func(a, b *models.MediaInfoRow) bool { return asc(b, a) }
		}
		sort.SliceStable(results, func(i, j int) bool {
			return less(&results[i], &results[j])
		})
	}
}

// lessForColumn picks the comparison policy for one column.
// file_size and bitrate compare numerically so sentinel values order
// as zero; title within a single item's children compares by numeric
// media_index, since episode and track titles are not meaningfully
// alphabetic; everything else compares by native string order.
func lessForColumn(column string, childScope bool) func(a, b *models.MediaInfoRow) bool {
	switch {
	case childScope && column == "title":
		return func(a, b *models.MediaInfoRow) bool {
			return ToInt(a.MediaIndex) < ToInt(b.MediaIndex)
		}
	case column == "file_size" || column == "bitrate":
		return func(a, b *models.MediaInfoRow) bool {
			return ToInt(a.Field(column)) < ToInt(b.Field(column))
		}
	default:
		return func(a, b *models.MediaInfoRow) bool {
			return a.Field(column) < b.Field(column)
		}
	}
}

// paginate returns the half-open range [start, start+length). An
// out-of-range start yields an empty slice, not an error.
func paginate(results []models.MediaInfoRow, start, length int) []models.MediaInfoRow {
	if start < 0 || start >= len(results) || length <= 0 {
		return []models.MediaInfoRow{}
	}
	end := start + length
	if end > len(results) {
		end = len(results)
	}
	return results[start:end]
}
