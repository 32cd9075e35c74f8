// Shelfwatch - Plex Library Statistics and Media Info
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwatch

/*
Package mediainfo implements the media-info caching and tabular
aggregation core.

Components:

  - Store: per-scope JSON cache documents of media descriptor rows,
    replaced wholesale on every write, with an explicit scope index
    for section-wide invalidation.
  - Reconciler: merges cached rows with live Plex fetches, carrying
    previously computed file sizes across refreshes, and back-fills
    missing sizes by summing leaf-level children.
  - JoinWatchStats: overlays last-watched/play-count aggregates onto
    rows by rating key.
  - Query: free-text search, stable multi-pass sorting, pagination and
    file-size summation over the merged row set.

A scope is either one whole library section or one item's children,
keyed (sectionID, ratingKey|""). Reads and the read-merge-write
refresh sequence are serialized per scope by the Store's scope locks;
distinct scopes proceed concurrently.

Unknown numeric values travel as the empty-string sentinel and are
coerced to zero by ToInt wherever they participate in ordering or
arithmetic.
*/
package mediainfo
