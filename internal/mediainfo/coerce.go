// Shelfwatch - Plex Library Statistics and Media Info
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwatch

package mediainfo

import "github.com/spf13/cast"

// ToInt converts an arbitrary scalar to an integer for sorting and
// summation. nil, the empty string, and anything unparseable yield 0;
// it never panics. Every sentinel-bearing field must pass through here
// before comparison or arithmetic.
func ToInt(v interface{}) int64 {
	n, err := cast.ToInt64E(v)
	if err != nil {
		return 0
	}
	return n
}
