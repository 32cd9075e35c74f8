// Shelfwatch - Plex Library Statistics and Media Info
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwatch

package cache

import (
	"testing"
	"time"
)

func TestGetSetRoundTrip(t *testing.T) {
	c := New(time.Minute)
	defer c.Stop()

	if _, ok := c.Get("missing"); ok {
		t.Error("Get on empty cache must miss")
	}

	c.Set("k", 42)
	v, ok := c.Get("k")
	if !ok || v.(int) != 42 {
		t.Errorf("Get = %v, %v", v, ok)
	}
}

func TestExpiredEntryMisses(t *testing.T) {
	c := New(time.Minute)
	defer c.Stop()

	c.SetWithTTL("k", "v", -time.Second)
	if _, ok := c.Get("k"); ok {
		t.Error("expired entry must miss")
	}

	stats := c.GetStats()
	if stats.Evictions != 1 {
		t.Errorf("Evictions = %d, want 1", stats.Evictions)
	}
}

func TestDeletePrefix(t *testing.T) {
	c := New(time.Minute)
	defer c.Stop()

	c.Set("section:1:details", "a")
	c.Set("section:1:users", "b")
	c.Set("section:2:details", "c")

	c.DeletePrefix("section:1:")

	if _, ok := c.Get("section:1:details"); ok {
		t.Error("prefixed entry survived DeletePrefix")
	}
	if _, ok := c.Get("section:2:details"); !ok {
		t.Error("unrelated entry was evicted")
	}
}

func TestClearAndStats(t *testing.T) {
	c := New(time.Minute)
	defer c.Stop()

	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Get("nope")

	c.Clear()
	if _, ok := c.Get("a"); ok {
		t.Error("entry survived Clear")
	}

	stats := c.GetStats()
	if stats.TotalKeys != 0 {
		t.Errorf("TotalKeys = %d after Clear", stats.TotalKeys)
	}
	if stats.Hits != 1 {
		t.Errorf("Hits = %d, want 1", stats.Hits)
	}
	if c.HitRate() <= 0 {
		t.Error("HitRate should be positive after one hit")
	}
}

func TestGenerateKeyStable(t *testing.T) {
	type req struct {
		SectionID int
		Days      int
	}

	k1 := GenerateKey("watch_time", req{1, 7})
	k2 := GenerateKey("watch_time", req{1, 7})
	k3 := GenerateKey("watch_time", req{1, 30})

	if k1 != k2 {
		t.Error("identical params must produce identical keys")
	}
	if k1 == k3 {
		t.Error("different params must produce different keys")
	}
}
