// Copyright 2025 Jelly Terra <jellyterra@proton.me>
// This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0
// that can be found in the LICENSE file and https://mozilla.org/MPL/2.0/.

package core

import (
	"testing"
	"time"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func newTestCache() (*Cache, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewCache(time.Minute)
	c.Now = clock.Now
	return c, clock
}

func TestCacheSetGetAndStats(t *testing.T) {
	c, _ := newTestCache()
	c.Set("k", "v", time.Minute)
	if n := c.Len(); n != 1 {
		t.Fatalf("Len() = %d; want 1", n)
	}
	if v, ok := c.Get("k"); !ok || v != "v" {
		t.Fatalf("Get(k) = %v, %v; want v, true", v, ok)
	}
	if _, ok := c.Get("other"); ok {
		t.Fatalf("Get(other) hit")
	}
	if ratio := c.HitRatio(); ratio != 50 {
		t.Fatalf("HitRatio() = %v; want 50", ratio)
	}
}

func TestCacheExpiry(t *testing.T) {
	c, clock := newTestCache()
	c.Set("k", 1, 10*time.Second)

	clock.now = clock.now.Add(9 * time.Second)
	if _, ok := c.Get("k"); !ok {
		t.Fatalf("entry expired early")
	}

	// Visible only while now < storedAt + ttl.
	clock.now = clock.now.Add(time.Second)
	if _, ok := c.Get("k"); ok {
		t.Fatalf("entry visible at its expiry instant")
	}
	if n := c.Len(); n != 0 {
		t.Fatalf("expired entry not evicted, Len() = %d", n)
	}
}

func TestCacheNonPositiveTTL(t *testing.T) {
	c, _ := newTestCache()
	c.Set("zero", 1, 0)
	c.Set("negative", 1, -time.Second)
	if _, ok := c.Get("zero"); ok {
		t.Fatalf("zero ttl entry was stored")
	}
	if _, ok := c.Get("negative"); ok {
		t.Fatalf("negative ttl entry was stored")
	}
}

func TestCacheDisabled(t *testing.T) {
	c := NewCache(0)
	if c.Enabled() {
		t.Fatalf("cache with zero ttl hint is enabled")
	}
	c.Set("k", 1, time.Hour)
	if _, ok := c.Get("k"); ok {
		t.Fatalf("disabled cache returned a hit")
	}
}

func TestCacheInvalidatePrefix(t *testing.T) {
	c, _ := newTestCache()
	c.Set("dns/records/example.com?take=500&skip=0", 1, time.Minute)
	c.Set("dns/records/example.com?take=500&skip=500", 2, time.Minute)
	c.Set("dns/records/example.com.au?take=500&skip=0", 3, time.Minute)
	c.Set("domains?take=100&skip=0", 4, time.Minute)

	if n := c.InvalidatePrefix("dns/records/example.com?"); n != 2 {
		t.Fatalf("InvalidatePrefix removed %d; want 2", n)
	}
	if _, ok := c.Get("dns/records/example.com.au?take=500&skip=0"); !ok {
		t.Fatalf("sibling domain invalidated")
	}
	if _, ok := c.Get("domains?take=100&skip=0"); !ok {
		t.Fatalf("unrelated namespace invalidated")
	}
	if n := c.InvalidatePrefix("nothing/"); n != 0 {
		t.Fatalf("InvalidatePrefix on unknown prefix removed %d", n)
	}
}

func TestCacheClean(t *testing.T) {
	c, clock := newTestCache()
	c.Set("short", 1, time.Second)
	c.Set("long", 2, time.Hour)

	c.Clean(clock.now.Add(time.Minute))
	if n := c.Len(); n != 1 {
		t.Fatalf("Len() after Clean = %d; want 1", n)
	}

	c.Clean(time.Time{})
	if n := c.Len(); n != 0 {
		t.Fatalf("Len() after full Clean = %d; want 0", n)
	}
}

func TestCacheNil(t *testing.T) {
	var c *Cache
	if _, ok := c.Get("k"); ok {
		t.Fatalf("nil cache hit")
	}
	c.Set("k", 1, time.Minute)
	if n := c.InvalidatePrefix(""); n != 0 {
		t.Fatalf("nil cache invalidated %d", n)
	}
	if n := c.Len(); n != 0 {
		t.Fatalf("nil cache Len() = %d", n)
	}
}
