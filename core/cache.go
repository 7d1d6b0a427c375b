// Copyright 2025 Jelly Terra <jellyterra@proton.me>
// This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0
// that can be found in the LICENSE file and https://mozilla.org/MPL/2.0/.

package core

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type CacheEntry struct {
	Val      any
	StoredAt time.Time
	TTL      time.Duration
}

func (e *CacheEntry) expired(now time.Time) bool {
	return !now.Before(e.StoredAt.Add(e.TTL))
}

// Cache is a keyed store with per-entry expiry. Expired entries are dropped
// lazily by Get or in bulk by Clean.
type Cache struct {
	// Now is the clock. Defaults to time.Now.
	Now func() time.Time

	disabled bool
	count    atomic.Uint64
	hits     atomic.Uint64

	lock    sync.RWMutex
	entries map[string]*CacheEntry
}

// NewCache returns a cache. A non-positive ttlHint disables it: every Get misses.
func NewCache(ttlHint time.Duration) *Cache {
	return &Cache{
		Now:      time.Now,
		disabled: ttlHint <= 0,
		entries:  make(map[string]*CacheEntry, 64),
	}
}

func (c *Cache) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

func (c *Cache) Enabled() bool {
	return c != nil && !c.disabled
}

func (c *Cache) Get(key string) (any, bool) {
	if !c.Enabled() {
		return nil, false
	}
	c.count.Add(1)

	c.lock.RLock()
	entry, exist := c.entries[key]
	c.lock.RUnlock()
	if !exist {
		return nil, false
	}

	if entry.expired(c.now()) {
		c.lock.Lock()
		// Another writer might have replaced it meanwhile.
		if c.entries[key] == entry {
			delete(c.entries, key)
		}
		c.lock.Unlock()
		return nil, false
	}

	c.hits.Add(1)
	return entry.Val, true
}

func (c *Cache) Set(key string, val any, ttl time.Duration) {
	if !c.Enabled() || ttl <= 0 {
		return
	}
	entry := &CacheEntry{Val: val, StoredAt: c.now(), TTL: ttl}

	c.lock.Lock()
	c.entries[key] = entry
	c.lock.Unlock()
}

// InvalidatePrefix removes every entry whose key starts with prefix and
// returns how many were removed.
func (c *Cache) InvalidatePrefix(prefix string) (n int) {
	if c == nil {
		return 0
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

// Clean drops expired entries. A zero time drops everything.
func (c *Cache) Clean(now time.Time) {
	if c == nil {
		return
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	if now.IsZero() {
		clear(c.entries)
		return
	}
	for k, v := range c.entries {
		if v.expired(now) {
			delete(c.entries, k)
		}
	}
}

func (c *Cache) Len() (n int) {
	if c != nil {
		c.lock.RLock()
		n = len(c.entries)
		c.lock.RUnlock()
	}
	return
}

// HitRatio returns the hit ratio as a percentage.
func (c *Cache) HitRatio() float64 {
	if c != nil {
		if count := c.count.Load(); count > 0 {
			return float64(c.hits.Load()*100) / float64(count)
		}
	}
	return 0
}
