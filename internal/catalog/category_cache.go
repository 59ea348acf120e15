// Watchlog - Bounded Watch-History Logger for YouTube
// Copyright 2026 The Watchlog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchlog/watchlog

package catalog

import (
	"sync"

	"github.com/watchlog/watchlog/internal/metrics"
)

// categoryEntry is a memoized lookup result. A not-found outcome is cached
// the same as a hit so confirmed misses are never re-queried.
type categoryEntry struct {
	name  string
	found bool
}

// CategoryCache memoizes (region, categoryID) -> display name for the life
// of the process. Entries never expire; every write is an idempotent upsert.
type CategoryCache struct {
	mu      sync.RWMutex
	entries map[string]categoryEntry
}

// NewCategoryCache creates an empty category name cache.
func NewCategoryCache() *CategoryCache {
	return &CategoryCache{entries: make(map[string]categoryEntry)}
}

func categoryKey(region, categoryID string) string {
	return region + ":" + categoryID
}

// Get returns the cached name for (region, categoryID).
// The second return distinguishes "cached as not found" (ok=true, found=false)
// from "never looked up" (ok=false).
func (c *CategoryCache) Get(region, categoryID string) (name string, found, ok bool) {
	c.mu.RLock()
	entry, ok := c.entries[categoryKey(region, categoryID)]
	c.mu.RUnlock()

	if ok {
		metrics.CategoryCacheHits.Inc()
		return entry.name, entry.found, true
	}
	metrics.CategoryCacheMisses.Inc()
	return "", false, false
}

// Put stores a lookup result, including an explicit not-found outcome.
func (c *CategoryCache) Put(region, categoryID, name string, found bool) {
	c.mu.Lock()
	c.entries[categoryKey(region, categoryID)] = categoryEntry{name: name, found: found}
	c.mu.Unlock()
}

// Len returns the number of memoized entries.
func (c *CategoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
