// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geocode

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// coordPrecision is the precision used to quantize coordinates (0.0001 degrees ≈ 11 m)
const coordPrecision = 1e-4

type cacheKey struct {
	Provider string
	LatQ     int32
	LonQ     int32
}

type cacheEntry struct {
	Result RawResult
	Err    error
	Expiry time.Time
}

// CachedLookup wraps a Lookup and caches its results for nearby coordinates. Found addresses are
// kept for ttlHit, coordinates without an address for ttlMiss. Other errors are never cached.
type CachedLookup struct {
	lookup  Lookup
	ttlHit  time.Duration
	ttlMiss time.Duration
	clock   clockwork.Clock

	mu    sync.RWMutex
	cache map[cacheKey]cacheEntry
}

func NewCachedLookup(lookup Lookup, ttlHit, ttlMiss time.Duration) *CachedLookup {
	return newCachedLookup(lookup, ttlHit, ttlMiss, clockwork.NewRealClock())
}

func newCachedLookup(lookup Lookup, ttlHit, ttlMiss time.Duration, clock clockwork.Clock) *CachedLookup {
	return &CachedLookup{
		lookup:  lookup,
		ttlHit:  ttlHit,
		ttlMiss: ttlMiss,
		clock:   clock,
		cache:   make(map[cacheKey]cacheEntry),
	}
}

func (c *CachedLookup) Name() string {
	return c.lookup.Name()
}

func (c *CachedLookup) Reverse(ctx context.Context, lat, lon float64) (RawResult, error) {
	key := newKey(c.lookup.Name(), lat, lon)

	c.mu.RLock()
	entry, ok := c.cache[key]
	if ok && c.clock.Now().Before(entry.Expiry) {
		result := entry.Result
		c.mu.RUnlock()
		result.CacheHit = true
		return result, entry.Err
	}
	c.mu.RUnlock()

	result, err := c.lookup.Reverse(ctx, lat, lon)
	if err != nil && !errors.Is(err, ErrNoAddress) {
		return result, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	ttl := c.ttlHit
	if err != nil {
		ttl = c.ttlMiss
	}
	c.cache[key] = cacheEntry{
		Result: result,
		Err:    err,
		Expiry: c.clock.Now().Add(ttl),
	}

	return result, err
}

// Prune removes all expired entries and returns the number of removed entries.
func (c *CachedLookup) Prune() int {
	now := c.clock.Now()
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, entry := range c.cache {
		if !now.Before(entry.Expiry) {
			delete(c.cache, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of cached entries, including expired ones not yet pruned.
func (c *CachedLookup) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

func quantizeCoord(val float64) int32 {
	return int32(math.Round(val / coordPrecision))
}

func newKey(provider string, lat, lon float64) cacheKey {
	return cacheKey{
		Provider: provider,
		LatQ:     quantizeCoord(lat),
		LonQ:     quantizeCoord(lon),
	}
}
