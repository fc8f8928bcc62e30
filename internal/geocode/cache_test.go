// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geocode

import (
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

const (
	testHitTTL  = 10 * time.Minute
	testMissTTL = time.Minute
)

var testAddress = RawResult{
	DisplayName: "Quartier 205, Friedrichstraße 67, 10117 Berlin, Germany",
	Address: Components{
		"country":       "Germany",
		"state":         "Berlin",
		"city_district": "Mitte",
		"postcode":      "10117",
		"city":          "Berlin",
		"road":          "Friedrichstraße",
		"house_number":  "67",
	},
}

func TestNewCachedLookup(t *testing.T) {
	coder := NewCachedLookup(&mockLookup{result: testAddress}, testHitTTL, testMissTTL)
	if coder == nil {
		t.Fatal("expected a non-nil lookup")
	}
	if coder.Name() != "mock" {
		t.Errorf("expected lookup name to be 'mock', got %q", coder.Name())
	}
}

func TestCachedLookup_Reverse(t *testing.T) {
	t.Run("fetching results twice should hit the cache", func(t *testing.T) {
		lookup := &mockLookup{result: testAddress}
		coder := newCachedLookup(lookup, testHitTTL, testMissTTL, clockwork.NewFakeClock())
		result, err := coder.Reverse(t.Context(), 52.5129, 13.3910)
		if err != nil {
			t.Fatal(err)
		}
		if result.CacheHit {
			t.Error("expected cache miss on first lookup")
		}
		result, err = coder.Reverse(t.Context(), 52.5129, 13.3910)
		if err != nil {
			t.Fatal(err)
		}
		if !result.CacheHit {
			t.Error("expected cached result")
		}
		if result.DisplayName != testAddress.DisplayName {
			t.Errorf("expected display name %q, got %q", testAddress.DisplayName, result.DisplayName)
		}
		if lookup.calls.Load() != 1 {
			t.Errorf("expected one upstream lookup, got %d", lookup.calls.Load())
		}
	})
	t.Run("fetching a very close coordinate should still hit the cache", func(t *testing.T) {
		lookup := &mockLookup{result: testAddress}
		coder := newCachedLookup(lookup, testHitTTL, testMissTTL, clockwork.NewFakeClock())
		if _, err := coder.Reverse(t.Context(), 52.5129, 13.3910); err != nil {
			t.Fatal(err)
		}
		result, err := coder.Reverse(t.Context(), 52.51292, 13.39098)
		if err != nil {
			t.Fatal(err)
		}
		if !result.CacheHit {
			t.Error("expected cached result")
		}
	})
	t.Run("fetching a coordinate a street away misses the cache", func(t *testing.T) {
		lookup := &mockLookup{result: testAddress}
		coder := newCachedLookup(lookup, testHitTTL, testMissTTL, clockwork.NewFakeClock())
		if _, err := coder.Reverse(t.Context(), 52.5129, 13.3910); err != nil {
			t.Fatal(err)
		}
		result, err := coder.Reverse(t.Context(), 52.5139, 13.3910)
		if err != nil {
			t.Fatal(err)
		}
		if result.CacheHit {
			t.Error("expected cache miss")
		}
	})
	t.Run("cache should not trigger on expired TTL", func(t *testing.T) {
		clock := clockwork.NewFakeClock()
		lookup := &mockLookup{result: testAddress}
		coder := newCachedLookup(lookup, testHitTTL, testMissTTL, clock)
		if _, err := coder.Reverse(t.Context(), 52.5129, 13.3910); err != nil {
			t.Fatal(err)
		}
		clock.Advance(testHitTTL - time.Second)
		result, err := coder.Reverse(t.Context(), 52.5129, 13.3910)
		if err != nil {
			t.Fatal(err)
		}
		if !result.CacheHit {
			t.Error("expected cache hit before TTL expired")
		}
		clock.Advance(2 * time.Second)
		result, err = coder.Reverse(t.Context(), 52.5129, 13.3910)
		if err != nil {
			t.Fatal(err)
		}
		if result.CacheHit {
			t.Error("expected cache miss after TTL expired")
		}
	})
	t.Run("no address results are cached with the miss TTL", func(t *testing.T) {
		clock := clockwork.NewFakeClock()
		lookup := &mockLookup{err: ErrNoAddress}
		coder := newCachedLookup(lookup, testHitTTL, testMissTTL, clock)
		if _, err := coder.Reverse(t.Context(), 1, 1); !errors.Is(err, ErrNoAddress) {
			t.Fatalf("expected error to be %s, got %v", ErrNoAddress, err)
		}
		result, err := coder.Reverse(t.Context(), 1, 1)
		if !errors.Is(err, ErrNoAddress) {
			t.Fatalf("expected cached error to be %s, got %v", ErrNoAddress, err)
		}
		if !result.CacheHit {
			t.Error("expected cached miss")
		}
		clock.Advance(testMissTTL)
		if _, err = coder.Reverse(t.Context(), 1, 1); !errors.Is(err, ErrNoAddress) {
			t.Fatalf("expected error to be %s, got %v", ErrNoAddress, err)
		}
		if lookup.calls.Load() != 2 {
			t.Errorf("expected two upstream lookups, got %d", lookup.calls.Load())
		}
	})
	t.Run("lookup failures are not cached", func(t *testing.T) {
		lookup := &mockLookup{err: errors.New("intentionally failing")}
		coder := newCachedLookup(lookup, testHitTTL, testMissTTL, clockwork.NewFakeClock())
		for range 2 {
			if _, err := coder.Reverse(t.Context(), 1, -1); err == nil {
				t.Fatal("expected an error")
			}
		}
		if lookup.calls.Load() != 2 {
			t.Errorf("expected two upstream lookups, got %d", lookup.calls.Load())
		}
		if coder.Len() != 0 {
			t.Errorf("expected empty cache, got %d entries", coder.Len())
		}
	})
}

func TestCachedLookup_Prune(t *testing.T) {
	clock := clockwork.NewFakeClock()
	lookup := &mockLookup{result: testAddress}
	coder := newCachedLookup(lookup, testHitTTL, testMissTTL, clock)
	if _, err := coder.Reverse(t.Context(), 1, 1); err != nil {
		t.Fatal(err)
	}
	clock.Advance(testHitTTL / 2)
	if _, err := coder.Reverse(t.Context(), 2, 2); err != nil {
		t.Fatal(err)
	}
	if removed := coder.Prune(); removed != 0 {
		t.Errorf("expected nothing to be pruned, got %d", removed)
	}
	clock.Advance(testHitTTL / 2)
	if removed := coder.Prune(); removed != 1 {
		t.Errorf("expected one entry to be pruned, got %d", removed)
	}
	if coder.Len() != 1 {
		t.Errorf("expected one remaining entry, got %d", coder.Len())
	}
}
