// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geocode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/wneessen/geonear/internal/geo"
	"github.com/wneessen/geonear/internal/logger"
)

// FailurePolicy decides what ResolveAll does with a coordinate whose lookup failed.
type FailurePolicy int

const (
	// FailHard aborts and returns the first GeocodeError.
	FailHard FailurePolicy = iota
	// FallbackToCoordinates replaces a failed lookup with CoordinateFallback.
	FallbackToCoordinates
)

// Resolver resolves coordinates into ResolvedLocations. It holds no mutable state and is safe
// for concurrent use as long as its Lookup is.
type Resolver struct {
	lookup Lookup
	logger *logger.Logger
}

// NewResolver returns a Resolver that uses lookup for the reverse geocoding.
func NewResolver(lookup Lookup, log *logger.Logger) *Resolver {
	return &Resolver{lookup: lookup, logger: log}
}

// Name returns the name of the underlying lookup.
func (r *Resolver) Name() string {
	return r.lookup.Name()
}

// Resolve performs exactly one reverse lookup for coord and returns the normalized address.
// Invalid coordinates are rejected with a geo.InputError before any lookup. Lookup failures are
// returned as *GeocodeError and are not retried.
func (r *Resolver) Resolve(ctx context.Context, coord geo.Coordinate) (ResolvedLocation, error) {
	if err := coord.Validate(); err != nil {
		return ResolvedLocation{}, err
	}

	raw, err := r.lookup.Reverse(ctx, coord.Lat, coord.Lon)
	if err != nil {
		return ResolvedLocation{}, &GeocodeError{Provider: r.lookup.Name(), Err: err}
	}
	if strings.TrimSpace(raw.DisplayName) == "" {
		return ResolvedLocation{}, &GeocodeError{Provider: r.lookup.Name(), Err: ErrNoAddress}
	}
	if raw.Address == nil {
		raw.Address = Components{}
	}

	location := ResolvedLocation{
		Latitude:          coord.Lat,
		Longitude:         coord.Lon,
		Address:           FormatAddress(raw.Address, raw.DisplayName, coord),
		AddressComponents: ExtractComponents(raw.Address, raw.DisplayName, coord),
		Accuracy:          coord.Acc,
	}
	r.logger.Debug("address resolved", slog.String("coordinates", coord.String()),
		slog.String("address", location.Address), slog.Bool("cache_hit", raw.CacheHit))

	return location, nil
}

// ResolveAll resolves coords concurrently with at most limit lookups in flight. The results keep
// the order of coords. With FailHard, the first failure cancels the remaining lookups. With
// FallbackToCoordinates, failed lookups are replaced by CoordinateFallback. Invalid coordinates
// always fail.
func (r *Resolver) ResolveAll(ctx context.Context, coords []geo.Coordinate, limit int,
	policy FailurePolicy,
) ([]ResolvedLocation, error) {
	for _, coord := range coords {
		if err := coord.Validate(); err != nil {
			return nil, err
		}
	}
	if limit < 1 {
		limit = 1
	}

	results := make([]ResolvedLocation, len(coords))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(limit)
	for i, coord := range coords {
		group.Go(func() error {
			location, err := r.Resolve(groupCtx, coord)
			var geoErr *GeocodeError
			if err != nil && policy == FallbackToCoordinates && errors.As(err, &geoErr) {
				r.logger.Warn("reverse geocoding failed, falling back to coordinates",
					slog.String("coordinates", coord.String()), logger.Err(err))
				location, err = CoordinateFallback(coord), nil
			}
			if err != nil {
				return fmt.Errorf("failed to resolve %s: %w", coord, err)
			}
			results[i] = location
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// CoordinateFallback returns a ResolvedLocation that only carries the plain coordinate string.
// Callers may use it when a lookup failed and a sparse result is preferable to an error.
func CoordinateFallback(coord geo.Coordinate) ResolvedLocation {
	plain := coord.String()
	return ResolvedLocation{
		Latitude:  coord.Lat,
		Longitude: coord.Lon,
		Address:   plain,
		AddressComponents: AddressComponents{
			Coordinates: plain,
			Latitude:    coord.Lat,
			Longitude:   coord.Lon,
			DisplayName: plain,
		},
		Accuracy: coord.Acc,
	}
}
