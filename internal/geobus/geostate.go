// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geobus

import "github.com/wneessen/geonear/internal/geo"

// GeolocationState tracks the last known coordinate of a provider.
// It provides functionality to detect changes in geolocation data.
type GeolocationState struct {
	last     geo.Coordinate
	haveLast bool
}

// HasChanged reports whether coord differs significantly from the last known coordinate. An empty
// state has always changed.
func (s *GeolocationState) HasChanged(coord geo.Coordinate) bool {
	if !s.haveLast {
		return true
	}
	return PosHasSignificantChange(coord, s.last)
}

// Update stores the provided coordinate as last known coordinate.
func (s *GeolocationState) Update(coord geo.Coordinate) {
	s.last = coord
	s.haveLast = true
}
