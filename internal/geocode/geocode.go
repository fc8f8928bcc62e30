// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package geocode turns coordinates into structured, display-ready addresses using a
// reverse-geocoding Lookup.
package geocode

import (
	"context"
	"strings"

	"github.com/wneessen/geonear/internal/geo"
	"github.com/wneessen/geonear/internal/vartype"
)

// Components is the raw, provider-neutral address bag of a single lookup result. Keys follow
// the OpenStreetMap/Nominatim naming (road, house_number, suburb, city, state, ...). Providers with
// a different vocabulary translate into these keys.
type Components map[string]string

// First returns the first non-empty value of the given keys, or an empty string.
func (c Components) First(keys ...string) string {
	for _, key := range keys {
		if val := strings.TrimSpace(c[key]); val != "" {
			return val
		}
	}
	return ""
}

// RawResult is what a Lookup returns for one coordinate.
type RawResult struct {
	DisplayName string
	Address     Components
	CacheHit    bool
}

// Lookup is the reverse-geocoding collaborator.
type Lookup interface {
	Name() string
	Reverse(ctx context.Context, lat, lon float64) (RawResult, error)
}

// AddressComponents is the field-level breakdown of a resolved address. Text fields are never
// absent, missing upstream values are represented by an empty string.
type AddressComponents struct {
	Coordinates   string  `json:"coordinates"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	StreetAddress string  `json:"streetAddress"`
	HouseNumber   string  `json:"houseNumber"`
	Building      string  `json:"building"`
	Area          string  `json:"area"`
	District      string  `json:"district"`
	City          string  `json:"city"`
	Governorate   string  `json:"governorate"`
	Country       string  `json:"country"`
	Postcode      string  `json:"postcode"`
	DisplayName   string  `json:"displayName"`
}

// ResolvedLocation is the result of resolving a coordinate into an address.
type ResolvedLocation struct {
	Latitude          float64            `json:"latitude"`
	Longitude         float64            `json:"longitude"`
	Address           string             `json:"address"`
	AddressComponents AddressComponents  `json:"addressComponents"`
	Accuracy          vartype.VarFloat64 `json:"accuracy"`
}

// Coordinate returns the resolved position including its accuracy.
func (l ResolvedLocation) Coordinate() geo.Coordinate {
	return geo.Coordinate{Lat: l.Latitude, Lon: l.Longitude, Acc: l.Accuracy}
}
