// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package nearby

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/wneessen/geonear/internal/geo"
)

// Candidate is a location record with arbitrary caller-defined payload.
type Candidate map[string]any

// CoordinateExtractor retrieves the coordinate of a candidate. The boolean is false if the
// candidate does not expose a coordinate the extractor knows about.
type CoordinateExtractor interface {
	Extract(Candidate) (geo.Coordinate, bool)
}

// FieldPair extracts a coordinate from a latitude and a longitude field.
type FieldPair struct {
	Lat string
	Lon string
}

// Extract returns the coordinate if both fields hold a numeric value within the WGS84 range.
func (f FieldPair) Extract(c Candidate) (geo.Coordinate, bool) {
	lat, ok := toFloat(c[f.Lat])
	if !ok {
		return geo.Coordinate{}, false
	}
	lon, ok := toFloat(c[f.Lon])
	if !ok {
		return geo.Coordinate{}, false
	}
	coord := geo.New(lat, lon)
	if !coord.Valid() {
		return geo.Coordinate{}, false
	}
	return coord, true
}

// FirstMatch tries each extractor in order, the first one that yields a coordinate wins.
type FirstMatch []CoordinateExtractor

func (m FirstMatch) Extract(c Candidate) (geo.Coordinate, bool) {
	for _, extractor := range m {
		if coord, ok := extractor.Extract(c); ok {
			return coord, true
		}
	}
	return geo.Coordinate{}, false
}

// Field aliases of the accepted candidate schemas.
var (
	GenericFields = FieldPair{Lat: "latitude", Lon: "longitude"}
	ShopFields    = FieldPair{Lat: "shop_latitude", Lon: "shop_longitude"}
	ServiceFields = FieldPair{Lat: "service_latitude", Lon: "service_longitude"}
)

// DefaultExtractor accepts the shop, the service and the generic schema, in that order.
var DefaultExtractor = FirstMatch{ShopFields, ServiceFields, GenericFields}

func toFloat(val any) (float64, bool) {
	var f float64
	switch v := val.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ErrNotAnArray is returned by LoadCandidates if the input is not a JSON array.
var ErrNotAnArray = errors.New("candidate list must be a JSON array of objects")

// LoadCandidates decodes a JSON array of candidate objects. Numbers are kept as json.Number so the
// payload passes through unchanged.
func LoadCandidates(r io.Reader) ([]Candidate, error) {
	decoder := json.NewDecoder(r)
	decoder.UseNumber()

	var candidates []Candidate
	if err := decoder.Decode(&candidates); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, fmt.Errorf("%w: %s", ErrNotAnArray, err)
		}
		return nil, fmt.Errorf("failed to decode candidate list: %w", err)
	}
	return candidates, nil
}
