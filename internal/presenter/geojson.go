// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package presenter

import (
	"fmt"
	"strconv"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/wneessen/geonear/internal/geo"
	"github.com/wneessen/geonear/internal/geocode"
	"github.com/wneessen/geonear/internal/nearby"
)

const srid = 4326

// GeoJSON encodes the ranked candidates as GeoJSON FeatureCollection. If loc is not nil, the user
// position is added as first feature with the role "user".
func GeoJSON(loc *geocode.ResolvedLocation, ranked []nearby.RankedCandidate) ([]byte, error) {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(ranked)+1)}
	if loc != nil {
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       "user",
			Geometry: point(loc.Coordinate()),
			Properties: map[string]any{
				"role":    "user",
				"address": loc.Address,
			},
		})
	}
	for i, r := range ranked {
		props := make(map[string]any, len(r.Candidate)+3)
		for key, val := range r.Candidate {
			props[key] = val
		}
		props["role"] = "candidate"
		props["distance"] = r.Distance
		props["distanceText"] = r.DistanceText
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         strconv.Itoa(i),
			Geometry:   point(r.Coordinate),
			Properties: props,
		})
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to encode GeoJSON: %w", err)
	}
	return data, nil
}

func point(c geo.Coordinate) *geom.Point {
	return geom.NewPointFlat(geom.XY, []float64{c.Lon, c.Lat}).SetSRID(srid)
}
