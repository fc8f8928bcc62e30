// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geobus

import (
	"math"

	"github.com/wneessen/geonear/internal/geo"
)

const (
	DistanceThreshold = 250.0 // meters
	AccuracyThreshold = 50.0  // meters
)

// PosHasSignificantChange checks if the position cur differs significantly from prev, based on
// the great-circle distance between both points. A considerably better accuracy always counts as
// significant.
func PosHasSignificantChange(cur, prev geo.Coordinate) bool {
	curAcc, prevAcc := cur.Acc.Value(), prev.Acc.Value()
	if cur.Acc.IsSet() && prev.Acc.IsSet() && curAcc < prevAcc && math.Abs(curAcc-prevAcc) > AccuracyThreshold {
		return true
	}

	distance := geo.Haversine(prev.Lat, prev.Lon, cur.Lat, cur.Lon) * 1000
	return distance > DistanceThreshold
}
