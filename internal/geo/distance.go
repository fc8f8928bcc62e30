// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geo

import "math"

// EarthRadiusKm is the mean radius of Earth used for the Haversine distance.
const EarthRadiusKm = 6371.0

// Radians converts degrees to radians.
func Radians(degrees float64) float64 {
	return degrees * (math.Pi / 180)
}

// Haversine returns the unrounded great-circle distance in kilometers between two points
// specified by latitude and longitude in degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := Radians(lat2 - lat1)
	dLon := Radians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(Radians(lat1))*math.Cos(Radians(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// Distance returns the great-circle distance between two coordinates in kilometers, rounded to
// two decimal places.
func Distance(from, to Coordinate) float64 {
	return Round(Haversine(from.Lat, from.Lon, to.Lat, to.Lon), 2)
}

// Round rounds val half away from zero to the given number of decimal places.
func Round(val float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(val*p) / p
}
