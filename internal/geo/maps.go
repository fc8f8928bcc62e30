// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geo

import (
	"net/url"
	"strings"
)

const (
	mapsSearchURL     = "https://www.google.com/maps/search/"
	mapsDirectionsURL = "https://www.google.com/maps/dir/"
	mapsZoom          = "15z"
)

// MapsURL returns a map search link for the coordinate. If name is not empty, it is used as the
// search query instead of the coordinate pair.
func MapsURL(c Coordinate, name string) string {
	pair := formatDegrees(c.Lat) + "," + formatDegrees(c.Lon)
	query := pair
	if name != "" {
		query = strings.ReplaceAll(url.QueryEscape(name), "+", "%20")
	}
	return mapsSearchURL + query + "/@" + pair + "," + mapsZoom
}

// DirectionsURL returns a directions link to the destination. A nil origin lets the map service
// use the viewer's current position.
func DirectionsURL(to Coordinate, from *Coordinate) string {
	var sb strings.Builder
	sb.WriteString(mapsDirectionsURL)
	if from != nil {
		sb.WriteString(formatDegrees(from.Lat) + "," + formatDegrees(from.Lon) + "/")
	}
	sb.WriteString(formatDegrees(to.Lat) + "," + formatDegrees(to.Lon))
	return sb.String()
}
