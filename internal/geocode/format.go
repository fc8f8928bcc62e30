// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geocode

import (
	"strings"

	"github.com/wneessen/geonear/internal/geo"
)

const (
	segmentSeparator = ", "
	detailSeparator  = " - "
)

// Source keys per address element, in order of precedence.
var (
	keysStreet   = []string{"road"}
	keysFootway  = []string{"pedestrian"}
	keysHouseNo  = []string{"house_number"}
	keysDetail   = []string{"building", "shop", "amenity"}
	keysArea     = []string{"suburb", "neighbourhood", "quarter"}
	keysDistrict = []string{"city_district", "district"}
	keysRegion   = []string{"state", "governorate", "province"}
	keysCountry  = []string{"country"}
	keysPostcode = []string{"postcode"}

	// The formatted address accepts villages as city, the city component does not.
	keysCityFormat    = []string{"city", "town", "village", "municipality"}
	keysCityComponent = []string{"city", "town", "municipality"}
)

// formatSegments are the segments following the street line in the formatted address.
var formatSegments = [][]string{
	keysArea,
	keysDistrict,
	keysCityFormat,
	keysRegion,
	keysCountry,
}

type componentRule struct {
	field string
	keys  []string
	set   func(*AddressComponents, string)
}

// componentRules maps every textual AddressComponents field to its source keys.
var componentRules = []componentRule{
	{"streetAddress", keysStreet, func(a *AddressComponents, v string) { a.StreetAddress = v }},
	{"houseNumber", keysHouseNo, func(a *AddressComponents, v string) { a.HouseNumber = v }},
	{"building", keysDetail, func(a *AddressComponents, v string) { a.Building = v }},
	{"area", keysArea, func(a *AddressComponents, v string) { a.Area = v }},
	{"district", keysDistrict, func(a *AddressComponents, v string) { a.District = v }},
	{"city", keysCityComponent, func(a *AddressComponents, v string) { a.City = v }},
	{"governorate", keysRegion, func(a *AddressComponents, v string) { a.Governorate = v }},
	{"country", keysCountry, func(a *AddressComponents, v string) { a.Country = v }},
	{"postcode", keysPostcode, func(a *AddressComponents, v string) { a.Postcode = v }},
}

// FormatAddress composes a human-readable address from the raw components. If the components
// yield nothing, displayName is returned, and if that is empty as well, the coordinate as
// "lat, lon".
func FormatAddress(bag Components, displayName string, coord geo.Coordinate) string {
	parts := make([]string, 0, len(formatSegments)+1)
	if street := streetLine(bag); street != "" {
		parts = append(parts, street)
	}
	for _, keys := range formatSegments {
		if val := bag.First(keys...); val != "" {
			parts = append(parts, val)
		}
	}

	formatted := strings.Join(parts, segmentSeparator)
	if detail := bag.First(keysDetail...); detail != "" {
		formatted = joinNonEmpty(detailSeparator, detail, formatted)
	}
	if formatted == "" {
		if name := strings.TrimSpace(displayName); name != "" {
			return name
		}
		return coord.String()
	}
	if postcode := bag.First(keysPostcode...); postcode != "" {
		formatted += " (" + postcode + ")"
	}

	return formatted
}

// ExtractComponents builds the AddressComponents for the coordinate from the raw components.
func ExtractComponents(bag Components, displayName string, coord geo.Coordinate) AddressComponents {
	components := AddressComponents{
		Coordinates: coord.String(),
		Latitude:    coord.Lat,
		Longitude:   coord.Lon,
		DisplayName: displayName,
	}
	for _, rule := range componentRules {
		rule.set(&components, bag.First(rule.keys...))
	}
	return components
}

func streetLine(bag Components) string {
	road := bag.First(keysStreet...)
	if number := bag.First(keysHouseNo...); number != "" && road != "" {
		return number + " " + road
	}
	if road != "" {
		return road
	}
	return bag.First(keysFootway...)
}

func joinNonEmpty(sep string, vals ...string) string {
	out := make([]string, 0, len(vals))
	for _, val := range vals {
		if val != "" {
			out = append(out, val)
		}
	}
	return strings.Join(out, sep)
}
