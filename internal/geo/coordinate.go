// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package geo provides the coordinate value type and the great-circle math shared by the address
// resolver and the proximity ranker.
package geo

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/wneessen/geonear/internal/vartype"
)

var (
	// ErrInvalidInput is matched by every InputError via errors.Is.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidCoordinate is matched by InputErrors of latitude and longitude.
	ErrInvalidCoordinate = errors.New("invalid coordinate")
)

// Field names reported by InputError.
const (
	FieldLatitude  = "latitude"
	FieldLongitude = "longitude"
)

// Coordinate represents a geographic coordinate in decimal degrees. Acc optionally carries the
// accuracy in meters as reported by the device source.
type Coordinate struct {
	Lat float64
	Lon float64
	Acc vartype.VarFloat64
}

// InputError reports a coordinate component or a search parameter outside of its valid range.
type InputError struct {
	Field string
	Value float64
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid input: %s %v out of range", e.Field, e.Value)
}

func (e *InputError) Is(target error) bool {
	switch target {
	case ErrInvalidInput:
		return true
	case ErrInvalidCoordinate:
		return e.Field == FieldLatitude || e.Field == FieldLongitude
	}
	return false
}

// New returns a Coordinate without accuracy information.
func New(lat, lon float64) Coordinate {
	return Coordinate{Lat: lat, Lon: lon}
}

// WithAccuracy returns a copy of the Coordinate carrying the given accuracy in meters.
func (c Coordinate) WithAccuracy(meters float64) Coordinate {
	c.Acc = vartype.NewVariable(meters)
	return c
}

// Valid checks if the coordinate is valid according to the EPSG:4326 bounds.
func (c Coordinate) Valid() bool {
	return c.Validate() == nil
}

// Validate returns an InputError if latitude or longitude are not finite or out of range.
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Lat) || c.Lat < -90 || c.Lat > 90 {
		return &InputError{Field: FieldLatitude, Value: c.Lat}
	}
	if math.IsNaN(c.Lon) || c.Lon < -180 || c.Lon > 180 {
		return &InputError{Field: FieldLongitude, Value: c.Lon}
	}
	return nil
}

// String renders the coordinate as "lat, lon" using the shortest decimal representation.
func (c Coordinate) String() string {
	return formatDegrees(c.Lat) + ", " + formatDegrees(c.Lon)
}

func formatDegrees(val float64) string {
	return strconv.FormatFloat(val, 'f', -1, 64)
}
