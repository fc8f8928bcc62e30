// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geocode

import (
	"errors"
	"fmt"
)

// ErrNoAddress is returned when the lookup yields no usable address for a coordinate.
var ErrNoAddress = errors.New("no address found")

// GeocodeError reports a failed reverse lookup. It wraps the underlying cause, which may be a
// transport error, an unexpected HTTP status, a malformed body or ErrNoAddress.
type GeocodeError struct {
	Provider string
	Err      error
}

func (e *GeocodeError) Error() string {
	return fmt.Sprintf("reverse geocoding via %s failed: %s", e.Provider, e.Err)
}

func (e *GeocodeError) Unwrap() error {
	return e.Err
}
