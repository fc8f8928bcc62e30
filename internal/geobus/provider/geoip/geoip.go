// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geoip

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/wneessen/geonear/internal/geo"
	"github.com/wneessen/geonear/internal/geobus"
	"github.com/wneessen/geonear/internal/http"
)

const (
	APIEndpoint   = "https://geoapi.info/api/geo"
	LookupTimeout = time.Second * 5
	name          = "geoip"
)

// ErrMissingClient is returned if the provider is created without HTTP client.
var ErrMissingClient = errors.New("http client is required")

// GeolocationGeoIPProvider estimates the device position from its public IP address. The accuracy
// depends on how detailed the returned location is.
type GeolocationGeoIPProvider struct {
	name     string
	http     *http.Client
	endpoint string
	period   time.Duration
	ttl      time.Duration
	locateFn func(ctx context.Context) (geo.Coordinate, error)
}

type APIResult struct {
	IP       string `json:"ip"`
	Location struct {
		CountryCode string `json:"country,omitempty"`
		Country     string `json:"countryName,omitempty"`
		Region      string `json:"region,omitempty"`
		City        string `json:"city,omitempty"`
		ZipCode     string `json:"postalCode,omitempty"`
		TimeZone    string `json:"timezone"`
		Coordinates struct {
			Latitude  string `json:"latitude"`
			Longitude string `json:"longitude"`
		} `json:"coordinates"`
	} `json:"location"`
}

func NewGeolocationGeoIPProvider(client *http.Client) (*GeolocationGeoIPProvider, error) {
	if client == nil {
		return nil, ErrMissingClient
	}
	provider := &GeolocationGeoIPProvider{
		name:     name,
		http:     client,
		endpoint: APIEndpoint,
		period:   time.Minute * 10,
		ttl:      time.Hour * 2,
	}
	provider.locateFn = provider.locate
	return provider, nil
}

func (p *GeolocationGeoIPProvider) Name() string {
	return p.name
}

// LookupStream periodically looks up the IP based position and emits it when it changed.
func (p *GeolocationGeoIPProvider) LookupStream(ctx context.Context, key string) <-chan geobus.Result {
	out := make(chan geobus.Result)
	go func() {
		defer close(out)
		state := geobus.GeolocationState{}
		firstRun := true

		for {
			if !firstRun {
				select {
				case <-ctx.Done():
					return
				case <-time.After(p.period):
				}
			}
			firstRun = false

			coord, err := p.locateFn(ctx)
			if err != nil {
				continue
			}
			if !state.HasChanged(coord) {
				continue
			}
			state.Update(coord)
			r := p.createResult(key, coord)

			select {
			case <-ctx.Done():
				return
			case out <- r:
			}
		}
	}()
	return out
}

// createResult composes and returns a Result using provided geolocation data and metadata.
func (p *GeolocationGeoIPProvider) createResult(key string, coord geo.Coordinate) geobus.Result {
	return geobus.Result{
		Key:            key,
		Lat:            coord.Lat,
		Lon:            coord.Lon,
		AccuracyMeters: coord.Acc.Value(),
		Source:         p.name,
		At:             time.Now(),
		TTL:            p.ttl,
	}
}

func (p *GeolocationGeoIPProvider) locate(ctx context.Context) (geo.Coordinate, error) {
	ctxHttp, cancelHttp := context.WithTimeout(ctx, LookupTimeout)
	defer cancelHttp()

	result := new(APIResult)
	if _, err := p.http.Get(ctxHttp, p.endpoint, result, nil, nil); err != nil {
		return geo.Coordinate{}, fmt.Errorf("failed to get geolocation data from API: %w", err)
	}

	acc := float64(geobus.AccuracyUnknown)
	switch {
	case result.Location.ZipCode != "":
		acc = geobus.AccuracyZip
	case result.Location.City != "":
		acc = geobus.AccuracyCity
	case result.Location.Region != "":
		acc = geobus.AccuracyRegion
	case result.Location.CountryCode != "":
		acc = geobus.AccuracyCountry
	}

	lat, err := strconv.ParseFloat(result.Location.Coordinates.Latitude, 64)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("failed to parse latitude from API response: %w", err)
	}
	lon, err := strconv.ParseFloat(result.Location.Coordinates.Longitude, 64)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("failed to parse longitude from API response: %w", err)
	}

	coord := geo.New(geobus.Truncate(lat, geobus.TruncPrecision), geobus.Truncate(lon, geobus.TruncPrecision))
	if err = coord.Validate(); err != nil {
		return geo.Coordinate{}, fmt.Errorf("API returned an invalid position: %w", err)
	}
	return coord.WithAccuracy(acc), nil
}
