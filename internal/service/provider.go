// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/wneessen/geonear/internal/config"
	"github.com/wneessen/geonear/internal/geobus"
	"github.com/wneessen/geonear/internal/geobus/provider/geoip"
	"github.com/wneessen/geonear/internal/geobus/provider/geolocation_file"
	"github.com/wneessen/geonear/internal/geobus/provider/gpsd"
	"github.com/wneessen/geonear/internal/geocode"
	geocodeearth "github.com/wneessen/geonear/internal/geocode/provider/geocode-earth"
	"github.com/wneessen/geonear/internal/geocode/provider/opencage"
	nominatim "github.com/wneessen/geonear/internal/geocode/provider/osm-nominatim"
	"github.com/wneessen/geonear/internal/http"
	"github.com/wneessen/geonear/internal/i18n"
	"github.com/wneessen/geonear/internal/logger"
)

// ErrNoProviders is returned if all device location providers are disabled.
var ErrNoProviders = errors.New("no geolocation providers enabled")

// SelectGeobusProviders returns the device location providers enabled in the configuration.
func SelectGeobusProviders(conf *config.Config, log *logger.Logger) ([]geobus.Provider, error) {
	var provider []geobus.Provider

	if !conf.GeoLocation.DisableGeolocationFile {
		provider = append(provider, geolocation_file.NewGeolocationFileProvider(conf.GeoLocation.File))
	}

	if !conf.GeoLocation.DisableGPSD {
		provider = append(provider, gpsd.NewGeolocationGPSDProvider(log, conf.GeoLocation.GPSDAddr))
	}

	if !conf.GeoLocation.DisableGeoIP {
		gip, err := geoip.NewGeolocationGeoIPProvider(newHTTPClient(conf, log))
		if err != nil {
			return nil, fmt.Errorf("failed to create GeoIP provider: %w", err)
		}
		provider = append(provider, gip)
	}

	if len(provider) == 0 {
		return nil, ErrNoProviders
	}
	return provider, nil
}

// SelectGeocodeProvider returns the configured reverse geocoding lookup wrapped into a cache.
func SelectGeocodeProvider(conf *config.Config, log *logger.Logger) (*geocode.CachedLookup, error) {
	var lookup geocode.Lookup
	client := newHTTPClient(conf, log)
	lang := i18n.Tag(conf.Locale)

	switch conf.Geocoder.Provider {
	case config.ProviderNominatim:
		lookup = nominatim.New(client, lang,
			nominatim.WithEndpoint(conf.Geocoder.Endpoint),
			nominatim.WithZoom(conf.Geocoder.Zoom),
			nominatim.WithRateLimit(rate.Limit(conf.Geocoder.RateLimit)),
		)
	case config.ProviderOpenCage:
		oc, err := opencage.New(client, lang, conf.Geocoder.APIKey, conf.Geocoder.Endpoint)
		if err != nil {
			return nil, fmt.Errorf("failed to create OpenCage geocoder: %w", err)
		}
		lookup = oc
	case config.ProviderGeocodeEarth:
		ge, err := geocodeearth.New(client, lang, conf.Geocoder.APIKey, conf.Geocoder.Endpoint)
		if err != nil {
			return nil, fmt.Errorf("failed to create geocode.earth geocoder: %w", err)
		}
		lookup = ge
	default:
		return nil, fmt.Errorf("unsupported geocoder provider: %s", conf.Geocoder.Provider)
	}
	log.Debug("reverse geocoder selected", slog.String("provider", conf.Geocoder.Provider),
		slog.String("user_agent", client.UserAgent()))

	return geocode.NewCachedLookup(lookup, conf.Cache.HitTTL, conf.Cache.MissTTL), nil
}

func newHTTPClient(conf *config.Config, log *logger.Logger) *http.Client {
	client := http.New(log, conf.Geocoder.UserAgent)
	if conf.Geocoder.Timeout > 0 {
		client.Timeout = conf.Geocoder.Timeout
	}
	return client
}
