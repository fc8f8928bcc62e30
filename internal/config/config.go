// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/kkyr/fig"
)

const (
	configEnv      = "GEONEAR"
	DefaultTextTpl = "{{.Location.Address}}{{range .Nearby}}\n{{pad (name .) 30}} {{.DistanceText}}{{end}}"

	ProviderNominatim    = "osm-nominatim"
	ProviderOpenCage     = "opencage"
	ProviderGeocodeEarth = "geocode-earth"
)

var providers = []string{ProviderNominatim, ProviderOpenCage, ProviderGeocodeEarth}

// Config represents the application's configuration structure.
type Config struct {
	Locale   string     `fig:"locale"`
	LogLevel slog.Level `fig:"loglevel" default:"0"`

	Geocoder struct {
		// Allowed values: osm-nominatim, opencage, geocode-earth
		Provider  string `fig:"provider" default:"osm-nominatim"`
		Endpoint  string `fig:"endpoint"`
		APIKey    string `fig:"apikey"`
		UserAgent string `fig:"user_agent"`
		// Allowed values: 3 to 18
		Zoom        int           `fig:"zoom" default:"18"`
		Timeout     time.Duration `fig:"timeout" default:"10s"`
		RateLimit   float64       `fig:"rate_limit" default:"1"`
		Concurrency int           `fig:"concurrency" default:"1"`
		// Resolve to the plain coordinate string instead of failing when the lookup fails
		FallbackToCoordinates bool `fig:"fallback_to_coordinates"`
	} `fig:"geocoder"`

	Cache struct {
		HitTTL        time.Duration `fig:"hit_ttl" default:"6h"`
		MissTTL       time.Duration `fig:"miss_ttl" default:"10m"`
		PruneInterval time.Duration `fig:"prune_interval" default:"15m"`
	} `fig:"cache"`

	Nearby struct {
		MaxDistance    float64 `fig:"max_distance" default:"50"`
		CandidatesFile string  `fig:"candidates_file"`
	} `fig:"nearby"`

	GeoLocation struct {
		File                   string `fig:"file"`
		GPSDAddr               string `fig:"gpsd_addr" default:"localhost:2947"`
		DisableGeoIP           bool   `fig:"disable_geoip"`
		DisableGPSD            bool   `fig:"disable_gpsd"`
		DisableGeolocationFile bool   `fig:"disable_geolocation_file"`
	} `fig:"geolocation"`

	Intervals struct {
		Output time.Duration `fig:"output" default:"30s"`
	} `fig:"intervals"`

	Templates struct {
		Text string `fig:"text"`
	} `fig:"templates"`
}

func NewFromFile(path, file string) (*Config, error) {
	conf := new(Config)
	_, err := os.Stat(filepath.Join(path, file))
	if err != nil {
		return conf, fmt.Errorf("failed to read Config: %w", err)
	}
	if err = fig.Load(conf, fig.Dirs(path), fig.File(file), fig.UseEnv(configEnv)); err != nil {
		return conf, fmt.Errorf("failed to load Config: %w", err)
	}

	return conf, conf.Validate()
}

func New() (*Config, error) {
	conf := new(Config)
	if err := fig.Load(conf, fig.AllowNoFile(), fig.UseEnv(configEnv)); err != nil {
		return conf, fmt.Errorf("failed to load Config: %w", err)
	}

	return conf, conf.Validate()
}

func (c *Config) Validate() error {
	if c.Locale == "" {
		c.Locale = getLocale()
	}
	if !slices.Contains(providers, c.Geocoder.Provider) {
		return fmt.Errorf("invalid geocoder provider: %s", c.Geocoder.Provider)
	}
	if c.Geocoder.Provider != ProviderNominatim && c.Geocoder.APIKey == "" {
		return fmt.Errorf("geocoder provider %s requires an API key", c.Geocoder.Provider)
	}
	if c.Geocoder.Zoom < 3 || c.Geocoder.Zoom > 18 {
		return fmt.Errorf("invalid geocoder zoom level: %d", c.Geocoder.Zoom)
	}
	if c.Geocoder.Timeout <= 0 {
		return fmt.Errorf("invalid geocoder timeout: %s", c.Geocoder.Timeout)
	}
	if c.Geocoder.RateLimit < 0 {
		return fmt.Errorf("invalid geocoder rate limit: %f", c.Geocoder.RateLimit)
	}
	if c.Geocoder.Concurrency < 1 {
		return fmt.Errorf("invalid geocoder concurrency: %d", c.Geocoder.Concurrency)
	}
	if c.Cache.HitTTL < 0 || c.Cache.MissTTL < 0 {
		return fmt.Errorf("invalid cache TTL: hit=%s, miss=%s", c.Cache.HitTTL, c.Cache.MissTTL)
	}
	if c.Cache.PruneInterval <= 0 {
		return fmt.Errorf("invalid cache prune interval: %s", c.Cache.PruneInterval)
	}
	if math.IsNaN(c.Nearby.MaxDistance) || c.Nearby.MaxDistance < 0 {
		return fmt.Errorf("invalid nearby max distance: %f", c.Nearby.MaxDistance)
	}
	if c.Intervals.Output <= 0 {
		return fmt.Errorf("invalid output interval: %s", c.Intervals.Output)
	}
	if c.Templates.Text == "" {
		c.Templates.Text = DefaultTextTpl
	}
	if c.GeoLocation.File == "" {
		home, _ := os.UserHomeDir()
		c.GeoLocation.File = filepath.Join(home, ".config", "geonear", "geolocation")
	}

	return nil
}

func getLocale() string {
	locale := os.Getenv("LC_MESSAGES")
	if idx := strings.Index(locale, "."); idx != -1 {
		lang := locale[:idx]
		return strings.ReplaceAll(lang, "_", "-")
	}
	return locale
}
