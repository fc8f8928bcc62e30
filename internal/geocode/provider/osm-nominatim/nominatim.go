// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package nominatim

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/time/rate"

	"github.com/wneessen/geonear/internal/geocode"
	"github.com/wneessen/geonear/internal/http"
)

const (
	APIReverseEndpoint = "https://nominatim.openstreetmap.org/reverse"
	APITimeout         = time.Second * 10
	// DefaultZoom requests building-level detail
	DefaultZoom = 18
	// DefaultRateLimit follows the public instance usage policy of one request per second
	DefaultRateLimit = rate.Limit(1)
	name             = "osm-nominatim"
)

type Nominatim struct {
	http     *http.Client
	lang     language.Tag
	endpoint string
	zoom     int
	limiter  *rate.Limiter
}

// Option configures the Nominatim lookup.
type Option func(*Nominatim)

type ReverseResult struct {
	APILat      string            `json:"lat"`
	APILon      string            `json:"lon"`
	Name        string            `json:"name"`
	DisplayName string            `json:"display_name"`
	Address     map[string]string `json:"address"`
	Error       string            `json:"error"`
}

// WithEndpoint points the lookup to a self-hosted Nominatim instance.
func WithEndpoint(endpoint string) Option {
	return func(n *Nominatim) {
		if endpoint != "" {
			n.endpoint = endpoint
		}
	}
}

// WithZoom sets the level of detail of the reverse lookup (3 = country ... 18 = building).
func WithZoom(zoom int) Option {
	return func(n *Nominatim) {
		if zoom > 0 {
			n.zoom = zoom
		}
	}
}

// WithRateLimit limits the outgoing requests per second. A limit of 0 disables the limiter.
func WithRateLimit(limit rate.Limit) Option {
	return func(n *Nominatim) {
		if limit <= 0 {
			n.limiter = nil
			return
		}
		n.limiter = rate.NewLimiter(limit, 1)
	}
}

func New(client *http.Client, lang language.Tag, opts ...Option) *Nominatim {
	n := &Nominatim{
		http:     client,
		lang:     lang,
		endpoint: APIReverseEndpoint,
		zoom:     DefaultZoom,
		limiter:  rate.NewLimiter(DefaultRateLimit, 1),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *Nominatim) Name() string {
	return name
}

func (n *Nominatim) Reverse(ctx context.Context, lat, lon float64) (geocode.RawResult, error) {
	var result ReverseResult

	if n.limiter != nil {
		if err := n.limiter.Wait(ctx); err != nil {
			return geocode.RawResult{}, fmt.Errorf("rate limit wait for Nominatim API aborted: %w", err)
		}
	}

	query := url.Values{}
	query.Set("format", "json")
	query.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	query.Set("zoom", strconv.Itoa(n.zoom))
	query.Set("addressdetails", "1")
	query.Set("accept-language", n.lang.String())

	if _, err := n.http.GetWithTimeout(ctx, n.endpoint, &result, query, nil, APITimeout); err != nil {
		return geocode.RawResult{}, fmt.Errorf("failed to fetch reverse address details from Nominatim API: %w", err)
	}
	if result.Error != "" {
		return geocode.RawResult{}, fmt.Errorf("%w: Nominatim API responded with %q", geocode.ErrNoAddress,
			result.Error)
	}
	if strings.TrimSpace(result.DisplayName) == "" {
		return geocode.RawResult{}, fmt.Errorf("%w: Nominatim API response has no display name",
			geocode.ErrNoAddress)
	}

	return geocode.RawResult{
		DisplayName: result.DisplayName,
		Address:     geocode.Components(result.Address),
	}, nil
}
