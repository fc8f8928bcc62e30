// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package opencage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/text/language"

	"github.com/wneessen/geonear/internal/geocode"
	"github.com/wneessen/geonear/internal/http"
)

const (
	APIEndpoint = "https://api.opencagedata.com/geocode/v1/json"
	APITimeout  = time.Second * 10
	name        = "opencage"
)

// ErrMissingAPIKey is returned when the lookup is created without an API key.
var ErrMissingAPIKey = errors.New("OpenCage API requires an API key")

type OpenCage struct {
	apikey   string
	endpoint string
	http     *http.Client
	lang     language.Tag
}

type Response struct {
	Results      []Result `json:"results"`
	Status       Status   `json:"status"`
	TotalResults int      `json:"total_results"`
}

type Status struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type Result struct {
	// Components carries mixed value types (ISO codes, category lists), only strings are kept.
	Components  map[string]any `json:"components"`
	DisplayName string         `json:"formatted"`
	Geometry    Geometry       `json:"geometry"`
}

type Geometry struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lng"`
}

func New(client *http.Client, lang language.Tag, apikey, endpoint string) (*OpenCage, error) {
	if apikey == "" {
		return nil, ErrMissingAPIKey
	}
	if endpoint == "" {
		endpoint = APIEndpoint
	}
	return &OpenCage{
		apikey:   apikey,
		endpoint: endpoint,
		lang:     lang,
		http:     client,
	}, nil
}

func (o *OpenCage) Name() string {
	return name
}

func (o *OpenCage) Reverse(ctx context.Context, lat, lon float64) (geocode.RawResult, error) {
	var response Response

	query := url.Values{}
	query.Set("key", o.apikey)
	query.Set("q", strconv.FormatFloat(lat, 'f', -1, 64)+","+strconv.FormatFloat(lon, 'f', -1, 64))
	query.Set("no_annotations", "1")
	query.Set("no_record", "1")
	query.Set("limit", "1")
	query.Set("language", o.lang.String())

	if _, err := o.http.GetWithTimeout(ctx, o.endpoint, &response, query, nil, APITimeout); err != nil {
		return geocode.RawResult{}, fmt.Errorf("failed to retrieve address details from OpenCage API: %w", err)
	}
	if len(response.Results) < 1 || response.Results[0].DisplayName == "" {
		return geocode.RawResult{}, fmt.Errorf("%w: OpenCage API returned %d results", geocode.ErrNoAddress,
			response.TotalResults)
	}

	result := response.Results[0]
	return geocode.RawResult{
		DisplayName: result.DisplayName,
		Address:     toComponents(result.Components),
	}, nil
}

// toComponents keeps the string values of the OpenCage components. OpenCage already uses the
// OSM key names, its normalized city is used when none of the settlement keys is present.
func toComponents(raw map[string]any) geocode.Components {
	bag := make(geocode.Components, len(raw))
	for key, val := range raw {
		if s, ok := val.(string); ok {
			bag[key] = s
		}
	}
	if bag.First("city", "town", "village") == "" {
		if city := bag["_normalized_city"]; city != "" {
			bag["city"] = city
		}
	}
	return bag
}
