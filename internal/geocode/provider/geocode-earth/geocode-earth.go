// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geocodeearth

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
	APIEndpoint = "https://api.geocode.earth/v1/reverse"
	APITimeout  = time.Second * 10
	name        = "geocode-earth"

	layerVenue = "venue"
)

// ErrMissingAPIKey is returned when the lookup is created without an API key.
var ErrMissingAPIKey = errors.New("geocode.earth API requires an API key")

type GeocodeEarth struct {
	apikey   string
	endpoint string
	http     *http.Client
	lang     language.Tag
}

type Response struct {
	Features []Feature `json:"features"`
	Type     string    `json:"type"`
}

type Feature struct {
	Properties Properties `json:"properties"`
	Type       string     `json:"type"`
}

type Properties struct {
	Name          string `json:"name"`
	Layer         string `json:"layer"`
	DisplayName   string `json:"label"`
	Locality      string `json:"locality"`
	County        string `json:"county"`
	Borough       string `json:"borough"`
	Country       string `json:"country"`
	CountryCode   string `json:"country_code"`
	HouseNumber   string `json:"housenumber"`
	Neighbourhood string `json:"neighbourhood"`
	Postcode      string `json:"postalcode"`
	Street        string `json:"street"`
	Region        string `json:"region"`
}

func New(client *http.Client, lang language.Tag, apikey, endpoint string) (*GeocodeEarth, error) {
	if apikey == "" {
		return nil, ErrMissingAPIKey
	}
	if endpoint == "" {
		endpoint = APIEndpoint
	}
	return &GeocodeEarth{
		apikey:   apikey,
		endpoint: endpoint,
		lang:     lang,
		http:     client,
	}, nil
}

func (g *GeocodeEarth) Name() string {
	return name
}

func (g *GeocodeEarth) Reverse(ctx context.Context, lat, lon float64) (geocode.RawResult, error) {
	var response Response

	query := url.Values{}
	query.Set("api_key", g.apikey)
	query.Set("point.lat", strconv.FormatFloat(lat, 'f', -1, 64))
	query.Set("point.lon", strconv.FormatFloat(lon, 'f', -1, 64))
	query.Set("size", "1")
	query.Set("lang", g.lang.String())

	if _, err := g.http.GetWithTimeout(ctx, g.endpoint, &response, query, nil, APITimeout); err != nil {
		return geocode.RawResult{}, fmt.Errorf("failed to retrieve address details from geocode.earth API: %w", err)
	}
	if len(response.Features) < 1 || response.Features[0].Properties.DisplayName == "" {
		return geocode.RawResult{}, fmt.Errorf("%w: geocode.earth API returned no features", geocode.ErrNoAddress)
	}

	props := response.Features[0].Properties
	return geocode.RawResult{
		DisplayName: props.DisplayName,
		Address:     props.components(),
	}, nil
}

// components translates the Pelias property names into the OSM address keys.
func (p Properties) components() geocode.Components {
	bag := geocode.Components{
		"road":          p.Street,
		"house_number":  p.HouseNumber,
		"neighbourhood": p.Neighbourhood,
		"suburb":        p.Borough,
		"district":      p.County,
		"city":          p.Locality,
		"state":         p.Region,
		"postcode":      p.Postcode,
		"country":       p.Country,
		"country_code":  p.CountryCode,
	}
	if p.Layer == layerVenue {
		bag["amenity"] = p.Name
	}
	for key, val := range bag {
		if val == "" {
			delete(bag, key)
		}
	}
	return bag
}
