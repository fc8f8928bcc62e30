// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"syscall"
	"time"

	"github.com/vorlif/spreak"

	"github.com/wneessen/geonear/internal/config"
	"github.com/wneessen/geonear/internal/geo"
	"github.com/wneessen/geonear/internal/geobus"
	"github.com/wneessen/geonear/internal/geocode"
	"github.com/wneessen/geonear/internal/logger"
	"github.com/wneessen/geonear/internal/nearby"
	"github.com/wneessen/geonear/internal/presenter"
	"github.com/wneessen/geonear/internal/service"
)

const (
	formatJSON    = "json"
	formatGeoJSON = "geojson"
	formatText    = "text"

	defaultLocateTimeout = time.Second * 30
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrInvalidArgs    = errors.New("invalid arguments")
)

type app struct {
	config *config.Config
	logger *logger.Logger
	lang   *spreak.Localizer
	stdout io.Writer
	stdin  io.Reader

	// lookup and providers override the configured geocoder and device location providers
	lookup    geocode.Lookup
	providers []geobus.Provider
}

// devicePosition is the output of the locate command.
type devicePosition struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  float64   `json:"accuracy"`
	Source    string    `json:"source"`
	At        time.Time `json:"at"`
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "resolve":
		return a.resolve(ctx, args)
	case "nearby":
		return a.nearby(ctx, args)
	case "locate":
		return a.locate(ctx, args)
	case "watch":
		return a.watch(ctx, args)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd)
	}
}

func (a *app) resolve(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("resolve", flag.ContinueOnError)
	fallback := flags.Bool("fallback", a.config.Geocoder.FallbackToCoordinates,
		"return the plain coordinates if the address lookup fails")
	format := flags.String("format", formatJSON, "output format (json or text)")
	timeout := flags.Duration("timeout", defaultLocateTimeout, "timeout for locating the device")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *format != formatJSON && *format != formatText {
		return fmt.Errorf("%w: unsupported format %q", ErrInvalidArgs, *format)
	}

	coords, _, err := a.positions(ctx, flags.Args(), *timeout)
	if err != nil {
		return err
	}

	lookup, err := a.geocodeLookup()
	if err != nil {
		return err
	}
	policy := geocode.FailHard
	if *fallback {
		policy = geocode.FallbackToCoordinates
	}
	resolver := geocode.NewResolver(lookup, a.logger)
	locations, err := resolver.ResolveAll(ctx, coords, a.config.Geocoder.Concurrency, policy)
	if err != nil {
		return err
	}

	if *format == formatText {
		for _, location := range locations {
			if _, err = fmt.Fprintln(a.stdout, location.Address); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
		}
		return nil
	}
	if len(locations) == 1 {
		return a.writeJSON(locations[0])
	}
	return a.writeJSON(locations)
}

func (a *app) nearby(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("nearby", flag.ContinueOnError)
	candidatesFile := flags.String("candidates", a.config.Nearby.CandidatesFile,
		"JSON file with the candidate locations, - reads from stdin")
	maxDistance := flags.Float64("max", a.config.Nearby.MaxDistance, "search radius in kilometers")
	format := flags.String("format", formatJSON, "output format (json, geojson or text)")
	resolve := flags.Bool("resolve", false, "resolve the address of the user position")
	timeout := flags.Duration("timeout", defaultLocateTimeout, "timeout for locating the device")
	if err := flags.Parse(args); err != nil {
		return err
	}
	switch *format {
	case formatJSON, formatGeoJSON, formatText:
	default:
		return fmt.Errorf("%w: unsupported format %q", ErrInvalidArgs, *format)
	}

	coords, source, err := a.positions(ctx, flags.Args(), *timeout)
	if err != nil {
		return err
	}
	if len(coords) != 1 {
		return fmt.Errorf("%w: expected exactly one coordinate", ErrInvalidArgs)
	}
	user := coords[0]

	candidates, err := a.loadCandidates(*candidatesFile)
	if err != nil {
		return err
	}
	ranker := &nearby.Ranker{Extractor: nearby.DefaultExtractor, MaxDistance: *maxDistance}
	ranked, err := ranker.Rank(user, candidates)
	if err != nil {
		return err
	}
	if *format == formatJSON {
		return a.writeJSON(ranked)
	}

	location := geocode.CoordinateFallback(user)
	if *resolve {
		lookup, err := a.geocodeLookup()
		if err != nil {
			return err
		}
		location, err = geocode.NewResolver(lookup, a.logger).Resolve(ctx, user)
		if err != nil {
			return err
		}
	}

	if *format == formatGeoJSON {
		data, err := presenter.GeoJSON(&location, ranked)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(a.stdout, string(data))
		return err
	}

	pres, err := presenter.New(a.config, a.lang)
	if err != nil {
		return err
	}
	text, err := pres.Render(pres.BuildContext(location, ranked, source, time.Now()))
	if err != nil {
		return fmt.Errorf("failed to render text template: %w", err)
	}
	_, err = fmt.Fprintln(a.stdout, text)
	return err
}

func (a *app) locate(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("locate", flag.ContinueOnError)
	timeout := flags.Duration("timeout", defaultLocateTimeout, "timeout for locating the device")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() > 0 {
		return fmt.Errorf("%w: locate takes no positional arguments", ErrInvalidArgs)
	}

	result, err := a.locateDevice(ctx, *timeout)
	if err != nil {
		return err
	}
	return a.writeJSON(devicePosition{
		Latitude:  result.Lat,
		Longitude: result.Lon,
		Accuracy:  result.AccuracyMeters,
		Source:    result.Source,
		At:        result.At,
	})
}

func (a *app) watch(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("watch", flag.ContinueOnError)
	if err := flags.Parse(args); err != nil {
		return err
	}

	serv, err := service.New(a.config, a.logger, a.lang)
	if err != nil {
		return fmt.Errorf("failed to initialize geonear service: %w", err)
	}
	go serv.ListenRefreshSignal(ctx, service.NewSignalSource(), syscall.SIGUSR1)

	a.logger.Info(a.lang.Get("starting geonear service"))
	if err = serv.Run(ctx); err != nil {
		return fmt.Errorf("failed to run geonear service: %w", err)
	}
	a.logger.Info(a.lang.Get("shutting down geonear service"))
	return nil
}

// positions parses coordinate pairs from args. Without args the device position is located.
func (a *app) positions(ctx context.Context, args []string, timeout time.Duration) ([]geo.Coordinate, string, error) {
	if len(args) == 0 {
		result, err := a.locateDevice(ctx, timeout)
		if err != nil {
			return nil, "", err
		}
		return []geo.Coordinate{result.Coordinate()}, result.Source, nil
	}

	coords, err := parseCoordinates(args)
	if err != nil {
		return nil, "", err
	}
	return coords, "", nil
}

func (a *app) locateDevice(ctx context.Context, timeout time.Duration) (geobus.Result, error) {
	providers := a.providers
	if providers == nil {
		var err error
		providers, err = service.SelectGeobusProviders(a.config, a.logger)
		if err != nil {
			return geobus.Result{}, err
		}
	}
	locateCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return service.Locate(locateCtx, a.logger, providers)
}

func (a *app) geocodeLookup() (geocode.Lookup, error) {
	if a.lookup != nil {
		return a.lookup, nil
	}
	return service.SelectGeocodeProvider(a.config, a.logger)
}

func (a *app) loadCandidates(path string) ([]nearby.Candidate, error) {
	var reader io.Reader
	switch path {
	case "":
		return nil, fmt.Errorf("%w: no candidates file given", ErrInvalidArgs)
	case "-":
		reader = a.stdin
		if reader == nil {
			reader = os.Stdin
		}
	default:
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open candidates file: %w", err)
		}
		defer func() { _ = file.Close() }()
		reader = file
	}
	return nearby.LoadCandidates(reader)
}

func (a *app) writeJSON(val any) error {
	encoder := json.NewEncoder(a.stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(val); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}

// parseCoordinates parses "lat lon" pairs in decimal degrees.
func parseCoordinates(args []string) ([]geo.Coordinate, error) {
	if len(args)%2 != 0 {
		return nil, fmt.Errorf("%w: coordinates must be given as latitude longitude pairs", ErrInvalidArgs)
	}
	coords := make([]geo.Coordinate, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		lat, err := strconv.ParseFloat(args[i], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid latitude %q", ErrInvalidArgs, args[i])
		}
		lon, err := strconv.ParseFloat(args[i+1], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid longitude %q", ErrInvalidArgs, args[i+1])
		}
		coords = append(coords, geo.New(lat, lon))
	}
	return coords, nil
}
