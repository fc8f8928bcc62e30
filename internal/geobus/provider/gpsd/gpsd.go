// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package gpsd

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/stratoberry/go-gpsd"

	"github.com/wneessen/geonear/internal/geo"
	"github.com/wneessen/geonear/internal/geobus"
	"github.com/wneessen/geonear/internal/logger"
)

const (
	DefaultAddr = "localhost:2947"
	name        = "gpsd"

	fallbackAccuracy3DFix = 10 // ~10 m typical consumer GPS in open sky
	fallbackAccuracy2DFix = 25
)

// watchFunc streams fixes of a gpsd session into fixes until the session ends or ctx is done.
type watchFunc func(ctx context.Context, addr string, fixes chan<- geo.Coordinate) error

type GeolocationGPSDProvider struct {
	name    string
	addr    string
	logger  *logger.Logger
	period  time.Duration
	ttl     time.Duration
	watchFn watchFunc
}

func NewGeolocationGPSDProvider(log *logger.Logger, addr string) *GeolocationGPSDProvider {
	if addr == "" {
		addr = DefaultAddr
	}
	return &GeolocationGPSDProvider{
		name:    name,
		addr:    addr,
		logger:  log,
		period:  time.Second * 30,
		ttl:     time.Minute * 2,
		watchFn: watchGPSD,
	}
}

func (p *GeolocationGPSDProvider) Name() string {
	return p.name
}

// LookupStream watches gpsd and emits every fix that differs significantly from the previous one.
// Lost connections are re-established after the provider period.
func (p *GeolocationGPSDProvider) LookupStream(ctx context.Context, key string) <-chan geobus.Result {
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

			// fixes is never closed, the gpsd callbacks may outlive the session
			fixes := make(chan geo.Coordinate, 1)
			done := make(chan error, 1)
			go func() {
				done <- p.watchFn(ctx, p.addr, fixes)
			}()

			watching := true
			for watching {
				select {
				case <-ctx.Done():
					return
				case err := <-done:
					if err != nil {
						p.logger.Debug("gpsd session ended", slog.String("addr", p.addr), logger.Err(err))
					}
					watching = false
				case coord := <-fixes:
					if !state.HasChanged(coord) {
						continue
					}
					state.Update(coord)
					select {
					case <-ctx.Done():
						return
					case out <- p.createResult(key, coord):
					}
				}
			}
		}
	}()

	return out
}

// createResult composes and returns a Result using provided geolocation data and metadata.
func (p *GeolocationGPSDProvider) createResult(key string, coord geo.Coordinate) geobus.Result {
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

func watchGPSD(ctx context.Context, addr string, fixes chan<- geo.Coordinate) error {
	session, err := gpsd.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to gpsd at %q: %w", addr, err)
	}

	session.AddFilter("TPV", func(r interface{}) {
		tpv, ok := r.(*gpsd.TPVReport)
		if !ok {
			return
		}
		coord, ok := coordinateFromTPV(tpv)
		if !ok {
			return
		}
		select {
		case fixes <- coord:
		default:
		}
	})

	// Closing the session ends the watch loop, which then reports on done.
	done := session.Watch()
	select {
	case <-ctx.Done():
		_ = session.Close()
		<-done
		return ctx.Err()
	case <-done:
		_ = session.Close()
		return nil
	}
}

// coordinateFromTPV converts a TPV report with at least a 2D fix into a coordinate.
func coordinateFromTPV(tpv *gpsd.TPVReport) (geo.Coordinate, bool) {
	if tpv == nil || tpv.Mode < gpsd.Mode2D {
		return geo.Coordinate{}, false
	}
	coord := geo.New(geobus.Truncate(tpv.Lat, geobus.TruncPrecision),
		geobus.Truncate(tpv.Lon, geobus.TruncPrecision))
	if !coord.Valid() {
		return geo.Coordinate{}, false
	}
	return coord.WithAccuracy(horizontalAccuracy(tpv)), true
}

func horizontalAccuracy(tpv *gpsd.TPVReport) float64 {
	if tpv.Epx > 0 && tpv.Epy > 0 {
		return math.Hypot(tpv.Epx, tpv.Epy)
	}
	if tpv.Mode == gpsd.Mode3D {
		return fallbackAccuracy3DFix
	}
	return fallbackAccuracy2DFix
}
