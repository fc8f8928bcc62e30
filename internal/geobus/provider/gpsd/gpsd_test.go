// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package gpsd

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"net"
	"strings"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stratoberry/go-gpsd"

	"github.com/wneessen/geonear/internal/geo"
	"github.com/wneessen/geonear/internal/geobus"
	"github.com/wneessen/geonear/internal/logger"
)

const (
	testLat = 30.5
	testLon = 31.25
)

func TestNewGeolocationGPSDProvider(t *testing.T) {
	t.Run("new GPSd provider succeeds", func(t *testing.T) {
		provider := NewGeolocationGPSDProvider(testLogger(), "")
		if provider == nil {
			t.Fatal("expected provider to be non-nil")
		}
		if provider.addr != DefaultAddr {
			t.Errorf("expected default address %s, got %s", DefaultAddr, provider.addr)
		}
	})
	t.Run("custom address is used", func(t *testing.T) {
		provider := NewGeolocationGPSDProvider(testLogger(), "10.0.0.5:2947")
		if provider.addr != "10.0.0.5:2947" {
			t.Errorf("expected custom address, got %s", provider.addr)
		}
	})
}

func TestGeolocationGPSDProvider_Name(t *testing.T) {
	provider := NewGeolocationGPSDProvider(testLogger(), "")
	if !strings.EqualFold(provider.Name(), name) {
		t.Errorf("expected provider name to be %s, got %s", name, provider.Name())
	}
}

func TestGeolocationGPSDProvider_createResult(t *testing.T) {
	provider := NewGeolocationGPSDProvider(testLogger(), "")
	result := provider.createResult("test", geo.New(testLat, testLon).WithAccuracy(geobus.AccuracyCity))
	if result.Lat != testLat {
		t.Errorf("expected latitude to be %f, got %f", testLat, result.Lat)
	}
	if result.Lon != testLon {
		t.Errorf("expected longitude to be %f, got %f", testLon, result.Lon)
	}
	if result.Key != "test" {
		t.Errorf("expected key to be %s, got %s", "test", result.Key)
	}
	if result.AccuracyMeters != geobus.AccuracyCity {
		t.Errorf("expected accuracy to be %d, got %f", geobus.AccuracyCity, result.AccuracyMeters)
	}
	if result.Source != provider.Name() {
		t.Errorf("expected source to be %s, got %s", provider.Name(), result.Source)
	}
	if result.TTL != provider.ttl {
		t.Errorf("expected TTL to be %d, got %d", provider.ttl, result.TTL)
	}
}

func TestCoordinateFromTPV(t *testing.T) {
	tests := []struct {
		name   string
		tpv    *gpsd.TPVReport
		wantOK bool
		acc    float64
	}{
		{"3D fix with error estimates", &gpsd.TPVReport{Mode: gpsd.Mode3D, Lat: testLat, Lon: testLon, Epx: 8.1, Epy: 11.4}, true, math.Hypot(8.1, 11.4)},
		{"3D fix without error estimates", &gpsd.TPVReport{Mode: gpsd.Mode3D, Lat: testLat, Lon: testLon}, true, fallbackAccuracy3DFix},
		{"2D fix without error estimates", &gpsd.TPVReport{Mode: gpsd.Mode2D, Lat: testLat, Lon: testLon}, true, fallbackAccuracy2DFix},
		{"no fix", &gpsd.TPVReport{Mode: gpsd.NoFix, Lat: testLat, Lon: testLon}, false, 0},
		{"invalid position", &gpsd.TPVReport{Mode: gpsd.Mode3D, Lat: 100, Lon: testLon}, false, 0},
		{"nil report", nil, false, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			coord, ok := coordinateFromTPV(tc.tpv)
			if ok != tc.wantOK {
				t.Fatalf("expected ok to be %t, got %t", tc.wantOK, ok)
			}
			if !ok {
				return
			}
			if coord.Lat != testLat || coord.Lon != testLon {
				t.Errorf("unexpected coordinate: %s", coord)
			}
			if coord.Acc.Value() != tc.acc {
				t.Errorf("expected accuracy to be %f, got %f", tc.acc, coord.Acc.Value())
			}
		})
	}
}

func TestGeolocationGPSDProvider_LookupStream(t *testing.T) {
	t.Run("connecting to GPSd fails on first run but then succeeds", func(t *testing.T) {
		runCount := 0
		synctest.Test(t, func(t *testing.T) {
			ctx, cancel := context.WithCancel(t.Context())
			defer cancel()

			provider := NewGeolocationGPSDProvider(testLogger(), "")
			provider.period = time.Millisecond * 10
			provider.watchFn = func(ctx context.Context, _ string, fixes chan<- geo.Coordinate) error {
				if runCount == 0 {
					runCount++
					return errors.New("intentionally failing")
				}
				fixes <- geo.New(1.0, 2.0).WithAccuracy(3.0)
				<-ctx.Done()
				return ctx.Err()
			}

			out := provider.LookupStream(ctx, "test")
			if out == nil {
				t.Fatal("expected stream to be non-nil")
			}

			var result geobus.Result
			select {
			case r := <-out:
				result = r
				cancel()
			case <-ctx.Done():
				t.Fatalf("context done before result: %v", ctx.Err())
			}
			synctest.Wait()

			if result.Lat != 1.0 {
				t.Errorf("expected latitude to be %f, got %f", 1.0, result.Lat)
			}
			if result.Lon != 2.0 {
				t.Errorf("expected longitude to be %f, got %f", 2.0, result.Lon)
			}
			if result.AccuracyMeters != 3.0 {
				t.Errorf("expected accuracy to be %f, got %f", 3.0, result.AccuracyMeters)
			}
		})
	})
	t.Run("unchanged fixes are emitted once", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			ctx, cancel := context.WithCancel(t.Context())
			defer cancel()

			provider := NewGeolocationGPSDProvider(testLogger(), "")
			provider.watchFn = func(ctx context.Context, _ string, fixes chan<- geo.Coordinate) error {
				for _, coord := range []geo.Coordinate{
					geo.New(1, 2).WithAccuracy(5),
					geo.New(1.00001, 2).WithAccuracy(5),
					geo.New(1.5, 2).WithAccuracy(5),
				} {
					select {
					case fixes <- coord:
					case <-ctx.Done():
						return ctx.Err()
					}
				}
				<-ctx.Done()
				return ctx.Err()
			}

			out := provider.LookupStream(ctx, "test")
			first := <-out
			second := <-out
			cancel()
			synctest.Wait()

			if first.Lat != 1 {
				t.Errorf("expected first latitude to be 1, got %f", first.Lat)
			}
			if second.Lat != 1.5 {
				t.Errorf("expected second latitude to be 1.5, got %f", second.Lat)
			}
		})
	})
}

func TestWatchGPSD(t *testing.T) {
	t.Run("cancelling the context closes the gpsd connection", func(t *testing.T) {
		listener, err := net.Listen("tcp4", "127.0.0.1:0")
		if err != nil {
			t.Skipf("failed to listen on loopback: %s", err)
		}
		t.Cleanup(func() { _ = listener.Close() })

		closed := make(chan struct{})
		go func() {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			defer func() { _ = conn.Close() }()
			_, _ = io.WriteString(conn, `{"class":"VERSION","release":"3.25"}`+"\n")
			buf := make([]byte, 512)
			if _, err = conn.Read(buf); err != nil {
				return
			}
			_, _ = io.WriteString(conn, `{"class":"TPV","mode":3,"lat":30.5,"lon":31.25,"epx":3,"epy":4}`+"\n")
			_, _ = io.Copy(io.Discard, conn)
			close(closed)
		}()

		ctx, cancel := context.WithCancel(t.Context())
		defer cancel()
		fixes := make(chan geo.Coordinate, 1)
		errChan := make(chan error, 1)
		go func() { errChan <- watchGPSD(ctx, listener.Addr().String(), fixes) }()

		select {
		case coord := <-fixes:
			if coord.Lat != testLat || coord.Lon != testLon {
				t.Errorf("expected fix %f, %f, got %s", testLat, testLon, coord)
			}
			if coord.Acc.Value() != 5 {
				t.Errorf("expected accuracy to be 5, got %f", coord.Acc.Value())
			}
		case <-time.After(time.Second * 5):
			t.Fatal("timed out waiting for fix")
		}

		cancel()
		select {
		case err = <-errChan:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("expected error to be %s, got %v", context.Canceled, err)
			}
		case <-time.After(time.Second * 5):
			t.Fatal("watcher did not return after cancel")
		}
		select {
		case <-closed:
		case <-time.After(time.Second * 5):
			t.Error("expected gpsd connection to be closed after cancel")
		}
	})
}

func testLogger() *logger.Logger {
	return logger.NewLogger(slog.LevelDebug, io.Discard)
}
