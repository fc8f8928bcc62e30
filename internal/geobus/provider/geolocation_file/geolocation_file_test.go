// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geolocation_file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/synctest"
	"time"

	"github.com/wneessen/geonear/internal/geo"
	"github.com/wneessen/geonear/internal/geobus"
)

const (
	testFile = "../../../../testdata/geolocation"
	testLat  = 30.7950
	testLon  = 30.9985
)

func TestNewGeolocationFileProvider(t *testing.T) {
	provider := NewGeolocationFileProvider(testFile)
	if provider == nil {
		t.Fatal("expected provider to be non-nil")
	}
	if provider.Name() != "geolocation_file" {
		t.Errorf("expected provider name to be %q, got %q", "geolocation_file", provider.Name())
	}
	if provider.path != testFile {
		t.Errorf("expected path to be %q, got %q", testFile, provider.path)
	}
}

func TestGeolocationFileProvider_readFile(t *testing.T) {
	t.Run("fixture files", func(t *testing.T) {
		tests := []struct {
			name    string
			file    string
			want    geo.Coordinate
			wantErr error
		}{
			{"comment and position", testFile, geo.New(testLat, testLon), nil},
			{"no coordinates", testFile + "_nocoord", geo.Coordinate{}, ErrNoCoordinates},
			{"broken latitude", testFile + "_brokenlat", geo.Coordinate{}, ErrNoCoordinates},
			{"broken longitude", testFile + "_brokenlon", geo.Coordinate{}, ErrNoCoordinates},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				coord, err := NewGeolocationFileProvider(tc.file).readFile()
				if tc.wantErr != nil {
					if !errors.Is(err, tc.wantErr) {
						t.Errorf("expected error to be %s, got %v", tc.wantErr, err)
					}
					return
				}
				if err != nil {
					t.Fatalf("failed to read file: %s", err)
				}
				if coord.Lat != tc.want.Lat || coord.Lon != tc.want.Lon {
					t.Errorf("expected position %s, got %s", tc.want, coord)
				}
				if coord.Acc.Value() != Accuracy {
					t.Errorf("expected accuracy to be %d, got %f", Accuracy, coord.Acc.Value())
				}
			})
		}
	})
	t.Run("file contents", func(t *testing.T) {
		tests := []struct {
			name    string
			content string
			want    geo.Coordinate
			wantErr bool
		}{
			{"plain pair", "30.9592,31.1493", geo.New(30.9592, 31.1493), false},
			{"spaces and trailing newline", "  30.9592 ,  31.1493  \n", geo.New(30.9592, 31.1493), false},
			{"negative values", "-33.8688, -70.6693", geo.New(-33.8688, -70.6693), false},
			{"first valid line wins", "# home\n\n91, 31\nfoo\n30.5, 31.25\n1, 2", geo.New(30.5, 31.25), false},
			{"out of range only", "91, 181", geo.Coordinate{}, true},
			{"missing separator", "30.9592 31.1493", geo.Coordinate{}, true},
			{"empty file", "", geo.Coordinate{}, true},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				path := filepath.Join(t.TempDir(), "geolocation")
				if err := os.WriteFile(path, []byte(tc.content), 0o600); err != nil {
					t.Fatalf("failed to write test file: %s", err)
				}
				coord, err := NewGeolocationFileProvider(path).readFile()
				if tc.wantErr {
					if !errors.Is(err, ErrNoCoordinates) {
						t.Errorf("expected error to be %s, got %v", ErrNoCoordinates, err)
					}
					return
				}
				if err != nil {
					t.Fatalf("failed to read file: %s", err)
				}
				if coord.Lat != tc.want.Lat || coord.Lon != tc.want.Lon {
					t.Errorf("expected position %s, got %s", tc.want, coord)
				}
			})
		}
	})
	t.Run("missing file", func(t *testing.T) {
		_, err := NewGeolocationFileProvider(filepath.Join(t.TempDir(), "missing")).readFile()
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected error to be %s, got %v", os.ErrNotExist, err)
		}
	})
}

func TestGeolocationFileProvider_LookupStream(t *testing.T) {
	t.Run("fixture position is streamed", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			ctx, cancel := context.WithCancel(t.Context())
			defer cancel()

			provider := NewGeolocationFileProvider(testFile)
			result := <-provider.LookupStream(ctx, "device")
			cancel()
			synctest.Wait()

			if result.Key != "device" {
				t.Errorf("expected key %q, got %q", "device", result.Key)
			}
			if result.Lat != testLat || result.Lon != testLon {
				t.Errorf("expected position %f,%f, got %f,%f", testLat, testLon, result.Lat, result.Lon)
			}
			if result.AccuracyMeters != Accuracy {
				t.Errorf("expected accuracy to be %d, got %f", Accuracy, result.AccuracyMeters)
			}
			if result.Source != name || result.TTL != provider.ttl {
				t.Errorf("unexpected source or TTL: %s, %s", result.Source, result.TTL)
			}
		})
	})
	t.Run("only changed positions are emitted", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			ctx, cancel := context.WithCancel(t.Context())
			defer cancel()

			positions := []geo.Coordinate{
				geo.New(30.9592, 31.1493),
				geo.New(30.9592, 31.1493),
				geo.New(30.9592, 31.1493),
				geo.New(30.944, 31.1456),
			}
			calls := 0
			provider := NewGeolocationFileProvider(testFile)
			provider.locateFn = func() (geo.Coordinate, error) {
				pos := positions[min(calls, len(positions)-1)]
				calls++
				return pos.WithAccuracy(Accuracy), nil
			}

			out := provider.LookupStream(ctx, "device")
			first := <-out
			start := time.Now()
			second := <-out
			cancel()
			synctest.Wait()

			if first.Lat != 30.9592 || second.Lat != 30.944 {
				t.Errorf("unexpected positions: %f, %f", first.Lat, second.Lat)
			}
			if elapsed := time.Since(start); elapsed != provider.period*3 {
				t.Errorf("expected changed position after %s, got %s", provider.period*3, elapsed)
			}
		})
	})
	t.Run("failed reads are retried", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			ctx, cancel := context.WithCancel(t.Context())
			defer cancel()

			calls := 0
			provider := NewGeolocationFileProvider(testFile)
			provider.locateFn = func() (geo.Coordinate, error) {
				calls++
				if calls == 1 {
					return geo.Coordinate{}, errors.New("intentionally failing")
				}
				return geo.New(1.0, 2.0).WithAccuracy(geobus.AccuracyZip), nil
			}

			result := <-provider.LookupStream(ctx, "device")
			cancel()
			synctest.Wait()

			if calls != 2 {
				t.Errorf("expected 2 reads, got %d", calls)
			}
			if result.Lat != 1.0 || result.Lon != 2.0 {
				t.Errorf("expected position 1,2, got %f,%f", result.Lat, result.Lon)
			}
			if result.AccuracyMeters != geobus.AccuracyZip {
				t.Errorf("expected accuracy to be %d, got %f", geobus.AccuracyZip, result.AccuracyMeters)
			}
		})
	})
	t.Run("stream is closed when context is done", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			ctx, cancel := context.WithCancel(t.Context())
			provider := NewGeolocationFileProvider(filepath.Join(t.TempDir(), "missing"))
			out := provider.LookupStream(ctx, "device")
			synctest.Wait()
			cancel()
			if _, ok := <-out; ok {
				t.Error("expected stream to be closed without result")
			}
		})
	})
}
