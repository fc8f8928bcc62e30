// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geobus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/wneessen/geonear/internal/logger"
)

// Orchestrator runs a set of providers and publishes their positions onto a GeoBus.
type Orchestrator struct {
	Bus       *GeoBus
	Providers []Provider
}

// Track runs all providers for key until ctx is done. A provider whose stream fails or ends is
// restarted with exponential backoff.
func (o *Orchestrator) Track(ctx context.Context, key string) {
	var wg sync.WaitGroup
	for _, p := range o.Providers {
		wg.Go(func() {
			o.trackProvider(ctx, p, key)
		})
	}
	<-ctx.Done()
	wg.Wait()
}

func (o *Orchestrator) trackProvider(ctx context.Context, p Provider, key string) {
	backoff := initialBackoff
	for ctx.Err() == nil {
		stream, err := o.safeLookup(ctx, p, key)
		if err != nil {
			o.Bus.logger.Warn("geolocation provider failed", slog.String("provider", p.Name()),
				logger.Err(err), slog.Duration("retry_in", backoff))
		}
		if stream != nil && o.drain(ctx, stream) {
			backoff = initialBackoff
		}
		if !sleepOrDone(ctx, backoff) {
			return
		}
		backoff = nextBackoff(backoff)
	}
}

// drain publishes every result of stream until it is closed or ctx is done. It reports whether
// at least one result was received.
func (o *Orchestrator) drain(ctx context.Context, stream <-chan Result) bool {
	received := false
	for {
		select {
		case <-ctx.Done():
			return received
		case r, ok := <-stream:
			if !ok {
				return received
			}
			o.Bus.Publish(r)
			received = true
		}
	}
}

// safeLookup starts the provider stream and turns a panicking provider into an error.
func (o *Orchestrator) safeLookup(ctx context.Context, provider Provider, key string) (ch <-chan Result, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			ch, err = nil, fmt.Errorf("provider panicked: %v", rec)
		}
	}()
	return provider.LookupStream(ctx, key), nil
}
