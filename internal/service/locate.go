// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"

	"github.com/wneessen/geonear/internal/geobus"
	"github.com/wneessen/geonear/internal/logger"
)

// Locate starts the given providers and returns the first position published on the geobus.
// The providers are stopped before Locate returns.
func Locate(ctx context.Context, log *logger.Logger, providers []geobus.Provider) (geobus.Result, error) {
	if len(providers) == 0 {
		return geobus.Result{}, ErrNoProviders
	}

	bus := geobus.New(log)
	trackCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		bus.NewOrchestrator(providers).Track(trackCtx, DeviceKey)
	}()
	defer func() {
		cancel()
		<-done
	}()

	result, err := bus.Await(ctx, DeviceKey)
	if err != nil {
		return result, fmt.Errorf("failed to locate device: %w", err)
	}
	return result, nil
}
