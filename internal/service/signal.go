// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"os"
	"os/signal"
)

// SignalSource registers and unregisters signal channels.
type SignalSource interface {
	Notify(c chan<- os.Signal, sig ...os.Signal)
	Stop(c chan<- os.Signal)
}

type stdLibSignalSource struct{}

func (stdLibSignalSource) Notify(c chan<- os.Signal, sig ...os.Signal) {
	signal.Notify(c, sig...)
}

func (stdLibSignalSource) Stop(c chan<- os.Signal) {
	signal.Stop(c)
}

// HandleRefreshSignal prints the current output immediately whenever a signal is received
func (s *Service) HandleRefreshSignal(ctx context.Context, sigChan chan os.Signal) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-sigChan:
			s.printOutput(ctx)
		}
	}
}

// ListenRefreshSignal registers sig with src and runs HandleRefreshSignal until ctx is done.
func (s *Service) ListenRefreshSignal(ctx context.Context, src SignalSource, sig ...os.Signal) {
	sigChan := make(chan os.Signal, 1)
	src.Notify(sigChan, sig...)
	defer src.Stop(sigChan)
	s.HandleRefreshSignal(ctx, sigChan)
}

// NewSignalSource returns a SignalSource backed by the os/signal package.
func NewSignalSource() SignalSource {
	return stdLibSignalSource{}
}
