// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package job runs periodic maintenance tasks like pruning the geocode cache.
package job

import (
	"context"
	"sync/atomic"
	"time"
)

type Option func(*Job)

// Job runs a task at a fixed interval. A run never overlaps with a previous one.
type Job struct {
	interval  time.Duration
	task      func(context.Context)
	immediate bool
	runs      atomic.Int64
}

// WithStartImmediately runs the task once when the job starts instead of waiting for the first tick.
func WithStartImmediately() Option {
	return func(j *Job) {
		j.immediate = true
	}
}

// New creates a new Job with the given interval and task.
func New(interval time.Duration, task func(context.Context), opts ...Option) *Job {
	j := &Job{
		interval: interval,
		task:     task,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Runs returns the number of started task runs.
func (j *Job) Runs() int64 {
	return j.runs.Load()
}

// Start executes the job until the context is cancelled. Ticks that fire while a run is still
// in progress are skipped.
func (j *Job) Start(ctx context.Context) {
	if j.task == nil || j.interval <= 0 {
		return
	}

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	busy := make(chan struct{}, 1)
	if j.immediate {
		j.tryRun(ctx, busy)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.tryRun(ctx, busy)
		}
	}
}

func (j *Job) tryRun(ctx context.Context, busy chan struct{}) {
	select {
	case busy <- struct{}{}:
	default:
		return
	}
	j.runs.Add(1)
	go func() {
		defer func() { <-busy }()
		j.task(ctx)
	}()
}
