// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package job

import (
	"context"
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"
)

func TestNew(t *testing.T) {
	job := New(time.Minute, func(context.Context) {})
	if job == nil {
		t.Fatal("expected job to be non-nil")
	}
	if job.immediate {
		t.Error("expected job to not start immediately by default")
	}
	job = New(time.Minute, func(context.Context) {}, WithStartImmediately())
	if !job.immediate {
		t.Error("expected job to start immediately")
	}
}

func TestJob_Start(t *testing.T) {
	t.Run("job returns when context is cancelled", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			ctx, cancel := context.WithCancel(t.Context())
			done := make(chan struct{})
			go func() {
				New(time.Minute, func(context.Context) {}).Start(ctx)
				close(done)
			}()

			synctest.Wait()
			select {
			case <-done:
				t.Fatal("expected job to run until the context is cancelled")
			default:
			}

			cancel()
			synctest.Wait()
			select {
			case <-done:
			default:
				t.Fatal("expected job to return after the context was cancelled")
			}
		})
	})
	t.Run("task runs on every tick", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(t.Context(), time.Minute*5+time.Second)
			defer cancel()
			var count atomic.Int64

			testJob := New(time.Minute, func(context.Context) { count.Add(1) })
			testJob.Start(ctx)
			synctest.Wait()

			if count.Load() != 5 {
				t.Errorf("expected task to run 5 times, got %d", count.Load())
			}
			if testJob.Runs() != 5 {
				t.Errorf("expected 5 runs, got %d", testJob.Runs())
			}
		})
	})
	t.Run("task runs immediately", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(t.Context(), time.Second)
			defer cancel()
			var count atomic.Int64

			New(time.Minute, func(context.Context) { count.Add(1) }, WithStartImmediately()).Start(ctx)
			synctest.Wait()

			if count.Load() != 1 {
				t.Errorf("expected task to run once, got %d", count.Load())
			}
		})
	})
	t.Run("overlapping ticks are skipped", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(t.Context(), time.Minute*5+time.Second)
			defer cancel()

			testJob := New(time.Minute, func(ctx context.Context) {
				select {
				case <-ctx.Done():
				case <-time.After(time.Minute*3 - time.Second):
				}
			})
			testJob.Start(ctx)
			synctest.Wait()

			// runs start at minute 1 and minute 4
			if testJob.Runs() != 2 {
				t.Errorf("expected 2 runs, got %d", testJob.Runs())
			}
		})
	})
	t.Run("nil task returns", func(t *testing.T) {
		New(time.Minute, nil).Start(t.Context())
	})
	t.Run("invalid interval returns", func(t *testing.T) {
		New(0, func(context.Context) {}).Start(t.Context())
	})
}
