// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package logger

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	l := New(slog.LevelInfo)
	if l == nil || l.Logger == nil {
		t.Fatal("expected logger to be non-nil")
	}
	if l.Enabled(t.Context(), slog.LevelDebug) {
		t.Error("expected debug level to be disabled")
	}
}

func TestNewLogger(t *testing.T) {
	levels := []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError}
	for _, level := range levels {
		t.Run(level.String(), func(t *testing.T) {
			buf := bytes.NewBuffer(nil)
			l := NewLogger(level, buf)
			for _, msgLevel := range levels {
				l.Log(t.Context(), msgLevel, "position update", slog.String("source", "gpsd"))
			}

			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			want := 0
			for _, msgLevel := range levels {
				if msgLevel >= level {
					want++
				}
			}
			if len(lines) != want {
				t.Fatalf("expected %d log lines, got %d: %q", want, len(lines), buf.String())
			}
			if !strings.Contains(lines[0], "level="+level.String()) {
				t.Errorf("expected first line to be logged at %s, got %q", level, lines[0])
			}
			if !strings.Contains(lines[0], `msg="position update" source=gpsd`) {
				t.Errorf("expected text handler output, got %q", lines[0])
			}
		})
	}
}

func TestErr(t *testing.T) {
	buf := bytes.NewBuffer(nil)
	l := NewLogger(slog.LevelDebug, buf)
	want := "reverse lookup failed"
	l.Error("failed to resolve address", Err(errors.New(want)))

	if !strings.Contains(buf.String(), `error="`+want+`"`) {
		t.Errorf("expected log to contain %q, got: %q", want, buf.String())
	}
}
