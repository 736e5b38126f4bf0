// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package xrlayer

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that worker
// goroutines owned by a Runtime can log while SetLogger runs.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for xrlayer and all its sub-packages.
// By default nothing is logged. Pass nil to restore the silent default.
//
// Log levels used by xrlayer:
//   - [slog.LevelDebug]: life cycle transitions (swapchain requested, record
//     built, layer removed, recreated after resize)
//   - [slog.LevelInfo]: registry start and stop, runtime configuration
//   - [slog.LevelWarn]: failed submissions, runtime loss, dropped completions
//   - [slog.LevelError]: submission buffer exhaustion
//
// Example:
//
//	xrlayer.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the current logger. Sub-packages (layers, compositor,
// scenefile) call this so they share one configuration.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
