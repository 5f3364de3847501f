// SPDX-License-Identifier: BSD-3-Clause

// Package logging provides the process-wide structured logger. Every
// component calls GetGlobalLogger().With("component", ...) rather than
// building its own handler, so console formatting stays uniform.
package logging

import (
	"log/slog"
	"sync"

	"github.com/rs/zerolog"
	slogmulti "github.com/samber/slog-multi"
	slogzerolog "github.com/samber/slog-zerolog/v2"
)

var (
	once   sync.Once
	global *slog.Logger
)

// New builds a logger that renders to the console via zerolog at the given
// level, fanned out through slog-multi so additional sinks (e.g. an audit
// handler) can be appended later without touching call sites.
func New(level slog.Level) *slog.Logger {
	zl := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()

	handler := slogmulti.Fanout(
		slogzerolog.Option{Level: level, Logger: &zl}.NewZerologHandler(),
	)

	return slog.New(handler)
}

// GetGlobalLogger returns the process-wide logger, creating it with
// slog.LevelInfo on first use.
func GetGlobalLogger() *slog.Logger {
	once.Do(func() {
		global = New(slog.LevelInfo)
	})
	return global
}

// SetGlobalLogger overrides the process-wide logger, used by cmd/hwmond once
// the configured log level is known.
func SetGlobalLogger(l *slog.Logger) {
	global = l
}
