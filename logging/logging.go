// Package logging builds the zerolog.Logger shared across the module,
// mirroring the teacher's pkg/logger: a process-wide base logger whose
// format and level are driven by environment rather than call sites.
package logging

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// ParseLevel converts a string log level to a zerolog.Level, defaulting
// to warn on anything unrecognized (same default the teacher's
// logger.ParseLevel uses).
func ParseLevel(levelStr string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.WarnLevel
	}
}

// New builds a base logger. In a terminal it uses zerolog's human-readable
// console writer; otherwise it emits JSON, matching the teacher's
// dev-vs-prod writer selection in pkg/logger.
func New(level zerolog.Level) zerolog.Logger {
	var w = os.Stderr
	if isTerminal(w) {
		return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}).
			Level(level).With().Timestamp().Logger()
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// NewFromEnv builds a logger whose level comes from the STREAMTREE_LOG_LEVEL
// environment variable (warn if unset).
func NewFromEnv() zerolog.Logger {
	return New(ParseLevel(os.Getenv("STREAMTREE_LOG_LEVEL")))
}

// Noop returns a logger that discards everything, used as the default
// for a render context that didn't ask for one (spec.md §4.B: "logger:
// Logger | default no-op").
func Noop() zerolog.Logger {
	return zerolog.New(nil).Level(zerolog.Disabled)
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
