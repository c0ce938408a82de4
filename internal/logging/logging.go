// Package logging builds the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Formats supported by New
const (
	FormatJSON   = "json"
	FormatPretty = "pretty"
)

// ParseLevel maps a level name to a slog.Level. Unknown names fall back to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewHandler returns a JSON handler, or a colorized tint handler for local
// development when format is "pretty".
func NewHandler(out io.Writer, format, level string) slog.Handler {
	lvl := ParseLevel(level)
	if format == FormatPretty {
		return tint.NewHandler(out, &tint.Options{
			Level:      lvl,
			TimeFormat: time.TimeOnly,
		})
	}
	return slog.NewJSONHandler(out, &slog.HandlerOptions{Level: lvl})
}

// New returns a logger writing to out in the given format and level.
func New(out io.Writer, format, level string) *slog.Logger {
	return slog.New(NewHandler(out, format, level))
}
