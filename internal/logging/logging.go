// Package logging configures the log/slog logger shared by peruse's packages.
//
// Standard output may carry the frontend protocol, so logs go to standard
// error unless InitLogger is given another writer.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"time"
)

// Format selects the slog handler.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

var current atomic.Pointer[slog.Logger]

func init() {
	InitLogger(slog.LevelWarn, FormatText, os.Stderr)
}

// ParseLevel accepts the level names used in configuration files. An empty
// string means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// ParseFormat accepts "text" (or empty) and "json".
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON:
		return f, nil
	}
	return FormatText, fmt.Errorf("unknown log format %q", s)
}

// New returns a logger writing records at or above level to w. Timestamps
// are RFC3339 without fractional seconds.
func New(level slog.Level, format Format, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.String(slog.TimeKey, a.Value.Time().Format(time.RFC3339))
			}
			return a
		},
	}
	if format == FormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// InitLogger replaces the shared logger. It is safe to call while other
// goroutines are logging.
func InitLogger(level slog.Level, format Format, w io.Writer) {
	current.Store(New(level, format, w))
}

// GetLogger returns the shared logger.
func GetLogger() *slog.Logger {
	return current.Load()
}

// Component returns the shared logger tagged with a component name. The
// result reflects the logger configured at the time of the call, so callers
// should not keep it across InitLogger calls.
func Component(name string) *slog.Logger {
	return current.Load().With("component", name)
}
