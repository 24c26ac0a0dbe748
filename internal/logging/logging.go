// Package logging builds the slog loggers used by the confgate commands.
//
// Library packages never configure logging themselves; they accept a
// *slog.Logger and default to Discard.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/log"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Options configures New.
type Options struct {
	Level   string // debug | info | warn | error; empty means info
	Format  string // text | json; empty means text
	Verbose bool   // forces debug level
}

// New returns a logger writing to w. Text output uses the charm log handler
// with a "confgate" prefix; JSON output uses slog's JSON handler.
func New(w io.Writer, opts Options) (*slog.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	if opts.Verbose {
		level = slog.LevelDebug
	}

	switch opts.Format {
	case "", FormatText:
		handler := log.NewWithOptions(w, log.Options{
			Prefix: "confgate",
			Level:  log.Level(level),
		})
		return slog.New(handler), nil
	case FormatJSON:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})), nil
	default:
		return nil, fmt.Errorf("invalid log format %q: must be text or json", opts.Format)
	}
}

// ParseLevel maps a level name to its slog level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("invalid log level %q", name)
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
