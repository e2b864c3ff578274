// Package logger builds the *slog.Logger instances used across lingo: a
// colourised handler for the CLI, JSON for relay log files, and plain slog
// text otherwise.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	charmlog "github.com/charmbracelet/log"
)

// Format selects the handler New builds.
type Format string

const (
	FormatText   Format = "text"
	FormatPretty Format = "pretty"
	FormatJSON   Format = "json"
)

// ParseFormat accepts "text", "pretty" or "json".
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatText, FormatPretty, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown log format %q (want text, pretty or json)", s)
	}
}

type config struct {
	level      slog.Level
	format     Format
	writer     io.Writer
	component  string
	timestamps bool
}

// New returns a *slog.Logger configured by opts. Without options it writes
// Info and above as slog text to os.Stderr.
func New(opts ...Option) *slog.Logger {
	c := &config{
		level:      slog.LevelInfo,
		format:     FormatText,
		writer:     os.Stderr,
		timestamps: true,
	}
	for _, opt := range opts {
		opt(c)
	}

	var h slog.Handler
	switch c.format {
	case FormatPretty:
		h = charmlog.NewWithOptions(c.writer, charmlog.Options{
			Level:           charmlog.Level(c.level),
			ReportTimestamp: c.timestamps,
			Prefix:          c.component,
		})
	case FormatJSON:
		h = slog.NewJSONHandler(c.writer, &slog.HandlerOptions{Level: c.level})
	default:
		h = slog.NewTextHandler(c.writer, &slog.HandlerOptions{Level: c.level})
	}

	l := slog.New(h)
	if c.component != "" && c.format != FormatPretty {
		l = l.With("component", c.component)
	}
	return l
}

// Nop returns a logger that drops every record.
func Nop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
