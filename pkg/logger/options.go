package logger

import (
	"io"
	"log/slog"
)

// Option configures a logger created with New.
type Option func(*config)

// WithDebug lowers the level to Debug.
func WithDebug(debug bool) Option {
	return func(c *config) {
		if debug {
			c.level = slog.LevelDebug
		}
	}
}

func WithFormat(f Format) Option {
	return func(c *config) {
		c.format = f
	}
}

// WithWriter sets the destination. A nil writer keeps the default.
func WithWriter(w io.Writer) Option {
	return func(c *config) {
		if w != nil {
			c.writer = w
		}
	}
}

// WithComponent tags every record with the emitting component. The pretty
// handler shows it as a prefix, the others as a "component" attribute.
func WithComponent(name string) Option {
	return func(c *config) {
		c.component = name
	}
}

// WithTimestamps toggles timestamps on pretty output. Text and JSON output
// always carry them.
func WithTimestamps(on bool) Option {
	return func(c *config) {
		c.timestamps = on
	}
}
