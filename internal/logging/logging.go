// Package logging builds the zerolog logger shared by the CLI and the server.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New returns a logger at the named level writing to stderr. Verbose output
// is human-readable and forces debug level; otherwise lines are JSON.
func New(level string, verbose bool) zerolog.Logger {
	return NewWithWriter(os.Stderr, level, verbose)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, level string, verbose bool) zerolog.Logger {
	lvl, err := ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	out := w
	if verbose {
		lvl = zerolog.DebugLevel
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

// ParseLevel accepts the config log_level values. "warning" is an alias of
// "warn".
func ParseLevel(level string) (zerolog.Level, error) {
	l := strings.ToLower(strings.TrimSpace(level))
	if l == "warning" {
		l = "warn"
	}
	if l == "" {
		return zerolog.InfoLevel, nil
	}
	return zerolog.ParseLevel(l)
}
