// Package log builds the process logger.
package log

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps the configured zerolog logger.
type Logger struct {
	zerolog.Logger
}

// New returns a logger writing JSON to stdout, or a console writer when pretty
// is set. Unknown levels fall back to info.
func New(level string, pretty bool) Logger {
	return NewWithWriter(os.Stdout, level, pretty)
}

func NewWithWriter(w io.Writer, level string, pretty bool) Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	out := w
	if pretty {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return Logger{zerolog.New(out).Level(lvl).With().Timestamp().Logger()}
}
