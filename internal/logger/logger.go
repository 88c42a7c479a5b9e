// Package logger builds the zerolog logger. The TUI owns the terminal, so
// records go to a file through a non-blocking diode writer.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/diode"
)

// bufferSize is the number of pending records the diode holds before it
// starts dropping.
const bufferSize = 1000

// New returns a JSON logger writing to w at level. Unknown levels fall back
// to info.
func New(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// Open creates (or appends to) the log file at path and returns a logger
// that never blocks its caller. Closing the returned closer flushes the
// diode and closes the file.
func Open(path, level string) (zerolog.Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("open log file: %w", err)
	}
	dw := diode.NewWriter(f, bufferSize, 10*time.Millisecond, func(missed int) {
		fmt.Fprintf(f, "{\"level\":\"warn\",\"message\":\"logger dropped %d records\"}\n", missed) //nolint:errcheck
	})
	return New(dw, level), dw, nil
}
