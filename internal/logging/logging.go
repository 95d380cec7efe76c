// Package logging builds the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Setup returns a timestamped logger on stderr. "text" selects the
// console writer for interactive runs; any other value emits JSON lines.
func Setup(format string) zerolog.Logger {
	var w io.Writer = os.Stderr
	if format == "text" {
		w = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}
	}
	return zerolog.New(w).With().Timestamp().Logger()
}
