// Package logging builds the stderr console logger shared by both tools.
package logging

import (
	"io"

	"github.com/rs/zerolog"
)

// New returns a console logger writing to w. quiet suppresses everything
// below the error level.
func New(w io.Writer, quiet bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if quiet {
		level = zerolog.ErrorLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w}).Level(level).With().Timestamp().Logger()
}
