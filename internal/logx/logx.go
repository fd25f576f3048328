// Package logx provides the structured logging facade shared by
// Controller, Plant, and the CLI: a
// zerolog.ConsoleWriter over stderr with Unix-formatted timestamps,
// built through a constructor so that each component gets its own named
// logger rather than sharing one global (this module runs two such
// components concurrently in one process).
package logx

import (
	"os"

	"github.com/rs/zerolog"
)

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
}

// New returns a logger tagged with component, writing to stderr via
// zerolog's human-readable console writer.
func New(component string) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().
		Timestamp().
		Str("component", component).
		Logger()
}
