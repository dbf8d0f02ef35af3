package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// New builds the process logger. dev gets a human-readable console writer,
// everything else gets JSON lines.
func New(env string) zerolog.Logger {
	return NewWithWriter(env, os.Stderr)
}

func NewWithWriter(env string, w io.Writer) zerolog.Logger {
	if env == "dev" || env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: w}).With().Timestamp().Logger()
	}
	return zerolog.New(w).With().Timestamp().Logger()
}
