package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var zlog zerolog.Logger

// Init configures the global structured logger. Development gets pretty
// console output, everything else machine-readable JSON.
func Init(env string) {
	var w io.Writer

	if env == "development" {
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	} else {
		w = os.Stdout
	}

	zlog = zerolog.New(w).With().
		Timestamp().
		Str("service", "lifecoachingcafe-backend").
		Logger()

	zerolog.TimeFieldFormat = time.RFC3339
}

func Get() *zerolog.Logger {
	return &zlog
}

// WithUserID returns a logger with a user_id field attached.
func WithUserID(userID string) zerolog.Logger {
	return zlog.With().Str("user_id", userID).Logger()
}
