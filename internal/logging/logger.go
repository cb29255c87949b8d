// Package logging provides the session-scoped, component-tagged
// zerolog loggers used across the client, modeled on the teacher's
// global logger package.
package logging

import (
	"os"

	"github.com/rs/zerolog"
)

// Log is the base logger every component logger derives from. Callers
// that want production JSON output can leave it as-is; Initialize
// switches to a pretty console writer for local development.
var Log = zerolog.New(os.Stderr).With().Timestamp().Logger()

// Initialize configures the package-wide log level and output format.
func Initialize(level string, pretty bool) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if pretty {
		Log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	} else {
		Log = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
}

// ForSession returns a logger tagged with a session id, so logs from
// multiple concurrent sessions in one process stay distinguishable.
func ForSession(sessionID string) zerolog.Logger {
	return Log.With().Str("session", sessionID).Logger()
}

// Component returns a sub-logger tagged with the given subsystem name,
// mirroring the teacher's Security()/WebSocket()/Database() factories.
func Component(base zerolog.Logger, name string) zerolog.Logger {
	return base.With().Str("component", name).Logger()
}
