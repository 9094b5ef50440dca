// Package telemetry configures the process-wide zerolog logger qdbg's
// command and debugger REPL both log through via the global
// github.com/rs/zerolog/log package logger.
package telemetry

import (
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init points the global zerolog logger at stderr at the given level,
// as JSON lines or the console writer when pretty is true. Every line
// carries a session id so output from concurrent debugger processes
// stays distinguishable.
func Init(level string, pretty bool) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	session := uuid.NewString()
	if pretty {
		writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
		log.Logger = zerolog.New(writer).With().Timestamp().Str("session", session).Logger()
		return
	}
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Str("session", session).Logger()
}
