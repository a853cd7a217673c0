package vybiumzkvm

import (
	"os"
	"strings"
	"time"

	gnarklogger "github.com/consensys/gnark/logger"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetupLogger installs a console logger on stderr as the global logger.
// The level comes from VYBIUM_ZKVM_LOG and defaults to info. The Groth16
// backend logs through the same logger.
func SetupLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(os.Getenv(EnvLogLevel)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().
		Timestamp().
		Logger()

	log.Logger = logger
	gnarklogger.Set(logger.With().Str("component", "groth16").Logger())
	return logger
}
