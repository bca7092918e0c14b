package logging

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LevelEnvVar is the environment variable that selects the log level.
const LevelEnvVar = "STORYBOARD_LOG_LEVEL"

// Init initializes the global logger with configuration from environment variables.
// STORYBOARD_LOG_LEVEL controls the log level: debug, info, warn, error (default: info)
func Init() {
	SetLevel(os.Getenv(LevelEnvVar))
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

// SetLevel applies a textual log level to the global logger.
// Unknown or empty values select info.
func SetLevel(level string) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
