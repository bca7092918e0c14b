package logging

import (
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// StartupLogger collects tool identity, resolved configuration and feature
// flags, then emits a single structured zerolog event describing how the
// process was configured. Secrets must never be registered.
type StartupLogger struct {
	name     string
	version  string
	started  time.Time
	features map[string]bool
	config   map[string]string
}

// NewStartupLogger creates a StartupLogger for the named tool (e.g. "gen-animation").
func NewStartupLogger(name string) *StartupLogger {
	return &StartupLogger{
		name:     name,
		started:  time.Now(),
		features: make(map[string]bool),
		config:   make(map[string]string),
	}
}

// Version sets the build version string.
func (s *StartupLogger) Version(v string) *StartupLogger {
	s.version = v
	return s
}

// Feature registers a boolean feature flag (e.g. "ai", "externalEditor").
func (s *StartupLogger) Feature(name string, enabled bool) *StartupLogger {
	s.features[name] = enabled
	return s
}

// Config registers a non-sensitive configuration key-value pair.
// Empty values are skipped.
func (s *StartupLogger) Config(key, value string) *StartupLogger {
	if value != "" {
		s.config[key] = value
	}
	return s
}

// Log emits a single structured DEBUG event with all collected information.
func (s *StartupLogger) Log() {
	tool := zerolog.Dict().
		Str("name", s.name).
		Str("goVersion", runtime.Version()).
		Str("os", runtime.GOOS).
		Str("arch", runtime.GOARCH).
		Str("logLevel", zerolog.GlobalLevel().String())
	if s.version != "" {
		tool = tool.Str("version", s.version)
	}

	evt := log.Debug().Dict("tool", tool)

	if len(s.features) > 0 {
		d := zerolog.Dict()
		for k, v := range s.features {
			d = d.Bool(k, v)
		}
		evt = evt.Dict("features", d)
	}

	if len(s.config) > 0 {
		d := zerolog.Dict()
		for k, v := range s.config {
			d = d.Str(k, v)
		}
		evt = evt.Dict("config", d)
	}

	evt.Dur("init_duration", time.Since(s.started)).Msg("Startup configuration resolved")
}
