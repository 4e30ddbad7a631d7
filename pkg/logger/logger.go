// Package logger provides the process-wide zerolog logger.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// EnvLogLevel names the variable holding the log level (debug, info, warn, ...)
const EnvLogLevel = "LLM_LOG_LEVEL"

var (
	once sync.Once
	log  zerolog.Logger
)

// GetLogLevel returns the level configured in LLM_LOG_LEVEL, defaulting to info
func GetLogLevel() zerolog.Level {
	raw := strings.TrimSpace(os.Getenv(EnvLogLevel))
	if raw == "" {
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(strings.ToLower(raw))
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

// Get returns the process logger, building it on first use
func Get() zerolog.Logger {
	once.Do(func() {
		zerolog.TimeFieldFormat = time.RFC3339Nano
		log = New(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}, GetLogLevel())
	})

	return log
}

// New builds a logger writing to out at the given level
func New(out io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// With returns a child of the process logger tagged with component
func With(component string) zerolog.Logger {
	return Get().With().Str("component", component).Logger()
}
