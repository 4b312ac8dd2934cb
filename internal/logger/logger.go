// Package logger provides structured logging for docchat.
//
// A single process-wide zerolog logger is configured once at start-up. The
// printf-style helpers cover CLI diagnostics; components that want
// structured fields take a child logger from With.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logger configuration.
type Config struct {
	Level  string // debug, info, warn, error
	Pretty bool   // human-readable console output
	Output io.Writer
}

var (
	mu      sync.RWMutex
	cfg     = Config{Level: "info", Output: os.Stderr}
	verbose bool
	log     = build(cfg, false)
)

// Configure replaces the process-wide logger.
func Configure(c Config) {
	mu.Lock()
	defer mu.Unlock()
	if c.Output == nil {
		c.Output = os.Stderr
	}
	cfg = c
	log = build(cfg, verbose)
}

// SetVerbose enables or disables debug output.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	log = build(cfg, verbose)
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	cfg.Output = w
	log = build(cfg, verbose)
}

// L returns the process-wide logger.
func L() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := log
	return &l
}

// With returns a child logger tagged with a component name.
func With(component string) zerolog.Logger {
	return L().With().Str("component", component).Logger()
}

// Debug logs a formatted message at debug level.
func Debug(format string, args ...any) {
	L().Debug().Msgf(format, args...)
}

// Section logs a section header at debug level.
func Section(name string) {
	L().Debug().Str("section", name).Msg(fmt.Sprintf("=== %s ===", name))
}

// Info logs a formatted message at info level.
func Info(format string, args ...any) {
	L().Info().Msgf(format, args...)
}

// Warn logs a formatted message at warn level.
func Warn(format string, args ...any) {
	L().Warn().Msgf(format, args...)
}

// Error logs a formatted message at error level.
func Error(err error, format string, args ...any) {
	L().Error().Err(err).Msgf(format, args...)
}

func build(c Config, debug bool) zerolog.Logger {
	out := c.Output
	if out == nil {
		out = os.Stderr
	}
	if c.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	level := parseLevel(c.Level)
	if debug {
		level = zerolog.DebugLevel
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", "docchat").
		Logger()
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
