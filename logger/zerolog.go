// Package logger provides a zerolog-backed implementation of core.Logger.
//
// Output is JSON by default; enable Pretty for human-friendly console
// output during development.
//
//	TRACE (-1) → DEBUG (0) → INFO (1) → WARN (2) → ERROR (3)
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/stockease/client-go/core"
)

// Options controls logger behaviour at construction time.
type Options struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Defaults to "info" when empty or unrecognised.
	Level string
	// Pretty enables human-friendly console output (coloured, text-based).
	// Use false in production to emit pure JSON.
	Pretty bool
	// Output is the writer logs are sent to. Defaults to os.Stderr.
	Output io.Writer
}

// ZerologLogger implements core.Logger on top of zerolog
type ZerologLogger struct {
	zl zerolog.Logger
}

// New creates a zerolog-backed logger. Unlike a package-level singleton,
// each call returns an independent instance that is injected where needed.
func New(opts Options) *ZerologLogger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	if opts.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	zl := zerolog.New(out).
		Level(parseLevel(opts.Level)).
		With().
		Timestamp().
		Logger()

	return &ZerologLogger{zl: zl}
}

// With returns a logger that adds the given fields to every entry
func (l *ZerologLogger) With(fields map[string]interface{}) *ZerologLogger {
	return &ZerologLogger{zl: l.zl.With().Fields(fields).Logger()}
}

// Info logs an info message
func (l *ZerologLogger) Info(msg string, fields map[string]interface{}) {
	l.zl.Info().Fields(fields).Msg(msg)
}

// Error logs an error message
func (l *ZerologLogger) Error(msg string, fields map[string]interface{}) {
	l.zl.Error().Fields(fields).Msg(msg)
}

// Warn logs a warning message
func (l *ZerologLogger) Warn(msg string, fields map[string]interface{}) {
	l.zl.Warn().Fields(fields).Msg(msg)
}

// Debug logs a debug message
func (l *ZerologLogger) Debug(msg string, fields map[string]interface{}) {
	l.zl.Debug().Fields(fields).Msg(msg)
}

// parseLevel converts a string to a zerolog.Level, defaulting to info
func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
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

var _ core.Logger = (*ZerologLogger)(nil)
