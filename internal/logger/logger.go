// Package logger wraps zerolog with the small API plugctl needs.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Format selects how log entries are written.
type Format string

const (
	// FormatConsole writes human-readable, colorized lines.
	FormatConsole Format = "console"

	// FormatJSON writes one JSON object per line.
	FormatJSON Format = "json"
)

// Options describes logger configuration supplied at creation time.
type Options struct {
	Level  string
	Format Format
	Writer io.Writer
}

// Logger wraps zerolog to provide a simplified API for the application.
// A nil *Logger discards everything, so callers never need a guard.
type Logger struct {
	base zerolog.Logger
}

// New creates a configured Logger instance based on Options. The writer
// defaults to stderr, since stdout carries the command result.
func New(opts Options) (*Logger, error) {
	writer := opts.Writer
	if writer == nil {
		writer = os.Stderr
	}

	level := zerolog.InfoLevel
	if opts.Level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return nil, err
		}
		level = parsed
	}

	var output io.Writer = writer
	if opts.Format == "" || opts.Format == FormatConsole {
		console := zerolog.NewConsoleWriter()
		console.Out = writer
		console.TimeFormat = time.RFC3339
		output = console
	}

	logger := zerolog.New(output).Level(level).With().Timestamp().Logger()
	return &Logger{base: logger}, nil
}

// WithFields returns a derived logger that always writes the supplied fields.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	if l == nil {
		return nil
	}

	builder := l.base.With()
	for key, value := range fields {
		builder = builder.Interface(key, value)
	}

	derived := Logger{base: builder.Logger()}
	return &derived
}

// Debugf writes a formatted debug-level entry if enabled.
func (l *Logger) Debugf(format string, args ...any) {
	if l == nil {
		return
	}
	l.base.Debug().Msgf(format, args...)
}

// Info writes an informational log entry.
func (l *Logger) Info(msg string) {
	if l == nil {
		return
	}
	l.base.Info().Msg(msg)
}

// Error writes an error log entry including the supplied error context.
func (l *Logger) Error(err error, msg string) {
	if l == nil {
		return
	}
	event := l.base.Error()
	if err != nil {
		event = event.Err(err)
	}
	event.Msg(msg)
}
