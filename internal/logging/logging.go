package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Options controls logger construction.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // text or json
	Prefix string
}

// Logger wraps a charmbracelet logger with the key/value helpers used across
// the server.
type Logger struct {
	logger *log.Logger
}

// New creates a logger writing to w. A nil writer means stderr; stdout stays
// free for the MCP stdio transport.
func New(w io.Writer, opts Options) (*Logger, error) {
	if w == nil {
		w = os.Stderr
	}

	level := log.InfoLevel
	if opts.Level != "" {
		parsed, err := log.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}

	formatter := log.TextFormatter
	switch strings.ToLower(opts.Format) {
	case "", "text":
	case "json":
		formatter = log.JSONFormatter
	default:
		return nil, fmt.Errorf("invalid log format %q (must be text or json)", opts.Format)
	}

	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          opts.Prefix,
		Level:           level,
		Formatter:       formatter,
	})

	return &Logger{logger: logger}, nil
}

// NewTestLogger returns a debug-level logger writing to a buffer.
func NewTestLogger() (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{
		ReportTimestamp: false,
		Prefix:          "Test",
		Level:           log.DebugLevel,
	})
	return &Logger{logger: logger}, &buf
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{logger: log.NewWithOptions(io.Discard, log.Options{})}
}

// With returns a child logger that always carries keyvals.
func (l *Logger) With(keyvals ...interface{}) *Logger {
	return &Logger{logger: l.logger.With(keyvals...)}
}

// Component tags every entry with the component name.
func (l *Logger) Component(name string) *Logger {
	return l.With("component", name)
}

func (l *Logger) Debug(msg string, keyvals ...interface{}) {
	l.logger.Debug(msg, keyvals...)
}

func (l *Logger) Info(msg string, keyvals ...interface{}) {
	l.logger.Info(msg, keyvals...)
}

func (l *Logger) Warn(msg string, keyvals ...interface{}) {
	l.logger.Warn(msg, keyvals...)
}

func (l *Logger) Error(msg string, keyvals ...interface{}) {
	l.logger.Error(msg, keyvals...)
}

// LogDuration records how long an operation took, at debug level.
func (l *Logger) LogDuration(operation string, start time.Time) {
	l.logger.Debug("Operation finished", "operation", operation, "duration", time.Since(start))
}
