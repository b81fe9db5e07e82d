// package shared defines shared helpers
package shared

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// NewLogger creates a new [log.Logger] instance with the specified [io.Writer], with timestamps and caller reporting enabled.
//
// The writer defaults to [os.Stderr]
func NewLogger(w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := log.Options{ReportTimestamp: true, ReportCaller: true}
	return log.NewWithOptions(w, opts)
}

// NewConfiguredLogger builds a logger from [LoggingConfig].
//
// When a log file is configured, output is written to both w and the file; the returned
// closer releases the file and is never nil.
func NewConfiguredLogger(w io.Writer, cfg LoggingConfig) (*log.Logger, io.Closer, error) {
	if w == nil {
		w = os.Stderr
	}

	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		w = io.MultiWriter(w, f)
		closer = f
	}

	logger := NewLogger(w)

	if cfg.Level != "" {
		level, err := log.ParseLevel(cfg.Level)
		if err != nil {
			closer.Close()
			return nil, nil, fmt.Errorf("%w: log level %q", ErrInvalidConfig, cfg.Level)
		}
		SetLogLevel(logger, level)
	}

	switch strings.ToLower(cfg.Formatter) {
	case "", "text":
		logger.SetFormatter(log.TextFormatter)
	case "json":
		logger.SetFormatter(log.JSONFormatter)
	case "logfmt":
		logger.SetFormatter(log.LogfmtFormatter)
	default:
		closer.Close()
		return nil, nil, fmt.Errorf("%w: log formatter %q", ErrInvalidConfig, cfg.Formatter)
	}

	return logger, closer, nil
}

// WithLogger creates a child [log.Logger] with the specified key-value pairs added to all log entries.
func WithLogger(l *log.Logger, kv ...any) *log.Logger {
	return l.With(kv...)
}

// SetLogLevel sets the [log.Level] for the given [log.Logger].
func SetLogLevel(l *log.Logger, ll log.Level) {
	l.SetLevel(ll)
}

// SlogLogger exposes l as a [slog.Logger] for libraries that log through log/slog.
func SlogLogger(l *log.Logger) *slog.Logger {
	return slog.New(l)
}

// GenerateID generates a new v4 [uuid.UUID] as a string
func GenerateID() string {
	return uuid.New().String()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
