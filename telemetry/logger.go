package telemetry

import (
	"log/slog"
	"os"
)

// SlogLogger implements the bridge.Logger interface using log/slog.
type SlogLogger struct {
	logger *slog.Logger
}

// NewLogger creates a new structured logger that writes JSON to stdout.
func NewLogger() *SlogLogger {
	return &SlogLogger{
		logger: slog.New(slog.NewJSONHandler(os.Stdout, nil)),
	}
}

// NewLoggerWith wraps an existing slog.Logger, so callers can attach their
// own handler or pre-bound attributes.
func NewLoggerWith(logger *slog.Logger) *SlogLogger {
	return &SlogLogger{logger: logger}
}

// Info logs an informational message.
func (l *SlogLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, keysAndValues...)
}

// Warn logs a warning message.
func (l *SlogLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, keysAndValues...)
}

// Error logs an error message.
func (l *SlogLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	args := append(keysAndValues, "error", err)
	l.logger.Error(msg, args...)
}
