package agent

import (
	"log/slog"
)

// Logger is the interface for logging.
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Warn(msg string, fields ...any)
	Error(msg string, fields ...any)
	Bind(fields ...any) Logger
}

// NopLogger discards all log output. It is the default when no logger is
// injected.
type NopLogger struct{}

func (NopLogger) Debug(msg string, fields ...any) {}
func (NopLogger) Info(msg string, fields ...any)  {}
func (NopLogger) Warn(msg string, fields ...any)  {}
func (NopLogger) Error(msg string, fields ...any) {}

// Bind returns the logger unchanged.
func (n NopLogger) Bind(fields ...any) Logger { return n }

// SlogLogger adapts a *slog.Logger to the Logger interface.
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger wraps the given slog logger. A nil logger falls back to
// slog.Default().
func NewSlogLogger(l *slog.Logger) *SlogLogger {
	if l == nil {
		l = slog.Default()
	}
	return &SlogLogger{logger: l}
}

func (s *SlogLogger) Debug(msg string, fields ...any) { s.logger.Debug(msg, fields...) }
func (s *SlogLogger) Info(msg string, fields ...any)  { s.logger.Info(msg, fields...) }
func (s *SlogLogger) Warn(msg string, fields ...any)  { s.logger.Warn(msg, fields...) }
func (s *SlogLogger) Error(msg string, fields ...any) { s.logger.Error(msg, fields...) }

// Bind returns a logger with the given fields attached to every entry.
func (s *SlogLogger) Bind(fields ...any) Logger {
	return &SlogLogger{logger: s.logger.With(fields...)}
}
