package log

import (
	"context"
	"log/slog"

	"github.com/rs/zerolog"
)

// SlogLogger adapts a *slog.Logger to the Logger interface.
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger wraps an existing slog logger. Passing nil uses slog.Default().
func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogLogger{logger: logger}
}

// Debug implements Logger.Debug.
func (s *SlogLogger) Debug(msg string, fields ...any) {
	s.logger.Debug(msg, fields...)
}

// Info implements Logger.Info.
func (s *SlogLogger) Info(msg string, fields ...any) {
	s.logger.Info(msg, fields...)
}

// Warn implements Logger.Warn.
func (s *SlogLogger) Warn(msg string, fields ...any) {
	s.logger.Warn(msg, fields...)
}

// Error implements Logger.Error.
func (s *SlogLogger) Error(msg string, fields ...any) {
	s.logger.Error(msg, fields...)
}

// With implements Logger.With.
func (s *SlogLogger) With(fields ...any) Logger {
	return &SlogLogger{logger: s.logger.With(fields...)}
}

// Enabled implements Logger.Enabled.
func (s *SlogLogger) Enabled(ctx context.Context, level Level) bool {
	return s.logger.Enabled(ctx, slog.Level(level))
}

// NopLogger discards all records. It is the default logger of the estimators,
// keeping the estimation core free of I/O unless a logger is injected.
type NopLogger struct{}

// NewNopLogger returns a logger that drops everything.
func NewNopLogger() *NopLogger { return &NopLogger{} }

// Debug implements Logger.Debug.
func (NopLogger) Debug(string, ...any) {}

// Info implements Logger.Info.
func (NopLogger) Info(string, ...any) {}

// Warn implements Logger.Warn.
func (NopLogger) Warn(string, ...any) {}

// Error implements Logger.Error.
func (NopLogger) Error(string, ...any) {}

// With implements Logger.With.
func (n NopLogger) With(...any) Logger { return n }

// Enabled implements Logger.Enabled.
func (NopLogger) Enabled(context.Context, Level) bool { return false }

// NewZerologWarnFunc builds a warning sink over a zerolog logger, suitable for
// errors.SetZerologWarnFunc. Warning types implementing zerolog.LogObjectMarshaler
// are emitted as structured objects, others as plain messages.
func NewZerologWarnFunc(logger zerolog.Logger) func(warning error) {
	return func(warning error) {
		event := logger.Warn()
		if marshaler, ok := warning.(zerolog.LogObjectMarshaler); ok {
			event.Object("warning", marshaler).Msg(warning.Error())
			return
		}
		event.Msg(warning.Error())
	}
}
