package logger

import "log/slog"

// Interface is the logging surface injected into use cases and
// infrastructure components. It keeps call sites independent of slog so
// tests can substitute a silent logger.
type Interface interface {
	Debugw(msg string, keysAndValues ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Errorw(msg string, keysAndValues ...interface{})

	With(args ...any) Interface
	Named(name string) Interface
}

type slogLogger struct {
	l *slog.Logger
}

// NewLogger returns an Interface backed by the process logger.
func NewLogger() Interface {
	return &slogLogger{l: Get()}
}

// NewLoggerWith wraps an explicit slog.Logger, mainly for tests.
func NewLoggerWith(l *slog.Logger) Interface {
	return &slogLogger{l: l}
}

func (s *slogLogger) Debugw(msg string, keysAndValues ...interface{}) {
	s.l.Debug(msg, keysAndValues...)
}

func (s *slogLogger) Infow(msg string, keysAndValues ...interface{}) {
	s.l.Info(msg, keysAndValues...)
}

func (s *slogLogger) Warnw(msg string, keysAndValues ...interface{}) {
	s.l.Warn(msg, keysAndValues...)
}

func (s *slogLogger) Errorw(msg string, keysAndValues ...interface{}) {
	s.l.Error(msg, keysAndValues...)
}

func (s *slogLogger) With(args ...any) Interface {
	return &slogLogger{l: s.l.With(args...)}
}

func (s *slogLogger) Named(name string) Interface {
	return &slogLogger{l: s.l.With("logger", name)}
}
