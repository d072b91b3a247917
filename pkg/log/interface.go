// Package log provides a structured logging facade for risk-engine
// operations. The interface is slog-shaped (message plus alternating
// key/value fields) so the backing implementation can be swapped; the
// default provider is zerolog.
package log

// Logger is the minimal structured logging interface used across the
// engine. Fields are alternating key/value pairs.
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Warn(msg string, fields ...any)
	Error(msg string, fields ...any)

	// With returns a child logger with the given fields pre-populated.
	With(fields ...any) Logger
}
