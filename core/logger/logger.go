// Package logger defines the logging interface used across the core packages.
package logger

// Logger exposes logging methods for common severity levels. Debugw attaches
// structured fields.
type Logger interface {
	Debugf(format string, args ...any)
	Debugw(msg string, fields map[string]any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}
