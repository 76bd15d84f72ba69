// Package log provides a structured logging interface for atomscale.
//
// This package defines a minimal, slog-compatible logging interface so that the
// statistics resolver and the rescale configurators can log structured records
// without committing to a backend. Two backends ship with the package: one on
// top of rs/zerolog and one on top of log/slog.
//
// Example usage:
//
//	logger := log.GetLogger().With(
//	    log.VariantKey, "global",
//	)
//	logger.Debug("resolved statistics",
//	    log.RequestKey, "dataset_force_rms",
//	    log.StrideKey, 1,
//	)
package log

import (
	"context"
)

// Logger defines a structured logging interface compatible with Go's log/slog.
//
// Fields are passed as alternating key/value pairs. With returns a child logger
// that includes the given fields in every subsequent record.
type Logger interface {
	// Debug logs a debug-level message with optional structured fields.
	Debug(msg string, fields ...any)

	// Info logs an info-level message with optional structured fields.
	Info(msg string, fields ...any)

	// Warn logs a warning-level message with optional structured fields.
	Warn(msg string, fields ...any)

	// Error logs an error-level message with optional structured fields.
	// If an error value is passed as a field value, backends that know about
	// cockroachdb/errors attach its stack trace.
	//
	// Example:
	//   logger.Error("rescale configuration failed",
	//       "error", err,
	//       log.VariantKey, "per_species",
	//   )
	Error(msg string, fields ...any)

	// With returns a new Logger with the given fields pre-populated.
	With(fields ...any) Logger

	// Enabled reports whether the logger emits log records at the given level.
	// Use it to skip building expensive fields, e.g. formatting vectors.
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level, compatible with slog.Level.
type Level int

// Standard logging levels, values are compatible with slog.Level.
const (
	LevelDebug Level = -4 // Detailed diagnostic information
	LevelInfo  Level = 0  // General operational information
	LevelWarn  Level = 4  // Warning conditions
	LevelError Level = 8  // Error conditions
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}
