// Package logging provides structured logging for the telemetry engine.
//
// # Overview
//
// The logging package wraps Go's standard log/slog package to provide:
//   - Structured logging with JSON, text, and console formats
//   - Context-aware logging with unit and stage metadata
//   - Component-tagged child loggers
//   - Configurable log levels (debug, info, warn, error)
//
// # Usage
//
//	// Create a logger
//	logger, err := logging.New(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	// Log structured data
//	logger.Info("unit recorded",
//	    "unit_id", "a1b2c3",
//	    "stages", 3,
//	    "duration_ms", 1234.5,
//	)
//
//	// Tag a subsystem
//	storeLogger := logger.Component("store")
//	storeLogger.Warn("journal append failed", "error", err)
//
//	// Create context-aware logger
//	ctx := logging.WithUnitID(ctx, "a1b2c3")
//	ctxLogger := logger.WithContext(ctx)
//	ctxLogger.Info("finalizing")  // Includes unit_id automatically
//
// # Embedded Use
//
// Host applications that embed the engine and handle their own logging
// can pass logging.Nop() to silence engine output, or construct a
// Logger with a custom Writer to capture it.
package logging
