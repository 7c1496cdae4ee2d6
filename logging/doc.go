// Package logging provides the minimal logging interface used throughout
// hassmesh together with slog based adapters.
//
// The Logger interface defines the leveled methods (Debug, Info, Warn, Error)
// that the orchestrator, tools and runner use for observability. This package
// includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NewLogger building a JSON or text handler from a LoggerConfig
//   - NoOpLogger for silent operation (tests, minimal setups)
//
// Usage:
//
//	logger := logging.NewLogger(logging.LoggerConfig{Level: logging.LogLevelDebug, Format: "text"})
//	orch := hass.New(client, func(o *hass.Options) { o.Logger = logger })
package logging
