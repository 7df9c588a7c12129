// Package telemetry provides observability for the Ganymede engine itself.
//
// # Overview
//
// The telemetry package implements structured logging and Prometheus
// metrics for the engine's own operation. The engine records pipeline
// telemetry for its callers; this package is how the engine reports on
// its own health while doing so.
//
// # Components
//
//   - logging: Structured logging built on log/slog
//   - metrics: Prometheus metrics collection on a private registry
//
// # Usage
//
//	// Create a logger
//	logger, err := logging.NewFromConfig(cfg.Telemetry.Logging)
//
//	// Create a metrics collector
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//
//	// Record engine activity
//	logger.Component("store").Info("journal opened", "path", path)
//	collector.RecordUnit("three_hop", "success", 1.2, 1500, 0.05)
//
// The engine never writes to the global slog default and never
// registers on the global Prometheus registry, so embedding
// applications keep full control of both surfaces.
package telemetry
