// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Domain packages take a plain *zap.Logger; use Component to hand each one a
// named child so log lines carry their origin:
//
//	logger := logging.FromLevel(cfg.Logging.Level, cfg.Logging.Development)
//	dispatcher := navigation.NewDispatcher(callbacks,
//		navigation.WithLogger(logger.Component("navigation")))
package logging
