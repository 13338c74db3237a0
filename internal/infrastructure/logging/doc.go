// Package logging provides structured logging using uber/zap.
//
// Two modes:
//   - Production: JSON output for machine parsing
//   - Development: colored console output
//
// Every component gets a named child logger so viewer lifecycle,
// session persistence and HTTP logs can be filtered independently.
//
// Example Usage:
//
//	logger := logging.NewFromSettings(cfg.Logging.Level, cfg.Logging.Development)
//	log := logger.Component("viewer")
//	log.Info("Viewer ready", zap.String("handle", handleID))
package logging
