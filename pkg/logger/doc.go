// Package logger provides structured logging for the download pipeline.
//
// It wraps zerolog behind a small Logger interface so components can log
// with fields without depending on a concrete logging library, and so tests
// can substitute a capturing implementation.
//
// Basic usage:
//
//	cfg := &config.LoggingConfig{Level: "info"}
//	if err := logger.Initialize(cfg); err != nil {
//		// handle error
//	}
//
//	log := logger.GetLogger()
//	log.InfoWithFields("file written", map[string]interface{}{
//		"category": "graduation",
//		"file":     "cohort-2024.xlsx",
//	})
package logger
