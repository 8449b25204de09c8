// Package log provides structured logging for cfdkit.
//
// Package: log
// Title: cfdkit Structured Logging
// Description: Leveled, structured logging with JSON, text and console
//              formats. Entries go to stderr by default so that commands can
//              keep stdout for regenerated CCL text and exports. Errors from
//              foundation/core/error are logged with their code and severity.
// Author: msto63
// Version: v0.2.0
// Created: 2026-10-02
// Modified: 2026-10-09
//
// Usage:
//
//	logger := log.NewWithConfig(log.Config{Level: log.LevelDebug, Format: log.FormatText, Name: "ccl"})
//	logger.Info("parsed document", log.Fields{"groups": 42, "ambiguities": 0})
//
//	timer := logger.StartTimer("materialize")
//	// ... write the store
//	timer.Stop()
package log
