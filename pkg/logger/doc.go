// Package logger provides structured logging for the scraping core.
//
// It wraps the zerolog library behind a small Logger interface with:
//   - Leveled logging (Debug, Info, Warn, Error, Fatal)
//   - Structured fields via WithField/WithFields/WithError
//   - Pretty console output, plus optional file output
//   - A global instance behind Initialize/GetLogger
//   - Nop() for tests that want a silent logger
//
// Basic usage:
//
//	log, err := logger.New(logger.Config{Level: "info", File: ""})
//	log.WithField("user_id", "user-42").Info("credential linked")
//	log.WithError(err).Error("scrape failed")
package logger
