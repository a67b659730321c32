// Package logger builds the slog loggers used by the friendlyid command and
// workers.
//
// New creates a JSON or text logger with a level, optional context
// extractors and optional Sentry reporting:
//
//	log, err := logger.New(
//		logger.WithLevel(slog.LevelDebug),
//		logger.WithExtractors(logger.ValueExtractor[string](runIDKey{}, "run_id")),
//		logger.WithSentry(logger.SentryConfig{DSN: dsn, MinLevel: slog.LevelWarn}),
//	)
//
// Extractors run on every log call, so attributes stored on the context by
// the caller end up on each record logged with that context. The
// LogHandlerDecorator that applies them can wrap any slog.Handler.
//
// With a DSN set, records go to both the local output and Sentry: errors
// create issues, warnings are stored as logs. If Sentry fails to initialize
// the logger keeps writing locally. Call Flush before exiting.
//
// NewNope returns a logger that discards everything and is the default for
// packages that accept an optional logger.
package logger
