package logger

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// ErrInvalidLevel is returned by ParseLevel for unknown level names.
var ErrInvalidLevel = errors.New("logger: invalid level")

// ErrInvalidFormat is returned by New for unknown output formats.
var ErrInvalidFormat = errors.New("logger: invalid format")

type config struct {
	out        io.Writer
	level      slog.Level
	format     string
	sentry     *SentryConfig
	extractors []ContextExtractor
}

// Option configures a logger built by New.
type Option func(*config)

// WithOutput sets the writer log lines go to.
// Default: os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(c *config) {
		if w != nil {
			c.out = w
		}
	}
}

// WithLevel sets the minimum level written to the output.
// Default: slog.LevelInfo.
func WithLevel(l slog.Level) Option {
	return func(c *config) {
		c.level = l
	}
}

// WithFormat selects FormatJSON or FormatText.
// Default: FormatJSON.
func WithFormat(format string) Option {
	return func(c *config) {
		c.format = strings.ToLower(format)
	}
}

// WithExtractors adds context extractors applied to every record.
func WithExtractors(extractors ...ContextExtractor) Option {
	return func(c *config) {
		c.extractors = append(c.extractors, extractors...)
	}
}

// WithSentry also sends records to Sentry. An empty DSN leaves Sentry off.
func WithSentry(cfg SentryConfig) Option {
	return func(c *config) {
		if cfg.DSN != "" {
			c.sentry = &cfg
		}
	}
}

// New creates a logger from options.
//
// Example:
//
//	log, err := logger.New(
//		logger.WithLevel(slog.LevelDebug),
//		logger.WithFormat(logger.FormatText),
//		logger.WithExtractors(runIDExtractor),
//	)
func New(opts ...Option) (*slog.Logger, error) {
	cfg := &config{
		out:    os.Stdout,
		level:  slog.LevelInfo,
		format: FormatJSON,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	handlerOpts := &slog.HandlerOptions{Level: cfg.level}

	var handler slog.Handler
	switch cfg.format {
	case FormatJSON, "":
		handler = slog.NewJSONHandler(cfg.out, handlerOpts)
	case FormatText:
		handler = slog.NewTextHandler(cfg.out, handlerOpts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidFormat, cfg.format)
	}

	if cfg.sentry != nil {
		sentry, err := newSentryHandler(*cfg.sentry)
		if err != nil {
			// Keep logging locally when Sentry cannot start.
			slog.New(handler).Error("failed to initialize Sentry", slog.String("error", err.Error()))
		} else {
			handler = newMultiHandler(handler, sentry)
		}
	}

	return slog.New(NewLogHandlerDecorator(handler, cfg.extractors...)), nil
}

// ParseLevel parses debug, info, warn or error (case-insensitive).
// An empty string is info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLevel, s)
	}
}
