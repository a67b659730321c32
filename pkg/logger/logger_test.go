package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/friendlyid/pkg/logger"
)

type runIDKey struct{}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("json with extractor", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log, err := logger.New(
			logger.WithOutput(&buf),
			logger.WithExtractors(logger.ValueExtractor[string](runIDKey{}, "run_id"), nil),
		)
		require.NoError(t, err)

		ctx := context.WithValue(context.Background(), runIDKey{}, "abc")
		log.InfoContext(ctx, "backfill finished", slog.Int("assigned", 3))
		log.DebugContext(ctx, "hidden")

		var rec map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
		assert.Equal(t, "backfill finished", rec["msg"])
		assert.Equal(t, "abc", rec["run_id"])
		assert.InDelta(t, 3, rec["assigned"], 0)
	})

	t.Run("text with level", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log, err := logger.New(
			logger.WithOutput(&buf),
			logger.WithFormat("TEXT"),
			logger.WithLevel(slog.LevelDebug),
		)
		require.NoError(t, err)

		log.Debug("saved", slog.String("slug", "hello"))
		assert.Contains(t, buf.String(), "level=DEBUG")
		assert.Contains(t, buf.String(), "slug=hello")
	})

	t.Run("missing context value is skipped", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log, err := logger.New(
			logger.WithOutput(&buf),
			logger.WithExtractors(logger.ValueExtractor[string](runIDKey{}, "run_id")),
		)
		require.NoError(t, err)

		log.InfoContext(context.Background(), "no run")
		assert.NotContains(t, buf.String(), "run_id")
	})

	t.Run("invalid format", func(t *testing.T) {
		t.Parallel()

		_, err := logger.New(logger.WithFormat("xml"))
		require.ErrorIs(t, err, logger.ErrInvalidFormat)
	})

	t.Run("empty sentry dsn", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log, err := logger.New(logger.WithOutput(&buf), logger.WithSentry(logger.SentryConfig{}))
		require.NoError(t, err)

		log.Error("boom")
		assert.Contains(t, buf.String(), "boom")
	})
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "", want: slog.LevelInfo},
		{in: "debug", want: slog.LevelDebug},
		{in: "INFO", want: slog.LevelInfo},
		{in: " warn ", want: slog.LevelWarn},
		{in: "warning", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "trace", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := logger.ParseLevel(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, logger.ErrInvalidLevel)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewNope(t *testing.T) {
	t.Parallel()

	log := logger.NewNope()
	assert.False(t, log.Enabled(context.Background(), slog.LevelError))
}
