package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/friendlyid/pkg/health"
)

var errDown = errors.New("down")

func ok(context.Context) error   { return nil }
func fail(context.Context) error { return errDown }

func TestRun(t *testing.T) {
	t.Parallel()

	t.Run("no checks", func(t *testing.T) {
		t.Parallel()

		resp, err := health.Run(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, health.StatusHealthy, resp.Status)
	})

	t.Run("all pass", func(t *testing.T) {
		t.Parallel()

		resp, err := health.Run(context.Background(), health.Checks{"db": ok, "redis": ok})
		require.NoError(t, err)
		assert.Equal(t, health.StatusHealthy, resp.Status)
		assert.Equal(t, []string{"db", "redis"}, resp.Names())
	})

	t.Run("one fails", func(t *testing.T) {
		t.Parallel()

		resp, err := health.Run(context.Background(), health.Checks{"db": ok, "redis": fail})
		require.ErrorIs(t, err, health.ErrCheckFailed)
		require.ErrorIs(t, err, errDown)
		assert.Equal(t, health.StatusUnhealthy, resp.Status)
		assert.Equal(t, health.StatusHealthy, resp.Checks["db"].Status)
		assert.Equal(t, "down", resp.Checks["redis"].Error)
	})

	t.Run("timeout", func(t *testing.T) {
		t.Parallel()

		slow := func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}
		_, err := health.Run(context.Background(), health.Checks{"slow": slow},
			health.WithTimeout(10*time.Millisecond))
		require.ErrorIs(t, err, health.ErrCheckTimeout)
	})
}

func TestNewMux(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		path       string
		checks     health.Checks
		wantStatus int
		wantBody   string
	}{
		{"liveness", health.LivenessPath, health.Checks{"db": fail}, http.StatusOK, "OK"},
		{"ready", health.ReadinessPath, health.Checks{"db": ok}, http.StatusOK, "OK"},
		{"not ready", health.ReadinessPath, health.Checks{"db": fail}, http.StatusServiceUnavailable, "Service Unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			health.NewMux(tt.checks).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantBody, rec.Body.String())
		})
	}

	t.Run("json", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, health.ReadinessPath+"?format=json", nil)
		health.NewMux(health.Checks{"db": fail}).ServeHTTP(rec, req)

		var resp health.Response
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, health.StatusUnhealthy, resp.Status)
		assert.Equal(t, "down", resp.Checks["db"].Error)
	})
}
