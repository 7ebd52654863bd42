package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemHandler_Health(t *testing.T) {
	ok := func(context.Context) error { return nil }

	t.Run("all checks pass", func(t *testing.T) {
		h := NewSystemHandler("1.2.3", map[string]HealthCheck{"database": ok, "cache": ok})
		engine := newTestEngine()
		engine.GET("/health", h.Health)

		rec := doRequest(engine, http.MethodGet, "/health", uuid.Nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeResponse(t, rec)
		assert.True(t, resp.Success)
		data := resp.Data.(map[string]any)
		assert.Equal(t, "ok", data["status"])
		assert.Equal(t, "1.2.3", data["version"])
		assert.Equal(t, map[string]any{"database": "ok", "cache": "ok"}, data["checks"])
	})

	t.Run("failed check degrades", func(t *testing.T) {
		h := NewSystemHandler("1.2.3", map[string]HealthCheck{
			"database": ok,
			"cache":    func(context.Context) error { return errors.New("connection refused") },
		})
		engine := newTestEngine()
		engine.GET("/health", h.Health)

		rec := doRequest(engine, http.MethodGet, "/health", uuid.Nil, nil)
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		resp := decodeResponse(t, rec)
		assert.False(t, resp.Success)
		data := resp.Data.(map[string]any)
		assert.Equal(t, "degraded", data["status"])
		checks := data["checks"].(map[string]any)
		assert.Equal(t, "ok", checks["database"])
		assert.Equal(t, "error: connection refused", checks["cache"])
	})

	t.Run("no checks", func(t *testing.T) {
		engine := newTestEngine()
		engine.GET("/health", NewSystemHandler("dev", nil).Health)
		assert.Equal(t, http.StatusOK, doRequest(engine, http.MethodGet, "/health", uuid.Nil, nil).Code)
	})
}
