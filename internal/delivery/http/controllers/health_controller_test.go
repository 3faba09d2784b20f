package controllers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"eventcheckin/internal/delivery/http/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct{ err error }

func (f fakePinger) PingContext(context.Context) error { return f.err }

func TestHealthController_Health(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("database reachable", func(t *testing.T) {
		w := httptest.NewRecorder()
		NewHealthController(logger, fakePinger{}).Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		require.Equal(t, http.StatusOK, w.Code)
		data, apiErr := decodeEnvelope(t, w)
		require.Nil(t, apiErr)
		assert.JSONEq(t, `{"status":"ok","database":"ok"}`, string(data))
	})

	t.Run("database down", func(t *testing.T) {
		w := httptest.NewRecorder()
		NewHealthController(logger, fakePinger{err: errors.New("connection refused")}).Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		require.Equal(t, http.StatusServiceUnavailable, w.Code)
		_, apiErr := decodeEnvelope(t, w)
		require.NotNil(t, apiErr)
		assert.Equal(t, helpers.ErrCodeUnavailable, apiErr.Code)
	})
}
