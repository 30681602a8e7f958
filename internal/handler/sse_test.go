package handler

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/advista/advista-server-go/internal/sse"
)

func TestSetSSEHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	setSSEHeaders(rec)

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "keep-alive", rec.Header().Get("Connection"))
	assert.Equal(t, "no", rec.Header().Get("X-Accel-Buffering"))
}

func TestSendEvent(t *testing.T) {
	t.Run("frames event and data lines", func(t *testing.T) {
		rec := httptest.NewRecorder()

		err := sendEvent(rec, rec, sse.EventStatus, map[string]string{"status": "researching"})
		require.NoError(t, err)

		assert.Equal(t, "event: status\ndata: {\"status\":\"researching\"}\n\n", rec.Body.String())
		assert.True(t, rec.Flushed)
	})

	t.Run("raw events pass payload bytes through untouched", func(t *testing.T) {
		rec := httptest.NewRecorder()

		err := sendRawEvent(rec, rec, sse.Event{
			Type: sse.EventToken,
			Data: json.RawMessage(`{"token":"hi"}`),
		})
		require.NoError(t, err)

		assert.Equal(t, "event: token\ndata: {\"token\":\"hi\"}\n\n", rec.Body.String())
	})

	t.Run("consecutive events stay separated by a blank line", func(t *testing.T) {
		rec := httptest.NewRecorder()

		require.NoError(t, sendEvent(rec, rec, sse.EventToken, map[string]string{"token": "a"}))
		require.NoError(t, sendEvent(rec, rec, sse.EventCompleted, map[string]int{"totalSources": 3}))

		assert.Equal(t,
			"event: token\ndata: {\"token\":\"a\"}\n\n"+
				"event: completed\ndata: {\"totalSources\":3}\n\n",
			rec.Body.String())
	})
}

func TestSendHeartbeat(t *testing.T) {
	rec := httptest.NewRecorder()

	require.NoError(t, sendHeartbeat(rec, rec))

	// Comment lines must not look like events to EventSource clients.
	assert.Equal(t, ": ping\n\n", rec.Body.String())
	assert.True(t, rec.Flushed)
}
