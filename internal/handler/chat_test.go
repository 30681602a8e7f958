package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChatMessageValidation(t *testing.T) {
	h := NewChatHandler(nil)

	t.Run("rejects malformed json", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/chat/message", strings.NewReader("{not json"))
		rec := httptest.NewRecorder()

		h.Message(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "INVALID_INPUT")
	})

	t.Run("requires thread_id", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/chat/message", strings.NewReader(`{"message": "hi"}`))
		rec := httptest.NewRecorder()

		h.Message(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "MISSING_REQUIRED")
	})
}

func TestChatStreamValidation(t *testing.T) {
	h := NewChatHandler(nil)

	t.Run("requires thread_id before opening the stream", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/chat/stream", strings.NewReader(`{"message": "hi"}`))
		rec := httptest.NewRecorder()

		h.Stream(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.NotEqual(t, "text/event-stream", rec.Header().Get("Content-Type"))
	})
}
