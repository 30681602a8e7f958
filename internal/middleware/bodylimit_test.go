package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBodyLimitMiddleware(t *testing.T) {
	t.Run("allows small bodies", func(t *testing.T) {
		m := NewBodyLimitMiddleware(1024)
		handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(r.Body)
			assert.NoError(t, err)
			assert.Equal(t, "hello", string(body))
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest("POST", "/test", strings.NewReader("hello"))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("rejects declared oversized bodies", func(t *testing.T) {
		m := NewBodyLimitMiddleware(10)
		handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler should not be called")
		}))

		req := httptest.NewRequest("POST", "/test", strings.NewReader(strings.Repeat("x", 100)))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})

	t.Run("caps reads when content length is unknown", func(t *testing.T) {
		m := NewBodyLimitMiddleware(10)
		handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, err := io.ReadAll(r.Body)
			assert.Error(t, err)
			w.WriteHeader(http.StatusBadRequest)
		}))

		req := httptest.NewRequest("POST", "/test", strings.NewReader(strings.Repeat("x", 100)))
		req.ContentLength = -1
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("zero max falls back to default", func(t *testing.T) {
		m := NewBodyLimitMiddleware(0)
		assert.Equal(t, int64(DefaultMaxBodySize), m.maxSize)
	})
}
