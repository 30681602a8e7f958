package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStartResearchValidation(t *testing.T) {
	h := NewResearchHandler(nil, nil, nil)

	t.Run("rejects malformed json", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/research/start", strings.NewReader("not json"))
		rec := httptest.NewRecorder()

		h.Start(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("requires thread_id", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/research/start", strings.NewReader(`{"user_id": "u-1"}`))
		rec := httptest.NewRecorder()

		h.Start(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "thread_id")
	})
}

func TestAuthHandlerValidation(t *testing.T) {
	h := NewAuthHandler(nil, nil)

	t.Run("check-email-unique requires email", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/auth/check-email-unique", nil)
		rec := httptest.NewRecorder()

		h.CheckEmailUnique(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("signup rejects malformed json", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/auth/signup", strings.NewReader("{"))
		rec := httptest.NewRecorder()

		h.SignUp(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
