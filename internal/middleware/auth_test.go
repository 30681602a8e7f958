package middleware

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/advista/advista-server-go/internal/model"
)

func TestExtractToken(t *testing.T) {
	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("Authorization", "Bearer abc123")
		assert.Equal(t, "abc123", extractToken(req))
	})

	t.Run("query parameter wins for sse clients", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test?token=from-query", nil)
		req.Header.Set("Authorization", "Bearer from-header")
		assert.Equal(t, "from-query", extractToken(req))
	})

	t.Run("missing token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		assert.Equal(t, "", extractToken(req))
	})

	t.Run("non-bearer scheme ignored", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		assert.Equal(t, "", extractToken(req))
	})
}

func TestGetUser(t *testing.T) {
	t.Run("returns user from context", func(t *testing.T) {
		user := &model.User{ID: "u-1", Email: "user@example.com"}
		ctx := context.WithValue(context.Background(), UserContextKey, user)
		assert.Same(t, user, GetUser(ctx))
	})

	t.Run("nil without user", func(t *testing.T) {
		assert.Nil(t, GetUser(context.Background()))
	})
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/test", nil)
	req.RemoteAddr = "10.0.0.7:51234"
	assert.Equal(t, "10.0.0.7", clientIP(req))

	req.RemoteAddr = "10.0.0.8"
	assert.Equal(t, "10.0.0.8", clientIP(req))
}
