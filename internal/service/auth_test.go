package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessToken(t *testing.T) {
	svc := NewAuthService(nil, nil, "test-secret-0123456789abcdef0123456789", time.Hour)

	t.Run("round trip", func(t *testing.T) {
		token, err := svc.CreateAccessToken("user@example.com")
		require.NoError(t, err)
		require.NotEmpty(t, token)

		email, err := svc.VerifyToken(token)
		require.NoError(t, err)
		assert.Equal(t, "user@example.com", email)
	})

	t.Run("rejects token signed with a different secret", func(t *testing.T) {
		other := NewAuthService(nil, nil, "another-secret-entirely-different-one", time.Hour)
		token, err := other.CreateAccessToken("user@example.com")
		require.NoError(t, err)

		_, err = svc.VerifyToken(token)
		assert.Error(t, err)
	})

	t.Run("rejects expired token", func(t *testing.T) {
		shortLived := NewAuthService(nil, nil, "test-secret-0123456789abcdef0123456789", -time.Minute)
		token, err := shortLived.CreateAccessToken("user@example.com")
		require.NoError(t, err)

		_, err = svc.VerifyToken(token)
		assert.Error(t, err)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := svc.VerifyToken("not-a-jwt")
		assert.Error(t, err)
	})
}

func TestGenerateCode(t *testing.T) {
	for i := 0; i < 20; i++ {
		code, err := generateCode()
		require.NoError(t, err)
		require.Len(t, code, 6)
		for _, c := range code {
			assert.True(t, c >= '0' && c <= '9')
		}
	}
}
