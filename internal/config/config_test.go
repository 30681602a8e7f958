package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLLMKeys(t *testing.T) {
	t.Run("splits and trims comma separated keys", func(t *testing.T) {
		cfg := &Config{GeminiAPIKeys: "key1, key2 ,key3"}
		assert.Equal(t, []string{"key1", "key2", "key3"}, cfg.LLMKeys())
	})

	t.Run("drops empty segments", func(t *testing.T) {
		cfg := &Config{GeminiAPIKeys: "key1,, ,key2"}
		assert.Equal(t, []string{"key1", "key2"}, cfg.LLMKeys())
	})

	t.Run("empty input yields no keys", func(t *testing.T) {
		cfg := &Config{GeminiAPIKeys: ""}
		assert.Empty(t, cfg.LLMKeys())
	})
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			GeminiAPIKeys: "key1",
			JWTSecret:     "a-strong-secret-that-is-long-enough-0123",
			RedisURL:      "rediss://localhost:6379",
		}
	}

	t.Run("requires at least one llm key", func(t *testing.T) {
		cfg := base()
		cfg.GeminiAPIKeys = ""
		assert.Error(t, cfg.Validate(false))
	})

	t.Run("rejects short jwt secret in production", func(t *testing.T) {
		cfg := base()
		cfg.JWTSecret = "short"
		assert.Error(t, cfg.Validate(true))
		assert.NoError(t, cfg.Validate(false))
	})

	t.Run("rejects known weak secrets in production", func(t *testing.T) {
		cfg := base()
		cfg.JWTSecret = "change-me"
		assert.Error(t, cfg.Validate(true))
	})

	t.Run("accepts strong production config", func(t *testing.T) {
		assert.NoError(t, base().Validate(true))
	})
}
