package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractVideoID(t *testing.T) {
	t.Run("extracts from watch URL", func(t *testing.T) {
		id := ExtractVideoID("https://www.youtube.com/watch?v=dQw4w9WgXcQ")
		assert.Equal(t, "dQw4w9WgXcQ", id)
	})

	t.Run("extracts from watch URL with extra params", func(t *testing.T) {
		id := ExtractVideoID("https://www.youtube.com/watch?list=PL123&v=dQw4w9WgXcQ&t=10s")
		assert.Equal(t, "dQw4w9WgXcQ", id)
	})

	t.Run("extracts from shorts URL", func(t *testing.T) {
		id := ExtractVideoID("https://www.youtube.com/shorts/abc123DEF-_")
		assert.Equal(t, "abc123DEF-_", id)
	})

	t.Run("empty link yields empty id", func(t *testing.T) {
		assert.Equal(t, "", ExtractVideoID(""))
	})

	t.Run("non-video URL yields empty id", func(t *testing.T) {
		assert.Equal(t, "", ExtractVideoID("https://www.youtube.com/channel/UCx"))
	})

	t.Run("ids shorter than eleven characters are rejected", func(t *testing.T) {
		assert.Equal(t, "", ExtractVideoID("https://www.youtube.com/watch?v=short"))
	})
}

func TestEngineForCategory(t *testing.T) {
	t.Run("audience and competitor use forums", func(t *testing.T) {
		assert.Equal(t, EngineGoogleForums, EngineForCategory("audience"))
		assert.Equal(t, EngineGoogleForums, EngineForCategory("competitor"))
	})

	t.Run("remaining categories use general search", func(t *testing.T) {
		assert.Equal(t, EngineGoogle, EngineForCategory("product"))
		assert.Equal(t, EngineGoogle, EngineForCategory("campaign"))
		assert.Equal(t, EngineGoogle, EngineForCategory("platform"))
	})
}

func TestChannelName(t *testing.T) {
	t.Run("object with name", func(t *testing.T) {
		assert.Equal(t, "Acme Ads", channelName([]byte(`{"name":"Acme Ads"}`)))
	})

	t.Run("bare string", func(t *testing.T) {
		assert.Equal(t, "Acme Ads", channelName([]byte(`"Acme Ads"`)))
	})

	t.Run("empty payload", func(t *testing.T) {
		assert.Equal(t, "", channelName(nil))
	})
}
