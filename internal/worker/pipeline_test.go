package worker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/advista/advista-server-go/internal/model"
)

func TestCategoryTaskIDs(t *testing.T) {
	params := &model.SearchParams{
		ProductSearchQuery:    "product q",
		CompetitorSearchQuery: "competitor q",
		AudienceInsightQuery:  "audience q",
	}
	queries := params.Categories()

	ids := categoryTaskIDs(queries)

	require.Len(t, ids, len(queries))
	seen := make(map[string]bool, len(ids))
	for _, cq := range queries {
		id, ok := ids[cq.Category]
		require.True(t, ok, "missing id for %s", cq.Category)

		_, err := uuid.Parse(id)
		assert.NoError(t, err)
		assert.False(t, seen[id], "duplicate task id")
		seen[id] = true
	}
}

func TestClipSnippet(t *testing.T) {
	t.Run("short strings pass through", func(t *testing.T) {
		assert.Equal(t, "short", clipSnippet("short", 200))
	})

	t.Run("long strings are cut at the limit", func(t *testing.T) {
		assert.Len(t, clipSnippet(strings.Repeat("a", 300), 200), 200)
	})

	t.Run("multibyte runes are never split", func(t *testing.T) {
		s := "Ünïcödé snippets öftén çärry äccénts"
		for max := 1; max <= len(s); max++ {
			clipped := clipSnippet(s, max)
			assert.True(t, utf8.ValidString(clipped), "max=%d", max)
			assert.LessOrEqual(t, len(clipped), max)
		}
	})
}

func TestBuildResourcesUsedClipsSnippets(t *testing.T) {
	long := strings.Repeat("é", 150)

	processed := &model.ProcessedResults{
		ProductInsights: &model.CategoryInsights{
			Category: model.CategoryProduct,
			Query:    "product q",
			TopResults: []model.OrganicResult{
				{Title: "t", Link: "l", Source: "s", Snippet: long},
			},
		},
	}

	resources := buildResourcesUsed(processed)

	categories, ok := resources["categories"].([]categoryResources)
	require.True(t, ok)
	require.Len(t, categories, 1)
	require.Len(t, categories[0].Resources, 1)

	snippet := categories[0].Resources[0].Snippet
	assert.LessOrEqual(t, len(snippet), 200)
	assert.True(t, utf8.ValidString(snippet))
	assert.Equal(t, "google", categories[0].Source)
}
