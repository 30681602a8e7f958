package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchParamsCategories(t *testing.T) {
	t.Run("keeps fixed order and skips empty queries", func(t *testing.T) {
		params := &SearchParams{
			ProductSearchQuery:    "product q",
			AudienceInsightQuery:  "audience q",
			PlatformSpecificQuery: "platform q",
		}

		categories := params.Categories()
		require.Len(t, categories, 3)
		assert.Equal(t, CategoryProduct, categories[0].Category)
		assert.Equal(t, CategoryAudience, categories[1].Category)
		assert.Equal(t, CategoryPlatform, categories[2].Category)
	})

	t.Run("empty params yield no categories", func(t *testing.T) {
		assert.Empty(t, (&SearchParams{}).Categories())
	})
}

func TestSearchResultsCollection(t *testing.T) {
	collection := &SearchResultsCollection{}
	assert.True(t, collection.IsEmpty())

	collection.Add(SearchQueryResult{Category: CategoryCompetitor, Query: "q1"})
	collection.Add(SearchQueryResult{Category: CategoryCompetitor, Query: "q2"})
	collection.Add(SearchQueryResult{Category: "unknown", Query: "dropped"})

	assert.False(t, collection.IsEmpty())
	assert.Len(t, collection.ByCategory(CategoryCompetitor), 2)
	assert.Empty(t, collection.ByCategory(CategoryProduct))
	assert.Nil(t, collection.ByCategory("unknown"))
}

func TestSearchQueryResultHasError(t *testing.T) {
	assert.False(t, (&SearchQueryResult{}).HasError())
	assert.True(t, (&SearchQueryResult{Error: "timeout"}).HasError())
}
