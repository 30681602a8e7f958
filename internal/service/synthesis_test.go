package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/advista/advista-server-go/internal/model"
)

func TestFirstN(t *testing.T) {
	items := []string{"a", "b", "c"}

	assert.Equal(t, []string{"a", "b"}, firstN(items, 2))
	assert.Equal(t, items, firstN(items, 5))
	assert.Empty(t, firstN(nil, 3))
}

func TestFormatBrief(t *testing.T) {
	t.Run("nil brief yields empty context", func(t *testing.T) {
		assert.Equal(t, "", formatBrief(nil))
	})

	t.Run("includes only filled fields", func(t *testing.T) {
		out := formatBrief(&model.ResearchBrief{
			ProductName:   "EcoBottle",
			CampaignGoals: "brand awareness",
		})
		assert.Contains(t, out, "Product: EcoBottle")
		assert.Contains(t, out, "brand awareness")
		assert.NotContains(t, out, "Target Audience:")
	})
}

func TestBuildSectionContext(t *testing.T) {
	insights := &model.CategoryInsights{
		Category: model.CategoryProduct,
		Query:    "eco bottles",
		AIOverview: model.AIOverview{
			Snippets:  []string{"Overview snippet"},
			KeyPoints: []string{"Point one"},
		},
		KeySnippets: []string{"A key finding about the market"},
		RelatedQuestions: []model.RelatedQuestion{
			{Question: "Is it durable?", Answer: "Yes, very"},
		},
		TopResults: []model.OrganicResult{
			{Title: "Review site", Snippet: "In-depth look"},
		},
	}

	context := buildSectionContext(insights)

	assert.Contains(t, context, "## AI Overview")
	assert.Contains(t, context, "• Point one")
	assert.Contains(t, context, "## Key Findings")
	assert.Contains(t, context, "Q: Is it durable?")
	assert.Contains(t, context, "- Review site: In-depth look")
}
