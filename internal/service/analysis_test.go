package service

import (
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/advista/advista-server-go/internal/model"
)

const sampleSerpResponse = `{
	"search_information": {"total_results": 1250000},
	"organic_results": [
		{"position": 1, "title": "Best running shoes 2025", "link": "https://www.runnersworld.com/gear", "snippet": "The most cushioned daily trainers we tested this year across all brands.", "source": "Runner's World", "date": "Jan 5, 2025"},
		{"position": 2, "title": "Shoe buying guide", "link": "https://example.com/guide", "snippet": "How to pick a shoe that fits your gait and training volume properly.", "displayed_meta": "3 days ago"},
		{"position": 3, "title": "", "link": "https://skipped.example.com", "snippet": "missing title, should be dropped"}
	],
	"related_questions": [
		{"question": "Are cushioned shoes better?", "snippet": "Cushioning reduces impact load for most runners during long sessions.", "title": "Sports Science Weekly", "link": "https://science.example.com"},
		{"type": "ai_overview", "text_blocks": [
			{"type": "paragraph", "snippet": "Running shoe choice depends primarily on foot shape and weekly mileage."},
			{"type": "list", "list": [{"snippet": "Rotate two pairs to extend shoe life"}, "Replace after 500 miles"]}
		]}
	]
}`

func TestAnalysisProcess(t *testing.T) {
	svc := NewAnalysisService()

	collection := &model.SearchResultsCollection{}
	collection.Add(model.SearchQueryResult{
		Category: model.CategoryProduct,
		Query:    "best running shoes",
		Response: json.RawMessage(sampleSerpResponse),
	})
	collection.Add(model.SearchQueryResult{
		Category: model.CategoryAudience,
		Query:    "runner demographics",
		Error:    "timeout",
	})

	processed := svc.Process(collection, nil)

	t.Run("processes parseable categories and skips failed ones", func(t *testing.T) {
		require.NotNil(t, processed.ProductInsights)
		assert.Nil(t, processed.AudienceInsights)
		assert.Equal(t, 1, processed.ProcessingSummary["categories_processed"])
	})

	t.Run("extracts organic results with meta date fallback", func(t *testing.T) {
		results := processed.ProductInsights.TopResults
		require.Len(t, results, 2)
		assert.Equal(t, "Jan 5, 2025", results[0].Date)
		assert.Equal(t, "3 days ago", results[1].Date)
	})

	t.Run("falls back to link host when source is missing", func(t *testing.T) {
		sources := processed.ProductInsights.Sources
		assert.Contains(t, sources, "Runner's World")
		assert.Contains(t, sources, "example.com")
	})

	t.Run("builds ai overview from typed related questions", func(t *testing.T) {
		overview := processed.ProductInsights.AIOverview
		require.Len(t, overview.Snippets, 1)
		assert.Contains(t, overview.Snippets[0], "foot shape")
		assert.Equal(t, []string{"Rotate two pairs to extend shoe life", "Replace after 500 miles"}, overview.KeyPoints)
	})

	t.Run("key snippets drop short and duplicate entries", func(t *testing.T) {
		snippets := processed.ProductInsights.KeySnippets
		require.NotEmpty(t, snippets)
		seen := make(map[string]bool)
		for _, s := range snippets {
			assert.Greater(t, len(s), minSnippetLength)
			key := strings.ToLower(s)
			assert.False(t, seen[key], "duplicate snippet: %s", s)
			seen[key] = true
		}
	})

	t.Run("records total results from search information", func(t *testing.T) {
		assert.Equal(t, 1250000, processed.ProductInsights.TotalResults)
	})
}

func TestAnalysisProcessYouTube(t *testing.T) {
	svc := NewAnalysisService()

	youtube := &model.YouTubeInsights{
		Query: "running shoes review",
		Videos: []model.YouTubeVideoResult{
			{Title: "Shoe review", Channel: "RunRepeat", Transcript: "full transcript"},
			{Title: "No channel video"},
		},
		Shorts: []model.YouTubeShortResult{
			{Title: "Quick take", VideoID: "abc12345678"},
		},
	}

	processed := svc.Process(&model.SearchResultsCollection{}, youtube)

	assert.Same(t, youtube, processed.YouTubeInsights)
	assert.Equal(t, 3, processed.TotalSources) // RunRepeat, YouTube, YouTube Shorts
	assert.Contains(t, processed.ProcessingSummary["categories_available"], "youtube")
}

func TestExtractAnswer(t *testing.T) {
	t.Run("prefers the direct snippet", func(t *testing.T) {
		answer := extractAnswer(relatedQuestionItem{
			Snippet:    "direct answer",
			TextBlocks: []textBlock{{Type: "paragraph", Snippet: "ignored"}},
		})
		assert.Equal(t, "direct answer", answer)
	})

	t.Run("joins paragraphs and bulleted list entries", func(t *testing.T) {
		answer := extractAnswer(relatedQuestionItem{
			TextBlocks: []textBlock{
				{Type: "paragraph", Snippet: "First part."},
				{Type: "list", List: []json.RawMessage{
					json.RawMessage(`{"snippet": "item one"}`),
					json.RawMessage(`"item two"`),
				}},
			},
		})
		assert.Equal(t, "First part. • item one • item two", answer)
	})
}

func TestCombinedContext(t *testing.T) {
	svc := NewAnalysisService()

	processed := &model.ProcessedResults{
		ProductInsights: &model.CategoryInsights{
			Category:     model.CategoryProduct,
			Query:        "test query",
			TotalResults: 10,
			TopResults: []model.OrganicResult{
				{Title: "A result", Snippet: "A snippet", Source: "src", Link: "https://x"},
			},
		},
		YouTubeInsights: &model.YouTubeInsights{
			Query:  "yt query",
			Videos: []model.YouTubeVideoResult{{Title: "Clip", Channel: "Chan", Transcript: strings.Repeat("x", 3000)}},
		},
	}

	context := svc.CombinedContext(processed)

	assert.Contains(t, context, "## PRODUCT RESEARCH")
	assert.Contains(t, context, "Query: test query")
	assert.Contains(t, context, "## YOUTUBE RESEARCH")
	// Long transcripts are truncated before entering the prompt.
	assert.NotContains(t, context, strings.Repeat("x", 2001))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcde...", truncate("abcdefgh", 5))

	t.Run("never splits a multibyte rune", func(t *testing.T) {
		// é is two bytes; a cut at byte 4 would land mid-rune.
		s := "caféteria"
		assert.Equal(t, "caf...", truncate(s, 4))
		assert.True(t, utf8.ValidString(truncate(s, 4)))
	})
}

func TestClip(t *testing.T) {
	assert.Equal(t, "short", clip("short", 10))
	assert.Equal(t, "abcde", clip("abcdefgh", 5))

	t.Run("backs up to a rune boundary", func(t *testing.T) {
		s := "日本語のテキスト"
		for max := 1; max <= len(s); max++ {
			assert.True(t, utf8.ValidString(clip(s, max)), "max=%d", max)
			assert.LessOrEqual(t, len(clip(s, max)), max)
		}
	})
}
