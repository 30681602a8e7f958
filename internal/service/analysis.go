package service

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/advista/advista-server-go/internal/model"
)

const (
	maxOrganicResults   = 10
	maxRelatedQuestions = 5
	maxKeySnippets      = 15
	minSnippetLength    = 20
)

// AnalysisService distills raw search responses into per-category insights.
type AnalysisService struct{}

func NewAnalysisService() *AnalysisService {
	return &AnalysisService{}
}

// serpResponse is the subset of a search response the analysis cares about.
type serpResponse struct {
	SearchInformation struct {
		TotalResults int64 `json:"total_results"`
	} `json:"search_information"`
	OrganicResults []struct {
		Position      int    `json:"position"`
		Title         string `json:"title"`
		Link          string `json:"link"`
		Snippet       string `json:"snippet"`
		Source        string `json:"source"`
		Date          string `json:"date"`
		DisplayedMeta string `json:"displayed_meta"`
	} `json:"organic_results"`
	RelatedQuestions []relatedQuestionItem `json:"related_questions"`
}

type relatedQuestionItem struct {
	Type       string      `json:"type"`
	Question   string      `json:"question"`
	Snippet    string      `json:"snippet"`
	Title      string      `json:"title"`
	Link       string      `json:"link"`
	TextBlocks []textBlock `json:"text_blocks"`
}

type textBlock struct {
	Type    string            `json:"type"`
	Snippet string            `json:"snippet"`
	List    []json.RawMessage `json:"list"`
}

// Process turns the raw collection plus optional YouTube research into
// ProcessedResults. Categories whose responses cannot be parsed are skipped.
func (s *AnalysisService) Process(collection *model.SearchResultsCollection, youtube *model.YouTubeInsights) *model.ProcessedResults {
	processed := &model.ProcessedResults{
		ProcessingSummary: map[string]any{},
	}

	allSources := make(map[string]bool)
	categoriesProcessed := 0
	var categoriesAvailable []string

	for _, category := range []string{
		model.CategoryProduct, model.CategoryCompetitor, model.CategoryAudience,
		model.CategoryCampaign, model.CategoryPlatform,
	} {
		results := collection.ByCategory(category)
		if len(results) == 0 {
			continue
		}
		categoriesAvailable = append(categoriesAvailable, category)

		insights, err := s.processCategory(category, results[0])
		if err != nil {
			log.Error().Err(err).Str("category", category).Msg("failed to process category")
			continue
		}
		processed.SetInsights(category, insights)
		for _, src := range insights.Sources {
			allSources[src] = true
		}
		categoriesProcessed++

		log.Info().
			Str("category", category).
			Int("results", len(insights.TopResults)).
			Int("questions", len(insights.RelatedQuestions)).
			Msg("category processed")
	}

	if youtube != nil {
		processed.YouTubeInsights = youtube
		categoriesAvailable = append(categoriesAvailable, "youtube")
		for _, v := range youtube.Videos {
			if v.Channel != "" {
				allSources[v.Channel] = true
			} else {
				allSources["YouTube"] = true
			}
		}
		if len(youtube.Shorts) > 0 {
			allSources["YouTube Shorts"] = true
		}
		categoriesProcessed++
	}

	processed.TotalSources = len(allSources)
	processed.ProcessingSummary = map[string]any{
		"categories_processed": categoriesProcessed,
		"total_unique_sources": len(allSources),
		"categories_available": categoriesAvailable,
	}

	return processed
}

func (s *AnalysisService) processCategory(category string, result model.SearchQueryResult) (*model.CategoryInsights, error) {
	if result.HasError() {
		return nil, fmt.Errorf("search failed: %s", result.Error)
	}

	var resp serpResponse
	if err := json.Unmarshal(result.Response, &resp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	insights := &model.CategoryInsights{
		Category:     category,
		Query:        result.Query,
		TotalResults: int(resp.SearchInformation.TotalResults),
	}

	insights.TopResults = extractOrganicResults(&resp)
	insights.RelatedQuestions = extractRelatedQuestions(&resp)
	insights.AIOverview = extractAIOverview(&resp)
	insights.KeySnippets = extractKeySnippets(insights)
	insights.Sources = extractUniqueSources(insights.TopResults)

	return insights, nil
}

func extractOrganicResults(resp *serpResponse) []model.OrganicResult {
	out := make([]model.OrganicResult, 0, maxOrganicResults)
	for _, item := range resp.OrganicResults {
		if len(out) >= maxOrganicResults {
			break
		}
		if item.Title == "" || item.Link == "" {
			continue
		}
		// Forum results carry displayed_meta instead of a date.
		date := item.Date
		if date == "" {
			date = item.DisplayedMeta
		}
		out = append(out, model.OrganicResult{
			Position: item.Position,
			Title:    item.Title,
			Link:     item.Link,
			Snippet:  item.Snippet,
			Source:   item.Source,
			Date:     date,
		})
	}
	return out
}

func extractRelatedQuestions(resp *serpResponse) []model.RelatedQuestion {
	out := make([]model.RelatedQuestion, 0, maxRelatedQuestions)
	for _, item := range resp.RelatedQuestions {
		if len(out) >= maxRelatedQuestions {
			break
		}
		if item.Question == "" {
			continue
		}
		out = append(out, model.RelatedQuestion{
			Question:    item.Question,
			Answer:      extractAnswer(item),
			SourceTitle: item.Title,
			SourceLink:  item.Link,
		})
	}
	return out
}

func extractAnswer(item relatedQuestionItem) string {
	if item.Snippet != "" {
		return item.Snippet
	}

	var parts []string
	for _, block := range item.TextBlocks {
		switch block.Type {
		case "paragraph":
			if block.Snippet != "" {
				parts = append(parts, block.Snippet)
			}
		case "list":
			for _, entry := range block.List {
				if v := listItemSnippet(entry); v != "" {
					parts = append(parts, "• "+v)
				}
			}
		}
	}
	return strings.Join(parts, " ")
}

// List entries arrive either as objects with a snippet or as bare strings.
func listItemSnippet(raw json.RawMessage) string {
	var obj struct {
		Snippet string `json:"snippet"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Snippet != "" {
		return obj.Snippet
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}

// The ai_overview block itself is just a token; the content lives in
// related_questions entries typed "ai_overview".
func extractAIOverview(resp *serpResponse) model.AIOverview {
	overview := model.AIOverview{
		Snippets:  []string{},
		KeyPoints: []string{},
	}

	for _, item := range resp.RelatedQuestions {
		if item.Type != "ai_overview" {
			continue
		}
		for _, block := range item.TextBlocks {
			switch block.Type {
			case "paragraph":
				if block.Snippet != "" {
					overview.Snippets = append(overview.Snippets, block.Snippet)
				}
			case "list":
				for _, entry := range block.List {
					if v := listItemSnippet(entry); v != "" {
						overview.KeyPoints = append(overview.KeyPoints, v)
					}
				}
			}
		}
	}
	return overview
}

func extractKeySnippets(insights *model.CategoryInsights) []string {
	var snippets []string
	snippets = append(snippets, insights.AIOverview.Snippets...)
	snippets = append(snippets, insights.AIOverview.KeyPoints...)

	for _, q := range insights.RelatedQuestions {
		if q.Answer == "" {
			continue
		}
		snippets = append(snippets, clip(q.Answer, 500))
	}

	top := insights.TopResults
	if len(top) > 5 {
		top = top[:5]
	}
	for _, r := range top {
		if r.Snippet != "" {
			snippets = append(snippets, r.Snippet)
		}
	}

	seen := make(map[string]bool)
	unique := make([]string, 0, len(snippets))
	for _, snippet := range snippets {
		key := strings.TrimSpace(strings.ToLower(snippet))
		if seen[key] || len(snippet) <= minSnippetLength {
			continue
		}
		seen[key] = true
		unique = append(unique, snippet)
		if len(unique) >= maxKeySnippets {
			break
		}
	}
	return unique
}

func extractUniqueSources(results []model.OrganicResult) []string {
	seen := make(map[string]bool)
	var sources []string
	for _, r := range results {
		src := r.Source
		if src == "" && r.Link != "" {
			if parsed, err := url.Parse(r.Link); err == nil {
				src = strings.TrimPrefix(parsed.Host, "www.")
			}
		}
		if src != "" && !seen[src] {
			seen[src] = true
			sources = append(sources, src)
		}
	}
	return sources
}

// CombinedContext flattens the processed results into a text block suitable
// for feeding into synthesis prompts.
func (s *AnalysisService) CombinedContext(processed *model.ProcessedResults) string {
	var sb strings.Builder

	for _, insights := range processed.AllInsights() {
		fmt.Fprintf(&sb, "\n## %s RESEARCH\n", strings.ToUpper(insights.Category))
		fmt.Fprintf(&sb, "Query: %s\n", insights.Query)
		fmt.Fprintf(&sb, "Total Results: %d\n\n", insights.TotalResults)

		if len(insights.AIOverview.Snippets) > 0 || len(insights.AIOverview.KeyPoints) > 0 {
			sb.WriteString("### AI Overview:\n")
			for _, snippet := range insights.AIOverview.Snippets {
				sb.WriteString(snippet + "\n")
			}
			if len(insights.AIOverview.KeyPoints) > 0 {
				sb.WriteString("\nKey Points:\n")
				for _, point := range insights.AIOverview.KeyPoints {
					sb.WriteString("• " + point + "\n")
				}
			}
			sb.WriteString("\n")
		}

		if len(insights.RelatedQuestions) > 0 {
			sb.WriteString("### Related Questions & Answers:\n")
			for _, q := range insights.RelatedQuestions {
				fmt.Fprintf(&sb, "Q: %s\nA: %s\n\n", q.Question, q.Answer)
			}
		}

		if len(insights.TopResults) > 0 {
			sb.WriteString("### Top Search Results:\n")
			top := insights.TopResults
			if len(top) > 5 {
				top = top[:5]
			}
			for _, r := range top {
				fmt.Fprintf(&sb, "- %s\n  %s\n  Source: %s | %s\n\n", r.Title, r.Snippet, r.Source, r.Link)
			}
		}
	}

	if yt := s.youtubeContext(processed); yt != "" {
		sb.WriteString(yt)
	}

	return sb.String()
}

func (s *AnalysisService) youtubeContext(processed *model.ProcessedResults) string {
	yt := processed.YouTubeInsights
	if yt == nil {
		return ""
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "\n## YOUTUBE RESEARCH\nQuery: %s\n", yt.Query)
	for _, v := range yt.Videos {
		fmt.Fprintf(&sb, "\n### Video: %s (%s)\n", v.Title, v.Channel)
		if v.Transcript != "" {
			sb.WriteString("Transcript: " + truncate(v.Transcript, 2000) + "\n")
		}
	}
	for _, short := range yt.Shorts {
		fmt.Fprintf(&sb, "\n### Short: %s\n", short.Title)
		if short.Transcript != "" {
			sb.WriteString("Transcript: " + truncate(short.Transcript, 1500) + "\n")
		}
	}
	return sb.String()
}

// clip shortens s to at most max bytes, backing up to a rune boundary so a
// multibyte character is never split mid-sequence.
func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return clip(s, max) + "..."
}
