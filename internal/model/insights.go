package model

type OrganicResult struct {
	Position int    `json:"position"`
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
	Source   string `json:"source"`
	Date     string `json:"date,omitempty"`
}

type RelatedQuestion struct {
	Question    string `json:"question"`
	Answer      string `json:"answer"`
	SourceTitle string `json:"source_title,omitempty"`
	SourceLink  string `json:"source_link,omitempty"`
}

type AIOverview struct {
	Snippets  []string `json:"snippets"`
	KeyPoints []string `json:"key_points"`
}

// CategoryInsights is the distilled view of one category's raw search results.
type CategoryInsights struct {
	Category         string            `json:"category"`
	Query            string            `json:"query"`
	TotalResults     int               `json:"total_results"`
	TopResults       []OrganicResult   `json:"top_results"`
	RelatedQuestions []RelatedQuestion `json:"related_questions"`
	AIOverview       AIOverview        `json:"ai_overview"`
	KeySnippets      []string          `json:"key_snippets"`
	Sources          []string          `json:"sources"`
}

type YouTubeVideoResult struct {
	Title         string `json:"title"`
	Link          string `json:"link"`
	Channel       string `json:"channel"`
	PublishedDate string `json:"published_date"`
	Views         *int64 `json:"views,omitempty"`
	Length        string `json:"length"`
	Description   string `json:"description"`
	VideoID       string `json:"video_id"`
	Transcript    string `json:"transcript"`
}

type YouTubeShortResult struct {
	Title         string `json:"title"`
	Link          string `json:"link"`
	Views         *int64 `json:"views,omitempty"`
	ViewsOriginal string `json:"views_original"`
	VideoID       string `json:"video_id"`
	Transcript    string `json:"transcript"`
}

type YouTubeInsights struct {
	Query  string               `json:"query"`
	Videos []YouTubeVideoResult `json:"videos"`
	Shorts []YouTubeShortResult `json:"shorts"`
}

// ProcessedResults carries every category's insights plus YouTube research.
type ProcessedResults struct {
	ProductInsights    *CategoryInsights `json:"product_insights,omitempty"`
	CompetitorInsights *CategoryInsights `json:"competitor_insights,omitempty"`
	AudienceInsights   *CategoryInsights `json:"audience_insights,omitempty"`
	CampaignInsights   *CategoryInsights `json:"campaign_insights,omitempty"`
	PlatformInsights   *CategoryInsights `json:"platform_insights,omitempty"`
	YouTubeInsights    *YouTubeInsights  `json:"youtube_insights,omitempty"`

	TotalSources      int            `json:"total_sources"`
	ProcessingSummary map[string]any `json:"processing_summary"`
}

func (p *ProcessedResults) AllInsights() []*CategoryInsights {
	var out []*CategoryInsights
	for _, ci := range []*CategoryInsights{
		p.ProductInsights, p.CompetitorInsights, p.AudienceInsights,
		p.CampaignInsights, p.PlatformInsights,
	} {
		if ci != nil {
			out = append(out, ci)
		}
	}
	return out
}

// AllSources returns the unique source domains across all categories.
func (p *ProcessedResults) AllSources() []string {
	seen := make(map[string]bool)
	var out []string
	for _, ci := range p.AllInsights() {
		for _, s := range ci.Sources {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	return out
}

func (p *ProcessedResults) SetInsights(category string, insights *CategoryInsights) {
	switch category {
	case CategoryProduct:
		p.ProductInsights = insights
	case CategoryCompetitor:
		p.CompetitorInsights = insights
	case CategoryAudience:
		p.AudienceInsights = insights
	case CategoryCampaign:
		p.CampaignInsights = insights
	case CategoryPlatform:
		p.PlatformInsights = insights
	}
}
