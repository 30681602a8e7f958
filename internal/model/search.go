package model

import "encoding/json"

// SearchParams holds one query per research category, generated from the brief.
type SearchParams struct {
	ProductSearchQuery    string `json:"product_search_query"`
	CompetitorSearchQuery string `json:"competitor_search_query"`
	AudienceInsightQuery  string `json:"audience_insight_query"`
	CampaignStrategyQuery string `json:"campaign_strategy_query"`
	PlatformSpecificQuery string `json:"platform_specific_query"`
}

// Search categories, also used as stream event payload keys.
const (
	CategoryProduct    = "product"
	CategoryCompetitor = "competitor"
	CategoryAudience   = "audience"
	CategoryCampaign   = "campaign"
	CategoryPlatform   = "platform"
)

// Categories returns the category/query pairs in a fixed order, skipping
// empty queries.
func (p *SearchParams) Categories() []CategoryQuery {
	all := []CategoryQuery{
		{CategoryProduct, p.ProductSearchQuery},
		{CategoryCompetitor, p.CompetitorSearchQuery},
		{CategoryAudience, p.AudienceInsightQuery},
		{CategoryCampaign, p.CampaignStrategyQuery},
		{CategoryPlatform, p.PlatformSpecificQuery},
	}
	out := make([]CategoryQuery, 0, len(all))
	for _, cq := range all {
		if cq.Query != "" {
			out = append(out, cq)
		}
	}
	return out
}

type CategoryQuery struct {
	Category string
	Query    string
}

// SearchQueryResult is the outcome of a single search invocation.
type SearchQueryResult struct {
	Category string          `json:"category"`
	Query    string          `json:"query"`
	Params   map[string]any  `json:"params,omitempty"`
	Response json.RawMessage `json:"response,omitempty"`
	Error    string          `json:"error,omitempty"`
}

func (r *SearchQueryResult) HasError() bool {
	return r.Error != ""
}

// SearchResultsCollection groups raw search results by category.
type SearchResultsCollection struct {
	ProductResults    []SearchQueryResult `json:"product_results"`
	CompetitorResults []SearchQueryResult `json:"competitor_results"`
	AudienceResults   []SearchQueryResult `json:"audience_results"`
	CampaignResults   []SearchQueryResult `json:"campaign_results"`
	PlatformResults   []SearchQueryResult `json:"platform_results"`
}

func (c *SearchResultsCollection) Add(result SearchQueryResult) {
	switch result.Category {
	case CategoryProduct:
		c.ProductResults = append(c.ProductResults, result)
	case CategoryCompetitor:
		c.CompetitorResults = append(c.CompetitorResults, result)
	case CategoryAudience:
		c.AudienceResults = append(c.AudienceResults, result)
	case CategoryCampaign:
		c.CampaignResults = append(c.CampaignResults, result)
	case CategoryPlatform:
		c.PlatformResults = append(c.PlatformResults, result)
	}
}

func (c *SearchResultsCollection) ByCategory(category string) []SearchQueryResult {
	switch category {
	case CategoryProduct:
		return c.ProductResults
	case CategoryCompetitor:
		return c.CompetitorResults
	case CategoryAudience:
		return c.AudienceResults
	case CategoryCampaign:
		return c.CampaignResults
	case CategoryPlatform:
		return c.PlatformResults
	}
	return nil
}

func (c *SearchResultsCollection) IsEmpty() bool {
	return len(c.ProductResults) == 0 &&
		len(c.CompetitorResults) == 0 &&
		len(c.AudienceResults) == 0 &&
		len(c.CampaignResults) == 0 &&
		len(c.PlatformResults) == 0
}
