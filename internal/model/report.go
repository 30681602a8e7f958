package model

type ProductAnalysis struct {
	Summary        string   `json:"summary"`
	KeyFeatures    []string `json:"key_features"`
	MarketPosition string   `json:"market_position"`
	Strengths      []string `json:"strengths"`
	Weaknesses     []string `json:"weaknesses"`
	Trends         []string `json:"trends"`
}

type CompetitorInfo struct {
	Name       string   `json:"name"`
	Strengths  []string `json:"strengths"`
	Weaknesses []string `json:"weaknesses"`
}

type CompetitorAnalysis struct {
	Summary                      string           `json:"summary"`
	MainCompetitors              []CompetitorInfo `json:"main_competitors"`
	CompetitiveAdvantages        []string         `json:"competitive_advantages"`
	CompetitiveThreats           []string         `json:"competitive_threats"`
	PricingInsights              string           `json:"pricing_insights"`
	DifferentiationOpportunities []string         `json:"differentiation_opportunities"`
}

type AudienceAnalysis struct {
	Summary        string         `json:"summary"`
	Demographics   map[string]any `json:"demographics"`
	Psychographics []string       `json:"psychographics"`
	PainPoints     []string       `json:"pain_points"`
	Motivations    []string       `json:"motivations"`
	OnlineBehavior []string       `json:"online_behavior"`
	BestChannels   []string       `json:"best_channels"`
}

type CampaignRecommendations struct {
	Summary               string   `json:"summary"`
	RecommendedObjectives []string `json:"recommended_objectives"`
	KeyMessages           []string `json:"key_messages"`
	ContentIdeas          []string `json:"content_ideas"`
	BestPractices         []string `json:"best_practices"`
	SuccessMetrics        []string `json:"success_metrics"`
	BudgetRecommendations string   `json:"budget_recommendations"`
}

type PlatformRecommendation struct {
	Platform         string `json:"platform"`
	Priority         string `json:"priority"`
	Strategy         string `json:"strategy"`
	BudgetPercentage int    `json:"budget_percentage"`
}

type PlatformStrategy struct {
	Summary                 string                   `json:"summary"`
	PlatformRecommendations []PlatformRecommendation `json:"platform_recommendations"`
	AdFormatSuggestions     []string                 `json:"ad_format_suggestions"`
	TargetingStrategies     []string                 `json:"targeting_strategies"`
	TimingRecommendations   map[string]any           `json:"timing_recommendations"`
}

// ResearchReport is the final synthesized deliverable.
type ResearchReport struct {
	ExecutiveSummary        string                   `json:"executive_summary"`
	ProductAnalysis         *ProductAnalysis         `json:"product_analysis,omitempty"`
	CompetitorAnalysis      *CompetitorAnalysis      `json:"competitor_analysis,omitempty"`
	AudienceAnalysis        *AudienceAnalysis        `json:"audience_analysis,omitempty"`
	CampaignRecommendations *CampaignRecommendations `json:"campaign_recommendations,omitempty"`
	PlatformStrategy        *PlatformStrategy        `json:"platform_strategy,omitempty"`
	ActionItems             []string                 `json:"action_items"`
}

// IsComplete reports whether every section of the report is populated.
func (r *ResearchReport) IsComplete() bool {
	return r.ExecutiveSummary != "" &&
		r.ProductAnalysis != nil &&
		r.CompetitorAnalysis != nil &&
		r.AudienceAnalysis != nil &&
		r.CampaignRecommendations != nil &&
		r.PlatformStrategy != nil &&
		len(r.ActionItems) > 0
}
