package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/advista/advista-server-go/internal/llm"
	"github.com/advista/advista-server-go/internal/model"
)

const synthesisSystemInstruction = `You are an expert advertising research analyst.
Your job is to analyze research data and provide actionable insights for advertising campaigns.
Be specific, data-driven, and focus on actionable recommendations.
Use the research data provided to form your analysis - do not make up information.`

// SynthesisService turns processed insights into a full research report,
// one LLM call per section.
type SynthesisService struct {
	llm      *llm.Client
	analysis *AnalysisService
}

func NewSynthesisService(llmClient *llm.Client, analysis *AnalysisService) *SynthesisService {
	return &SynthesisService{llm: llmClient, analysis: analysis}
}

// SynthesizeAll builds the complete report. Sections whose insights are
// missing are skipped; a section-level LLM failure yields a stub section
// rather than aborting the report.
func (s *SynthesisService) SynthesizeAll(ctx context.Context, processed *model.ProcessedResults, brief *model.ResearchBrief) (*model.ResearchReport, error) {
	report := &model.ResearchReport{}

	if processed.ProductInsights != nil {
		report.ProductAnalysis = s.synthesizeProduct(ctx, processed.ProductInsights, brief)
	}
	if processed.CompetitorInsights != nil {
		report.CompetitorAnalysis = s.synthesizeCompetitors(ctx, processed.CompetitorInsights, brief)
	}
	if processed.AudienceInsights != nil {
		report.AudienceAnalysis = s.synthesizeAudience(ctx, processed.AudienceInsights, brief)
	}
	if processed.CampaignInsights != nil {
		report.CampaignRecommendations = s.synthesizeCampaign(ctx, processed.CampaignInsights, brief)
	}
	if processed.PlatformInsights != nil {
		report.PlatformStrategy = s.synthesizePlatform(ctx, processed.PlatformInsights, brief)
	}

	report.ExecutiveSummary = s.generateExecutiveSummary(ctx, report, brief)
	report.ActionItems = s.generateActionItems(ctx, report, brief)

	return report, nil
}

func (s *SynthesisService) synthesizeProduct(ctx context.Context, insights *model.CategoryInsights, brief *model.ResearchBrief) *model.ProductAnalysis {
	prompt := fmt.Sprintf(`Analyze the following product research data and provide a comprehensive product analysis.

%s

RESEARCH DATA:
%s

Provide your analysis as a JSON object with these fields:
- summary: A 2-3 sentence executive summary of the product
- key_features: List of 5-8 key product features identified
- market_position: Analysis of the product's market positioning
- strengths: List of 4-6 product strengths
- weaknesses: List of 3-5 product weaknesses or gaps
- trends: List of 3-5 relevant industry trends

Respond ONLY with valid JSON, no additional text.`, formatBrief(brief), buildSectionContext(insights))

	var out model.ProductAnalysis
	if err := s.llm.GenerateJSON(ctx, synthesisSystemInstruction, prompt, &out); err != nil {
		log.Error().Err(err).Msg("product synthesis failed")
		return &model.ProductAnalysis{Summary: "Error generating analysis: " + err.Error()}
	}
	return &out
}

func (s *SynthesisService) synthesizeCompetitors(ctx context.Context, insights *model.CategoryInsights, brief *model.ResearchBrief) *model.CompetitorAnalysis {
	prompt := fmt.Sprintf(`Analyze the following competitor research data and provide a comprehensive competitive analysis.

%s

RESEARCH DATA:
%s

Provide your analysis as a JSON object with these exact fields:
- summary: A 2-3 sentence competitive landscape summary (string)
- main_competitors: Array of objects, each with:
  - "name": competitor name (string)
  - "strengths": array of strength strings
  - "weaknesses": array of weakness strings
- competitive_advantages: Array of 3-5 strings describing ways our product can compete
- competitive_threats: Array of 3-4 strings describing competitive threats
- pricing_insights: Brief analysis of pricing landscape (string)
- differentiation_opportunities: Array of 3-5 strings describing ways to differentiate

Example structure for main_competitors:
[{"name": "Competitor A", "strengths": ["strength 1", "strength 2"], "weaknesses": ["weakness 1"]}]

Respond ONLY with valid JSON, no additional text.`, formatBrief(brief), buildSectionContext(insights))

	var out model.CompetitorAnalysis
	if err := s.llm.GenerateJSON(ctx, synthesisSystemInstruction, prompt, &out); err != nil {
		log.Error().Err(err).Msg("competitor synthesis failed")
		return &model.CompetitorAnalysis{Summary: "Error generating analysis: " + err.Error()}
	}
	return &out
}

func (s *SynthesisService) synthesizeAudience(ctx context.Context, insights *model.CategoryInsights, brief *model.ResearchBrief) *model.AudienceAnalysis {
	prompt := fmt.Sprintf(`Analyze the following audience research data and provide comprehensive audience insights.

%s

RESEARCH DATA:
%s

Provide your analysis as a JSON object with these fields:
- summary: A 2-3 sentence summary of the target audience
- demographics: Object with keys like "age_range", "gender", "location", "income_level", "education"
- psychographics: List of 4-6 interests, values, and lifestyle traits
- pain_points: List of 4-6 key pain points this audience has
- motivations: List of 3-5 purchase motivations
- online_behavior: List of 4-5 online behavior patterns
- best_channels: List of 3-5 best channels/platforms to reach them

Respond ONLY with valid JSON, no additional text.`, formatBrief(brief), buildSectionContext(insights))

	var out model.AudienceAnalysis
	if err := s.llm.GenerateJSON(ctx, synthesisSystemInstruction, prompt, &out); err != nil {
		log.Error().Err(err).Msg("audience synthesis failed")
		return &model.AudienceAnalysis{Summary: "Error generating analysis: " + err.Error()}
	}
	return &out
}

func (s *SynthesisService) synthesizeCampaign(ctx context.Context, insights *model.CategoryInsights, brief *model.ResearchBrief) *model.CampaignRecommendations {
	prompt := fmt.Sprintf(`Analyze the following campaign research data and provide strategic campaign recommendations.

%s

RESEARCH DATA:
%s

Provide your recommendations as a JSON object with these fields:
- summary: A 2-3 sentence campaign strategy summary
- recommended_objectives: List of 3-5 recommended campaign objectives
- key_messages: List of 4-6 key messaging themes to use
- content_ideas: List of 5-8 specific content and creative ideas
- best_practices: List of 4-6 campaign best practices to follow
- success_metrics: List of 4-6 KPIs to track
- budget_recommendations: Brief suggestions on budget allocation

Respond ONLY with valid JSON, no additional text.`, formatBrief(brief), buildSectionContext(insights))

	var out model.CampaignRecommendations
	if err := s.llm.GenerateJSON(ctx, synthesisSystemInstruction, prompt, &out); err != nil {
		log.Error().Err(err).Msg("campaign synthesis failed")
		return &model.CampaignRecommendations{Summary: "Error generating analysis: " + err.Error()}
	}
	return &out
}

func (s *SynthesisService) synthesizePlatform(ctx context.Context, insights *model.CategoryInsights, brief *model.ResearchBrief) *model.PlatformStrategy {
	prompt := fmt.Sprintf(`Analyze the following platform research data and provide platform-specific advertising strategies.

%s

RESEARCH DATA:
%s

Provide your strategies as a JSON object with these exact fields:
- summary: A 2-3 sentence platform strategy summary (string)
- platform_recommendations: Array of objects, each with:
  - "platform": platform name (string)
  - "priority": "high", "medium", or "low" (string)
  - "strategy": strategy description (string)
  - "budget_percentage": suggested budget percentage (integer, 0-100)
- ad_format_suggestions: Array of 4-6 recommended ad format strings
- targeting_strategies: Array of 4-6 targeting approach strings
- timing_recommendations: Object with "best_days" (array of strings) and "best_times" (array of strings)

Respond ONLY with valid JSON, no additional text.`, formatBrief(brief), buildSectionContext(insights))

	var out model.PlatformStrategy
	if err := s.llm.GenerateJSON(ctx, synthesisSystemInstruction, prompt, &out); err != nil {
		log.Error().Err(err).Msg("platform synthesis failed")
		return &model.PlatformStrategy{Summary: "Error generating analysis: " + err.Error()}
	}
	return &out
}

func (s *SynthesisService) generateExecutiveSummary(ctx context.Context, report *model.ResearchReport, brief *model.ResearchBrief) string {
	var sections []string
	if report.ProductAnalysis != nil {
		sections = append(sections, "Product: "+report.ProductAnalysis.Summary)
	}
	if report.CompetitorAnalysis != nil {
		sections = append(sections, "Competition: "+report.CompetitorAnalysis.Summary)
	}
	if report.AudienceAnalysis != nil {
		sections = append(sections, "Audience: "+report.AudienceAnalysis.Summary)
	}
	if report.CampaignRecommendations != nil {
		sections = append(sections, "Campaign: "+report.CampaignRecommendations.Summary)
	}
	if report.PlatformStrategy != nil {
		sections = append(sections, "Platforms: "+report.PlatformStrategy.Summary)
	}

	prompt := fmt.Sprintf(`Based on the following research summaries, write a concise executive summary (3-4 paragraphs)
that captures the key insights and recommendations for the advertising campaign.

%s

SECTION SUMMARIES:
%s

Write a cohesive executive summary that ties all insights together and provides clear direction for the campaign.
Focus on the most actionable insights and key recommendations.`, formatBrief(brief), strings.Join(sections, "\n"))

	summary, err := s.llm.Chat(ctx, synthesisSystemInstruction, nil, prompt)
	if err != nil {
		log.Error().Err(err).Msg("executive summary generation failed")
		return "Executive summary could not be generated."
	}
	return summary
}

func (s *SynthesisService) generateActionItems(ctx context.Context, report *model.ResearchReport, brief *model.ResearchBrief) []string {
	var recommendations []string
	if report.ProductAnalysis != nil {
		recommendations = append(recommendations, firstN(report.ProductAnalysis.Strengths, 2)...)
	}
	if report.CompetitorAnalysis != nil {
		recommendations = append(recommendations, firstN(report.CompetitorAnalysis.DifferentiationOpportunities, 2)...)
	}
	if report.AudienceAnalysis != nil {
		recommendations = append(recommendations, firstN(report.AudienceAnalysis.BestChannels, 2)...)
	}
	if report.CampaignRecommendations != nil {
		recommendations = append(recommendations, firstN(report.CampaignRecommendations.ContentIdeas, 3)...)
	}
	if report.PlatformStrategy != nil {
		recommendations = append(recommendations, firstN(report.PlatformStrategy.AdFormatSuggestions, 2)...)
	}

	var list strings.Builder
	for _, r := range recommendations {
		list.WriteString("- " + r + "\n")
	}

	prompt := fmt.Sprintf(`Based on the following insights and recommendations, create a prioritized list of
5-7 specific, actionable items for launching the advertising campaign.

%s

INSIGHTS AND RECOMMENDATIONS:
%s

Create action items that are:
1. Specific and actionable
2. Prioritized by impact
3. Clear on what needs to be done

Respond with a JSON array of strings, each being one action item. Example:
["Action item 1", "Action item 2", "Action item 3"]`, formatBrief(brief), list.String())

	var items []string
	if err := s.llm.GenerateJSON(ctx, synthesisSystemInstruction, prompt, &items); err != nil {
		log.Error().Err(err).Msg("action item generation failed")
		return []string{"Review research findings", "Define campaign objectives", "Create initial ad concepts"}
	}
	return items
}

func buildSectionContext(insights *model.CategoryInsights) string {
	var parts []string

	if len(insights.AIOverview.Snippets) > 0 || len(insights.AIOverview.KeyPoints) > 0 {
		parts = append(parts, "## AI Overview")
		parts = append(parts, insights.AIOverview.Snippets...)
		if len(insights.AIOverview.KeyPoints) > 0 {
			parts = append(parts, "\nKey Points:")
			for _, point := range insights.AIOverview.KeyPoints {
				parts = append(parts, "• "+point)
			}
		}
	}

	if len(insights.KeySnippets) > 0 {
		parts = append(parts, "\n## Key Findings")
		for _, snippet := range firstN(insights.KeySnippets, 10) {
			parts = append(parts, "- "+snippet)
		}
	}

	if len(insights.RelatedQuestions) > 0 {
		parts = append(parts, "\n## Related Questions & Answers")
		for _, q := range insights.RelatedQuestions[:min(len(insights.RelatedQuestions), 4)] {
			parts = append(parts, "Q: "+q.Question)
			if q.Answer != "" {
				parts = append(parts, "A: "+truncate(q.Answer, 300))
			}
		}
	}

	if len(insights.TopResults) > 0 {
		parts = append(parts, "\n## Top Sources")
		for _, r := range insights.TopResults[:min(len(insights.TopResults), 5)] {
			parts = append(parts, fmt.Sprintf("- %s: %s", r.Title, truncate(r.Snippet, 150)))
		}
	}

	return strings.Join(parts, "\n")
}

func formatBrief(brief *model.ResearchBrief) string {
	if brief == nil {
		return ""
	}

	parts := []string{"## RESEARCH BRIEF CONTEXT"}
	if brief.ProductName != "" {
		parts = append(parts, "Product: "+brief.ProductName)
	}
	if brief.ProductDescription != "" {
		parts = append(parts, "Description: "+brief.ProductDescription)
	}
	if brief.TargetAudience != "" {
		parts = append(parts, "Target Audience: "+brief.TargetAudience)
	}
	if brief.CampaignGoals != "" {
		parts = append(parts, "Campaign Goals: "+brief.CampaignGoals)
	}
	if len(brief.CompetitorNames) > 0 {
		parts = append(parts, "Competitors: "+strings.Join(brief.CompetitorNames, ", "))
	}
	if len(brief.PreferredPlatforms) > 0 {
		parts = append(parts, "Platforms: "+strings.Join(brief.PreferredPlatforms, ", "))
	}
	if brief.ToneAndStyle != "" {
		parts = append(parts, "Tone: "+brief.ToneAndStyle)
	}
	return strings.Join(parts, "\n") + "\n"
}

func firstN(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}
