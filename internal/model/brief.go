package model

import "strings"

// ResearchBrief captures what we know about an advertising campaign, filled
// in incrementally from the collection conversation.
type ResearchBrief struct {
	ProductName        string   `json:"product_name"`
	ProductDescription string   `json:"product_description"`
	TargetAudience     string   `json:"target_audience"`
	CompetitorNames    []string `json:"competitor_names"`
	CampaignGoals      string   `json:"campaign_goals"`
	PreferredPlatforms []string `json:"preferred_platforms"`
	BudgetRange        string   `json:"budget_range"`
	ToneAndStyle       string   `json:"tone_and_style"`
	Timeline           string   `json:"timeline"`
	AdditionalNotes    string   `json:"additional_notes"`
}

// CompletionPercentage reports how much of the brief is filled, 0-100.
func (b *ResearchBrief) CompletionPercentage() float64 {
	filled := 0
	for _, ok := range []bool{
		b.ProductName != "",
		b.ProductDescription != "",
		b.TargetAudience != "",
		len(b.CompetitorNames) > 0,
		b.CampaignGoals != "",
		len(b.PreferredPlatforms) > 0,
		b.BudgetRange != "",
		b.ToneAndStyle != "",
		b.Timeline != "",
		b.AdditionalNotes != "",
	} {
		if ok {
			filled++
		}
	}
	return float64(filled) / 10 * 100
}

// MissingFields lists the fields that are still empty. additional_notes is
// optional and never reported missing.
func (b *ResearchBrief) MissingFields() []string {
	var missing []string
	if b.ProductName == "" {
		missing = append(missing, "product_name")
	}
	if b.ProductDescription == "" {
		missing = append(missing, "product_description")
	}
	if b.TargetAudience == "" {
		missing = append(missing, "target_audience")
	}
	if len(b.CompetitorNames) == 0 {
		missing = append(missing, "competitor_names")
	}
	if b.CampaignGoals == "" {
		missing = append(missing, "campaign_goals")
	}
	if len(b.PreferredPlatforms) == 0 {
		missing = append(missing, "preferred_platforms")
	}
	if b.BudgetRange == "" {
		missing = append(missing, "budget_range")
	}
	if b.ToneAndStyle == "" {
		missing = append(missing, "tone_and_style")
	}
	if b.Timeline == "" {
		missing = append(missing, "timeline")
	}
	return missing
}

// IsComplete reports whether the brief holds enough to start research:
// at least 3 of the 4 core fields (product name, target audience, campaign
// goals, budget range) plus at least one supporting detail.
func (b *ResearchBrief) IsComplete() bool {
	core := 0
	for _, ok := range []bool{
		b.ProductName != "",
		b.TargetAudience != "",
		b.CampaignGoals != "",
		b.BudgetRange != "",
	} {
		if ok {
			core++
		}
	}
	supporting := len(b.CompetitorNames) > 0 || len(b.PreferredPlatforms) > 0 || b.ToneAndStyle != ""
	return core >= 3 && supporting
}

// Merge folds newly extracted values into the existing brief. Non-empty
// strings replace the old value; lists are unioned preserving order.
func (b *ResearchBrief) Merge(extracted *ResearchBrief) *ResearchBrief {
	merged := *b
	mergeString(&merged.ProductName, extracted.ProductName)
	mergeString(&merged.ProductDescription, extracted.ProductDescription)
	mergeString(&merged.TargetAudience, extracted.TargetAudience)
	mergeString(&merged.CampaignGoals, extracted.CampaignGoals)
	mergeString(&merged.BudgetRange, extracted.BudgetRange)
	mergeString(&merged.ToneAndStyle, extracted.ToneAndStyle)
	mergeString(&merged.Timeline, extracted.Timeline)
	mergeString(&merged.AdditionalNotes, extracted.AdditionalNotes)
	merged.CompetitorNames = mergeList(b.CompetitorNames, extracted.CompetitorNames)
	merged.PreferredPlatforms = mergeList(b.PreferredPlatforms, extracted.PreferredPlatforms)
	return &merged
}

func mergeString(dst *string, src string) {
	if strings.TrimSpace(src) != "" {
		*dst = src
	}
}

func mergeList(existing, incoming []string) []string {
	if len(incoming) == 0 {
		return existing
	}
	seen := make(map[string]bool, len(existing))
	out := make([]string, 0, len(existing)+len(incoming))
	for _, v := range existing {
		seen[v] = true
		out = append(out, v)
	}
	for _, v := range incoming {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
