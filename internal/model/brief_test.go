package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResearchBriefIsComplete(t *testing.T) {
	t.Run("empty brief is not complete", func(t *testing.T) {
		brief := &ResearchBrief{}
		assert.False(t, brief.IsComplete())
	})

	t.Run("three core fields plus supporting detail is complete", func(t *testing.T) {
		brief := &ResearchBrief{
			ProductName:     "Trailblazer Shoes",
			TargetAudience:  "urban runners 25-40",
			CampaignGoals:   "increase online sales",
			CompetitorNames: []string{"Nike"},
		}
		assert.True(t, brief.IsComplete())
	})

	t.Run("all four core fields without supporting detail is not complete", func(t *testing.T) {
		brief := &ResearchBrief{
			ProductName:    "Trailblazer Shoes",
			TargetAudience: "urban runners 25-40",
			CampaignGoals:  "increase online sales",
			BudgetRange:    "$5k-$10k",
		}
		assert.False(t, brief.IsComplete())
	})

	t.Run("two core fields with supporting detail is not complete", func(t *testing.T) {
		brief := &ResearchBrief{
			ProductName:        "Trailblazer Shoes",
			TargetAudience:     "urban runners 25-40",
			PreferredPlatforms: []string{"Instagram"},
		}
		assert.False(t, brief.IsComplete())
	})

	t.Run("tone counts as supporting detail", func(t *testing.T) {
		brief := &ResearchBrief{
			ProductName:    "Trailblazer Shoes",
			TargetAudience: "urban runners 25-40",
			BudgetRange:    "$5k-$10k",
			ToneAndStyle:   "energetic",
		}
		assert.True(t, brief.IsComplete())
	})
}

func TestResearchBriefCompletionPercentage(t *testing.T) {
	t.Run("empty brief is zero", func(t *testing.T) {
		brief := &ResearchBrief{}
		assert.Equal(t, 0.0, brief.CompletionPercentage())
	})

	t.Run("half filled brief is fifty", func(t *testing.T) {
		brief := &ResearchBrief{
			ProductName:        "Trailblazer Shoes",
			ProductDescription: "trail running shoes",
			TargetAudience:     "urban runners",
			CampaignGoals:      "brand awareness",
			BudgetRange:        "$5k",
		}
		assert.Equal(t, 50.0, brief.CompletionPercentage())
	})

	t.Run("full brief is one hundred", func(t *testing.T) {
		brief := &ResearchBrief{
			ProductName:        "a",
			ProductDescription: "b",
			TargetAudience:     "c",
			CompetitorNames:    []string{"d"},
			CampaignGoals:      "e",
			PreferredPlatforms: []string{"f"},
			BudgetRange:        "g",
			ToneAndStyle:       "h",
			Timeline:           "i",
			AdditionalNotes:    "j",
		}
		assert.Equal(t, 100.0, brief.CompletionPercentage())
	})
}

func TestResearchBriefMissingFields(t *testing.T) {
	t.Run("lists all empty fields except additional notes", func(t *testing.T) {
		brief := &ResearchBrief{}
		missing := brief.MissingFields()
		assert.Len(t, missing, 9)
		assert.NotContains(t, missing, "additional_notes")
	})

	t.Run("filled fields are not listed", func(t *testing.T) {
		brief := &ResearchBrief{ProductName: "Trailblazer Shoes"}
		assert.NotContains(t, brief.MissingFields(), "product_name")
	})
}

func TestResearchBriefMerge(t *testing.T) {
	t.Run("non-empty values override", func(t *testing.T) {
		existing := &ResearchBrief{ProductName: "Old Name", BudgetRange: "$5k"}
		merged := existing.Merge(&ResearchBrief{ProductName: "New Name"})
		assert.Equal(t, "New Name", merged.ProductName)
		assert.Equal(t, "$5k", merged.BudgetRange)
	})

	t.Run("empty values do not clobber", func(t *testing.T) {
		existing := &ResearchBrief{CampaignGoals: "awareness"}
		merged := existing.Merge(&ResearchBrief{CampaignGoals: "   "})
		assert.Equal(t, "awareness", merged.CampaignGoals)
	})

	t.Run("lists union preserving order", func(t *testing.T) {
		existing := &ResearchBrief{CompetitorNames: []string{"Nike", "Adidas"}}
		merged := existing.Merge(&ResearchBrief{CompetitorNames: []string{"Adidas", "Puma"}})
		assert.Equal(t, []string{"Nike", "Adidas", "Puma"}, merged.CompetitorNames)
	})

	t.Run("empty incoming list keeps existing", func(t *testing.T) {
		existing := &ResearchBrief{PreferredPlatforms: []string{"Instagram"}}
		merged := existing.Merge(&ResearchBrief{})
		assert.Equal(t, []string{"Instagram"}, merged.PreferredPlatforms)
	})

	t.Run("merge does not mutate the receiver", func(t *testing.T) {
		existing := &ResearchBrief{ProductName: "Old Name"}
		_ = existing.Merge(&ResearchBrief{ProductName: "New Name"})
		assert.Equal(t, "Old Name", existing.ProductName)
	})
}

func TestCanTransition(t *testing.T) {
	t.Run("legal forward transitions", func(t *testing.T) {
		assert.True(t, CanTransition(ResearchStatusPending, ResearchStatusResearching))
		assert.True(t, CanTransition(ResearchStatusResearching, ResearchStatusProcessing))
		assert.True(t, CanTransition(ResearchStatusProcessing, ResearchStatusSynthesizing))
		assert.True(t, CanTransition(ResearchStatusSynthesizing, ResearchStatusCompleted))
	})

	t.Run("any non-terminal status may fail", func(t *testing.T) {
		for _, from := range []ResearchSessionStatus{
			ResearchStatusPending, ResearchStatusResearching,
			ResearchStatusProcessing, ResearchStatusSynthesizing,
		} {
			assert.True(t, CanTransition(from, ResearchStatusFailed), string(from))
		}
	})

	t.Run("terminal statuses admit nothing", func(t *testing.T) {
		assert.False(t, CanTransition(ResearchStatusCompleted, ResearchStatusResearching))
		assert.False(t, CanTransition(ResearchStatusFailed, ResearchStatusPending))
	})

	t.Run("skipping stages is illegal", func(t *testing.T) {
		assert.False(t, CanTransition(ResearchStatusPending, ResearchStatusCompleted))
		assert.False(t, CanTransition(ResearchStatusResearching, ResearchStatusSynthesizing))
	})
}
