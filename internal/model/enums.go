package model

type ChatSessionStatus string

const (
	ChatStatusInitialized    ChatSessionStatus = "initialized"
	ChatStatusBriefGenerated ChatSessionStatus = "brief_generated"
)

type ResearchSessionStatus string

const (
	ResearchStatusPending      ResearchSessionStatus = "pending"
	ResearchStatusResearching  ResearchSessionStatus = "researching"
	ResearchStatusProcessing   ResearchSessionStatus = "processing"
	ResearchStatusSynthesizing ResearchSessionStatus = "synthesizing"
	ResearchStatusCompleted    ResearchSessionStatus = "completed"
	ResearchStatusFailed       ResearchSessionStatus = "failed"
)

var legalTransitions = map[ResearchSessionStatus][]ResearchSessionStatus{
	ResearchStatusPending:      {ResearchStatusResearching, ResearchStatusFailed},
	ResearchStatusResearching:  {ResearchStatusProcessing, ResearchStatusFailed},
	ResearchStatusProcessing:   {ResearchStatusSynthesizing, ResearchStatusFailed},
	ResearchStatusSynthesizing: {ResearchStatusCompleted, ResearchStatusFailed},
	ResearchStatusCompleted:    {},
	ResearchStatusFailed:       {},
}

// CanTransition reports whether a research session may move from one status to
// another. Completed and failed are terminal.
func CanTransition(from, to ResearchSessionStatus) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a research session status admits no further transitions.
func (s ResearchSessionStatus) IsTerminal() bool {
	return s == ResearchStatusCompleted || s == ResearchStatusFailed
}
