package model

import (
	"encoding/json"
	"time"
)

type ResearchSession struct {
	ID               string                `db:"id" json:"id"`
	ThreadID         string                `db:"thread_id" json:"threadId"`
	UserID           *string               `db:"user_id" json:"userId,omitempty"`
	Status           ResearchSessionStatus `db:"status" json:"status"`
	ResearchBrief    json.RawMessage       `db:"research_brief" json:"researchBrief"`
	TaskIDs          json.RawMessage       `db:"task_ids" json:"taskIds"`
	SearchResults    *json.RawMessage      `db:"search_results" json:"searchResults,omitempty"`
	ProcessedResults *json.RawMessage      `db:"processed_results" json:"processedResults,omitempty"`
	Report           *json.RawMessage      `db:"report" json:"report,omitempty"`
	ResourcesUsed    *json.RawMessage      `db:"resources_used" json:"resourcesUsed,omitempty"`
	Meta             json.RawMessage       `db:"meta" json:"meta"`
	CreatedAt        time.Time             `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time             `db:"updated_at" json:"updatedAt"`
	CompletedAt      *time.Time            `db:"completed_at" json:"completedAt,omitempty"`
}

type CreateResearchSessionParams struct {
	ThreadID      string
	UserID        *string
	ResearchBrief json.RawMessage
}

// SessionMeta is the shape of the meta JSONB blob. errorMessage is only set
// when the session ends in failed.
type SessionMeta struct {
	ErrorMessage string `json:"errorMessage,omitempty"`
	FailedStage  string `json:"failedStage,omitempty"`
}

// ResearchTask is the payload queued for pipeline workers.
type ResearchTask struct {
	SessionID string `json:"sessionId"`
	ThreadID  string `json:"threadId"`
}
