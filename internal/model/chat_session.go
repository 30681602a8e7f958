package model

import (
	"encoding/json"
	"time"
)

type ChatSession struct {
	ThreadID      string            `db:"thread_id" json:"threadId"`
	UserID        *string           `db:"user_id" json:"userId,omitempty"`
	Status        ChatSessionStatus `db:"status" json:"status"`
	ResearchBrief *json.RawMessage  `db:"research_brief" json:"researchBrief,omitempty"`
	Metadata      json.RawMessage   `db:"metadata" json:"metadata"`
	CreatedAt     time.Time         `db:"created_at" json:"createdAt"`
	LastActivity  time.Time         `db:"last_activity" json:"lastActivity"`
	ExpiresAt     time.Time         `db:"expires_at" json:"expiresAt"`
}

// IsExpired reports whether the session's idle window has lapsed.
func (s *ChatSession) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Brief decodes the stored research brief, or returns an empty brief when
// none has been extracted yet.
func (s *ChatSession) Brief() (*ResearchBrief, error) {
	if s.ResearchBrief == nil {
		return &ResearchBrief{}, nil
	}
	var brief ResearchBrief
	if err := json.Unmarshal(*s.ResearchBrief, &brief); err != nil {
		return nil, err
	}
	return &brief, nil
}

type CreateChatSessionParams struct {
	ThreadID  string
	UserID    *string
	Metadata  json.RawMessage
	ExpiresAt time.Time
}

// ChatMessage is a single turn of the brief-collection conversation,
// persisted in Redis rather than Postgres.
type ChatMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)
