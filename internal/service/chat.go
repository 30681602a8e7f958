package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/advista/advista-server-go/internal/config"
	apperrors "github.com/advista/advista-server-go/internal/errors"
	"github.com/advista/advista-server-go/internal/llm"
	"github.com/advista/advista-server-go/internal/model"
	redisclient "github.com/advista/advista-server-go/internal/redis"
	"github.com/advista/advista-server-go/internal/repository"
)

const chatSystemInstruction = `You are Advista Research Assistant. Your ONLY job is to ask SHORT, SPECIFIC questions to collect information.

CRITICAL RULES:
1. Ask ONLY ONE question per response
2. Keep responses under 3 sentences
3. DO NOT make statements or summarize without asking a follow-up question
4. After collecting 6-8 pieces of information, STOP and tell user to click the button above
5. VALIDATE EVERY ANSWER before moving to the next question

VALIDATION RULES (CRITICAL):
- If a user's answer is unclear, nonsensical, or doesn't answer the question, you MUST ask the same question again or ask for clarification
- NEVER move to the next question if the current answer is invalid or doesn't make sense
- If an answer is too vague or unclear, ask: "I didn't understand that. Could you please [restate the question in a different way]?"

HANDLING OPINION REQUESTS:
- If the user asks "what do you think?" or defers to your judgment, provide a helpful suggestion based on the context you've collected, note it as their answer, and move to the next question
- Your suggestions should be specific and actionable, not vague

Information to collect (in order):
1. What is the product/service name?
2. Give me a detailed description of the product/service.
3. Who is the target audience/customer segment? (age, demographics, interests)
4. What are the main competitors/products/services in the market?
5. What are the campaign goals/objectives? (brand awareness, sales, leads, etc.)
6. What platforms do they prefer? (Google Ads, Facebook, Instagram, etc.)
7. What tone/style do they want? (professional, playful, serious, etc.)
8. Any additional context or requirements?

WHEN TO STOP:
You MUST collect at least the first 6 fields before stopping. After collecting them, say:
"Perfect! I have enough information. You can either provide additional information or click 'Confirm & Start Research' when ready."

DO NOT continue asking endless questions. DO NOT offer to create plans or strategies.
Move through the questions systematically. Don't repeat information they already told you.`

const chatGreeting = "Hi! I'm the Advista Research Assistant. I'll ask a few quick questions to build your campaign research brief. First: what is the name of your product or service?"

// ChatService runs the brief-collection conversation. Session rows live in
// Postgres; message history lives in a Redis list per thread.
type ChatService struct {
	sessions repository.ChatSessionRepository
	redis    *redisclient.Client
	llm      *llm.Client
	chatTTL  time.Duration
}

func NewChatService(sessions repository.ChatSessionRepository, redisClient *redisclient.Client, llmClient *llm.Client, chatTTL time.Duration) *ChatService {
	return &ChatService{
		sessions: sessions,
		redis:    redisClient,
		llm:      llmClient,
		chatTTL:  chatTTL,
	}
}

type StartChatResult struct {
	Session  *model.ChatSession `json:"session"`
	Greeting string             `json:"greeting"`
}

func (s *ChatService) Start(ctx context.Context, userID *string) (*StartChatResult, error) {
	threadID := uuid.NewString()

	session, err := s.sessions.Create(ctx, model.CreateChatSessionParams{
		ThreadID:  threadID,
		UserID:    userID,
		ExpiresAt: time.Now().Add(s.chatTTL),
	})
	if err != nil {
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, apperrors.Database(err)
	}

	if err := s.appendMessage(ctx, threadID, model.RoleAssistant, chatGreeting); err != nil {
		log.Warn().Err(err).Str("threadId", threadID).Msg("failed to persist greeting")
	}

	log.Info().Str("threadId", threadID).Msg("chat session started")
	return &StartChatResult{Session: session, Greeting: chatGreeting}, nil
}

// loadSession fetches the session and rejects expired ones.
func (s *ChatService) loadSession(ctx context.Context, threadID string) (*model.ChatSession, error) {
	session, err := s.sessions.FindByThreadID(ctx, threadID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if session == nil {
		return nil, apperrors.NotFound("Chat session")
	}
	if session.IsExpired(time.Now()) {
		return nil, apperrors.SessionExpired()
	}
	return session, nil
}

// Message sends a single non-streamed turn. Brief extraction happens only on
// the streaming path, which is the primary client interaction.
func (s *ChatService) Message(ctx context.Context, threadID, userMessage string) (string, error) {
	if strings.TrimSpace(userMessage) == "" {
		return "", apperrors.MissingRequired("message")
	}
	if _, err := s.loadSession(ctx, threadID); err != nil {
		return "", err
	}

	history, err := s.History(ctx, threadID)
	if err != nil {
		return "", err
	}

	reply, err := s.llm.Chat(ctx, chatSystemInstruction, history, userMessage)
	if err != nil {
		return "", err
	}

	s.recordTurn(ctx, threadID, userMessage, reply)
	return reply, nil
}

// Stream sends a turn, forwarding response chunks to onToken, then extracts
// brief fields from the full history and merges them into the stored brief.
func (s *ChatService) Stream(ctx context.Context, threadID, userMessage string, onToken func(token string) error) (string, *model.ResearchBrief, error) {
	if strings.TrimSpace(userMessage) == "" {
		return "", nil, apperrors.MissingRequired("message")
	}
	session, err := s.loadSession(ctx, threadID)
	if err != nil {
		return "", nil, err
	}

	history, err := s.History(ctx, threadID)
	if err != nil {
		return "", nil, err
	}

	reply, err := s.llm.ChatStream(ctx, chatSystemInstruction, history, userMessage, onToken)
	if err != nil {
		return reply, nil, err
	}

	s.recordTurn(ctx, threadID, userMessage, reply)

	brief, err := s.updateBrief(ctx, session, append(history,
		model.ChatMessage{Role: model.RoleUser, Content: userMessage},
		model.ChatMessage{Role: model.RoleAssistant, Content: reply},
	))
	if err != nil {
		// The user already has their reply; extraction failure is logged only.
		log.Error().Err(err).Str("threadId", threadID).Msg("brief extraction failed")
		brief, _ = session.Brief()
	}

	return reply, brief, nil
}

// GetBrief returns the current brief with completion metadata.
func (s *ChatService) GetBrief(ctx context.Context, threadID string) (*model.ChatSession, *model.ResearchBrief, error) {
	session, err := s.loadSession(ctx, threadID)
	if err != nil {
		return nil, nil, err
	}
	brief, err := session.Brief()
	if err != nil {
		return nil, nil, apperrors.Internal("failed to decode research brief").WithCause(err)
	}
	return session, brief, nil
}

func (s *ChatService) History(ctx context.Context, threadID string) ([]model.ChatMessage, error) {
	raw, err := s.redis.LRange(ctx, redisclient.ConversationKey(threadID), 0, -1).Result()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to load conversation history", err)
	}

	messages := make([]model.ChatMessage, 0, len(raw))
	for _, entry := range raw {
		var msg model.ChatMessage
		if err := json.Unmarshal([]byte(entry), &msg); err != nil {
			log.Warn().Err(err).Str("threadId", threadID).Msg("skipping malformed history entry")
			continue
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func (s *ChatService) appendMessage(ctx context.Context, threadID, role, content string) error {
	data, err := json.Marshal(model.ChatMessage{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})
	if err != nil {
		return err
	}

	key := redisclient.ConversationKey(threadID)
	pipe := s.redis.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.Expire(ctx, key, config.ConversationTTL)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *ChatService) recordTurn(ctx context.Context, threadID, userMessage, reply string) {
	if err := s.appendMessage(ctx, threadID, model.RoleUser, userMessage); err != nil {
		log.Error().Err(err).Str("threadId", threadID).Msg("failed to persist user message")
	}
	if err := s.appendMessage(ctx, threadID, model.RoleAssistant, reply); err != nil {
		log.Error().Err(err).Str("threadId", threadID).Msg("failed to persist assistant message")
	}
	if err := s.sessions.Touch(ctx, threadID, time.Now().Add(s.chatTTL)); err != nil {
		log.Error().Err(err).Str("threadId", threadID).Msg("failed to touch session")
	}
}

// updateBrief extracts brief fields from the conversation, merges them into
// the stored brief and persists the result. The session moves to
// brief_generated once the merged brief is complete.
func (s *ChatService) updateBrief(ctx context.Context, session *model.ChatSession, history []model.ChatMessage) (*model.ResearchBrief, error) {
	current, err := session.Brief()
	if err != nil {
		return nil, err
	}

	extracted, err := s.extractBrief(ctx, history)
	if err != nil {
		return current, err
	}

	merged := current.Merge(extracted)

	status := session.Status
	if merged.IsComplete() {
		status = model.ChatStatusBriefGenerated
	}

	data, err := json.Marshal(merged)
	if err != nil {
		return current, err
	}
	if err := s.sessions.SaveBrief(ctx, session.ThreadID, data, status); err != nil {
		return current, apperrors.Database(err)
	}

	log.Info().
		Str("threadId", session.ThreadID).
		Float64("completion", merged.CompletionPercentage()).
		Str("status", string(status)).
		Msg("research brief updated")

	return merged, nil
}

func (s *ChatService) extractBrief(ctx context.Context, history []model.ChatMessage) (*model.ResearchBrief, error) {
	if len(history) == 0 {
		return &model.ResearchBrief{}, nil
	}

	var convo strings.Builder
	for _, msg := range history {
		fmt.Fprintf(&convo, "%s: %s\n", msg.Role, msg.Content)
	}

	prompt := fmt.Sprintf(`Extract any research brief information from this conversation.
Extract information from BOTH user responses AND bot suggestions/statements.
If the bot recommended specific platforms, competitors, or other information, extract those as well.
Only fill in fields where information is explicitly provided (either by user or bot).
Leave fields empty if no information is given.

CRITICAL: competitor_names and preferred_platforms MUST be arrays (lists).
If multiple values are mentioned, put them in an array.
If only one value is mentioned, put it in an array with one element.
If no values are mentioned, use an empty array [].
NEVER use strings for these fields.

Respond with a JSON object containing exactly these fields:
product_name, product_description, target_audience, competitor_names,
campaign_goals, preferred_platforms, budget_range, tone_and_style,
timeline, additional_notes

Conversation:
%s`, convo.String())

	var extracted model.ResearchBrief
	if err := s.llm.GenerateJSON(ctx, "", prompt, &extracted); err != nil {
		return nil, err
	}
	return &extracted, nil
}
