package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	apperrors "github.com/advista/advista-server-go/internal/errors"
	"github.com/advista/advista-server-go/internal/llm"
	"github.com/advista/advista-server-go/internal/model"
	redisclient "github.com/advista/advista-server-go/internal/redis"
	"github.com/advista/advista-server-go/internal/repository"
)

// ResearchService creates research sessions and hands them to the worker
// queue. The pipeline itself runs in the worker package.
type ResearchService struct {
	sessions repository.ResearchSessionRepository
	chats    repository.ChatSessionRepository
	redis    *redisclient.Client
	llm      *llm.Client
}

func NewResearchService(sessions repository.ResearchSessionRepository, chats repository.ChatSessionRepository, redisClient *redisclient.Client, llmClient *llm.Client) *ResearchService {
	return &ResearchService{
		sessions: sessions,
		chats:    chats,
		redis:    redisClient,
		llm:      llmClient,
	}
}

// Start validates the brief, creates a pending session and enqueues it.
// One research session per thread; a rerun requires a new chat thread.
func (s *ResearchService) Start(ctx context.Context, threadID string, userID *string, brief *model.ResearchBrief) (*model.ResearchSession, error) {
	if !brief.IsComplete() {
		return nil, apperrors.BriefIncomplete(brief.MissingFields())
	}

	chat, err := s.chats.FindByThreadID(ctx, threadID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if chat == nil {
		return nil, apperrors.NotFound("Chat session")
	}

	briefJSON, err := json.Marshal(brief)
	if err != nil {
		return nil, apperrors.Internal("failed to encode research brief").WithCause(err)
	}

	session, err := s.sessions.Create(ctx, model.CreateResearchSessionParams{
		ThreadID:      threadID,
		UserID:        userID,
		ResearchBrief: briefJSON,
	})
	if err != nil {
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, apperrors.Database(err)
	}

	task, err := json.Marshal(model.ResearchTask{
		SessionID: session.ID,
		ThreadID:  threadID,
	})
	if err != nil {
		return nil, apperrors.Internal("failed to encode research task").WithCause(err)
	}
	if err := s.redis.LPush(ctx, redisclient.ResearchQueueKey, task).Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to enqueue research task", err)
	}

	log.Info().
		Str("sessionId", session.ID).
		Str("threadId", threadID).
		Msg("research session queued")

	return session, nil
}

func (s *ResearchService) GetByID(ctx context.Context, sessionID string) (*model.ResearchSession, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if session == nil {
		return nil, apperrors.NotFound("Research session")
	}
	return session, nil
}

func (s *ResearchService) GetByThreadID(ctx context.Context, threadID string) (*model.ResearchSession, error) {
	session, err := s.sessions.FindByThreadID(ctx, threadID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if session == nil {
		return nil, apperrors.NotFound("Research session")
	}
	return session, nil
}

func (s *ResearchService) ListByUser(ctx context.Context, userID string) ([]model.ResearchSession, error) {
	sessions, err := s.sessions.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return sessions, nil
}

type ReportResult struct {
	Report        json.RawMessage `json:"report"`
	ResourcesUsed json.RawMessage `json:"resources_used,omitempty"`
}

// GetReport fetches a session's report. With an empty sessionID, the latest
// completed session's report is returned.
func (s *ResearchService) GetReport(ctx context.Context, sessionID string) (*ReportResult, error) {
	var session *model.ResearchSession
	var err error

	if sessionID != "" {
		session, err = s.sessions.FindByID(ctx, sessionID)
	} else {
		session, err = s.sessions.FindLatestCompleted(ctx)
	}
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if session == nil {
		return nil, apperrors.NotFound("Research session")
	}
	if session.Report == nil {
		return nil, apperrors.NotFound("Report")
	}

	result := &ReportResult{Report: *session.Report}
	if session.ResourcesUsed != nil {
		result.ResourcesUsed = *session.ResourcesUsed
	}
	return result, nil
}

// GenerateSearchParams asks the LLM for one search query per category,
// derived from the brief.
func (s *ResearchService) GenerateSearchParams(ctx context.Context, brief *model.ResearchBrief) (*model.SearchParams, error) {
	competitors := "similar products in the market"
	if len(brief.CompetitorNames) > 0 {
		competitors = strings.Join(brief.CompetitorNames, ", ")
	}
	platforms := "general advertising platforms"
	if len(brief.PreferredPlatforms) > 0 {
		platforms = strings.Join(brief.PreferredPlatforms, ", ")
	}

	prompt := fmt.Sprintf(`Based on the following research brief for an advertising campaign, generate comprehensive search queries for google search
that will help gather information for research. Create a single query for each category.

Guidelines:
1. Product Search Query: Generate a single query about the product/service, its features, market positioning,
   industry trends, and similar products. Focus on: %s
2. Competitor Search Query: Generate a single query about competitors, their marketing strategies, pricing,
   customer reviews, and market share. Include queries about "%s"
3. Audience Insight Query: Generate a single query about the target audience demographics, interests,
   behavior patterns, online presence, and purchasing habits. Focus on: %s
4. Campaign Strategy Query: Generate a single query about successful advertising campaigns, best practices,
   case studies, and strategies for achieving: %s
5. Platform-Specific Query: Generate a single query about best practices, targeting options, ad formats,
   and success stories for the preferred platforms. Platforms: %s

Make sure queries are specific, actionable, and will yield useful research results. Each query should be
distinct and cover different angles of the research topic.

Respond with a JSON object containing exactly these fields:
product_search_query, competitor_search_query, audience_insight_query,
campaign_strategy_query, platform_specific_query

Research Brief:
%s`, brief.ProductName, competitors, brief.TargetAudience, brief.CampaignGoals, platforms, formatBrief(brief))

	var params model.SearchParams
	if err := s.llm.GenerateJSON(ctx, "", prompt, &params); err != nil {
		return nil, err
	}
	return &params, nil
}
