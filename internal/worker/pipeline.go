package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/advista/advista-server-go/internal/config"
	apperrors "github.com/advista/advista-server-go/internal/errors"
	"github.com/advista/advista-server-go/internal/model"
	redisclient "github.com/advista/advista-server-go/internal/redis"
	"github.com/advista/advista-server-go/internal/repository"
	"github.com/advista/advista-server-go/internal/search"
	"github.com/advista/advista-server-go/internal/service"
	"github.com/advista/advista-server-go/internal/sse"
)

const queuePopTimeout = 5 * time.Second

// Pipeline runs queued research sessions through the four stages:
// researching, processing, synthesizing, completed. Progress is published to
// the session's thread channel so SSE clients can follow along.
type Pipeline struct {
	sessions  repository.ResearchSessionRepository
	research  *service.ResearchService
	serp      *search.SerpClient
	youtube   *search.YouTubeService
	analysis  *service.AnalysisService
	synthesis *service.SynthesisService
	redis     *redisclient.Client
	broker    *sse.Broker

	workers int
	wg      sync.WaitGroup
	cancel  context.CancelFunc
}

func NewPipeline(
	sessions repository.ResearchSessionRepository,
	research *service.ResearchService,
	serp *search.SerpClient,
	youtube *search.YouTubeService,
	analysis *service.AnalysisService,
	synthesis *service.SynthesisService,
	redisClient *redisclient.Client,
	broker *sse.Broker,
	workers int,
) *Pipeline {
	if workers < 1 {
		workers = 1
	}
	return &Pipeline{
		sessions:  sessions,
		research:  research,
		serp:      serp,
		youtube:   youtube,
		analysis:  analysis,
		synthesis: synthesis,
		redis:     redisClient,
		broker:    broker,
		workers:   workers,
	}
}

func (p *Pipeline) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
	log.Info().Int("workers", p.workers).Msg("research pipeline started")
}

func (p *Pipeline) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	log.Info().Msg("research pipeline stopped")
}

func (p *Pipeline) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		entries, err := p.redis.BRPop(ctx, queuePopTimeout, redisclient.ResearchQueueKey).Result()
		if err != nil {
			if errors.Is(err, goredis.Nil) || errors.Is(err, context.Canceled) {
				continue
			}
			log.Error().Err(err).Int("worker", id).Msg("queue pop failed")
			continue
		}
		if len(entries) < 2 {
			continue
		}

		var task model.ResearchTask
		if err := json.Unmarshal([]byte(entries[1]), &task); err != nil {
			log.Error().Err(err).Int("worker", id).Msg("malformed research task dropped")
			continue
		}

		log.Info().
			Int("worker", id).
			Str("sessionId", task.SessionID).
			Msg("research task picked up")

		if err := p.run(ctx, task); err != nil {
			log.Error().
				Err(err).
				Str("sessionId", task.SessionID).
				Msg("research pipeline failed")
		}
	}
}

// run executes the full pipeline for one task. Any stage error marks the
// session failed and notifies stream clients.
func (p *Pipeline) run(ctx context.Context, task model.ResearchTask) error {
	session, err := p.sessions.FindByID(ctx, task.SessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return apperrors.NotFound("Research session")
	}
	if session.Status != model.ResearchStatusPending {
		log.Warn().
			Str("sessionId", session.ID).
			Str("status", string(session.Status)).
			Msg("skipping task for non-pending session")
		return nil
	}

	var brief model.ResearchBrief
	if err := json.Unmarshal(session.ResearchBrief, &brief); err != nil {
		return p.fail(ctx, task, "pending", "invalid research brief: "+err.Error())
	}

	if err := p.transition(ctx, task, model.ResearchStatusPending, model.ResearchStatusResearching); err != nil {
		return err
	}

	collection, err := p.runSearches(ctx, task, &brief)
	if err != nil {
		return p.fail(ctx, task, "researching", err.Error())
	}

	youtube := p.runYouTube(ctx, task, &brief)

	rawResults, err := json.Marshal(struct {
		*model.SearchResultsCollection
		YouTube *model.YouTubeInsights `json:"youtube,omitempty"`
	}{collection, youtube})
	if err != nil {
		return p.fail(ctx, task, "researching", "failed to encode search results: "+err.Error())
	}
	if err := p.sessions.SaveSearchResults(ctx, task.SessionID, rawResults); err != nil {
		return p.fail(ctx, task, "researching", "failed to save search results: "+err.Error())
	}

	if err := p.transition(ctx, task, model.ResearchStatusResearching, model.ResearchStatusProcessing); err != nil {
		return err
	}

	processed := p.analysis.Process(collection, youtube)
	processedJSON, err := json.Marshal(processed)
	if err != nil {
		return p.fail(ctx, task, "processing", "failed to encode processed results: "+err.Error())
	}
	if err := p.sessions.SaveProcessedResults(ctx, task.SessionID, processedJSON); err != nil {
		return p.fail(ctx, task, "processing", "failed to save processed results: "+err.Error())
	}

	if err := p.transition(ctx, task, model.ResearchStatusProcessing, model.ResearchStatusSynthesizing); err != nil {
		return err
	}

	synthCtx, cancel := context.WithTimeout(ctx, config.PipelineStageTimeout)
	report, err := p.synthesis.SynthesizeAll(synthCtx, processed, &brief)
	cancel()
	if err != nil {
		return p.fail(ctx, task, "synthesizing", err.Error())
	}

	reportJSON, err := json.Marshal(report)
	if err != nil {
		return p.fail(ctx, task, "synthesizing", "failed to encode report: "+err.Error())
	}
	resourcesJSON, err := json.Marshal(buildResourcesUsed(processed))
	if err != nil {
		return p.fail(ctx, task, "synthesizing", "failed to encode resources: "+err.Error())
	}
	if err := p.sessions.SaveReport(ctx, task.SessionID, reportJSON, resourcesJSON); err != nil {
		return p.fail(ctx, task, "synthesizing", "failed to save report: "+err.Error())
	}

	if err := p.transition(ctx, task, model.ResearchStatusSynthesizing, model.ResearchStatusCompleted); err != nil {
		return err
	}

	p.publish(ctx, task.ThreadID, sse.EventCompleted, map[string]any{
		"sessionId":    task.SessionID,
		"totalSources": processed.TotalSources,
	})

	log.Info().Str("sessionId", task.SessionID).Msg("research completed")
	return nil
}

// runSearches fires every category query concurrently. Individual failures
// are carried in the results; only an entirely empty batch is an error.
func (p *Pipeline) runSearches(ctx context.Context, task model.ResearchTask, brief *model.ResearchBrief) (*model.SearchResultsCollection, error) {
	paramsCtx, cancel := context.WithTimeout(ctx, config.PipelineStageTimeout)
	params, err := p.research.GenerateSearchParams(paramsCtx, brief)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("search param generation failed: %w", err)
	}

	queries := params.Categories()
	if len(queries) == 0 {
		return nil, errors.New("no search queries generated from brief")
	}

	taskIDs := categoryTaskIDs(queries)
	if raw, err := json.Marshal(taskIDs); err == nil {
		if err := p.sessions.SaveTaskIDs(ctx, task.SessionID, raw); err != nil {
			log.Warn().Err(err).Str("sessionId", task.SessionID).Msg("failed to save task ids")
		}
	}

	collection := &model.SearchResultsCollection{}
	var mu sync.Mutex

	searchCtx, cancel := context.WithTimeout(ctx, config.PipelineStageTimeout)
	defer cancel()

	g, gctx := errgroup.WithContext(searchCtx)
	for _, cq := range queries {
		cq := cq
		g.Go(func() error {
			result := p.serp.RunCategorySearch(gctx, cq)
			mu.Lock()
			collection.Add(result)
			mu.Unlock()

			p.publish(ctx, task.ThreadID, sse.EventStage, map[string]any{
				"stage":    "search",
				"category": cq.Category,
				"taskId":   taskIDs[cq.Category],
				"ok":       !result.HasError(),
			})
			return nil
		})
	}
	// Workers never return errors; Wait only observes context cancellation.
	_ = g.Wait()

	succeeded := 0
	for _, cq := range queries {
		for _, r := range collection.ByCategory(cq.Category) {
			if !r.HasError() {
				succeeded++
			}
		}
	}
	if succeeded == 0 {
		return nil, errors.New("all searches failed or timed out")
	}
	return collection, nil
}

// runYouTube is best effort; a failure drops YouTube insights but does not
// fail the session.
func (p *Pipeline) runYouTube(ctx context.Context, task model.ResearchTask, brief *model.ResearchBrief) *model.YouTubeInsights {
	query := brief.ProductName
	if query == "" {
		query = "advertising"
	}

	ytCtx, cancel := context.WithTimeout(ctx, config.PipelineStageTimeout)
	defer cancel()

	insights, err := p.youtube.Research(ytCtx, query)
	if err != nil {
		log.Warn().Err(err).Str("sessionId", task.SessionID).Msg("youtube research failed, continuing without")
		return nil
	}

	p.publish(ctx, task.ThreadID, sse.EventStage, map[string]any{
		"stage":  "youtube",
		"videos": len(insights.Videos),
		"shorts": len(insights.Shorts),
	})
	return insights
}

func (p *Pipeline) transition(ctx context.Context, task model.ResearchTask, from, to model.ResearchSessionStatus) error {
	if err := p.sessions.UpdateStatus(ctx, task.SessionID, from, to); err != nil {
		return err
	}
	p.publish(ctx, task.ThreadID, sse.EventStatus, map[string]any{
		"sessionId": task.SessionID,
		"status":    string(to),
	})
	return nil
}

func (p *Pipeline) fail(ctx context.Context, task model.ResearchTask, stage, message string) error {
	meta, _ := json.Marshal(model.SessionMeta{
		ErrorMessage: message,
		FailedStage:  stage,
	})
	if err := p.sessions.MarkFailed(ctx, task.SessionID, meta); err != nil {
		log.Error().Err(err).Str("sessionId", task.SessionID).Msg("failed to mark session failed")
	}
	p.publish(ctx, task.ThreadID, sse.EventFailed, map[string]any{
		"sessionId": task.SessionID,
		"stage":     stage,
		"error":     message,
	})
	return apperrors.PipelineFailed(message)
}

func (p *Pipeline) publish(ctx context.Context, threadID, eventType string, payload any) {
	if err := p.broker.PublishJSON(ctx, threadID, eventType, payload); err != nil {
		log.Warn().Err(err).Str("threadId", threadID).Msg("failed to publish pipeline event")
	}
}

// categoryTaskIDs assigns a dispatch id to each category query so clients
// can correlate per-category progress events with the stored session.
func categoryTaskIDs(queries []model.CategoryQuery) map[string]string {
	ids := make(map[string]string, len(queries))
	for _, cq := range queries {
		ids[cq.Category] = uuid.NewString()
	}
	return ids
}

// clipSnippet shortens s to at most max bytes without splitting a rune.
func clipSnippet(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

type categoryResources struct {
	Category  string             `json:"category"`
	Query     string             `json:"query"`
	Source    string             `json:"source"`
	Resources []resourceListItem `json:"resources"`
}

type resourceListItem struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Source  string `json:"source"`
	Snippet string `json:"snippet"`
}

// Forum-backed categories are labelled separately so the client can group
// them under community research.
func resourceSourceLabel(category string) string {
	switch category {
	case model.CategoryAudience, model.CategoryCompetitor:
		return "reddit_forums"
	default:
		return "google"
	}
}

func buildResourcesUsed(processed *model.ProcessedResults) map[string]any {
	categories := []categoryResources{}
	for _, insights := range processed.AllInsights() {
		resources := make([]resourceListItem, 0, len(insights.TopResults))
		for _, r := range insights.TopResults {
			resources = append(resources, resourceListItem{
				Title:   r.Title,
				Link:    r.Link,
				Source:  r.Source,
				Snippet: clipSnippet(r.Snippet, 200),
			})
		}
		categories = append(categories, categoryResources{
			Category:  insights.Category,
			Query:     insights.Query,
			Source:    resourceSourceLabel(insights.Category),
			Resources: resources,
		})
	}

	var youtube map[string]any
	if yt := processed.YouTubeInsights; yt != nil {
		videos := make([]map[string]any, 0, len(yt.Videos))
		for _, v := range yt.Videos {
			videos = append(videos, map[string]any{
				"title":          v.Title,
				"link":           v.Link,
				"channel":        v.Channel,
				"video_id":       v.VideoID,
				"published_date": v.PublishedDate,
				"transcript":     v.Transcript,
			})
		}
		shorts := make([]map[string]any, 0, len(yt.Shorts))
		for _, s := range yt.Shorts {
			shorts = append(shorts, map[string]any{
				"title":          s.Title,
				"link":           s.Link,
				"video_id":       s.VideoID,
				"views_original": s.ViewsOriginal,
				"transcript":     s.Transcript,
			})
		}
		youtube = map[string]any{
			"query":  yt.Query,
			"videos": videos,
			"shorts": shorts,
		}
	}

	return map[string]any{
		"categories": categories,
		"youtube":    youtube,
	}
}
