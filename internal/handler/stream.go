package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/advista/advista-server-go/internal/model"
	"github.com/advista/advista-server-go/internal/service"
	"github.com/advista/advista-server-go/internal/sse"
)

// StreamHandler serves the forum-analysis SSE endpoint. A session whose
// analysis already exists is replayed immediately; otherwise the client is
// attached to the thread's live pipeline events until the analysis lands.
type StreamHandler struct {
	broker          *sse.Broker
	researchService *service.ResearchService
}

func NewStreamHandler(broker *sse.Broker, researchService *service.ResearchService) *StreamHandler {
	return &StreamHandler{
		broker:          broker,
		researchService: researchService,
	}
}

// GET /reddit-analysis-stream/{sessionID}
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.findSession(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Streaming not supported"})
		return
	}

	setSSEHeaders(w)

	if analysis := forumAnalysis(session); analysis != nil {
		sendEvent(w, flusher, "analysis", map[string]any{"analysis": analysis})
		return
	}

	if session.Status.IsTerminal() {
		// Failed, or completed without forum results; nothing will arrive.
		sendEvent(w, flusher, sse.EventFailed, map[string]string{
			"error": "No forum analysis available for this session",
		})
		return
	}

	client := h.broker.Subscribe(session.ThreadID)
	defer h.broker.Unsubscribe(client)

	log.Info().
		Str("sessionId", session.ID).
		Str("threadId", session.ThreadID).
		Msg("forum analysis stream opened")

	ctx := r.Context()

	heartbeat := time.NewTicker(sse.HeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-client.Done:
			return

		case event := <-client.Events:
			if err := sendRawEvent(w, flusher, event); err != nil {
				log.Error().Err(err).Msg("failed to send event")
				return
			}

			switch event.Type {
			case sse.EventCompleted:
				h.replayAnalysis(ctx, w, flusher, session.ID)
				return
			case sse.EventFailed:
				return
			}

		case <-heartbeat.C:
			if err := sendHeartbeat(w, flusher); err != nil {
				return
			}
		}
	}
}

func (h *StreamHandler) findSession(ctx context.Context, id string) (*model.ResearchSession, error) {
	session, err := h.researchService.GetByID(ctx, id)
	if err == nil {
		return session, nil
	}
	return h.researchService.GetByThreadID(ctx, id)
}

func (h *StreamHandler) replayAnalysis(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, sessionID string) {
	session, err := h.researchService.GetByID(ctx, sessionID)
	if err != nil {
		log.Error().Err(err).Str("sessionId", sessionID).Msg("failed to reload session for analysis replay")
		return
	}
	if analysis := forumAnalysis(session); analysis != nil {
		sendEvent(w, flusher, "analysis", map[string]any{"analysis": analysis})
	}
}

// forumAnalysis extracts the forum-sourced insights (audience and competitor
// categories run through the forums engine) from a session's processed
// results. Nil when the session has not been processed yet.
func forumAnalysis(session *model.ResearchSession) map[string]any {
	if session.ProcessedResults == nil {
		return nil
	}

	var processed model.ProcessedResults
	if err := json.Unmarshal(*session.ProcessedResults, &processed); err != nil {
		log.Warn().Err(err).Str("sessionId", session.ID).Msg("malformed processed results")
		return nil
	}

	if processed.AudienceInsights == nil && processed.CompetitorInsights == nil {
		return nil
	}

	return map[string]any{
		"audience_insights":   processed.AudienceInsights,
		"competitor_insights": processed.CompetitorInsights,
	}
}
