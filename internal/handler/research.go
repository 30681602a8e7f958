package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	apperrors "github.com/advista/advista-server-go/internal/errors"
	"github.com/advista/advista-server-go/internal/middleware"
	"github.com/advista/advista-server-go/internal/model"
	"github.com/advista/advista-server-go/internal/service"
)

type ResearchHandler struct {
	researchService *service.ResearchService
	chatService     *service.ChatService
	requireAuth     func(http.Handler) http.Handler
}

func NewResearchHandler(researchService *service.ResearchService, chatService *service.ChatService, requireAuth func(http.Handler) http.Handler) *ResearchHandler {
	return &ResearchHandler{
		researchService: researchService,
		chatService:     chatService,
		requireAuth:     requireAuth,
	}
}

func (h *ResearchHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/start", h.Start)
	r.Get("/report", h.GetReport)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Get("/sessions", h.ListSessions)
	})

	return r
}

type startResearchRequest struct {
	ThreadID      string               `json:"thread_id"`
	UserID        *string              `json:"user_id,omitempty"`
	ResearchBrief *model.ResearchBrief `json:"research_brief,omitempty"`
}

// POST /research/start
//
// The brief may be sent inline (the client confirmed an edited brief) or
// omitted, in which case the brief collected on the chat thread is used.
func (h *ResearchHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startResearchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.ThreadID == "" {
		writeError(w, apperrors.MissingRequired("thread_id"))
		return
	}

	userID := req.UserID
	if user := middleware.GetUser(r.Context()); user != nil {
		userID = &user.ID
	}

	brief := req.ResearchBrief
	if brief == nil {
		_, stored, err := h.chatService.GetBrief(r.Context(), req.ThreadID)
		if err != nil {
			writeError(w, err)
			return
		}
		brief = stored
	}

	session, err := h.researchService.Start(r.Context(), req.ThreadID, userID, brief)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"status":     "accepted",
		"message":    "Research started",
		"session_id": session.ID,
		"thread_id":  session.ThreadID,
		"brief":      brief,
	})
}

// findSession resolves a path parameter that may be either a research
// session id or a chat thread id.
func (h *ResearchHandler) findSession(r *http.Request, id string) (*model.ResearchSession, error) {
	session, err := h.researchService.GetByID(r.Context(), id)
	if err == nil {
		return session, nil
	}
	if apperrors.GetCode(err) != apperrors.ErrCodeNotFound {
		return nil, err
	}
	return h.researchService.GetByThreadID(r.Context(), id)
}

// GET /results/{sessionID}
func (h *ResearchHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	session, err := h.findSession(r, chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id":        session.ID,
		"thread_id":         session.ThreadID,
		"status":            session.Status,
		"search_results":    rawOrNil(session.SearchResults),
		"processed_results": rawOrNil(session.ProcessedResults),
		"analyses":          rawOrNil(session.Report),
		"processed":         session.Status == model.ResearchStatusCompleted,
		"created_at":        session.CreatedAt,
		"completed_at":      session.CompletedAt,
	})
}

// GET /analyses/{sessionID}
func (h *ResearchHandler) GetAnalyses(w http.ResponseWriter, r *http.Request) {
	session, err := h.findSession(r, chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": session.ID,
		"analyses":   rawOrNil(session.Report),
		"processed":  session.Status == model.ResearchStatusCompleted,
	})
}

// GET /research/report?session_id=
func (h *ResearchHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")

	result, err := h.researchService.GetReport(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "success",
		"report":         result.Report,
		"resources_used": result.ResourcesUsed,
	})
}

// GET /research/sessions
func (h *ResearchHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeError(w, apperrors.Unauthorized("Authentication required"))
		return
	}

	sessions, err := h.researchService.ListByUser(r.Context(), user.ID)
	if err != nil {
		log.Error().Err(err).Str("userId", user.ID).Msg("failed to list research sessions")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

func rawOrNil(raw *json.RawMessage) any {
	if raw == nil {
		return nil
	}
	return *raw
}
