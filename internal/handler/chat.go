package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	apperrors "github.com/advista/advista-server-go/internal/errors"
	"github.com/advista/advista-server-go/internal/middleware"
	"github.com/advista/advista-server-go/internal/service"
	"github.com/advista/advista-server-go/internal/sse"
)

type ChatHandler struct {
	chatService *service.ChatService
}

func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

func (h *ChatHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/start", h.Start)
	r.Post("/message", h.Message)
	r.Post("/stream", h.Stream)
	r.Get("/{threadID}/brief", h.GetBrief)
	r.Get("/{threadID}/history", h.History)

	return r
}

// POST /chat/start
func (h *ChatHandler) Start(w http.ResponseWriter, r *http.Request) {
	var userID *string
	if user := middleware.GetUser(r.Context()); user != nil {
		userID = &user.ID
	}

	result, err := h.chatService.Start(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"thread_id": result.Session.ThreadID,
		"message":   result.Greeting,
		"session":   result.Session,
	})
}

type chatMessageRequest struct {
	ThreadID string `json:"thread_id"`
	Message  string `json:"message"`
}

// POST /chat/message
func (h *ChatHandler) Message(w http.ResponseWriter, r *http.Request) {
	var req chatMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.ThreadID == "" {
		writeError(w, apperrors.MissingRequired("thread_id"))
		return
	}

	reply, err := h.chatService.Message(r.Context(), req.ThreadID, req.Message)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"thread_id": req.ThreadID,
		"message":   reply,
	})
}

// POST /chat/stream
//
// Streams the assistant reply token by token, then emits the merged brief
// and a final done event.
func (h *ChatHandler) Stream(w http.ResponseWriter, r *http.Request) {
	var req chatMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.ThreadID == "" {
		writeError(w, apperrors.MissingRequired("thread_id"))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Streaming not supported"})
		return
	}

	setSSEHeaders(w)

	reply, brief, err := h.chatService.Stream(r.Context(), req.ThreadID, req.Message, func(token string) error {
		return sendEvent(w, flusher, sse.EventToken, map[string]string{"token": token})
	})
	if err != nil {
		// Headers are already sent; deliver the failure in-stream.
		log.Error().Err(err).Str("threadId", req.ThreadID).Msg("chat stream failed")
		sendEvent(w, flusher, sse.EventFailed, map[string]string{"error": err.Error()})
		return
	}

	if brief != nil {
		sendEvent(w, flusher, "brief", map[string]any{
			"brief":                 brief,
			"completion_percentage": brief.CompletionPercentage(),
			"is_complete":           brief.IsComplete(),
			"missing_fields":        brief.MissingFields(),
		})
	}

	sendEvent(w, flusher, "done", map[string]string{
		"thread_id": req.ThreadID,
		"message":   reply,
	})
}

// GET /chat/{threadID}/brief
func (h *ChatHandler) GetBrief(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")

	session, brief, err := h.chatService.GetBrief(r.Context(), threadID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"thread_id":             threadID,
		"status":                session.Status,
		"brief":                 brief,
		"completion_percentage": brief.CompletionPercentage(),
		"is_complete":           brief.IsComplete(),
		"missing_fields":        brief.MissingFields(),
	})
}

// GET /chat/{threadID}/history
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")

	messages, err := h.chatService.History(r.Context(), threadID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"thread_id": threadID,
		"messages":  messages,
	})
}
