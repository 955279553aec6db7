package stream

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zhouzirui/feels/backend/internal/model/chat"
	"github.com/zhouzirui/feels/backend/internal/observability"
	chatService "github.com/zhouzirui/feels/backend/internal/service/chat"
	"github.com/zhouzirui/feels/backend/internal/service/conversation"
	"github.com/zhouzirui/feels/backend/pkg/utils"
)

// Handler manages streaming AI responses via Server-Sent Events
type Handler struct {
	conversations *conversation.Service
	metrics       *observability.Metrics
	logger        *zap.Logger
}

// New creates a new stream handler
func New(conversations *conversation.Service, metrics *observability.Metrics, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		conversations: conversations,
		metrics:       metrics,
		logger:        logger,
	}
}

// RegisterRoutes 注册 SSE 路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/stream/{sessionID}", h.handleStream)
}

// StreamResponse represents a streaming response chunk
type StreamResponse struct {
	Event     string         `json:"event"`
	Content   string         `json:"content,omitempty"`
	SessionID string         `json:"sessionId,omitempty"`
	MessageID string         `json:"messageId,omitempty"`
	Segments  *[]chat.Segment `json:"segments,omitempty"`
	Finished  bool           `json:"finished,omitempty"`
	Error     string         `json:"error,omitempty"`
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	userMessage := r.URL.Query().Get("message")

	if h.conversations == nil || !h.conversations.Available() {
		utils.RespondError(w, http.StatusServiceUnavailable, "ai streaming unavailable")
		return
	}
	if userMessage == "" {
		utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
		return
	}
	if _, _, err := h.conversations.Resolve(r.Context(), sessionID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, chatService.ErrSessionNotFound) {
			status = http.StatusNotFound
		}
		utils.RespondError(w, status, err.Error())
		return
	}

	if err := h.HandleStreamRequest(r.Context(), w, sessionID, userMessage); err != nil {
		h.logger.Warn("stream request failed", zap.String("session", sessionID), zap.Error(err))
	}
}

// HandleStreamRequest runs one chat turn and streams it as SSE events:
// start, delta*, message, segments, end. Failures after the headers are sent become an error event.
func (h *Handler) HandleStreamRequest(ctx context.Context, w http.ResponseWriter, sessionID string, userMessage string) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return fmt.Errorf("streaming unsupported")
	}
	defer h.metrics.StreamOpened()()

	utils.SetupSSEHeaders(w)

	_, p, err := h.conversations.Resolve(ctx, sessionID)
	if err != nil {
		h.sendSSEError(w, flusher, fmt.Sprintf("failed to resolve session: %v", err))
		return err
	}

	h.sendSSE(w, flusher, StreamResponse{
		Event:     "start",
		SessionID: sessionID,
		Content:   p.Name,
	})

	turn, err := h.conversations.Respond(ctx, sessionID, userMessage, func(delta string) {
		h.sendSSE(w, flusher, StreamResponse{
			Event:     "delta",
			SessionID: sessionID,
			Content:   delta,
		})
	})
	if err != nil {
		h.sendSSEError(w, flusher, fmt.Sprintf("AI generation failed: %v", err))
		return err
	}

	h.sendSSE(w, flusher, StreamResponse{
		Event:     "message",
		SessionID: sessionID,
		MessageID: turn.Reply.ID,
		Content:   turn.Reply.Content,
	})

	segments := turn.Segments
	if segments == nil {
		segments = []chat.Segment{}
	}
	h.sendSSE(w, flusher, StreamResponse{
		Event:     "segments",
		SessionID: sessionID,
		MessageID: turn.Reply.ID,
		Segments:  &segments,
	})

	h.sendSSE(w, flusher, StreamResponse{
		Event:     "end",
		SessionID: sessionID,
		Finished:  true,
	})

	h.logger.Info("stream completed", zap.String("session", sessionID), zap.String("profile", p.ID))
	return nil
}

func (h *Handler) sendSSE(w http.ResponseWriter, flusher http.Flusher, response StreamResponse) {
	utils.SendSSEChunk(w, flusher, response)
}

func (h *Handler) sendSSEError(w http.ResponseWriter, flusher http.Flusher, errorMsg string) {
	h.sendSSE(w, flusher, StreamResponse{
		Event: "error",
		Error: errorMsg,
	})
}
