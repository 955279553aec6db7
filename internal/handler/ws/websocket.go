package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/zhouzirui/feels/backend/internal/observability"
	chatService "github.com/zhouzirui/feels/backend/internal/service/chat"
	"github.com/zhouzirui/feels/backend/internal/service/conversation"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
	maxFrameSize = 1 << 20
)

// Handler WebSocket文本对话处理器
type Handler struct {
	conversations *conversation.Service
	metrics       *observability.Metrics
	logger        *zap.Logger
	upgrader      websocket.Upgrader
}

// New 创建WebSocket处理器
func New(conversations *conversation.Service, metrics *observability.Metrics, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		conversations: conversations,
		metrics:       metrics,
		logger:        logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册WebSocket路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// TextMessage 文本消息
type TextMessage struct {
	Text string `json:"text"`
}

// ConfigMessage 配置消息
type ConfigMessage struct {
	StreamMode *bool `json:"streamMode,omitempty"`
	Segments   *bool `json:"segments,omitempty"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

type connectionState struct {
	id         string
	sessionID  string
	profileID  string
	streamMode bool
	segments   bool
}

func newConnectionState(sessionID, profileID string) *connectionState {
	return &connectionState{
		id:         uuid.NewString(),
		sessionID:  sessionID,
		profileID:  profileID,
		streamMode: true,
		segments:   true,
	}
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		http.Error(w, "sessionID is required", http.StatusBadRequest)
		return
	}
	if h.conversations == nil {
		http.Error(w, "chat service unavailable", http.StatusServiceUnavailable)
		return
	}

	_, p, err := h.conversations.Resolve(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, chatService.ErrSessionNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		http.Error(w, "profile not found", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	defer h.metrics.StreamOpened()()

	state := newConnectionState(sessionID, p.ID)
	logger := h.logger.With(zap.String("session", sessionID), zap.String("conn", state.id))
	logger.Info("websocket connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadLimit(maxFrameSize)
	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	writer := &connWriter{conn: conn, logger: logger}
	go writer.pingLoop(ctx)

	writer.sendInfo(sessionID, map[string]any{
		"type":    "connected",
		"profile": p.ID,
		"conn":    state.id,
	})

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("websocket read error", zap.Error(err))
			}
			return
		}

		conn.SetReadDeadline(time.Now().Add(readTimeout))

		if msg.SessionID != "" && msg.SessionID != sessionID {
			writer.sendError("session mismatch")
			continue
		}

		h.handleMessage(ctx, writer, state, &msg)
	}
}

func (h *Handler) handleMessage(ctx context.Context, writer *connWriter, state *connectionState, msg *inboundMessage) {
	switch msg.Type {
	case "text":
		h.handleTextMessage(ctx, writer, state, msg.Data)
	case "config":
		h.handleConfigMessage(writer, state, msg.Data)
	default:
		writer.sendError("unsupported message type: " + msg.Type)
	}
}

func (h *Handler) handleTextMessage(ctx context.Context, writer *connWriter, state *connectionState, raw json.RawMessage) {
	var text TextMessage
	if err := json.Unmarshal(raw, &text); err != nil {
		writer.sendError("invalid text payload")
		return
	}
	if text.Text == "" {
		return
	}

	writer.sendInfo(state.sessionID, map[string]any{
		"type": "user",
		"text": text.Text,
	})

	var onDelta func(string)
	if state.streamMode {
		onDelta = func(delta string) {
			writer.sendInfo(state.sessionID, map[string]any{
				"type": "ai_delta",
				"text": delta,
			})
		}
	}

	turn, err := h.conversations.Respond(ctx, state.sessionID, text.Text, onDelta)
	if err != nil {
		writer.sendError("ai generation failed: " + err.Error())
		return
	}

	writer.sendInfo(state.sessionID, map[string]any{
		"type":      "ai",
		"messageId": turn.Reply.ID,
		"text":      turn.Reply.Content,
		"isFinal":   true,
	})

	if state.segments {
		writer.sendInfo(state.sessionID, map[string]any{
			"type":      "segments",
			"messageId": turn.Reply.ID,
			"segments":  turn.Segments,
		})
	}
}

func (h *Handler) handleConfigMessage(writer *connWriter, state *connectionState, raw json.RawMessage) {
	var cfg ConfigMessage
	if err := json.Unmarshal(raw, &cfg); err != nil {
		writer.sendError("invalid config payload")
		return
	}

	applyConfig(state, cfg)

	writer.sendInfo(state.sessionID, map[string]any{
		"type":       "config",
		"profile":    state.profileID,
		"streamMode": state.streamMode,
		"segments":   state.segments,
	})
}

func applyConfig(state *connectionState, cfg ConfigMessage) {
	if cfg.StreamMode != nil {
		state.streamMode = *cfg.StreamMode
	}
	if cfg.Segments != nil {
		state.segments = *cfg.Segments
	}
}
