package chat

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/feels/backend/internal/model/chat"
	"github.com/zhouzirui/feels/backend/internal/model/profile"
	chatService "github.com/zhouzirui/feels/backend/internal/service/chat"
	"github.com/zhouzirui/feels/backend/pkg/utils"
)

const maxBodyBytes = 1 << 20

// Handler 聊天服务的HTTP处理器
type Handler struct {
	chatSvc  *chatService.Service
	profiles profile.Store
}

// New 创建聊天处理器
func New(chatSvc *chatService.Service, profiles profile.Store) *Handler {
	return &Handler{
		chatSvc:  chatSvc,
		profiles: profiles,
	}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleCreateSession)
	r.Post("/messages", h.handleSaveMessage)
	r.Get("/session/{sessionID}/messages", h.handleTranscript)
}

type sessionResponse struct {
	chat.Session
	Profile     profile.Profile `json:"profile"`
	OpeningLine string          `json:"openingLine"`
}

// handleCreateSession 创建会话；未指定配置时使用默认配置
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ProfileID string `json:"profileId"`
	}

	if err := utils.DecodeJSON(w, r, maxBodyBytes, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if payload.ProfileID == "" {
		payload.ProfileID = h.profiles.Default().ID
	}

	p, ok := h.profiles.FindByID(payload.ProfileID)
	if !ok {
		utils.RespondError(w, http.StatusBadRequest, "profile not found")
		return
	}

	session, err := h.chatSvc.CreateSession(r.Context(), p.ID)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusCreated, sessionResponse{
		Session:     session,
		Profile:     p,
		OpeningLine: p.OpeningLine(),
	})
}

// handleSaveMessage 保存消息
func (h *Handler) handleSaveMessage(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID string `json:"sessionId"`
		Sender    string `json:"sender"`
		Content   string `json:"content"`
	}

	if err := utils.DecodeJSON(w, r, maxBodyBytes, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch payload.Sender {
	case "user", "assistant":
	default:
		utils.RespondError(w, http.StatusBadRequest, "sender must be user or assistant")
		return
	}

	message := chat.Message{
		SessionID: payload.SessionID,
		Sender:    payload.Sender,
		Content:   payload.Content,
	}

	saved, err := h.chatSvc.SaveMessage(r.Context(), message)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, chatService.ErrSessionNotFound) {
			status = http.StatusNotFound
		}
		utils.RespondError(w, status, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusAccepted, map[string]string{"status": "queued", "id": saved.ID})
}

func (h *Handler) handleTranscript(w http.ResponseWriter, r *http.Request) {
	messages, err := h.chatSvc.LoadTranscript(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, chatService.ErrSessionNotFound) {
			status = http.StatusNotFound
		}
		utils.RespondError(w, status, err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusOK, messages)
}
