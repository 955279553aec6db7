package profile

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/feels/backend/internal/model/profile"
	"github.com/zhouzirui/feels/backend/pkg/utils"
)

// Handler 对话配置的HTTP处理器
type Handler struct {
	profiles profile.Store
}

// New 创建配置处理器
func New(profiles profile.Store) *Handler {
	return &Handler{profiles: profiles}
}

// RegisterRoutes 注册配置相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/profiles", h.handleListProfiles)
}

func (h *Handler) handleListProfiles(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.profiles.List())
}
