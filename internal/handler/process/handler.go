package process

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/feels/backend/internal/model/chat"
	"github.com/zhouzirui/feels/backend/internal/service/conversation"
	"github.com/zhouzirui/feels/backend/internal/service/processor"
	"github.com/zhouzirui/feels/backend/pkg/utils"
)

const maxBodyBytes = 1 << 20

// Handler 暴露不经过大模型的文本预处理接口。
type Handler struct {
	processor *processor.Service
}

// New 创建预处理处理器
func New(proc *processor.Service) *Handler {
	return &Handler{processor: proc}
}

// RegisterRoutes 注册预处理路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/process", h.handleProcess)
}

type processResponse struct {
	Backend  string         `json:"backend"`
	Segments []chat.Segment `json:"segments"`
}

func (h *Handler) handleProcess(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Message *string `json:"message"`
	}
	if err := utils.DecodeJSON(w, r, maxBodyBytes, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Message == nil {
		utils.RespondError(w, http.StatusBadRequest, "message is required")
		return
	}

	segments := conversation.Segments(h.processor.Process(r.Context(), *payload.Message))
	utils.RespondJSON(w, http.StatusOK, processResponse{
		Backend:  h.processor.Classifier().Backend(),
		Segments: segments,
	})
}
