package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/code-companion/backend/internal/model/catalog"
	chatService "github.com/zhouzirui/code-companion/backend/internal/service/chat"
	"github.com/zhouzirui/code-companion/backend/pkg/utils"
)

// Handler 模型目录的HTTP处理器
type Handler struct {
	models   catalog.Store
	settings chatService.Settings
}

// New 创建模型目录处理器
func New(models catalog.Store, settings chatService.Settings) *Handler {
	return &Handler{
		models:   models,
		settings: settings,
	}
}

// RegisterRoutes 注册模型目录相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/models", h.handleListModels)
}

// ListResponse 模型列表及上下文窗口范围
type ListResponse struct {
	Models        []catalog.Option `json:"models"`
	Default       string           `json:"default"`
	ContextWindow int              `json:"contextWindow"`
	ContextMin    int              `json:"contextMin"`
	ContextMax    int              `json:"contextMax"`
}

// handleListModels 列出可选模型
func (h *Handler) handleListModels(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, ListResponse{
		Models:        h.models.List(),
		Default:       h.models.Default().ID,
		ContextWindow: h.settings.ContextWindow,
		ContextMin:    h.settings.ContextMin,
		ContextMax:    h.settings.ContextMax,
	})
}
