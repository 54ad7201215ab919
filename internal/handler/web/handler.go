package web

import (
	"embed"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/code-companion/backend/internal/logging"
)

//go:embed static/index.html
var static embed.FS

// Handler 提供单页前端
type Handler struct {
	page   []byte
	logger zerolog.Logger
}

// New 创建前端处理器
func New() *Handler {
	page, err := static.ReadFile("static/index.html")
	if err != nil {
		panic(err)
	}
	return &Handler{page: page, logger: logging.Component("web")}
}

// RegisterRoutes 注册页面路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.handleIndex)
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	if _, err := w.Write(h.page); err != nil {
		h.logger.Debug().Err(err).Msg("write page failed")
	}
}
