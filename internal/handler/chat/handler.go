package chat

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/code-companion/backend/internal/logging"
	"github.com/zhouzirui/code-companion/backend/internal/model/chat"
	chatService "github.com/zhouzirui/code-companion/backend/internal/service/chat"
	"github.com/zhouzirui/code-companion/backend/pkg/utils"
)

// 导入文件大小上限
const maxImportBytes = 4 << 20

// ExportFilename 导出文件名
const ExportFilename = "chat_history.json"

// Handler 会话服务的HTTP处理器
type Handler struct {
	chatSvc    *chatService.Service
	controller *chatService.Controller
	logger     zerolog.Logger
}

// New 创建会话处理器; controller 为空时发送消息返回503
func New(chatSvc *chatService.Service, controller *chatService.Controller) *Handler {
	return &Handler{
		chatSvc:    chatSvc,
		controller: controller,
		logger:     logging.Component("chat"),
	}
}

// RegisterRoutes 注册会话相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleCreateSession)
	r.Route("/session/{sessionID}", func(r chi.Router) {
		r.Get("/", h.handleGetSession)
		r.Delete("/", h.handleDeleteSession)
		r.Patch("/settings", h.handleUpdateSettings)
		r.Post("/messages", h.handleSendMessage)
		r.Post("/clear", h.handleClear)
		r.Get("/export", h.handleExport)
		r.Post("/import", h.handleImport)
	})
}

type settingsPayload struct {
	Model       string `json:"model"`
	ContextSize int    `json:"contextSize"`
}

// handleCreateSession 创建会话, 请求体可为空
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload settingsPayload
	if err := decodeOptional(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.chatSvc.CreateSession(r.Context(), payload.Model, payload.ContextSize)
	if err != nil {
		RespondServiceError(w, err)
		return
	}

	h.logger.Info().
		Str("session", session.ID).
		Str("model", session.Model).
		Int("window", session.ContextSize).
		Msg("session created")
	utils.RespondJSON(w, http.StatusCreated, session)
}

// handleGetSession 获取会话及历史
func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.chatSvc.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		RespondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, session)
}

// handleDeleteSession 删除会话
func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.chatSvc.DeleteSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		RespondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleUpdateSettings 切换模型或上下文窗口
func (h *Handler) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var payload settingsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.chatSvc.Configure(r.Context(), chi.URLParam(r, "sessionID"), payload.Model, payload.ContextSize)
	if err != nil {
		RespondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, session)
}

// MessageResponse 同步对话的响应
type MessageResponse struct {
	Response string      `json:"response"`
	History  []chat.Turn `json:"history"`
}

// handleSendMessage 同步完成一轮对话
func (h *Handler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	if h.controller == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "ai service unavailable")
		return
	}

	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	reply, err := h.controller.Submit(r.Context(), sessionID, payload.Message, nil)
	if err != nil {
		RespondServiceError(w, err)
		return
	}

	turns, err := h.chatSvc.Transcript(r.Context(), sessionID)
	if err != nil {
		RespondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, MessageResponse{Response: reply, History: turns})
}

// handleClear 清空历史, 只保留问候语
func (h *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	session, err := h.chatSvc.Clear(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		RespondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, session)
}

// handleExport 下载历史记录
func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := h.chatSvc.Export(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		RespondServiceError(w, err)
		return
	}
	utils.RespondAttachment(w, ExportFilename, "application/json", data)
}

// handleImport 用导出的文件替换历史
func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		utils.RespondError(w, http.StatusRequestEntityTooLarge, "import document too large")
		return
	}

	session, err := h.chatSvc.Import(r.Context(), chi.URLParam(r, "sessionID"), data)
	if err != nil {
		RespondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, session)
}

// decodeOptional 解析可选的JSON请求体
func decodeOptional(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
