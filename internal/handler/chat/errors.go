package chat

import (
	"errors"
	"net/http"

	"github.com/zhouzirui/code-companion/backend/internal/logging"
	"github.com/zhouzirui/code-companion/backend/internal/model/chat"
	chatService "github.com/zhouzirui/code-companion/backend/internal/service/chat"
	"github.com/zhouzirui/code-companion/backend/pkg/utils"
)

// StatusFor 将服务层错误映射为HTTP状态码
func StatusFor(err error) int {
	switch {
	case errors.Is(err, chatService.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, chatService.ErrSessionBusy):
		return http.StatusConflict
	case errors.Is(err, chatService.ErrInferenceFailed):
		return http.StatusBadGateway
	case errors.Is(err, chatService.ErrEmptyMessage),
		errors.Is(err, chatService.ErrEmptyHistory),
		errors.Is(err, chatService.ErrInvalidContextSize),
		errors.Is(err, chatService.ErrUnknownModel),
		errors.Is(err, chat.ErrInvalidHistory):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// RespondServiceError 发送服务层错误
func RespondServiceError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		logger := logging.Component("chat")
		logger.Error().Err(err).Int("status", status).Msg("request failed")
	}
	utils.RespondError(w, status, err.Error())
}
