package stream

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	chatHandler "github.com/zhouzirui/code-companion/backend/internal/handler/chat"
	"github.com/zhouzirui/code-companion/backend/internal/logging"
	"github.com/zhouzirui/code-companion/backend/internal/model/chat"
	chatService "github.com/zhouzirui/code-companion/backend/internal/service/chat"
	"github.com/zhouzirui/code-companion/backend/internal/service/typing"
	"github.com/zhouzirui/code-companion/backend/pkg/utils"
)

// Handler manages typed-out AI responses via Server-Sent Events
type Handler struct {
	controller *chatService.Controller
	logger     zerolog.Logger
}

// New creates a new stream handler. A nil controller answers 503.
func New(controller *chatService.Controller) *Handler {
	return &Handler{
		controller: controller,
		logger:     logging.Component("stream"),
	}
}

// RegisterRoutes mounts the streaming endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/stream/{sessionID}", h.handleStream)
}

// StreamResponse represents a streaming response chunk
type StreamResponse struct {
	Event     string      `json:"event"`
	Content   string      `json:"content,omitempty"`
	SessionID string      `json:"sessionId,omitempty"`
	History   []chat.Turn `json:"history,omitempty"`
	Finished  bool        `json:"finished,omitempty"`
	Status    int         `json:"status,omitempty"`
	Error     string      `json:"error,omitempty"`
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	userMessage := r.URL.Query().Get("message")

	if h.controller == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "ai streaming unavailable")
		return
	}
	if strings.TrimSpace(userMessage) == "" {
		utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
		return
	}

	session, err := h.controller.Sessions().GetSession(r.Context(), sessionID)
	if err != nil {
		chatHandler.RespondServiceError(w, err)
		return
	}
	if session.State == chat.StateAwaitingResponse {
		chatHandler.RespondServiceError(w, chatService.ErrSessionBusy)
		return
	}

	if err := h.HandleStreamRequest(r.Context(), w, sessionID, userMessage); err != nil {
		h.logger.Warn().Err(err).Str("session", sessionID).Msg("stream request failed")
	}
}

// HandleStreamRequest runs one turn and streams its playback. Failures
// after the headers are sent are reported as an error event and returned.
func (h *Handler) HandleStreamRequest(ctx context.Context, w http.ResponseWriter, sessionID, userMessage string) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return errors.New("streaming unsupported")
	}

	utils.SetupSSEHeaders(w)

	display := &sseDisplay{w: w, flusher: flusher, sessionID: sessionID}
	if err := display.send(StreamResponse{Event: "start", SessionID: sessionID}); err != nil {
		return err
	}

	reply, err := h.controller.Submit(ctx, sessionID, userMessage, display)
	if err != nil {
		display.send(StreamResponse{
			Event:     "error",
			SessionID: sessionID,
			Status:    chatHandler.StatusFor(err),
			Error:     err.Error(),
		})
		return err
	}

	display.send(StreamResponse{Event: "message", SessionID: sessionID, Content: reply})
	display.send(StreamResponse{Event: "end", SessionID: sessionID, Finished: true})

	h.logger.Debug().Str("session", sessionID).Msg("stream completed")
	return nil
}

// sseDisplay renders typing frames and transcript refreshes as events.
// Each typing event carries only the characters added since the last one.
type sseDisplay struct {
	w         http.ResponseWriter
	flusher   http.Flusher
	sessionID string
	shown     string
}

func (d *sseDisplay) Render(partial string) error {
	suffix := typing.Suffix(d.shown, partial)
	d.shown = partial
	return d.send(StreamResponse{Event: "typing", SessionID: d.sessionID, Content: suffix})
}

func (d *sseDisplay) Refresh(turns []chat.Turn) error {
	return d.send(StreamResponse{Event: "history", SessionID: d.sessionID, History: turns})
}

func (d *sseDisplay) send(response StreamResponse) error {
	return utils.SendSSEEvent(d.w, d.flusher, response.Event, response)
}
