package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	chatHandler "github.com/zhouzirui/code-companion/backend/internal/handler/chat"
	"github.com/zhouzirui/code-companion/backend/internal/logging"
	"github.com/zhouzirui/code-companion/backend/internal/model/chat"
	chatService "github.com/zhouzirui/code-companion/backend/internal/service/chat"
	"github.com/zhouzirui/code-companion/backend/internal/service/typing"
)

const (
	pongWait     = 60 * time.Second
	pingInterval = 54 * time.Second
	writeWait    = 10 * time.Second
)

// Handler WebSocket对话处理器
type Handler struct {
	controller *chatService.Controller
	upgrader   websocket.Upgrader
	logger     zerolog.Logger
}

// New 创建WebSocket处理器
func New(controller *chatService.Controller) *Handler {
	return &Handler{
		controller: controller,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logging.Component("websocket"),
	}
}

// RegisterRoutes 注册WebSocket路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

// InboundMessage 客户端消息
type InboundMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	Data      json.RawMessage `json:"data"`
}

// ChatMessage 用户输入
type ChatMessage struct {
	Message string `json:"message"`
}

// ConfigMessage 配置消息
type ConfigMessage struct {
	Model       string `json:"model"`
	ContextSize int    `json:"contextSize"`
}

// OutgoingMessage 服务端消息
type OutgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// handleWebSocket 处理WebSocket连接
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if h.controller == nil {
		http.Error(w, "ai service unavailable", http.StatusServiceUnavailable)
		return
	}

	session, err := h.controller.Sessions().GetSession(r.Context(), sessionID)
	if err != nil {
		chatHandler.RespondServiceError(w, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("upgrade failed")
		return
	}
	defer conn.Close()

	h.logger.Info().Str("session", sessionID).Msg("new connection")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go h.pingLoop(ctx, conn)

	c := &client{conn: conn, sessionID: sessionID, logger: h.logger}
	c.send("connected", session)

	for {
		if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			h.logger.Debug().Err(err).Str("session", sessionID).Msg("set read deadline failed")
			return
		}

		var msg InboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn().Err(err).Str("session", sessionID).Msg("read error")
			}
			return
		}

		if msg.SessionID != "" && msg.SessionID != sessionID {
			c.sendError(http.StatusBadRequest, "session mismatch")
			continue
		}

		h.handleMessage(ctx, c, &msg)
	}
}

func (h *Handler) handleMessage(ctx context.Context, c *client, msg *InboundMessage) {
	switch msg.Type {
	case "chat":
		var payload ChatMessage
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			c.sendError(http.StatusBadRequest, "invalid chat payload")
			return
		}
		c.shown = ""
		reply, err := h.controller.Submit(ctx, c.sessionID, payload.Message, c)
		if err != nil {
			c.sendServiceError(err)
			return
		}
		c.send("message", map[string]string{"content": reply})

	case "config":
		var payload ConfigMessage
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			c.sendError(http.StatusBadRequest, "invalid config payload")
			return
		}
		session, err := h.controller.Sessions().Configure(ctx, c.sessionID, payload.Model, payload.ContextSize)
		if err != nil {
			c.sendServiceError(err)
			return
		}
		c.send("config", session)

	case "clear":
		if _, err := h.controller.Clear(ctx, c.sessionID, c); err != nil {
			c.sendServiceError(err)
		}

	default:
		c.sendError(http.StatusBadRequest, "unsupported message type: "+msg.Type)
	}
}

// pingLoop 定期发送ping消息
func (h *Handler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// client 将一次连接作为对话的显示端, typing 只发送新增的字符
type client struct {
	conn      *websocket.Conn
	sessionID string
	logger    zerolog.Logger
	shown     string
}

func (c *client) Render(partial string) error {
	suffix := typing.Suffix(c.shown, partial)
	c.shown = partial
	return c.write("typing", map[string]string{"content": suffix})
}

func (c *client) Refresh(turns []chat.Turn) error {
	c.shown = ""
	return c.write("history", map[string]any{"turns": turns})
}

func (c *client) send(kind string, data interface{}) {
	if err := c.write(kind, data); err != nil {
		c.logger.Debug().Err(err).Str("session", c.sessionID).Str("type", kind).Msg("write failed")
	}
}

func (c *client) sendError(status int, message string) {
	c.send("error", map[string]any{"status": status, "message": message})
}

func (c *client) sendServiceError(err error) {
	c.sendError(chatHandler.StatusFor(err), err.Error())
}

func (c *client) write(kind string, data interface{}) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteJSON(OutgoingMessage{
		Type:      kind,
		SessionID: c.sessionID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	})
}
