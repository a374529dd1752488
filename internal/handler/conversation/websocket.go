package conversation

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/kickfinder/backend/internal/model/questionnaire"
	conversationservice "github.com/kickfinder/backend/internal/service/conversation"
)

const (
	readTimeout  = 60 * time.Second
	writeTimeout = 10 * time.Second
	pingInterval = 25 * time.Second
)

// Controller is the part of the conversation service the transport drives.
type Controller interface {
	Handle(ctx context.Context, ev questionnaire.Event, out questionnaire.Responder) error
}

// WebSocketHandler WebSocket问卷传输层
type WebSocketHandler struct {
	controller Controller
	upgrader   websocket.Upgrader
}

// NewWebSocketHandler 创建WebSocket处理器
func NewWebSocketHandler(controller Controller) *WebSocketHandler {
	return &WebSocketHandler{
		controller: controller,
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
func (h *WebSocketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.handleAnonymous)
	r.Get("/ws/{userID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type outgoingMessage struct {
	Type      string                 `json:"type"`
	MessageID string                 `json:"messageId,omitempty"`
	Text      string                 `json:"text,omitempty"`
	Choices   []questionnaire.Choice `json:"choices,omitempty"`
	Message   string                 `json:"message,omitempty"`
	Timestamp int64                  `json:"timestamp"`
}

// connResponder writes replies for one connection; gorilla connections allow one writer at a time.
type connResponder struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *connResponder) write(msg outgoingMessage) error {
	msg.Timestamp = time.Now().UnixMilli()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(msg)
}

func (c *connResponder) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
}

func (c *connResponder) Send(_ context.Context, reply questionnaire.Reply) (string, error) {
	id := uuid.NewString()
	err := c.write(outgoingMessage{Type: "message", MessageID: id, Text: reply.Text, Choices: reply.Choices})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (c *connResponder) Edit(_ context.Context, messageID, text string) error {
	if messageID == "" {
		return errors.New("message id is required")
	}
	return c.write(outgoingMessage{Type: "edit", MessageID: messageID, Text: text})
}

func (c *connResponder) sendError(message string) {
	if err := c.write(outgoingMessage{Type: "error", Message: message}); err != nil {
		log.Printf("[websocket] failed to send error: %v", err)
	}
}

// handleAnonymous 为未携带用户标识的客户端分配临时ID
func (h *WebSocketHandler) handleAnonymous(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "ws-"+uuid.NewString())
}

// handleWebSocket 处理WebSocket连接
func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		http.Error(w, "userID is required", http.StatusBadRequest)
		return
	}
	h.serve(w, r, userID)
}

func (h *WebSocketHandler) serve(w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[websocket] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	log.Printf("[websocket] new connection for user: %s", userID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	out := &connResponder{conn: conn}

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	go h.pingLoop(ctx, out)

	if err := out.write(outgoingMessage{Type: "connected", Text: userID}); err != nil {
		log.Printf("[websocket] greeting failed: %v", err)
		return
	}

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[websocket] read error: %v", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(readTimeout))

		ev, ok := toEvent(userID, msg)
		if !ok {
			out.sendError("unsupported message type: " + msg.Type)
			continue
		}

		if err := h.controller.Handle(ctx, ev, out); err != nil {
			log.Printf("[websocket] user=%s event=%s: %v", userID, ev.Kind, err)
		}
	}
}

func toEvent(userID string, msg inboundMessage) (questionnaire.Event, bool) {
	var kind questionnaire.EventKind
	switch msg.Type {
	case "command":
		kind = questionnaire.EventCommand
	case "text":
		kind = questionnaire.EventText
	case "choice":
		kind = questionnaire.EventChoice
	default:
		return questionnaire.Event{}, false
	}
	return questionnaire.Event{UserID: userID, ChatID: userID, Kind: kind, Value: msg.Value}, true
}

func (h *WebSocketHandler) pingLoop(ctx context.Context, out *connResponder) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := out.ping(); err != nil {
				log.Printf("[websocket] ping failed: %v", err)
				return
			}
		}
	}
}

var _ Controller = (*conversationservice.Service)(nil)
