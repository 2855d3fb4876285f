package server

import (
	"net/http"
	"sync"
	"time"

	"encode-health/internal/conversation"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// writeWait caps how long one stalled subscriber can hold the hub lock.
const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow CORS for development
	CheckOrigin: func(r *http.Request) bool { return true },
}

// TurnHub fans appended conversation turns out to websocket subscribers.
// A conversation may have any number of subscribers. Implements
// conversation.Notifier.
type TurnHub struct {
	mu          sync.Mutex
	subscribers map[string]map[*websocket.Conn]struct{}
}

func NewTurnHub() *TurnHub {
	return &TurnHub{subscribers: make(map[string]map[*websocket.Conn]struct{})}
}

// Subscribe registers a connection for one conversation's turn feed.
func (h *TurnHub) Subscribe(conversationID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subscribers[conversationID] == nil {
		h.subscribers[conversationID] = make(map[*websocket.Conn]struct{})
	}
	h.subscribers[conversationID][conn] = struct{}{}
	log.Info().Str("conversation_id", conversationID).Msg("WebSocket Client Connected")
}

// Unsubscribe removes a connection (when the client closes the tab).
func (h *TurnHub) Unsubscribe(conversationID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.subscribers[conversationID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.subscribers, conversationID)
		}
		log.Info().Str("conversation_id", conversationID).Msg("WebSocket Client Disconnected")
	}
}

// PublishTurn pushes one turn to every subscriber of the conversation.
// Dead connections are dropped on write failure.
func (h *TurnHub) PublishTurn(conversationID string, turn conversation.Turn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.subscribers[conversationID] {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(turn); err != nil {
			log.Error().Err(err).Str("conversation_id", conversationID).Msg("Failed to send WS message, removing client")
			conn.Close()
			delete(h.subscribers[conversationID], conn)
		}
	}
}

// ConversationSocketHandler upgrades the request and streams the
// conversation's turns until the client disconnects.
func (s *Server) ConversationSocketHandler(c echo.Context) error {
	id := c.Param("id")
	if _, ok := s.manager.Get(id); !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Conversation not found"})
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Error().Err(err).Msg("WebSocket upgrade failed")
		return err
	}

	s.hub.Subscribe(id, conn)
	defer func() {
		s.hub.Unsubscribe(id, conn)
		conn.Close()
	}()

	// Drain client frames; the feed is one-way.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	return nil
}
