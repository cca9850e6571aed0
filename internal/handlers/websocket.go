package handlers

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// WebSocketHub tracks each user's open connections and pushes round and
// balance updates to them. Mines is single-player, so messages only ever go
// to the owning user's connections.
type WebSocketHub struct {
	mu      sync.RWMutex
	clients map[int64]map[*websocket.Conn]bool
}

func NewWebSocketHub() *WebSocketHub {
	return &WebSocketHub{
		clients: make(map[int64]map[*websocket.Conn]bool),
	}
}

func (h *WebSocketHub) add(userID int64, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*websocket.Conn]bool)
	}
	h.clients[userID][conn] = true
}

func (h *WebSocketHub) remove(userID int64, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.clients[userID], conn)
	if len(h.clients[userID]) == 0 {
		delete(h.clients, userID)
	}
}

// Notify pushes a message to all of the user's connections. Dead
// connections are dropped.
func (h *WebSocketHub) Notify(userID int64, msg *Message) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients[userID]))
	for conn := range h.clients[userID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteJSON(msg); err != nil {
			h.remove(userID, conn)
			conn.Close()
		}
	}
}

type WebSocketHandler struct {
	hub *WebSocketHub
}

func NewWebSocketHandler(hub *WebSocketHub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	userID := c.GetInt64("user_id")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade to WebSocket: %v", err)
		return
	}

	h.hub.add(userID, conn)
	defer func() {
		h.hub.remove(userID, conn)
		conn.Close()
	}()

	conn.WriteJSON(&Message{Type: "connected", Data: gin.H{"user_id": userID}})

	// Read loop: the client sends nothing meaningful, but reading drives
	// close/ping handling.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
