package system

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"
)

// WebSocketController is a broadcast hub. The dashboard connects to watch
// background sync progress live.
type WebSocketController struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

func NewWebSocketController() *WebSocketController {
	return &WebSocketController{
		clients: make(map[*websocket.Conn]bool),
	}
}

func (h *WebSocketController) HandleWebSocket(c *websocket.Conn) {
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
		c.Close()
	}()

	// Drain incoming frames; clients only listen but we must service the
	// connection to notice closes.
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			break
		}
	}
}

// Broadcast sends one JSON event to every connected client. Write errors
// drop the client on its next read.
func (h *WebSocketController) Broadcast(event interface{}) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Println("broadcast marshal:", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Println("broadcast write:", err)
		}
	}
}
