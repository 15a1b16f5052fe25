package ws

import (
	"context"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"
)

// Client is the part of a WebSocket connection the hub writes to.
type Client interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type Hub struct {
	clients    map[Client]bool
	register   chan Client
	unregister chan Client
	broadcast  chan []byte
	done       chan struct{}
	mutex      sync.Mutex
	log        *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[Client]bool),
		register:   make(chan Client),
		unregister: make(chan Client),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Register adds a client. Once the hub has stopped the client is closed instead.
func (h *Hub) Register(c Client) {
	select {
	case h.register <- c:
	case <-h.done:
		c.Close()
	}
}

func (h *Hub) Unregister(c Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Broadcast queues msg for every client. It never blocks: when the queue is
// full the message is dropped, since dashboards reload state on reconnect.
func (h *Hub) Broadcast(msg []byte) {
	select {
	case h.broadcast <- msg:
	default:
		h.log.Warn("websocket broadcast queue full, dropping event")
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for conn := range h.clients {
				conn.Close()
				delete(h.clients, conn)
			}
			h.mutex.Unlock()
			return

		case conn := <-h.register:
			h.mutex.Lock()
			h.clients[conn] = true
			h.mutex.Unlock()
			h.log.Debug("websocket client connected")

		case conn := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
			h.mutex.Unlock()

		case message := <-h.broadcast:
			h.mutex.Lock()
			for conn := range h.clients {
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					conn.Close()
					delete(h.clients, conn)
				}
			}
			h.mutex.Unlock()
		}
	}
}
