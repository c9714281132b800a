package websocket

import (
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

type Client struct {
	UserID uuid.UUID
	Conn   Conn
}

type envelope struct {
	userID  uuid.UUID
	payload interface{}
}

const broadcastBuffer = 256

// Hub keeps the live connections of each user and writes pushed payloads to
// them from a single goroutine.
type Hub struct {
	clients    map[uuid.UUID]map[*Client]struct{}
	mu         sync.RWMutex
	register   chan *Client
	unregister chan *Client
	broadcast  chan envelope
	done       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan envelope, broadcastBuffer),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			log.Printf("Client registered: %s", client.UserID)
			h.mu.Lock()
			if h.clients[client.UserID] == nil {
				h.clients[client.UserID] = make(map[*Client]struct{})
			}
			h.clients[client.UserID][client] = struct{}{}
			h.mu.Unlock()
		case client := <-h.unregister:
			log.Printf("Client unregistered: %s", client.UserID)
			h.remove(client)
		case msg := <-h.broadcast:
			h.mu.RLock()
			targets := make([]*Client, 0, len(h.clients[msg.userID]))
			for c := range h.clients[msg.userID] {
				targets = append(targets, c)
			}
			h.mu.RUnlock()

			for _, c := range targets {
				if err := c.Conn.WriteJSON(msg.payload); err != nil {
					log.Printf("Error pushing to client %s: %v", c.UserID, err)
					c.Conn.Close()
					h.remove(c)
				}
			}
		case <-h.done:
			return
		}
	}
}

func (h *Hub) Stop() {
	close(h.done)
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.clients[client.UserID]
	if !ok {
		return
	}
	delete(conns, client)
	if len(conns) == 0 {
		delete(h.clients, client.UserID)
	}
}

// Register adds c to the hub. After Stop it is a no-op.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

// Unregister removes c from the hub. After Stop it only drops the client
// from the registry.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
		h.remove(c)
	}
}

// Push queues payload for every connection of userID. It never blocks: when
// the queue is full the payload is dropped, the notification row still exists.
func (h *Hub) Push(userID uuid.UUID, payload interface{}) {
	select {
	case h.broadcast <- envelope{userID: userID, payload: payload}:
	default:
		log.Printf("⚠️ Push queue full, dropping live update for %s", userID)
	}
}

// Online reports whether userID has at least one live connection.
func (h *Hub) Online(userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}

var _ Conn = (*websocket.Conn)(nil)
