// Package ws streams arena events to spectators over websockets. Events
// published on the Redis events channel fan out to every connected client;
// clients that name a game_id on connect see only that game's events.
package ws

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Origin is enforced by the CORS middleware.
	},
}

// Client is one connected spectator.
type Client struct {
	id     string
	gameID string // "" subscribes to the global feed
	conn   *websocket.Conn
	send   chan []byte
}

// Hub maintains the set of connected spectators and their game rooms. The
// global feed is the room keyed by the empty string.
type Hub struct {
	clients    map[string]*Client            // client id -> client
	rooms      map[string]map[string]*Client // game id -> client id -> client
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		rooms:      make(map[string]map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run processes connects and disconnects until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.id] = client
			if _, ok := h.rooms[client.gameID]; !ok {
				h.rooms[client.gameID] = make(map[string]*Client)
			}
			h.rooms[client.gameID][client.id] = client
			n := len(h.clients)
			h.mu.Unlock()
			log.Printf("[WS] Spectator %s connected (game=%q, %d online)", client.id, client.gameID, n)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.id]; ok {
				delete(h.clients, client.id)
				if room, ok := h.rooms[client.gameID]; ok {
					delete(room, client.id)
					if len(room) == 0 {
						delete(h.rooms, client.gameID)
					}
				}
				close(client.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			log.Printf("[WS] Spectator %s disconnected (%d online)", client.id, n)
		}
	}
}

// Census reports how many spectators are connected.
func (h *Hub) Census() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dispatch routes one published event: the global room always receives it,
// and the room for the named game receives it too.
func (h *Hub) Dispatch(gameID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	h.sendRoomLocked("", payload)
	if gameID != "" {
		h.sendRoomLocked(gameID, payload)
	}
}

func (h *Hub) sendRoomLocked(room string, payload []byte) {
	for _, c := range h.rooms[room] {
		select {
		case c.send <- payload:
		default:
			log.Printf("[WS] Spectator %s send buffer full, dropping event", c.id)
		}
	}
}

// writePump writes queued events and keepalive pings to the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel; say goodbye properly.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[WS] Write error for spectator %s: %v", c.id, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards inbound frames; the feed is one-way. It exists to notice
// the close handshake and keep the pong deadline fresh.
func (c *Client) readPump(h *Hub) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
