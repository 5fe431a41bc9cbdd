package events

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/setu007/play-scraper-render/internal/scraper"
)

const (
	writeWait  = 2 * time.Second
	sendBuffer = 64
)

// client owns one connection. Only its write loop writes to conn after Add.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans run events out to every connected WebSocket client.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]*client
	sent    int64
}

type Stats struct {
	WSClients  int   `json:"ws_clients"`
	EventsSent int64 `json:"events_sent"`
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]*client)}
}

// Add registers ws and starts its write loop.
func (h *Hub) Add(ws *websocket.Conn) {
	c := &client{conn: ws, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.clients[ws] = c
	h.mu.Unlock()
	go h.writeLoop(c)
}

func (h *Hub) Remove(ws *websocket.Conn) {
	h.mu.Lock()
	if c, ok := h.clients[ws]; ok {
		h.dropLocked(c)
	}
	h.mu.Unlock()
	_ = ws.Close()
}

// dropLocked unregisters c and ends its write loop. Callers hold h.mu.
func (h *Hub) dropLocked(c *client) {
	delete(h.clients, c.conn)
	close(c.send)
}

// BroadcastJSON queues v for every client without touching any socket.
// A client whose queue is full is dropped.
func (h *Hub) BroadcastJSON(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Printf("[events] marshal failed: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.sent++
	for _, c := range h.clients {
		select {
		case c.send <- b:
		default:
			log.Printf("[events] dropping slow client")
			h.dropLocked(c)
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	defer c.conn.Close()
	for b := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
			h.mu.Lock()
			if h.clients[c.conn] == c {
				h.dropLocked(c)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Observe makes Hub a scraper.Observer.
func (h *Hub) Observe(ev scraper.Event) {
	h.BroadcastJSON(ev)
}

func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Stats{WSClients: len(h.clients), EventsSent: h.sent}
}
