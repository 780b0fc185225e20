// Package ws is the WebSocket transport adapter: it upgrades connections,
// pumps frames, and translates named phone events into coordinator calls.
package ws

import (
	"log"
	"sync"

	"presenced/internal/service/presence"
)

// Hub tracks live clients by connection id and implements presence.Transport.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewHub returns an empty hub ready to track connections.
func NewHub() *Hub {
	return &Hub{clients: make(map[string]*Client)}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	h.clients[c.id] = c
	total := len(h.clients)
	h.mu.Unlock()
	log.Printf("[ws] client %s registered, total=%d", c.id, total)
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	if cur, ok := h.clients[c.id]; ok && cur == c {
		delete(h.clients, c.id)
	}
	total := len(h.clients)
	h.mu.Unlock()
	log.Printf("[ws] client %s removed, total=%d", c.id, total)
}

// Send enqueues msg for one connection. Unknown ids and full queues drop the
// message.
func (h *Hub) Send(connID string, msg presence.Message) {
	h.mu.RLock()
	c, ok := h.clients[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	c.enqueue(msg)
}

// Broadcast enqueues msg for every live connection.
func (h *Hub) Broadcast(msg presence.Message) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.enqueue(msg)
	}
}
