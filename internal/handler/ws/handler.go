package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"presenced/internal/service/presence"
)

// Handler upgrades inbound connections and dispatches named phone events to
// the coordinator.
type Handler struct {
	hub      *Hub
	coord    *presence.Service
	upgrader websocket.Upgrader
	dispatch map[string]func(connID string, data json.RawMessage)
}

// New builds the websocket handler and its event dispatch table.
func New(hub *Hub, coord *presence.Service) *Handler {
	h := &Handler{
		hub:   hub,
		coord: coord,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	h.dispatch = map[string]func(string, json.RawMessage){
		"message":       h.onMessage,
		"login":         h.onLogin,
		"disconnecting": h.onDisconnecting,
	}
	return h
}

// RegisterRoutes mounts the websocket endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.handleWebSocket)
}

type inboundEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type loginEvent struct {
	Token string `json:"token"`
}

type disconnectingEvent struct {
	Reason string `json:"reason"`
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed: %v", err)
		return
	}

	connID := uuid.NewString()
	client := newClient(connID, conn)
	h.hub.add(client)

	log.Printf("[ws] connection %s from %s", connID, r.RemoteAddr)

	go client.writePump()
	h.coord.Connect(connID)

	h.readLoop(client)

	// The transport close is the authoritative teardown signal; when the
	// phone already sent a disconnecting event this is an idempotent no-op.
	h.coord.Disconnecting(connID, "transport closed")
	h.hub.remove(client)
	client.shutdown()
}

func (h *Handler) readLoop(c *Client) {
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var evt inboundEvent
		if err := c.conn.ReadJSON(&evt); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("[ws] read error on %s: %v", c.id, err)
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))

		handle, ok := h.dispatch[evt.Event]
		if !ok {
			log.Printf("[ws] unknown event %q from %s", evt.Event, c.id)
			continue
		}
		handle(c.id, evt.Data)
	}
}

func (h *Handler) onMessage(connID string, data json.RawMessage) {
	var payload string
	if err := json.Unmarshal(data, &payload); err != nil {
		payload = string(data)
	}
	h.coord.ClientMessage(connID, payload)
}

func (h *Handler) onLogin(connID string, data json.RawMessage) {
	var evt loginEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		log.Printf("[ws] malformed login from %s: %v", connID, err)
		return
	}
	h.coord.Login(connID, evt.Token)
}

func (h *Handler) onDisconnecting(connID string, data json.RawMessage) {
	var evt disconnectingEvent
	if len(data) > 0 {
		if err := json.Unmarshal(data, &evt); err != nil {
			log.Printf("[ws] malformed disconnecting from %s: %v", connID, err)
		}
	}
	h.coord.Disconnecting(connID, evt.Reason)
}
