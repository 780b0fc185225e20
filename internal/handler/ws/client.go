package ws

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"presenced/internal/service/presence"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 16
)

// outbound is the wire envelope for coordinator emits.
type outbound struct {
	Event string           `json:"event"`
	Data  presence.Message `json:"data"`
}

// Client is one upgraded connection with its outbound queue. writePump is the
// only goroutine writing to the socket, which keeps per-connection delivery
// FIFO.
type Client struct {
	id   string
	conn *websocket.Conn
	send chan outbound
	done chan struct{}
	once sync.Once
}

func newClient(id string, conn *websocket.Conn) *Client {
	return &Client{
		id:   id,
		conn: conn,
		send: make(chan outbound, sendBuffer),
		done: make(chan struct{}),
	}
}

// enqueue queues msg for writePump. Dropping on a full queue keeps the hub
// from ever blocking on a slow reader.
func (c *Client) enqueue(msg presence.Message) {
	select {
	case c.send <- outbound{Event: "message", Data: msg}:
	case <-c.done:
	default:
		log.Printf("[ws] dropping message for slow client %s", c.id)
	}
}

func (c *Client) shutdown() {
	c.once.Do(func() { close(c.done) })
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case out := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(out); err != nil {
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
