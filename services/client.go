package services

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const sendBufferSize = 32

// Client is one live WebSocket connection bound to an authenticated user.
type Client struct {
	id     string
	userID uint
	conn   *websocket.Conn
	hub    *Hub
	send   chan []byte
	log    *zap.SugaredLogger

	mu     sync.Mutex
	closed bool
}

func newClient(hub *Hub, conn *websocket.Conn, userID uint, log *zap.SugaredLogger) *Client {
	return &Client{
		id:     uuid.NewString(),
		userID: userID,
		conn:   conn,
		hub:    hub,
		send:   make(chan []byte, sendBufferSize),
		log:    log,
	}
}

// Close shuts the connection down. Safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	if c.conn != nil {
		c.conn.Close()
	}
}

// enqueue hands a payload to the write pump without blocking. Reports false
// when the buffer is full or the connection is closing.
func (c *Client) enqueue(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *Client) sendEnvelope(envelope Envelope) {
	payload, err := json.Marshal(envelope)
	if err != nil {
		c.log.Errorw("failed to encode message", "client", c.id, "error", err)
		return
	}
	c.enqueue(payload)
}

// readPump consumes client messages until the connection drops, then leaves
// the user's group.
func (c *Client) readPump() {
	defer func() {
		c.hub.Leave(c.userID, c)
		c.Close()
	}()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Debugf("client %s disconnected normally", c.id)
			} else {
				c.log.Debugf("client %s read error: %v", c.id, err)
			}
			return
		}
		c.handleMessage(message)
	}
}

// handleMessage answers liveness probes and pushes a structured error back
// for anything unparsable instead of dropping the connection.
func (c *Client) handleMessage(message []byte) {
	var incoming struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(message, &incoming); err != nil {
		c.sendEnvelope(Envelope{Type: "error", Message: "Invalid JSON format"})
		return
	}

	switch incoming.Type {
	case "ping":
		c.sendEnvelope(Envelope{Type: "pong", Message: "pong"})
	default:
		c.log.Debugf("client %s sent unhandled message type %q", c.id, incoming.Type)
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			c.log.Debugf("client %s write error: %v", c.id, err)
			return
		}
	}
}
