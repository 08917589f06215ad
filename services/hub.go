package services

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// Envelope is the wire shape of every server-to-client message.
type Envelope struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Hub keys live connections by user ID and fans published payloads out to
// every connection of that user. One instance is created at server start
// and closed at shutdown; nothing else touches group membership.
type Hub struct {
	mu     sync.RWMutex
	groups map[uint]*group
	log    *zap.SugaredLogger
}

// group is one user's set of live connections. It carries its own lock so
// traffic for one user never contends with another's.
type group struct {
	mu      sync.Mutex
	closed  bool
	members map[*Client]struct{}
}

func NewHub(log *zap.SugaredLogger) *Hub {
	return &Hub{
		groups: make(map[uint]*group),
		log:    log,
	}
}

// Join registers a connection under the user's group, creating the group on
// first join. Idempotent per client.
func (h *Hub) Join(userID uint, c *Client) {
	for {
		h.mu.RLock()
		g := h.groups[userID]
		h.mu.RUnlock()

		if g == nil {
			h.mu.Lock()
			if g = h.groups[userID]; g == nil {
				g = &group{members: make(map[*Client]struct{})}
				h.groups[userID] = g
			}
			h.mu.Unlock()
		}

		g.mu.Lock()
		if g.closed {
			// Lost a race with the last leaver; the group is being torn
			// down, grab a fresh one.
			g.mu.Unlock()
			continue
		}
		g.members[c] = struct{}{}
		size := len(g.members)
		g.mu.Unlock()

		h.log.Debugf("user %d joined game channel (connections=%d)", userID, size)
		return
	}
}

// Leave drops a connection from the user's group. A no-op if the client was
// never joined; the group itself is discarded once its last member leaves.
func (h *Hub) Leave(userID uint, c *Client) {
	h.mu.RLock()
	g := h.groups[userID]
	h.mu.RUnlock()
	if g == nil {
		return
	}

	g.mu.Lock()
	delete(g.members, c)
	empty := len(g.members) == 0
	if empty {
		g.closed = true
	}
	g.mu.Unlock()

	if empty {
		h.mu.Lock()
		if h.groups[userID] == g {
			delete(h.groups, userID)
		}
		h.mu.Unlock()
		h.log.Debugf("user %d left game channel, group discarded", userID)
	}
}

// Publish delivers an envelope to every live connection of the user.
// Best effort: with no connections it is a silent no-op, and a slow
// connection has the message dropped rather than blocking the caller.
func (h *Hub) Publish(userID uint, envelope Envelope) {
	payload, err := json.Marshal(envelope)
	if err != nil {
		h.log.Errorw("failed to encode push message", "user_id", userID, "error", err)
		return
	}

	h.mu.RLock()
	g := h.groups[userID]
	h.mu.RUnlock()
	if g == nil {
		return
	}

	g.mu.Lock()
	members := make([]*Client, 0, len(g.members))
	for c := range g.members {
		members = append(members, c)
	}
	g.mu.Unlock()

	for _, c := range members {
		if !c.enqueue(payload) {
			h.log.Warnf("dropping push message for user %d: connection %s not keeping up", userID, c.id)
		}
	}
}

// Close tears the hub down, closing every live connection.
func (h *Hub) Close() {
	h.mu.Lock()
	groups := h.groups
	h.groups = make(map[uint]*group)
	h.mu.Unlock()

	for _, g := range groups {
		g.mu.Lock()
		g.closed = true
		for c := range g.members {
			c.Close()
		}
		g.members = make(map[*Client]struct{})
		g.mu.Unlock()
	}
}

// connectionCount reports live connections for a user. Test hook.
func (h *Hub) connectionCount(userID uint) int {
	h.mu.RLock()
	g := h.groups[userID]
	h.mu.RUnlock()
	if g == nil {
		return 0
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.members)
}
