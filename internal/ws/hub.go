package ws

import (
	"sync"
)

// Hub tracks connected clients by user and the conversation rooms each has
// joined. It only routes frames; delivery ordering and persistence live
// upstream.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client             // socketID -> client
	byUser  map[string]map[string]struct{} // userID -> socketIDs
	byEmail map[string]map[string]struct{} // email -> socketIDs
	rooms   map[string]map[string]struct{} // conversationID -> socketIDs
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		byUser:  make(map[string]map[string]struct{}),
		byEmail: make(map[string]map[string]struct{}),
		rooms:   make(map[string]map[string]struct{}),
	}
}

func (h *Hub) Add(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.SocketID] = c
	addIndex(h.byUser, c.UserID, c.SocketID)
	addIndex(h.byEmail, c.Email, c.SocketID)
}

func (h *Hub) Remove(socketID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[socketID]
	if !ok {
		return
	}
	delete(h.clients, socketID)
	dropIndex(h.byUser, c.UserID, socketID)
	dropIndex(h.byEmail, c.Email, socketID)
	for _, members := range h.rooms {
		delete(members, socketID)
	}
	c.close()
}

func (h *Hub) JoinRoom(conversationID, socketID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[socketID]; !ok {
		return
	}
	if _, ok := h.rooms[conversationID]; !ok {
		h.rooms[conversationID] = make(map[string]struct{})
	}
	h.rooms[conversationID][socketID] = struct{}{}
}

func (h *Hub) LeaveRoom(conversationID, socketID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.rooms[conversationID]; ok {
		delete(members, socketID)
	}
}

// BroadcastToRoom delivers a raw frame to every socket joined to the
// conversation.
func (h *Hub) BroadcastToRoom(conversationID string, frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for socketID := range h.rooms[conversationID] {
		if c, ok := h.clients[socketID]; ok {
			c.Send(frame)
		}
	}
}

// SendToEmail delivers a raw frame to every socket of the given user.
func (h *Hub) SendToEmail(email string, frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for socketID := range h.byEmail[email] {
		if c, ok := h.clients[socketID]; ok {
			c.Send(frame)
		}
	}
}

// Online reports how many sockets the user currently has.
func (h *Hub) Online(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byUser[userID])
}

func addIndex(idx map[string]map[string]struct{}, key, socketID string) {
	if key == "" {
		return
	}
	if _, ok := idx[key]; !ok {
		idx[key] = make(map[string]struct{})
	}
	idx[key][socketID] = struct{}{}
}

func dropIndex(idx map[string]map[string]struct{}, key, socketID string) {
	if members, ok := idx[key]; ok {
		delete(members, socketID)
		if len(members) == 0 {
			delete(idx, key)
		}
	}
}
