package ws

import (
	"context"
	"encoding/json"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/converse-chat/converse/internal/auth"
	"github.com/converse-chat/converse/internal/metrics"
)

// inbound is what clients send upstream: room membership changes. All chat
// traffic flows through the REST API; the socket is downstream-only.
type inbound struct {
	Type           string `json:"type"` // "join" | "leave"
	ConversationID string `json:"conversation_id"`
}

type Handler struct {
	hub      *Hub
	tokens   *auth.TokenManager
	presence *Presence
	log      *zap.SugaredLogger
}

func NewHandler(hub *Hub, tokens *auth.TokenManager, presence *Presence, log *zap.SugaredLogger) *Handler {
	return &Handler{hub: hub, tokens: tokens, presence: presence, log: log}
}

// Serve handles an upgraded connection at /ws?token=<jwt>.
func (h *Handler) Serve(conn *websocket.Conn) {
	token := conn.Query("token")
	userID, email, err := h.tokens.Verify(token)
	if err != nil {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"invalid token"}`))
		_ = conn.Close()
		return
	}

	socketID := uuid.NewString()
	client := NewClient(conn, socketID, userID, email)
	h.hub.Add(client)
	metrics.WSConnections.Inc()
	if err := h.presence.AddConnection(context.Background(), userID, socketID); err != nil {
		h.log.Warnw("record presence", "user", userID, "err", err)
	}

	go client.WritePump()

	defer func() {
		h.hub.Remove(socketID)
		metrics.WSConnections.Dec()
		if err := h.presence.RemoveConnection(context.Background(), userID, socketID); err != nil {
			h.log.Warnw("clear presence", "user", userID, "err", err)
		}
		_ = conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var in inbound
		if err := json.Unmarshal(raw, &in); err != nil {
			continue
		}
		switch in.Type {
		case "join":
			if in.ConversationID != "" {
				h.hub.JoinRoom(in.ConversationID, socketID)
			}
		case "leave":
			if in.ConversationID != "" {
				h.hub.LeaveRoom(in.ConversationID, socketID)
			}
		}
	}
}
