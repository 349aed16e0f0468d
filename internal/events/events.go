package events

import (
	"context"
	"encoding/json"
)

// Event names carried on the wire. Conversation channels receive message
// events; user channels receive conversation-list events.
const (
	NewMessage          = "new-message"
	MessageUpdated      = "message-updated"
	ConversationCreated = "conversation-created"
	ConversationUpdated = "conversation-updated"
	ConversationRemoved = "conversation-removed"
)

// Envelope wraps every published event.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

func NewEnvelope(event string, payload any) (Envelope, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Event: event, Payload: b}, nil
}

// Publisher delivers events to pub/sub channels. Publish failures must not
// fail the calling operation.
type Publisher interface {
	PublishToConversation(ctx context.Context, conversationID, event string, payload any)
	PublishToUser(ctx context.Context, userEmail, event string, payload any)
}

// ConversationChannel and UserChannel derive the channel names shared by the
// publisher, the websocket bridge, and the client reconciler.
func ConversationChannel(prefix, conversationID string) string {
	return prefix + ":conversation:" + conversationID
}

func UserChannel(prefix, email string) string {
	return prefix + ":user:" + email
}
