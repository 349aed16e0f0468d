// Package client is a Go client for the converse push channel: it subscribes
// to a user's event channel and keeps an in-memory conversation list in sync
// without re-fetching. All reducers are idempotent because the channel
// delivers at least once.
package client

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Event names as they appear on the wire.
const (
	EventNewMessage          = "new-message"
	EventMessageUpdated      = "message-updated"
	EventConversationCreated = "conversation-created"
	EventConversationUpdated = "conversation-updated"
	EventConversationRemoved = "conversation-removed"
)

type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	Body           string    `json:"body,omitempty"`
	Image          string    `json:"image,omitempty"`
	SeenBy         []string  `json:"seen_by"`
	CreatedAt      time.Time `json:"created_at"`
}

type Conversation struct {
	ID            string    `json:"id"`
	Name          string    `json:"name,omitempty"`
	IsGroup       bool      `json:"is_group"`
	LastMessageAt time.Time `json:"last_message_at"`
	Messages      []Message `json:"messages,omitempty"`
}

// ConversationList is the reconciled local state. Safe for concurrent use.
type ConversationList struct {
	mu      sync.Mutex
	items   []*Conversation
	viewing string

	// OnDeselect fires when the currently viewed conversation is removed,
	// so the UI can navigate to a neutral view.
	OnDeselect func(conversationID string)
}

func NewConversationList(initial []Conversation) *ConversationList {
	l := &ConversationList{}
	for i := range initial {
		c := initial[i]
		l.items = append(l.items, &c)
	}
	return l
}

// SetViewing records which conversation the user has open; empty clears it.
func (l *ConversationList) SetViewing(conversationID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.viewing = conversationID
}

// Items returns a snapshot of the list in display order.
func (l *ConversationList) Items() []Conversation {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Conversation, len(l.items))
	for i, c := range l.items {
		out[i] = *c
	}
	return out
}

// Apply dispatches a raw envelope to the matching reducer. Unknown events are
// ignored.
func (l *ConversationList) Apply(env Envelope) error {
	switch env.Event {
	case EventConversationCreated:
		var c Conversation
		if err := json.Unmarshal(env.Payload, &c); err != nil {
			return fmt.Errorf("decode %s: %w", env.Event, err)
		}
		l.ApplyCreated(c)
	case EventConversationUpdated:
		var u struct {
			ID       string    `json:"id"`
			Messages []Message `json:"messages"`
		}
		if err := json.Unmarshal(env.Payload, &u); err != nil {
			return fmt.Errorf("decode %s: %w", env.Event, err)
		}
		l.ApplyUpdated(u.ID, u.Messages)
	case EventConversationRemoved:
		var r struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(env.Payload, &r); err != nil {
			return fmt.Errorf("decode %s: %w", env.Event, err)
		}
		l.ApplyRemoved(r.ID)
	}
	return nil
}

// ApplyCreated prepends the conversation unless it is already present.
func (l *ConversationList) ApplyCreated(c Conversation) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.indexOf(c.ID) >= 0 {
		return
	}
	cc := c
	l.items = append([]*Conversation{&cc}, l.items...)
}

// ApplyUpdated replaces only the message collection of the matching entry.
// Unknown ids are a no-op.
func (l *ConversationList) ApplyUpdated(conversationID string, messages []Message) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.indexOf(conversationID)
	if i < 0 {
		return
	}
	l.items[i].Messages = messages
}

// ApplyRemoved drops the entry and fires OnDeselect if it was being viewed.
func (l *ConversationList) ApplyRemoved(conversationID string) {
	l.mu.Lock()
	i := l.indexOf(conversationID)
	if i < 0 {
		l.mu.Unlock()
		return
	}
	l.items = append(l.items[:i], l.items[i+1:]...)
	deselect := l.viewing == conversationID
	if deselect {
		l.viewing = ""
	}
	cb := l.OnDeselect
	l.mu.Unlock()

	if deselect && cb != nil {
		cb(conversationID)
	}
}

func (l *ConversationList) indexOf(conversationID string) int {
	for i, c := range l.items {
		if c.ID == conversationID {
			return i
		}
	}
	return -1
}
