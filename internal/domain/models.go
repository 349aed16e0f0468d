package domain

import "time"

// User is a registered account. HashedPassword is empty for OAuth-only users.
type User struct {
	ID             string    `bson:"_id" json:"id"`
	Name           string    `bson:"name" json:"name"`
	Email          string    `bson:"email" json:"email"`
	HashedPassword string    `bson:"hashed_password,omitempty" json:"-"`
	Image          string    `bson:"image,omitempty" json:"image,omitempty"`
	Accounts       []Account `bson:"accounts,omitempty" json:"-"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time `bson:"updated_at" json:"updated_at"`
}

// Account links a user to an OAuth provider identity.
type Account struct {
	Provider          string `bson:"provider" json:"provider"`
	ProviderAccountID string `bson:"provider_account_id" json:"provider_account_id"`
	AccessToken       string `bson:"access_token,omitempty" json:"-"`
	RefreshToken      string `bson:"refresh_token,omitempty" json:"-"`
}

// Participant is a denormalized user summary embedded in conversations so
// list views render without a second lookup.
type Participant struct {
	ID    string `bson:"id" json:"id"`
	Name  string `bson:"name" json:"name"`
	Email string `bson:"email" json:"email"`
	Image string `bson:"image,omitempty" json:"image,omitempty"`
}

type Conversation struct {
	ID             string        `bson:"_id" json:"id"`
	Name           string        `bson:"name,omitempty" json:"name,omitempty"`
	IsGroup        bool          `bson:"is_group" json:"is_group"`
	ParticipantIDs []string      `bson:"participant_ids" json:"participant_ids"`
	Participants   []Participant `bson:"participants" json:"participants"`
	LastMessageAt  time.Time     `bson:"last_message_at" json:"last_message_at"`
	LastMessage    *Message      `bson:"last_message,omitempty" json:"last_message,omitempty"`
	CreatedAt      time.Time     `bson:"created_at" json:"created_at"`
}

// IsParticipant reports whether userID belongs to the conversation.
func (c *Conversation) IsParticipant(userID string) bool {
	for _, id := range c.ParticipantIDs {
		if id == userID {
			return true
		}
	}
	return false
}

type Message struct {
	ID             string    `bson:"_id" json:"id"`
	ConversationID string    `bson:"conversation_id" json:"conversation_id"`
	SenderID       string    `bson:"sender_id" json:"sender_id"`
	Body           string    `bson:"body,omitempty" json:"body,omitempty"`
	Image          string    `bson:"image,omitempty" json:"image,omitempty"`
	SeenBy         []string  `bson:"seen_by" json:"seen_by"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`

	// Hydrated for API responses, not persisted on the message document.
	Sender *Participant  `bson:"-" json:"sender,omitempty"`
	Seen   []Participant `bson:"-" json:"seen,omitempty"`
}

// SeenByUser reports whether userID is in the seen-by set.
func (m *Message) SeenByUser(userID string) bool {
	for _, id := range m.SeenBy {
		if id == userID {
			return true
		}
	}
	return false
}
