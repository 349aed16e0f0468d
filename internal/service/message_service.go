package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/converse-chat/converse/internal/domain"
	"github.com/converse-chat/converse/internal/events"
	"github.com/converse-chat/converse/internal/metrics"
	"github.com/converse-chat/converse/internal/repository"
)

const (
	maxInsertAttempts = 3
	retryBaseBackoff  = 100 * time.Millisecond
)

// RecentCache is the optional hot cache for conversation threads.
type RecentCache interface {
	Push(ctx context.Context, conversationID string, m *domain.Message)
	Recent(ctx context.Context, conversationID string, limit int64) []*domain.Message
	Invalidate(ctx context.Context, conversationID string)
}

// ArchiveStream receives a copy of every domain event for downstream
// consumers. Fire-and-forget.
type ArchiveStream interface {
	Publish(ctx context.Context, key, event string, payload any)
}

// conversationUpdate is the payload of conversation-updated events: the
// conversation id plus only the newest message, so clients patch their list
// without re-fetching the thread.
type conversationUpdate struct {
	ID            string            `json:"id"`
	Messages      []*domain.Message `json:"messages"`
	LastMessageAt time.Time         `json:"last_message_at"`
}

type MessageService struct {
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	users         repository.UserRepository
	pub           events.Publisher
	stream        ArchiveStream
	cache         RecentCache
	log           *zap.SugaredLogger

	retryBase time.Duration
}

func NewMessageService(
	conversations repository.ConversationRepository,
	messages repository.MessageRepository,
	users repository.UserRepository,
	pub events.Publisher,
	stream ArchiveStream,
	cache RecentCache,
	log *zap.SugaredLogger,
) *MessageService {
	return &MessageService{
		conversations: conversations,
		messages:      messages,
		users:         users,
		pub:           pub,
		stream:        stream,
		cache:         cache,
		log:           log,
		retryBase:     retryBaseBackoff,
	}
}

// Send persists a message in the sender's conversation and notifies every
// participant. The insert is retried on write conflicts only, up to
// maxInsertAttempts with exponential backoff. Notifications run only after
// the message exists, so retry exhaustion leaves no partial state.
func (s *MessageService) Send(ctx context.Context, senderID, conversationID, body, image string) (*domain.Message, error) {
	if body == "" && image == "" {
		return nil, fmt.Errorf("%w: message needs a body or an image", ErrInvalidInput)
	}

	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	// Non-participants get the same answer as a missing conversation.
	if !conv.IsParticipant(senderID) {
		return nil, ErrNotFound
	}

	msg := &domain.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		SenderID:       senderID,
		Body:           body,
		Image:          image,
		SeenBy:         []string{senderID},
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.insertWithRetry(ctx, msg); err != nil {
		return nil, err
	}

	if err := s.conversations.SetLastMessage(ctx, conv.ID, msg); err != nil {
		s.log.Errorw("advance last message", "conversation", conv.ID, "err", err)
	}

	hydrateFromParticipants(msg, conv.Participants)
	metrics.MessagesSent.Inc()

	if s.cache != nil {
		s.cache.Push(ctx, conv.ID, msg)
	}

	// Broadcast into the thread, then patch every participant's list.
	s.pub.PublishToConversation(ctx, conv.ID, events.NewMessage, msg)
	update := conversationUpdate{ID: conv.ID, Messages: []*domain.Message{msg}, LastMessageAt: msg.CreatedAt}
	for _, p := range conv.Participants {
		s.pub.PublishToUser(ctx, p.Email, events.ConversationUpdated, update)
	}

	if s.stream != nil {
		s.stream.Publish(ctx, msg.ID, "message.created", msg)
	}

	return msg, nil
}

func (s *MessageService) insertWithRetry(ctx context.Context, msg *domain.Message) error {
	backoff := s.retryBase
	var lastErr error
	for attempt := 1; attempt <= maxInsertAttempts; attempt++ {
		lastErr = s.messages.Insert(ctx, msg)
		if lastErr == nil {
			return nil
		}
		if !repository.IsWriteConflict(lastErr) {
			return fmt.Errorf("insert message: %w", lastErr)
		}
		if attempt == maxInsertAttempts {
			break
		}
		metrics.MessageRetries.Inc()
		s.log.Warnw("message insert conflict, retrying",
			"conversation", msg.ConversationID, "attempt", attempt)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff *= 2
	}
	s.log.Errorw("message insert failed after retries",
		"conversation", msg.ConversationID, "err", lastErr)
	return ErrMessageCreate
}

// List returns the conversation's messages in chronological order, hydrated
// with sender and seen-by summaries. Non-participants get ErrNotFound.
func (s *MessageService) List(ctx context.Context, callerID, conversationID string, limit int64, before time.Time) ([]*domain.Message, error) {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !conv.IsParticipant(callerID) {
		return nil, ErrNotFound
	}
	if limit <= 0 {
		limit = 50
	}

	if s.cache != nil && before.IsZero() {
		if cached := s.cache.Recent(ctx, conversationID, limit); len(cached) > 0 {
			for _, m := range cached {
				hydrateFromParticipants(m, conv.Participants)
			}
			return cached, nil
		}
	}

	msgs, err := s.messages.ListForConversation(ctx, conversationID, limit, before)
	if err != nil {
		return nil, err
	}
	for _, m := range msgs {
		hydrateFromParticipants(m, conv.Participants)
	}
	return msgs, nil
}

// hydrateFromParticipants fills the message's sender and seen summaries from
// the conversation's embedded participant list.
func hydrateFromParticipants(m *domain.Message, participants []domain.Participant) {
	byID := make(map[string]domain.Participant, len(participants))
	for _, p := range participants {
		byID[p.ID] = p
	}
	if p, ok := byID[m.SenderID]; ok {
		sender := p
		m.Sender = &sender
	}
	m.Seen = m.Seen[:0]
	for _, id := range m.SeenBy {
		if p, ok := byID[id]; ok {
			m.Seen = append(m.Seen, p)
		}
	}
}
