package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/converse-chat/converse/internal/domain"
	"github.com/converse-chat/converse/internal/events"
	"github.com/converse-chat/converse/internal/repository"
)

type ConversationService struct {
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	users         repository.UserRepository
	pub           events.Publisher
	cache         RecentCache
	log           *zap.SugaredLogger
}

func NewConversationService(
	conversations repository.ConversationRepository,
	messages repository.MessageRepository,
	users repository.UserRepository,
	pub events.Publisher,
	cache RecentCache,
	log *zap.SugaredLogger,
) *ConversationService {
	return &ConversationService{
		conversations: conversations,
		messages:      messages,
		users:         users,
		pub:           pub,
		cache:         cache,
		log:           log,
	}
}

// CreateDirect opens a 1:1 conversation, reusing the existing thread when the
// pair already has one. Only genuinely new conversations are announced.
func (s *ConversationService) CreateDirect(ctx context.Context, callerID, otherID string) (*domain.Conversation, error) {
	if otherID == "" || otherID == callerID {
		return nil, fmt.Errorf("%w: invalid participant", ErrInvalidInput)
	}

	if existing, err := s.conversations.FindDirect(ctx, callerID, otherID); err == nil {
		return existing, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	participants, err := s.loadParticipants(ctx, []string{callerID, otherID})
	if err != nil {
		return nil, err
	}

	conv := &domain.Conversation{
		ID:             uuid.NewString(),
		IsGroup:        false,
		ParticipantIDs: []string{callerID, otherID},
		Participants:   participants,
	}
	if err := s.conversations.Create(ctx, conv); err != nil {
		return nil, err
	}
	s.announceCreated(ctx, conv)
	return conv, nil
}

// CreateGroup requires a name and at least two members besides the caller.
func (s *ConversationService) CreateGroup(ctx context.Context, callerID, name string, memberIDs []string) (*domain.Conversation, error) {
	ids := dedupe(append([]string{callerID}, memberIDs...))
	if name == "" || len(ids) < 3 {
		return nil, fmt.Errorf("%w: a group needs a name and at least 2 other members", ErrInvalidInput)
	}

	participants, err := s.loadParticipants(ctx, ids)
	if err != nil {
		return nil, err
	}

	conv := &domain.Conversation{
		ID:             uuid.NewString(),
		Name:           name,
		IsGroup:        true,
		ParticipantIDs: ids,
		Participants:   participants,
	}
	if err := s.conversations.Create(ctx, conv); err != nil {
		return nil, err
	}
	s.announceCreated(ctx, conv)
	return conv, nil
}

func (s *ConversationService) ListForUser(ctx context.Context, userID string) ([]*domain.Conversation, error) {
	return s.conversations.ListForUser(ctx, userID)
}

// Get returns the conversation only to its participants; everyone else gets
// ErrNotFound, indistinguishable from a missing id.
func (s *ConversationService) Get(ctx context.Context, callerID, id string) (*domain.Conversation, error) {
	conv, err := s.conversations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !conv.IsParticipant(callerID) {
		return nil, ErrNotFound
	}
	return conv, nil
}

// Delete hard-deletes the conversation and its messages and notifies every
// prior participant. Non-participants get ErrNotFound and no side effects.
func (s *ConversationService) Delete(ctx context.Context, callerID, id string) error {
	conv, err := s.Get(ctx, callerID, id)
	if err != nil {
		return err
	}
	if err := s.conversations.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if err := s.messages.DeleteForConversation(ctx, id); err != nil {
		s.log.Errorw("delete conversation messages", "conversation", id, "err", err)
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, id)
	}
	removed := struct {
		ID string `json:"id"`
	}{ID: id}
	for _, p := range conv.Participants {
		s.pub.PublishToUser(ctx, p.Email, events.ConversationRemoved, removed)
	}
	return nil
}

// MarkSeen records the caller in the newest message's seen-by set. Repeat
// calls and empty conversations are no-ops.
func (s *ConversationService) MarkSeen(ctx context.Context, callerID, conversationID string) (*domain.Conversation, error) {
	conv, err := s.Get(ctx, callerID, conversationID)
	if err != nil {
		return nil, err
	}

	last, err := s.messages.GetLast(ctx, conversationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return conv, nil
		}
		return nil, err
	}
	if last.SeenByUser(callerID) {
		return conv, nil
	}

	if err := s.messages.MarkSeen(ctx, last.ID, callerID); err != nil {
		return nil, err
	}
	last.SeenBy = append(last.SeenBy, callerID)

	// Refresh the embedded preview so list views show the receipt.
	if err := s.conversations.SetLastMessage(ctx, conversationID, last); err != nil {
		s.log.Errorw("refresh last message", "conversation", conversationID, "err", err)
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, conversationID)
	}

	hydrateFromParticipants(last, conv.Participants)
	s.pub.PublishToConversation(ctx, conversationID, events.MessageUpdated, last)

	caller := findParticipant(conv.Participants, callerID)
	if caller != nil {
		update := conversationUpdate{ID: conv.ID, Messages: []*domain.Message{last}, LastMessageAt: conv.LastMessageAt}
		s.pub.PublishToUser(ctx, caller.Email, events.ConversationUpdated, update)
	}

	conv.LastMessage = last
	return conv, nil
}

func (s *ConversationService) announceCreated(ctx context.Context, conv *domain.Conversation) {
	for _, p := range conv.Participants {
		s.pub.PublishToUser(ctx, p.Email, events.ConversationCreated, conv)
	}
}

func (s *ConversationService) loadParticipants(ctx context.Context, ids []string) ([]domain.Participant, error) {
	users, err := s.users.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(users) != len(ids) {
		return nil, fmt.Errorf("%w: unknown participant", ErrInvalidInput)
	}
	out := make([]domain.Participant, 0, len(users))
	for _, u := range users {
		out = append(out, domain.Participant{ID: u.ID, Name: u.Name, Email: u.Email, Image: u.Image})
	}
	return out, nil
}

func findParticipant(participants []domain.Participant, id string) *domain.Participant {
	for i := range participants {
		if participants[i].ID == id {
			return &participants[i]
		}
	}
	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
