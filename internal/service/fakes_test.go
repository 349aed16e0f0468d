package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/converse-chat/converse/internal/domain"
	"github.com/converse-chat/converse/internal/repository"
)

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

type fakeConversationRepo struct {
	mu    sync.Mutex
	items map[string]*domain.Conversation
}

func newFakeConversationRepo(convs ...*domain.Conversation) *fakeConversationRepo {
	r := &fakeConversationRepo{items: make(map[string]*domain.Conversation)}
	for _, c := range convs {
		r.items[c.ID] = c
	}
	return r
}

func (r *fakeConversationRepo) Create(_ context.Context, c *domain.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	c.CreatedAt = now
	if c.LastMessageAt.IsZero() {
		c.LastMessageAt = now
	}
	r.items[c.ID] = c
	return nil
}

func (r *fakeConversationRepo) GetByID(_ context.Context, id string) (*domain.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeConversationRepo) ListForUser(_ context.Context, userID string) ([]*domain.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Conversation
	for _, c := range r.items {
		if c.IsParticipant(userID) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastMessageAt.After(out[j].LastMessageAt) })
	return out, nil
}

func (r *fakeConversationRepo) FindDirect(_ context.Context, userA, userB string) (*domain.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.items {
		if !c.IsGroup && len(c.ParticipantIDs) == 2 && c.IsParticipant(userA) && c.IsParticipant(userB) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeConversationRepo) SetLastMessage(_ context.Context, id string, m *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.items[id]
	if !ok {
		return repository.ErrNotFound
	}
	c.LastMessageAt = m.CreatedAt
	c.LastMessage = m
	return nil
}

func (r *fakeConversationRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

type fakeMessageRepo struct {
	mu         sync.Mutex
	items      []*domain.Message
	insertErrs []error // consumed per Insert call before success
	inserts    int
}

func (r *fakeMessageRepo) Insert(_ context.Context, m *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inserts++
	if len(r.insertErrs) > 0 {
		err := r.insertErrs[0]
		r.insertErrs = r.insertErrs[1:]
		if err != nil {
			return err
		}
	}
	cp := *m
	r.items = append(r.items, &cp)
	return nil
}

func (r *fakeMessageRepo) GetByID(_ context.Context, id string) (*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.items {
		if m.ID == id {
			cp := *m
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeMessageRepo) ListForConversation(_ context.Context, conversationID string, limit int64, before time.Time) ([]*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Message
	for _, m := range r.items {
		if m.ConversationID != conversationID {
			continue
		}
		if !before.IsZero() && !m.CreatedAt.Before(before) {
			continue
		}
		cp := *m
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && int64(len(out)) > limit {
		out = out[int64(len(out))-limit:]
	}
	return out, nil
}

func (r *fakeMessageRepo) GetLast(_ context.Context, conversationID string) (*domain.Message, error) {
	msgs, _ := r.ListForConversation(context.Background(), conversationID, 0, time.Time{})
	if len(msgs) == 0 {
		return nil, repository.ErrNotFound
	}
	return msgs[len(msgs)-1], nil
}

func (r *fakeMessageRepo) MarkSeen(_ context.Context, messageID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.items {
		if m.ID == messageID {
			if !m.SeenByUser(userID) {
				m.SeenBy = append(m.SeenBy, userID)
			}
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeMessageRepo) DeleteForConversation(_ context.Context, conversationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.items[:0]
	for _, m := range r.items {
		if m.ConversationID != conversationID {
			kept = append(kept, m)
		}
	}
	r.items = kept
	return nil
}

func (r *fakeMessageRepo) count(conversationID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.items {
		if m.ConversationID == conversationID {
			n++
		}
	}
	return n
}

type fakeUserRepo struct {
	mu    sync.Mutex
	items map[string]*domain.User
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	r := &fakeUserRepo{items: make(map[string]*domain.User)}
	for _, u := range users {
		r.items[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	r.items[u.ID] = u
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.items {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) List(_ context.Context, excludeID string) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.User
	for _, u := range r.items {
		if u.ID == excludeID {
			continue
		}
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeUserRepo) GetMany(_ context.Context, ids []string) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.User
	for _, id := range ids {
		if u, ok := r.items[id]; ok {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) UpdateProfile(_ context.Context, id, name, image string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.items[id]
	if !ok {
		return repository.ErrNotFound
	}
	if name != "" {
		u.Name = name
	}
	if image != "" {
		u.Image = image
	}
	return nil
}

func (r *fakeUserRepo) LinkAccount(_ context.Context, id string, acc domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.items[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Accounts = append(u.Accounts, acc)
	return nil
}

type publishedEvent struct {
	scope   string // "conversation" or "user"
	key     string // conversation id or user email
	event   string
	payload any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *fakePublisher) PublishToConversation(_ context.Context, conversationID, event string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{scope: "conversation", key: conversationID, event: event, payload: payload})
}

func (p *fakePublisher) PublishToUser(_ context.Context, userEmail, event string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{scope: "user", key: userEmail, event: event, payload: payload})
}

func (p *fakePublisher) byEvent(name string) []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []publishedEvent
	for _, e := range p.events {
		if e.event == name {
			out = append(out, e)
		}
	}
	return out
}

func (p *fakePublisher) all() []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedEvent(nil), p.events...)
}
