package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/converse-chat/converse/internal/domain"
	"github.com/converse-chat/converse/internal/events"
	"github.com/converse-chat/converse/internal/repository"
)

func newTestConversationService(convs *fakeConversationRepo, msgs *fakeMessageRepo, users *fakeUserRepo, pub *fakePublisher) *ConversationService {
	return NewConversationService(convs, msgs, users, pub, nil, testLogger())
}

func TestGet_NonParticipantLooksLikeMissing(t *testing.T) {
	_, convRepo, userRepo := twoUserFixture()
	svc := newTestConversationService(convRepo, &fakeMessageRepo{}, userRepo, &fakePublisher{})

	_, errStranger := svc.Get(context.Background(), "stranger", "conv1")
	_, errMissing := svc.Get(context.Background(), "a", "nope")

	if !errors.Is(errStranger, ErrNotFound) {
		t.Errorf("Get() as non-participant = %v, want ErrNotFound", errStranger)
	}
	if !errors.Is(errMissing, ErrNotFound) {
		t.Errorf("Get() of missing id = %v, want ErrNotFound", errMissing)
	}
	// indistinguishable
	if !errors.Is(errStranger, errMissing) && errStranger.Error() != errMissing.Error() {
		t.Errorf("non-participant error %v differs from missing error %v", errStranger, errMissing)
	}
}

func TestDelete_NonParticipantHasNoEffect(t *testing.T) {
	_, convRepo, userRepo := twoUserFixture()
	pub := &fakePublisher{}
	svc := newTestConversationService(convRepo, &fakeMessageRepo{}, userRepo, pub)

	if err := svc.Delete(context.Background(), "stranger", "conv1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Delete() as non-participant = %v, want ErrNotFound", err)
	}
	if _, err := convRepo.GetByID(context.Background(), "conv1"); err != nil {
		t.Errorf("conversation was deleted by a non-participant")
	}
	if got := pub.all(); len(got) != 0 {
		t.Errorf("events published for rejected delete: %+v", got)
	}
}

func TestDelete_NotifiesEveryPriorParticipant(t *testing.T) {
	_, convRepo, userRepo := twoUserFixture()
	msgRepo := &fakeMessageRepo{}
	pub := &fakePublisher{}
	svc := newTestConversationService(convRepo, msgRepo, userRepo, pub)

	if err := svc.Delete(context.Background(), "a", "conv1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := convRepo.GetByID(context.Background(), "conv1"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("conversation still present after delete")
	}

	removed := pub.byEvent(events.ConversationRemoved)
	if len(removed) != 2 {
		t.Fatalf("conversation-removed events = %d, want 2", len(removed))
	}
	emails := map[string]bool{}
	for _, e := range removed {
		emails[e.key] = true
	}
	if !emails["alice@example.com"] || !emails["bob@example.com"] {
		t.Errorf("removal recipients = %v", emails)
	}
}

func TestCreateDirect_ReusesExistingThread(t *testing.T) {
	userA := &domain.User{ID: "a", Name: "Alice", Email: "alice@example.com"}
	userB := &domain.User{ID: "b", Name: "Bob", Email: "bob@example.com"}
	convRepo := newFakeConversationRepo()
	userRepo := newFakeUserRepo(userA, userB)
	pub := &fakePublisher{}
	svc := newTestConversationService(convRepo, &fakeMessageRepo{}, userRepo, pub)

	first, err := svc.CreateDirect(context.Background(), "a", "b")
	if err != nil {
		t.Fatalf("CreateDirect() error = %v", err)
	}
	second, err := svc.CreateDirect(context.Background(), "b", "a")
	if err != nil {
		t.Fatalf("CreateDirect() second call error = %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("second CreateDirect made a new thread: %s vs %s", first.ID, second.ID)
	}
	if created := pub.byEvent(events.ConversationCreated); len(created) != 2 {
		t.Errorf("conversation-created events = %d, want 2 (one per participant, once)", len(created))
	}
}

func TestCreateDirect_RejectsSelf(t *testing.T) {
	userA := &domain.User{ID: "a", Name: "Alice", Email: "alice@example.com"}
	svc := newTestConversationService(newFakeConversationRepo(), &fakeMessageRepo{}, newFakeUserRepo(userA), &fakePublisher{})

	if _, err := svc.CreateDirect(context.Background(), "a", "a"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("CreateDirect(self) error = %v, want ErrInvalidInput", err)
	}
}

func TestCreateGroup_Validation(t *testing.T) {
	users := []*domain.User{
		{ID: "a", Name: "Alice", Email: "alice@example.com"},
		{ID: "b", Name: "Bob", Email: "bob@example.com"},
		{ID: "c", Name: "Cara", Email: "cara@example.com"},
	}
	userRepo := newFakeUserRepo(users...)

	tests := []struct {
		name    string
		group   string
		members []string
		wantErr bool
	}{
		{name: "valid", group: "team", members: []string{"b", "c"}, wantErr: false},
		{name: "missing name", group: "", members: []string{"b", "c"}, wantErr: true},
		{name: "too few members", group: "team", members: []string{"b"}, wantErr: true},
		{name: "duplicate members collapse", group: "team", members: []string{"b", "b"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestConversationService(newFakeConversationRepo(), &fakeMessageRepo{}, userRepo, &fakePublisher{})
			conv, err := svc.CreateGroup(context.Background(), "a", tt.group, tt.members)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidInput) {
					t.Errorf("CreateGroup() error = %v, want ErrInvalidInput", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateGroup() error = %v", err)
			}
			if !conv.IsGroup || len(conv.ParticipantIDs) != 3 {
				t.Errorf("group = %+v", conv)
			}
		})
	}
}

func TestMarkSeen_AddsCallerOnce(t *testing.T) {
	_, convRepo, userRepo := twoUserFixture()
	msgRepo := &fakeMessageRepo{}
	pub := &fakePublisher{}
	msgSvc := newTestMessageService(convRepo, msgRepo, userRepo, pub)
	convSvc := newTestConversationService(convRepo, msgRepo, userRepo, pub)

	if _, err := msgSvc.Send(context.Background(), "a", "conv1", "hello", ""); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	before := len(pub.all())

	if _, err := convSvc.MarkSeen(context.Background(), "b", "conv1"); err != nil {
		t.Fatalf("MarkSeen() error = %v", err)
	}
	last, _ := msgRepo.GetLast(context.Background(), "conv1")
	if !last.SeenByUser("a") || !last.SeenByUser("b") {
		t.Errorf("SeenBy = %v, want both participants", last.SeenBy)
	}

	// repeat is a no-op: seen set stable, no further events
	afterFirst := len(pub.all())
	if afterFirst == before {
		t.Errorf("MarkSeen published no events")
	}
	if _, err := convSvc.MarkSeen(context.Background(), "b", "conv1"); err != nil {
		t.Fatalf("MarkSeen() repeat error = %v", err)
	}
	last, _ = msgRepo.GetLast(context.Background(), "conv1")
	if got := len(last.SeenBy); got != 2 {
		t.Errorf("SeenBy grew on repeat: %v", last.SeenBy)
	}
	if got := len(pub.all()); got != afterFirst {
		t.Errorf("repeat MarkSeen published %d extra events", got-afterFirst)
	}
}

func TestMarkSeen_EmptyConversation(t *testing.T) {
	_, convRepo, userRepo := twoUserFixture()
	svc := newTestConversationService(convRepo, &fakeMessageRepo{}, userRepo, &fakePublisher{})

	conv, err := svc.MarkSeen(context.Background(), "a", "conv1")
	if err != nil {
		t.Fatalf("MarkSeen() on empty conversation error = %v", err)
	}
	if conv == nil {
		t.Fatal("MarkSeen() returned nil conversation")
	}
}

func TestListForUser_SortedByRecency(t *testing.T) {
	now := time.Now().UTC()
	convRepo := newFakeConversationRepo(
		&domain.Conversation{ID: "old", ParticipantIDs: []string{"a"}, LastMessageAt: now.Add(-time.Hour)},
		&domain.Conversation{ID: "new", ParticipantIDs: []string{"a"}, LastMessageAt: now},
		&domain.Conversation{ID: "other", ParticipantIDs: []string{"z"}, LastMessageAt: now},
	)
	svc := newTestConversationService(convRepo, &fakeMessageRepo{}, newFakeUserRepo(), &fakePublisher{})

	convs, err := svc.ListForUser(context.Background(), "a")
	if err != nil {
		t.Fatalf("ListForUser() error = %v", err)
	}
	if len(convs) != 2 || convs[0].ID != "new" || convs[1].ID != "old" {
		ids := make([]string, len(convs))
		for i, c := range convs {
			ids[i] = c.ID
		}
		t.Errorf("ListForUser() order = %v, want [new old]", ids)
	}
}
