package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/converse-chat/converse/internal/domain"
)

type ConversationRepository interface {
	Create(ctx context.Context, c *domain.Conversation) error
	GetByID(ctx context.Context, id string) (*domain.Conversation, error)
	ListForUser(ctx context.Context, userID string) ([]*domain.Conversation, error)
	FindDirect(ctx context.Context, userA, userB string) (*domain.Conversation, error)
	SetLastMessage(ctx context.Context, id string, m *domain.Message) error
	Delete(ctx context.Context, id string) error
}

type conversationRepo struct {
	coll *mongo.Collection
}

func NewConversationRepository(db *mongo.Database) ConversationRepository {
	coll := db.Collection(conversationsCollection)
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "participant_ids", Value: 1}, {Key: "last_message_at", Value: -1}},
		Options: options.Index().SetName("participants_recency_idx"),
	}
	_, _ = coll.Indexes().CreateOne(context.Background(), idx)
	return &conversationRepo{coll: coll}
}

func (r *conversationRepo) Create(ctx context.Context, c *domain.Conversation) error {
	now := time.Now().UTC()
	c.CreatedAt = now
	if c.LastMessageAt.IsZero() {
		c.LastMessageAt = now
	}
	_, err := r.coll.InsertOne(ctx, c)
	return err
}

func (r *conversationRepo) GetByID(ctx context.Context, id string) (*domain.Conversation, error) {
	var c domain.Conversation
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *conversationRepo) ListForUser(ctx context.Context, userID string) ([]*domain.Conversation, error) {
	filter := bson.M{"participant_ids": userID}
	opts := options.Find().SetSort(bson.D{{Key: "last_message_at", Value: -1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*domain.Conversation
	for cur.Next(ctx) {
		var c domain.Conversation
		if err := cur.Decode(&c); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, cur.Err()
}

// FindDirect looks up an existing 1:1 conversation containing exactly the two
// users, so starting a chat with the same contact reuses the thread.
func (r *conversationRepo) FindDirect(ctx context.Context, userA, userB string) (*domain.Conversation, error) {
	filter := bson.M{
		"is_group":        false,
		"participant_ids": bson.M{"$all": []string{userA, userB}, "$size": 2},
	}
	var c domain.Conversation
	if err := r.coll.FindOne(ctx, filter).Decode(&c); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// SetLastMessage advances last_message_at to the message's creation time and
// embeds the message for conversation-list previews.
func (r *conversationRepo) SetLastMessage(ctx context.Context, id string, m *domain.Message) error {
	update := bson.M{"$set": bson.M{
		"last_message_at": m.CreatedAt,
		"last_message":    m,
	}}
	res, err := r.coll.UpdateByID(ctx, id, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *conversationRepo) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
