package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/converse-chat/converse/internal/domain"
)

type MessageRepository interface {
	Insert(ctx context.Context, m *domain.Message) error
	GetByID(ctx context.Context, id string) (*domain.Message, error)
	ListForConversation(ctx context.Context, conversationID string, limit int64, before time.Time) ([]*domain.Message, error)
	GetLast(ctx context.Context, conversationID string) (*domain.Message, error)
	MarkSeen(ctx context.Context, messageID, userID string) error
	DeleteForConversation(ctx context.Context, conversationID string) error
}

type messageRepo struct {
	coll *mongo.Collection
}

func NewMessageRepository(db *mongo.Database) MessageRepository {
	coll := db.Collection(messagesCollection)
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "conversation_id", Value: 1}, {Key: "created_at", Value: -1}},
		Options: options.Index().SetName("conversation_created_idx"),
	}
	_, _ = coll.Indexes().CreateOne(context.Background(), idx)
	return &messageRepo{coll: coll}
}

func (r *messageRepo) Insert(ctx context.Context, m *domain.Message) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	_, err := r.coll.InsertOne(ctx, m)
	return err
}

func (r *messageRepo) GetByID(ctx context.Context, id string) (*domain.Message, error) {
	var m domain.Message
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// ListForConversation returns up to limit messages before the given time in
// chronological order.
func (r *messageRepo) ListForConversation(ctx context.Context, conversationID string, limit int64, before time.Time) ([]*domain.Message, error) {
	filter := bson.M{"conversation_id": conversationID}
	if !before.IsZero() {
		filter["created_at"] = bson.M{"$lt": before}
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*domain.Message{}
	for cur.Next(ctx) {
		var m domain.Message
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (r *messageRepo) GetLast(ctx context.Context, conversationID string) (*domain.Message, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	var m domain.Message
	if err := r.coll.FindOne(ctx, bson.M{"conversation_id": conversationID}, opts).Decode(&m); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *messageRepo) MarkSeen(ctx context.Context, messageID, userID string) error {
	res, err := r.coll.UpdateByID(ctx, messageID, bson.M{"$addToSet": bson.M{"seen_by": userID}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *messageRepo) DeleteForConversation(ctx context.Context, conversationID string) error {
	_, err := r.coll.DeleteMany(ctx, bson.M{"conversation_id": conversationID})
	return err
}
