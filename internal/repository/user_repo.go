package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/converse-chat/converse/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, excludeID string) ([]*domain.User, error)
	GetMany(ctx context.Context, ids []string) ([]*domain.User, error)
	UpdateProfile(ctx context.Context, id, name, image string) error
	LinkAccount(ctx context.Context, id string, acc domain.Account) error
}

type userRepo struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) UserRepository {
	coll := db.Collection(usersCollection)
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique_idx"),
	}
	_, _ = coll.Indexes().CreateOne(context.Background(), idx)
	return &userRepo{coll: coll}
}

func (r *userRepo) Create(ctx context.Context, u *domain.User) error {
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	if _, err := r.coll.InsertOne(ctx, u); err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	if err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) List(ctx context.Context, excludeID string) ([]*domain.User, error) {
	filter := bson.M{}
	if excludeID != "" {
		filter["_id"] = bson.M{"$ne": excludeID}
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*domain.User
	for cur.Next(ctx) {
		var u domain.User
		if err := cur.Decode(&u); err != nil {
			return nil, err
		}
		out = append(out, &u)
	}
	return out, cur.Err()
}

func (r *userRepo) GetMany(ctx context.Context, ids []string) ([]*domain.User, error) {
	cur, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*domain.User
	for cur.Next(ctx) {
		var u domain.User
		if err := cur.Decode(&u); err != nil {
			return nil, err
		}
		out = append(out, &u)
	}
	return out, cur.Err()
}

func (r *userRepo) UpdateProfile(ctx context.Context, id, name, image string) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if name != "" {
		set["name"] = name
	}
	if image != "" {
		set["image"] = image
	}
	res, err := r.coll.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepo) LinkAccount(ctx context.Context, id string, acc domain.Account) error {
	update := bson.M{
		"$addToSet": bson.M{"accounts": acc},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	}
	res, err := r.coll.UpdateByID(ctx, id, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
