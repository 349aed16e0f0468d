package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrNotFound = errors.New("not found")

// ErrDuplicate maps Mongo's duplicate-key error (code 11000).
var ErrDuplicate = errors.New("duplicate key")

const (
	usersCollection         = "users"
	conversationsCollection = "conversations"
	messagesCollection      = "messages"
)

// Connect dials Mongo with a bounded handshake timeout.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return client, nil
}

// mongoWriteConflictCode is the server error code for a rejected concurrent
// write inside a transactional storage engine operation.
const mongoWriteConflictCode = 112

// IsWriteConflict reports whether err is a transient write-contention failure
// that is safe to retry.
func IsWriteConflict(err error) bool {
	if err == nil {
		return false
	}
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		if cmdErr.Code == mongoWriteConflictCode || cmdErr.HasErrorLabel("TransientTransactionError") {
			return true
		}
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == mongoWriteConflictCode {
				return true
			}
		}
	}
	return false
}

func isDuplicateKey(err error) bool {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	return false
}
