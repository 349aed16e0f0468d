package client

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

// Subscriber attaches a ConversationList to the user's pub/sub channel and
// applies events as they arrive. Decode failures are skipped; the channel is
// at-least-once and the reducers are idempotent, so dropped frames are
// recovered by later deliveries or a full refetch.
type Subscriber struct {
	rdb    *redis.Client
	prefix string
}

func NewSubscriber(rdb *redis.Client, prefix string) *Subscriber {
	return &Subscriber{rdb: rdb, prefix: prefix}
}

func (s *Subscriber) channel(email string) string {
	return s.prefix + ":user:" + email
}

// Run blocks until ctx is cancelled, feeding events for the given user into
// the list.
func (s *Subscriber) Run(ctx context.Context, email string, list *ConversationList) error {
	sub := s.rdb.Subscribe(ctx, s.channel(email))
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var env Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				continue
			}
			_ = list.Apply(env)
		}
	}
}
