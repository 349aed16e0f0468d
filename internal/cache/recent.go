package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/converse-chat/converse/internal/domain"
)

const (
	recentLimit = 100
	recentTTL   = 24 * time.Hour
)

// RecentMessages keeps the newest messages of each conversation in a capped
// Redis list so thread views open without a Mongo round trip.
type RecentMessages struct {
	client *redis.Client
	prefix string
}

func NewRecentMessages(client *redis.Client, prefix string) *RecentMessages {
	return &RecentMessages{client: client, prefix: prefix}
}

func (c *RecentMessages) key(conversationID string) string {
	return c.prefix + ":recent:" + conversationID
}

// Push is best effort; cache failures never surface.
func (c *RecentMessages) Push(ctx context.Context, conversationID string, m *domain.Message) {
	b, err := json.Marshal(m)
	if err != nil {
		return
	}
	key := c.key(conversationID)
	_ = c.client.LPush(ctx, key, b).Err()
	_ = c.client.LTrim(ctx, key, 0, recentLimit-1).Err()
	_ = c.client.Expire(ctx, key, recentTTL).Err()
}

// Recent returns cached messages in chronological order, empty on miss.
func (c *RecentMessages) Recent(ctx context.Context, conversationID string, limit int64) []*domain.Message {
	if limit <= 0 || limit > recentLimit {
		limit = recentLimit
	}
	vals, err := c.client.LRange(ctx, c.key(conversationID), 0, limit-1).Result()
	if err != nil || len(vals) == 0 {
		return nil
	}
	out := make([]*domain.Message, 0, len(vals))
	for i := len(vals) - 1; i >= 0; i-- {
		var m domain.Message
		if err := json.Unmarshal([]byte(vals[i]), &m); err != nil {
			return nil
		}
		out = append(out, &m)
	}
	return out
}

// Invalidate drops the cached list, e.g. after seen-by updates.
func (c *RecentMessages) Invalidate(ctx context.Context, conversationID string) {
	_ = c.client.Del(ctx, c.key(conversationID)).Err()
}
