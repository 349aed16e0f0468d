package events

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/converse-chat/converse/internal/metrics"
)

// RedisPublisher fans events out over Redis pub/sub. Channels are keyed by
// conversation id for in-thread broadcast and by user email for per-user
// conversation-list updates.
type RedisPublisher struct {
	client *redis.Client
	prefix string
	log    *zap.SugaredLogger
}

func NewRedisPublisher(client *redis.Client, prefix string, log *zap.SugaredLogger) *RedisPublisher {
	return &RedisPublisher{client: client, prefix: prefix, log: log}
}

func (p *RedisPublisher) PublishToConversation(ctx context.Context, conversationID, event string, payload any) {
	p.publish(ctx, ConversationChannel(p.prefix, conversationID), event, payload)
}

func (p *RedisPublisher) PublishToUser(ctx context.Context, userEmail, event string, payload any) {
	p.publish(ctx, UserChannel(p.prefix, userEmail), event, payload)
}

func (p *RedisPublisher) publish(ctx context.Context, channel, event string, payload any) {
	env, err := NewEnvelope(event, payload)
	if err != nil {
		p.log.Errorw("marshal event payload", "event", event, "err", err)
		return
	}
	b, _ := json.Marshal(env)
	if err := p.client.Publish(ctx, channel, b).Err(); err != nil {
		// Fire-and-forget: delivery is best effort, callers never see this.
		p.log.Warnw("publish event", "channel", channel, "event", event, "err", err)
		return
	}
	metrics.EventsPublished.WithLabelValues(event).Inc()
}
