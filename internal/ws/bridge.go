package ws

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Bridge forwards Redis pub/sub traffic to resident websocket clients.
// Conversation channels fan out to joined rooms; user channels go straight
// to that user's sockets. Browsers thus need no Redis access.
type Bridge struct {
	rdb    *redis.Client
	prefix string
	hub    *Hub
	log    *zap.SugaredLogger
}

func NewBridge(rdb *redis.Client, prefix string, hub *Hub, log *zap.SugaredLogger) *Bridge {
	return &Bridge{rdb: rdb, prefix: prefix, hub: hub, log: log}
}

// Run blocks until ctx is cancelled.
func (b *Bridge) Run(ctx context.Context) error {
	sub := b.rdb.PSubscribe(ctx, b.prefix+":*")
	defer sub.Close()

	convPrefix := b.prefix + ":conversation:"
	userPrefix := b.prefix + ":user:"

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			frame := []byte(msg.Payload)
			switch {
			case strings.HasPrefix(msg.Channel, convPrefix):
				b.hub.BroadcastToRoom(strings.TrimPrefix(msg.Channel, convPrefix), frame)
			case strings.HasPrefix(msg.Channel, userPrefix):
				b.hub.SendToEmail(strings.TrimPrefix(msg.Channel, userPrefix), frame)
			}
		}
	}
}
