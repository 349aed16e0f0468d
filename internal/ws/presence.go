package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const presenceTTL = 24 * time.Hour

// Presence stores per-user connection metadata in Redis so every instance
// can answer "is this user online".
type Presence struct {
	client *redis.Client
	prefix string
}

type connMeta struct {
	SocketID    string `json:"socket_id"`
	ConnectedAt int64  `json:"connected_at"`
}

func NewPresence(client *redis.Client, prefix string) *Presence {
	return &Presence{client: client, prefix: prefix}
}

func (p *Presence) connKey(userID string) string {
	return fmt.Sprintf("%s:conn:%s", p.prefix, userID)
}

func (p *Presence) presenceKey(userID string) string {
	return fmt.Sprintf("%s:presence:%s", p.prefix, userID)
}

func (p *Presence) AddConnection(ctx context.Context, userID, socketID string) error {
	meta, _ := json.Marshal(connMeta{SocketID: socketID, ConnectedAt: time.Now().Unix()})
	if err := p.client.SAdd(ctx, p.connKey(userID), meta).Err(); err != nil {
		return err
	}
	_ = p.client.Expire(ctx, p.connKey(userID), presenceTTL).Err()
	status, _ := json.Marshal(map[string]any{"status": "online", "last_seen": time.Now().Unix()})
	return p.client.Set(ctx, p.presenceKey(userID), status, presenceTTL).Err()
}

func (p *Presence) RemoveConnection(ctx context.Context, userID, socketID string) error {
	key := p.connKey(userID)
	members, err := p.client.SMembers(ctx, key).Result()
	if err != nil {
		return err
	}
	for _, m := range members {
		var cm connMeta
		if json.Unmarshal([]byte(m), &cm) == nil && cm.SocketID == socketID {
			_ = p.client.SRem(ctx, key, m).Err()
		}
	}
	remaining, _ := p.client.SCard(ctx, key).Result()
	if remaining == 0 {
		status, _ := json.Marshal(map[string]any{"status": "offline", "last_seen": time.Now().Unix()})
		return p.client.Set(ctx, p.presenceKey(userID), status, 0).Err()
	}
	return nil
}

// Get returns the raw presence document, or nil when the user was never seen.
func (p *Presence) Get(ctx context.Context, userID string) (map[string]any, error) {
	b, err := p.client.Get(ctx, p.presenceKey(userID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
