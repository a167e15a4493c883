package intent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const DefaultQueueKey = "payrecon:intents"

// RedisPublisher appends intents as JSON to a Redis list.
type RedisPublisher struct {
	client *redis.Client
	key    string
}

func NewRedisPublisher(client *redis.Client, key string) *RedisPublisher {
	if key == "" {
		key = DefaultQueueKey
	}

	return &RedisPublisher{client: client, key: key}
}

func (p *RedisPublisher) Publish(ctx context.Context, in Intent) error {
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshaling intent: %w", err)
	}

	if err := p.client.RPush(ctx, p.key, data).Err(); err != nil {
		return fmt.Errorf("pushing intent %s: %w", in.ID, err)
	}

	return nil
}

var _ Publisher = (*RedisPublisher)(nil)
