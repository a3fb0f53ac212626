package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"swapscope/internal/model"
)

// Publisher is the part of *redis.Client the sink uses.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// Redis publishes each record on a pub/sub channel. Nothing is stored.
type Redis struct {
	client  Publisher
	channel string
}

func NewRedis(client Publisher, channel string) *Redis {
	return &Redis{client: client, channel: channel}
}

func (s *Redis) Emit(ctx context.Context, record model.PriceRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal price record: %w", err)
	}
	if err := s.client.Publish(ctx, s.channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", s.channel, err)
	}
	return nil
}
