package broker

import (
	"aishop/internal/app/model"
	"context"
	"encoding/json"
	"fmt"
	"github.com/go-redis/redis/v8"
)

// RedisPublisher publishes notifications on a redis pub/sub channel.
type RedisPublisher struct {
	client  redis.UniversalClient
	channel string
}

func NewRedisPublisher(client redis.UniversalClient, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, n *model.DepositNotification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("json encode: %w", err)
	}

	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", n.EventID, err)
	}

	return nil
}
