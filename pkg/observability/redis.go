package observability

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/zonealloc/pkg/errors"
)

// DefaultRedisChannel is the pub/sub channel used when none is configured.
const DefaultRedisChannel = "zonealloc.events"

// RedisPublisher publishes events as JSON on a Redis pub/sub channel.
type RedisPublisher struct {
	client  redis.UniversalClient
	channel string
}

// NewRedisPublisher creates a publisher on channel (DefaultRedisChannel if empty).
func NewRedisPublisher(client redis.UniversalClient, channel string) *RedisPublisher {
	if channel == "" {
		channel = DefaultRedisChannel
	}
	return &RedisPublisher{client: client, channel: channel}
}

// OpenRedis parses a redis:// URL and returns a connected client.
func OpenRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeTelemetry, err, "parse redis url")
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(errors.ErrCodeTelemetry, err, "ping redis")
	}
	return client, nil
}

// Publish marshals e and sends it to the channel.
func (p *RedisPublisher) Publish(ctx context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return errors.Wrap(errors.ErrCodeTelemetry, err, "marshal %s", e.Kind)
	}
	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		return errors.Wrap(errors.ErrCodeTelemetry, err, "redis publish %s", e.Kind)
	}
	return nil
}
