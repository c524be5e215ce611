// Package publisher pushes published opportunity sets to downstream
// consumers over a Redis Stream.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/sharpline/internal/models"
)

// maxStreamLen caps the stream so a slow consumer cannot grow it without
// bound. Old cycles are superseded anyway.
const maxStreamLen = 1000

// RedisPublisher writes each cycle's opportunity set as one stream entry.
type RedisPublisher struct {
	client *redis.Client
	stream string
	log    *logrus.Logger
}

// NewRedisPublisher connects to Redis and verifies the connection.
func NewRedisPublisher(ctx context.Context, addr, stream string, log *logrus.Logger) (*RedisPublisher, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &RedisPublisher{client: client, stream: stream, log: log}, nil
}

// Publish appends the set to the stream. The whole set goes in one entry so
// consumers never see a torn cycle.
func (p *RedisPublisher) Publish(ctx context.Context, set models.OpportunitySet) error {
	payload, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("marshal opportunity set: %w", err)
	}

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: maxStreamLen,
		Approx: true,
		Values: map[string]interface{}{
			"cycle":   strconv.FormatUint(set.Cycle, 10),
			"payload": string(payload),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd to %s: %w", p.stream, err)
	}

	p.log.WithFields(logrus.Fields{
		"stream": p.stream,
		"cycle":  set.Cycle,
	}).Debug("opportunity set published to redis stream")

	return nil
}

// Close releases the Redis connection.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
