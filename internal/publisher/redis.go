package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"kraken-orderbook-watcher/internal/domain"

	"github.com/redis/go-redis/v9"
)

type RedisClient interface {
	Pipeline() redis.Pipeliner
}

// RedisSink keeps the latest view of each pair under <prefix>book:<pair> and
// publishes every view on <prefix>updates:<pair>.
type RedisSink struct {
	client RedisClient
	prefix string
}

func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func NewRedisSink(client RedisClient, prefix string) *RedisSink {
	return &RedisSink{client: client, prefix: prefix}
}

func (s *RedisSink) Name() string {
	return "redis"
}

func (s *RedisSink) Publish(ctx context.Context, view domain.BookView) error {
	payload, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("failed to marshal book view: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.prefix+"book:"+view.Pair, payload, 0)
	pipe.Publish(ctx, s.prefix+"updates:"+view.Pair, payload)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline for %s: %w", view.Pair, err)
	}
	return nil
}
