package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"dreamreel/internal/config"
)

// NewRedisClient connects the cleanup queue. Redis is optional for this
// service; callers get nil back when it is disabled and must treat that
// as "queueing off".
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
