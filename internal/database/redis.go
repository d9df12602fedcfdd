package database

import (
	"fmt"

	"github.com/go-redis/redis"
	"github.com/xpanvictor/humidhub/internal/config"
)

// NewRedis opens a client from a redis:// URL and checks it answers.
func NewRedis(cfg config.DBConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}

	client := redis.NewClient(opts)
	if err := client.Ping().Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}
