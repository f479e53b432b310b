package infra

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// NewRedis opens the client shared by the job queue, the DLQ, and the stats
// cache. Startup fails fast on an unreachable Redis rather than degrading the
// workers silently.
func NewRedis(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opts)

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	return rdb, nil
}
