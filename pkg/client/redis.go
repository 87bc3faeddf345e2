package client

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"autolease/pkg/logger"
)

// NewRedisClient connects the vehicle read cache. Redis is an optimization,
// not a dependency the engine needs for correctness, so a failed connection
// logs a warning and returns nil; callers degrade to uncached reads.
func NewRedisClient(log *logger.Logger, addr, password string, db int) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("Redis unavailable, vehicle cache disabled", "addr", addr, "error", err)
		return nil
	}

	log.Info("Successfully connected to Redis")
	return client
}
