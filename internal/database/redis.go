package database

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"ms-booking/internal/config"
	"ms-booking/internal/logger"
)

// ConnectRedis opens a client for the package lock store and checks it can write.
func ConnectRedis(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		PoolSize: 10,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}

	probe := "package_lock_probe"
	if err := client.Set(ctx, probe, "ok", time.Second).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis write probe: %w", err)
	}

	log.Info("REDIS", fmt.Sprintf("Connected to Redis at %s (DB: %d)", cfg.Addr, client.Options().DB))
	return client, nil
}
