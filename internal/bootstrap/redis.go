package bootstrap

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/sabnocksid/lms-backend/internal/config"

	"github.com/redis/go-redis/v9"
)

// initializeRedisClient creates the shared go-redis client used by the
// request rate limiter and the proof failure counter. Returns nil when
// no Redis address is configured; callers fall back to in-memory
// equivalents.
func initializeRedisClient(cfg *config.Config) (*redis.Client, error) {
	if cfg.RedisAddr == "" {
		return nil, nil //nolint:nilnil // redis is optional
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.RedisAddr, err)
	}

	log.Printf("Redis client initialized (address: %s, db: %d)", cfg.RedisAddr, cfg.RedisDB)
	return client, nil
}
