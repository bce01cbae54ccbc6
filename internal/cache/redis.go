package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Compile-time interface check.
var _ Counter = (*RedisCounter)(nil)

// RedisCounter implements Counter on Redis so the proof-failure lockout
// is shared across instances. INCR carries the atomicity; the expiry is
// attached once per window with EXPIRE NX.
type RedisCounter struct {
	client *redis.Client
	prefix string
}

// NewRedisCounter creates a counter backed by an existing Redis client.
func NewRedisCounter(client *redis.Client, prefix string) *RedisCounter {
	if prefix == "" {
		prefix = "lockout"
	}
	return &RedisCounter{client: client, prefix: prefix}
}

func (r *RedisCounter) key(key string) string {
	return r.prefix + ":" + key
}

// Increment adds one to the counter and returns the new value.
func (r *RedisCounter) Increment(
	ctx context.Context,
	key string,
	window time.Duration,
) (int64, error) {
	k := r.key(key)

	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	// NX: only the first increment of a window sets the expiry
	pipe.ExpireNX(ctx, k, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, ErrCacheUnavailable
	}

	return incr.Val(), nil
}

// Reset clears the counter for a key.
func (r *RedisCounter) Reset(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return ErrCacheUnavailable
	}
	return nil
}

// Close closes the Redis connection.
func (r *RedisCounter) Close() error {
	return r.client.Close()
}

// Health checks the Redis connection.
func (r *RedisCounter) Health(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return ErrCacheUnavailable
	}
	return nil
}
