// Package cache holds the Redis-backed helpers of the booking API.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	idempotencyPrefix     = "idem:booking:"
	defaultIdempotencyTTL = 24 * time.Hour
)

// RedisIdempotency claims Idempotency-Key values with SET NX so a client
// retry of a booking request is detected instead of admitted twice.
type RedisIdempotency struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisIdempotency returns keys that expire after ttl.
func NewRedisIdempotency(client *redis.Client, ttl time.Duration) *RedisIdempotency {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return &RedisIdempotency{client: client, ttl: ttl}
}

// Reserve claims key and reports whether this call got it.
func (r *RedisIdempotency) Reserve(ctx context.Context, key string) (bool, error) {
	return r.client.SetNX(ctx, idempotencyPrefix+key, 1, r.ttl).Result()
}

// Forget deletes key.
func (r *RedisIdempotency) Forget(ctx context.Context, key string) error {
	return r.client.Del(ctx, idempotencyPrefix+key).Err()
}
