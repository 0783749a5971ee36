package ivr

import (
	"context"
	"time"

	"bookstore-ivr/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// Limiter caps concurrent outbound initiations per key.
type Limiter interface {
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// RedisLimiter allows one holder per key. TTL bounds a slot leaked by a
// crashed process.
type RedisLimiter struct {
	RDB *redis.Client
	TTL time.Duration
}

func (l RedisLimiter) Acquire(ctx context.Context, key string) (bool, error) {
	ttl := l.TTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	return utils.AcquireConcurrencyCap(ctx, l.RDB, key, 1, ttl)
}

func (l RedisLimiter) Release(ctx context.Context, key string) error {
	return utils.ReleaseConcurrencyCap(ctx, l.RDB, key)
}

func clickToCallKey(phone string) string { return "ivr:click-to-call:" + phone }
