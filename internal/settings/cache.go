package settings

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"bookstore-ivr/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const cacheKey = "ivr:settings"

// CachedRepo fronts another Repository with a short-lived Redis copy.
// Settings are read on every inbound call but change rarely.
type CachedRepo struct {
	next Repository
	rdb  *redis.Client
	ttl  time.Duration
}

func NewCachedRepo(next Repository, rdb *redis.Client, ttl time.Duration) *CachedRepo {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachedRepo{next: next, rdb: rdb, ttl: ttl}
}

func (r *CachedRepo) Get(ctx context.Context) (Settings, error) {
	if r.rdb != nil {
		raw, err := r.rdb.Get(ctx, cacheKey).Bytes()
		switch {
		case err == nil:
			var st Settings
			if jerr := json.Unmarshal(raw, &st); jerr == nil {
				return st, nil
			}
		case !errors.Is(err, redis.Nil):
			logger.From(ctx).Warn("settings cache read failed", "err", err)
		}
	}

	st, err := r.next.Get(ctx)
	if err != nil {
		return Settings{}, err
	}

	if r.rdb != nil {
		if raw, jerr := json.Marshal(st); jerr == nil {
			if serr := r.rdb.Set(ctx, cacheKey, raw, r.ttl).Err(); serr != nil {
				logger.From(ctx).Warn("settings cache write failed", "err", serr)
			}
		}
	}
	return st, nil
}

// Save writes through to the next repository and drops the cached copy.
func (r *CachedRepo) Save(ctx context.Context, st Settings) error {
	saver, ok := r.next.(Saver)
	if !ok {
		return ErrReadOnly
	}
	if err := saver.Save(ctx, st); err != nil {
		return err
	}
	if err := r.Invalidate(ctx); err != nil {
		logger.From(ctx).Warn("settings cache invalidate failed", "err", err)
	}
	return nil
}

// Invalidate drops the cached copy.
func (r *CachedRepo) Invalidate(ctx context.Context) error {
	if r.rdb == nil {
		return nil
	}
	return r.rdb.Del(ctx, cacheKey).Err()
}
