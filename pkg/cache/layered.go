package cache

import (
	"context"
	"errors"
	"time"
)

// LayeredCache keeps a short-lived in-process copy in front of Redis so
// several processes share values while hot keys stay local.
type LayeredCache struct {
	local    *MemoryCache
	remote   *RedisCache
	backfill time.Duration
}

func NewLayeredCache(remote *RedisCache, opts ...LayeredOption) *LayeredCache {
	cfg := &LayeredConfig{
		MemoryMaxSize: 1000,
		BackfillTTL:   30 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return &LayeredCache{
		local:    NewMemoryCache(WithMemoryMaxSize(cfg.MemoryMaxSize)),
		remote:   remote,
		backfill: cfg.BackfillTTL,
	}
}

// Set writes through to Redis first.
func (lc *LayeredCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if err := lc.remote.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	return lc.local.Set(ctx, key, value, ttl)
}

func (lc *LayeredCache) Get(ctx context.Context, key string, dest interface{}) error {
	if err := lc.local.Get(ctx, key, dest); err == nil {
		return nil
	} else if !errors.Is(err, ErrCacheMiss) {
		return err
	}

	if err := lc.remote.Get(ctx, key, dest); err != nil {
		return err
	}
	// short backfill so writes from other processes are picked up
	return lc.local.Set(ctx, key, dest, lc.backfill)
}

func (lc *LayeredCache) Delete(ctx context.Context, keys ...string) error {
	_ = lc.local.Delete(ctx, keys...)
	return lc.remote.Delete(ctx, keys...)
}

func (lc *LayeredCache) Exists(ctx context.Context, key string) (bool, error) {
	if ok, _ := lc.local.Exists(ctx, key); ok {
		return true, nil
	}
	return lc.remote.Exists(ctx, key)
}

func (lc *LayeredCache) Close() error {
	_ = lc.local.Close()
	return lc.remote.Close()
}

var (
	_ Service = (*MemoryCache)(nil)
	_ Service = (*RedisCache)(nil)
	_ Service = (*LayeredCache)(nil)
)
