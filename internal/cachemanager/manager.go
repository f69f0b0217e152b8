package cachemanager

import (
	"context"
	"time"
)

// CacheManager is the caching surface the rendering layer memoizes through.
// Keys are string-like so composite keys (overlay id + phase + size) can be
// built with plain concatenation.
type CacheManager[K ~string, V any] interface {
	Get(ctx context.Context, key K) (V, bool)
	GetWithRefresh(ctx context.Context, key K, ttl time.Duration) (V, bool)
	Set(ctx context.Context, key K, value V, ttl time.Duration)
	Delete(ctx context.Context, keys ...K) error
	Flush(ctx context.Context) error
}
