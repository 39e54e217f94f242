// Package cache is the advisory read-acceleration layer. It is never the
// system of record: every value stored here can be rebuilt from storage,
// and callers must treat failures as misses.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned when a key is absent or expired.
var ErrMiss = errors.New("cache miss")

type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error

	// IncrWithExpire bumps a counter, starting its TTL window on first
	// increment. Used for externally-scoped rate counters.
	IncrWithExpire(ctx context.Context, key string, window time.Duration) (int64, error)
}

// Noop satisfies Cache while caching nothing. Used when no cache backend is
// configured; every read is a miss and counters never accumulate.
type Noop struct{}

func (Noop) Get(ctx context.Context, key string) (string, error) { return "", ErrMiss }

func (Noop) Set(ctx context.Context, key, value string, ttl time.Duration) error { return nil }

func (Noop) Delete(ctx context.Context, key string) error { return nil }

func (Noop) IncrWithExpire(ctx context.Context, key string, window time.Duration) (int64, error) {
	return 0, nil
}
