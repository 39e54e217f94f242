package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var _ Cache = (*Redis)(nil)

// Redis backs Cache with a redis server.
type Redis struct {
	client *redis.Client
}

func NewRedis(addr, password string) *Redis {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	return &Redis{client: rdb}
}

func (c *Redis) Get(ctx context.Context, key string) (string, error) {
	v, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrMiss
		}
		return "", err
	}
	return v, nil
}

func (c *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *Redis) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

func (c *Redis) IncrWithExpire(ctx context.Context, key string, window time.Duration) (int64, error) {
	cnt, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}

	// First increment owns setting the window.
	if cnt == 1 {
		_ = c.client.Expire(ctx, key, window).Err()
	}
	return cnt, nil
}

func (c *Redis) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Redis) Close() error {
	return c.client.Close()
}
