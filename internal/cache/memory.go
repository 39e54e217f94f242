package cache

import (
	"context"
	"strconv"
	"sync"
	"time"
)

var _ Cache = (*Memory)(nil)

// Memory is a process-local Cache used in tests and single-node local runs.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	value     string
	count     int64
	expiresAt time.Time
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memoryEntry)}
}

func (c *Memory) live(key string) (memoryEntry, bool) {
	e, ok := c.entries[key]
	if !ok {
		return memoryEntry{}, false
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		delete(c.entries, key)
		return memoryEntry{}, false
	}
	return e, true
}

func (c *Memory) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.live(key)
	if !ok {
		return "", ErrMiss
	}
	return e.value, nil
}

func (c *Memory) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := memoryEntry{value: value}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	c.entries[key] = e
	return nil
}

func (c *Memory) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	return nil
}

func (c *Memory) IncrWithExpire(ctx context.Context, key string, window time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.live(key)
	if !ok {
		e = memoryEntry{expiresAt: time.Now().Add(window)}
	}
	e.count++
	// Mirror the counter into the value so Get sees it, the way a Redis
	// INCR-ed key reads back as its decimal string.
	e.value = strconv.FormatInt(e.count, 10)
	c.entries[key] = e
	return e.count, nil
}
