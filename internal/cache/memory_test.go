package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	_, err := c.Get(ctx, "absent")
	require.ErrorIs(t, err, ErrMiss)

	require.NoError(t, c.Set(ctx, "k", "v", 0))
	v, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	require.NoError(t, c.Delete(ctx, "k"))
	_, err = c.Get(ctx, "k")
	require.ErrorIs(t, err, ErrMiss)
}

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	require.NoError(t, c.Set(ctx, "k", "v", 20*time.Millisecond))
	v, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	time.Sleep(30 * time.Millisecond)
	_, err = c.Get(ctx, "k")
	require.ErrorIs(t, err, ErrMiss)
}

func TestMemory_IncrWithExpire(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	n, err := c.IncrWithExpire(ctx, "counter", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = c.IncrWithExpire(ctx, "counter", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	// Counters read back as their decimal string, matching Redis.
	v, err := c.Get(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, "2", v)
}

func TestNoop(t *testing.T) {
	ctx := context.Background()
	c := Noop{}

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	_, err := c.Get(ctx, "k")
	require.ErrorIs(t, err, ErrMiss)

	n, err := c.IncrWithExpire(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}
