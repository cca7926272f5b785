package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(0)

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)

	val := []byte("hello")
	c.Set(ctx, "k", val)
	val[0] = 'j'

	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "hello", string(got), "stored value must not alias the caller's slice")

	got[0] = 'x'
	again, _ := c.Get(ctx, "k")
	assert.Equal(t, "hello", string(again))

	c.Delete(ctx, "k")
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemory(time.Minute)
	c.now = func() time.Time { return now }

	c.Set(ctx, "k", []byte("v"))
	now = now.Add(59 * time.Second)
	_, ok := c.Get(ctx, "k")
	assert.True(t, ok)

	now = now.Add(time.Second)
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)
	assert.Zero(t, c.Len())
}

func TestMemorySetSweepsExpired(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemory(time.Minute)
	c.now = func() time.Time { return now }

	for _, k := range []string{"a", "b", "c"} {
		c.Set(ctx, k, []byte("v"))
	}
	require.Equal(t, 3, c.Len())

	now = now.Add(2 * time.Minute)
	c.Set(ctx, "d", []byte("v"))
	assert.Equal(t, 1, c.Len(), "expired entries are dropped without being read")
}

func TestRedisRoundTrip(t *testing.T) {
	url := os.Getenv("GENLEARN_TEST_REDIS_URL")
	if url == "" {
		t.Skip("GENLEARN_TEST_REDIS_URL not set")
	}
	ctx := context.Background()

	c, err := NewRedis(ctx, url, time.Minute, nil)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	key := "test:" + t.Name()
	c.Set(ctx, key, []byte(`{"a":1}`))
	got, ok := c.Get(ctx, key)
	require.True(t, ok)
	assert.JSONEq(t, `{"a":1}`, string(got))

	c.Delete(ctx, key)
	_, ok = c.Get(ctx, key)
	assert.False(t, ok)
}

func TestNewRedisBadURL(t *testing.T) {
	_, err := NewRedis(context.Background(), "://nope", time.Minute, nil)
	assert.Error(t, err)
}
