package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenEmbedded(t *testing.T) {
	ctx := context.Background()
	r, err := Open(ctx, Options{})
	require.NoError(t, err)
	defer r.Close()

	assert.True(t, r.IsEmbedded())
	require.NoError(t, r.Set(ctx, "k", "v", time.Minute))
	ok, err := r.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, r.Delete(ctx, "k"))
	ok, err = r.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIncrSetsWindowOnce(t *testing.T) {
	mr := miniredis.RunT(t)
	r := NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	defer r.Close()
	ctx := context.Background()

	n, ttl, err := r.Incr(ctx, "attempts", time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Equal(t, time.Minute, ttl)

	mr.FastForward(30 * time.Second)
	n, ttl, err = r.Incr(ctx, "attempts", time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.Equal(t, 30*time.Second, ttl)

	mr.FastForward(31 * time.Second)
	n, _, err = r.Incr(ctx, "attempts", time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestNilRedis(t *testing.T) {
	var r *Redis
	assert.ErrorIs(t, r.Set(context.Background(), "k", "v", 0), ErrNotInitialized)
	assert.NoError(t, r.Close())
}
