package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersLocalFallback(t *testing.T) {
	c := NewCounters(nil)
	ctx := context.Background()

	for i := int64(1); i <= 5; i++ {
		count, err := c.Incr(ctx, "k", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, i, count)
	}

	// Independent keys do not interfere
	count, err := c.Incr(ctx, "other", time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestCountersLocalWindowExpires(t *testing.T) {
	c := NewCounters(nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := c.Incr(ctx, "k", 20*time.Millisecond)
		require.NoError(t, err)
	}

	time.Sleep(30 * time.Millisecond)

	count, err := c.Incr(ctx, "k", 20*time.Millisecond)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count, "old entries should have slid out of the window")
}

func TestLikeCountsDegradesWithoutRedis(t *testing.T) {
	lc := NewLikeCounts(nil)
	ctx := context.Background()

	_, hit := lc.Get(ctx, "post-1")
	assert.False(t, hit)

	// Set is a no-op rather than a panic
	lc.Set(ctx, "post-1", 42)

	_, hit = lc.Get(ctx, "post-1")
	assert.False(t, hit)
}
