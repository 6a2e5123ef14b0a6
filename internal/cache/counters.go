package cache

import (
	"context"
	"sync"
	"time"
)

// Counters provides shared expiring counters keyed by actor identity.
// Backed by Redis INCR + EXPIRE so every replica observes the same
// window; when Redis is unavailable it falls back to an in-process
// sliding window, which is only correct for a single replica.
type Counters struct {
	redis *RedisClient

	mu       sync.Mutex
	fallback map[string][]time.Time
}

// NewCounters creates a counter set. rc may be nil.
func NewCounters(rc *RedisClient) *Counters {
	return &Counters{
		redis:    rc,
		fallback: make(map[string][]time.Time),
	}
}

// Incr bumps the counter for key and returns the count within the
// current window. The expiry is attached on the first increment so the
// window starts at the first event, matching the sliding-window
// behavior callers expect for throttling.
func (c *Counters) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	if c.redis != nil {
		count, err := c.redis.IncrBy(ctx, key, 1)
		if err == nil {
			if count == 1 {
				if expErr := c.redis.Expire(ctx, key, window); expErr != nil {
					// Counter without expiry would throttle forever; drop it.
					_ = c.redis.Del(ctx, key)
					return c.incrLocal(key, window), nil
				}
			}
			return count, nil
		}
		// Redis down: fall through to process-local counting
	}

	return c.incrLocal(key, window), nil
}

// incrLocal is the in-process sliding window fallback
func (c *Counters) incrLocal(key string, window time.Duration) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-window)

	kept := c.fallback[key][:0]
	for _, t := range c.fallback[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	kept = append(kept, now)
	c.fallback[key] = kept

	return int64(len(kept))
}
