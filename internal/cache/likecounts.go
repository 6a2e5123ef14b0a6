package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/blogpulse/backend/internal/logger"
	"go.uber.org/zap"
)

// LikeCountTTL bounds staleness of cached counts between writes
const LikeCountTTL = 60 * time.Second

// LikeCounts is the read-through cache for per-post like counts.
// It holds derived copies only - write-path decisions (dedup checks)
// always go to the database, and after every durable like/unlike the
// true count is recomputed and written back here so concurrent readers
// never observe a stale zero. A nil receiver (Redis absent) degrades to
// permanent misses.
type LikeCounts struct {
	redis *RedisClient
}

// NewLikeCounts creates the like-count cache on top of a Redis client
func NewLikeCounts(rc *RedisClient) *LikeCounts {
	return &LikeCounts{redis: rc}
}

func likeCountKey(postID string) string {
	return fmt.Sprintf("likes:count:%s", postID)
}

// Get returns the cached count and true on a hit
func (lc *LikeCounts) Get(ctx context.Context, postID string) (int64, bool) {
	if lc == nil || lc.redis == nil {
		return 0, false
	}

	count, err := lc.redis.GetInt(ctx, likeCountKey(postID))
	if err != nil {
		if !IsNil(err) {
			logger.Warn("like count cache read failed",
				logger.WithPostID(postID),
				zap.Error(err),
			)
		}
		return 0, false
	}
	return count, true
}

// Set overwrites the cached count with a fresh TTL. Called with the
// recomputed true count after misses and after writes; errors are
// logged and swallowed because the next read-through heals the entry.
func (lc *LikeCounts) Set(ctx context.Context, postID string, count int64) {
	if lc == nil || lc.redis == nil {
		return
	}

	if err := lc.redis.SetEx(ctx, likeCountKey(postID), strconv.FormatInt(count, 10), LikeCountTTL); err != nil {
		logger.Warn("like count cache write failed",
			logger.WithPostID(postID),
			zap.Error(err),
		)
	}
}
