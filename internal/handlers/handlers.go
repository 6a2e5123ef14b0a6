package handlers

import (
	"github.com/blogpulse/backend/internal/cache"
	"github.com/blogpulse/backend/internal/identity"
	"github.com/blogpulse/backend/internal/moderation"
	"github.com/blogpulse/backend/internal/repository"
	"gorm.io/gorm"
)

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	posts      repository.PostRepository
	likes      repository.LikeRepository
	comments   repository.CommentRepository
	newsletter repository.NewsletterRepository
	feedback   repository.FeedbackRepository
	analytics  repository.AnalyticsRepository

	likeCounts *cache.LikeCounts
	pipeline   *moderation.Pipeline
	resolver   *identity.Resolver

	db *gorm.DB
}

// NewHandlers wires repositories, caches and the moderation pipeline
// over one database handle. redisClient may be nil; caches and
// throttles then degrade to their local fallbacks.
func NewHandlers(db *gorm.DB, redisClient *cache.RedisClient, addressSalt string) *Handlers {
	comments := repository.NewCommentRepository(db)
	counters := cache.NewCounters(redisClient)

	return &Handlers{
		posts:      repository.NewPostRepository(db),
		likes:      repository.NewLikeRepository(db),
		comments:   comments,
		newsletter: repository.NewNewsletterRepository(db),
		feedback:   repository.NewFeedbackRepository(db),
		analytics:  repository.NewAnalyticsRepository(db),
		likeCounts: cache.NewLikeCounts(redisClient),
		pipeline:   moderation.NewPipeline(counters, comments),
		resolver:   identity.NewResolver(addressSalt),
		db:         db,
	}
}
