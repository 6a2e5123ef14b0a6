package repository

import (
	"context"
	"errors"
	"time"

	"github.com/blogpulse/backend/internal/identity"
	"github.com/blogpulse/backend/internal/models"
	"gorm.io/gorm"
)

var (
	// ErrDuplicateLike means this identity already liked the post. It is
	// returned both by the pre-check and by the constraint translation,
	// so losers of a concurrent race see the same error as repeat callers.
	ErrDuplicateLike = errors.New("already liked")
	// ErrLikeNotFound means unlike found nothing to remove
	ErrLikeNotFound = errors.New("like not found")
)

// LikeRepository handles all database operations for likes
type LikeRepository interface {
	InsertLike(ctx context.Context, postID string, actor identity.Identity) (*models.Like, error)
	DeleteLike(ctx context.Context, postID string, actor identity.Identity) error
	CountLikes(ctx context.Context, postID string) (int64, error)
	HasLike(ctx context.Context, postID string, actor identity.Identity) (bool, error)
}

type likeRepository struct {
	db *gorm.DB
}

// NewLikeRepository creates a new like repository
func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

// likeDay buckets a timestamp into the UTC calendar day used for
// address-hash dedup scope.
func likeDay(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// likeScope narrows a query to the dedup scope of the identity variant:
// (post, token) for tokens, (post, hash, today) for address hashes.
func likeScope(q *gorm.DB, postID string, actor identity.Identity) *gorm.DB {
	q = q.Where("post_id = ?", postID)
	if token, ok := actor.Token(); ok {
		return q.Where("client_id = ?", token)
	}
	hash, _ := actor.AddressHash()
	return q.Where("client_id IS NULL AND ip_hash = ? AND like_day = ?", hash, likeDay(time.Now()))
}

// HasLike is the pre-check used for friendly conflict messages. It is
// not atomic with the insert; the unique index is what actually holds
// under concurrency.
func (r *likeRepository) HasLike(ctx context.Context, postID string, actor identity.Identity) (bool, error) {
	var count int64
	err := likeScope(r.db.WithContext(ctx).Model(&models.Like{}), postID, actor).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// InsertLike records a like for the actor, translating a lost
// pre-check race into the same duplicate error the pre-check produces.
func (r *likeRepository) InsertLike(ctx context.Context, postID string, actor identity.Identity) (*models.Like, error) {
	exists, err := r.HasLike(ctx, postID, actor)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateLike
	}

	now := time.Now().UTC()
	like := models.Like{
		PostID:    postID,
		LikeDay:   likeDay(now),
		CreatedAt: now,
	}
	if token, ok := actor.Token(); ok {
		like.ClientID = &token
	} else if hash, ok := actor.AddressHash(); ok {
		like.IPHash = &hash
	}

	if err := r.db.WithContext(ctx).Create(&like).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateLike
		}
		return nil, err
	}

	return &like, nil
}

// DeleteLike removes the actor's like. Address-hash identities can only
// remove the current day's like, matching their dedup scope.
func (r *likeRepository) DeleteLike(ctx context.Context, postID string, actor identity.Identity) error {
	res := likeScope(r.db.WithContext(ctx), postID, actor).Delete(&models.Like{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrLikeNotFound
	}
	return nil
}

// CountLikes returns the true like count for a post
func (r *likeRepository) CountLikes(ctx context.Context, postID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Like{}).Where("post_id = ?", postID).Count(&count).Error
	return count, err
}
