package repository

import (
	"context"
	"errors"

	"github.com/blogpulse/backend/internal/models"
	"gorm.io/gorm"
)

// ErrPostNotFound is returned for unknown post ids or slugs
var ErrPostNotFound = errors.New("post not found")

// PostRepository reads posts and their derived counts. Posts are
// created out-of-band; nothing here writes them.
type PostRepository interface {
	ListPosts(ctx context.Context, limit, offset int) ([]models.Post, int64, error)
	GetPostBySlug(ctx context.Context, slug string) (*models.Post, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// ListPosts returns a page of posts, newest first, with derived
// like/comment counts filled in
func (r *postRepository) ListPosts(ctx context.Context, limit, offset int) ([]models.Post, int64, error) {
	var posts []models.Post
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := r.fillCounts(ctx, posts); err != nil {
		return nil, 0, err
	}

	return posts, total, nil
}

// GetPostBySlug returns one post with derived counts, or ErrPostNotFound
func (r *postRepository) GetPostBySlug(ctx context.Context, slug string) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	posts := []models.Post{post}
	if err := r.fillCounts(ctx, posts); err != nil {
		return nil, err
	}
	return &posts[0], nil
}

// fillCounts populates the derived like/comment counts with two grouped
// queries instead of per-post lookups
func (r *postRepository) fillCounts(ctx context.Context, posts []models.Post) error {
	if len(posts) == 0 {
		return nil
	}

	ids := make([]string, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
	}

	type postCount struct {
		PostID string
		Count  int64
	}

	var likeCounts []postCount
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Select("post_id, COUNT(*) AS count").
		Where("post_id IN ?", ids).
		Group("post_id").
		Scan(&likeCounts).Error
	if err != nil {
		return err
	}

	var commentCounts []postCount
	err = r.db.WithContext(ctx).Model(&models.Comment{}).
		Select("post_id, COUNT(*) AS count").
		Where("post_id IN ? AND status = ?", ids, models.CommentStatusApproved).
		Group("post_id").
		Scan(&commentCounts).Error
	if err != nil {
		return err
	}

	likesByPost := make(map[string]int64, len(likeCounts))
	for _, lc := range likeCounts {
		likesByPost[lc.PostID] = lc.Count
	}
	commentsByPost := make(map[string]int64, len(commentCounts))
	for _, cc := range commentCounts {
		commentsByPost[cc.PostID] = cc.Count
	}

	for i := range posts {
		posts[i].LikeCount = likesByPost[posts[i].ID]
		posts[i].CommentCount = commentsByPost[posts[i].ID]
	}

	return nil
}
