package repository

import (
	"context"
	"time"

	"github.com/blogpulse/backend/internal/models"
	"gorm.io/gorm"
)

// CommentRepository handles all database operations for comments
type CommentRepository interface {
	InsertComment(ctx context.Context, comment *models.Comment) error
	ListComments(ctx context.Context, postID string, limit, offset int) ([]models.Comment, int64, error)
	HasRecentDuplicate(ctx context.Context, postID, content string, since time.Time) (bool, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

// InsertComment stores an already-sanitized comment
func (r *commentRepository) InsertComment(ctx context.Context, comment *models.Comment) error {
	if comment.Status == "" {
		comment.Status = models.CommentStatusApproved
	}
	return r.db.WithContext(ctx).Create(comment).Error
}

// ListComments returns approved comments for a post, newest first,
// with the total for pagination
func (r *commentRepository) ListComments(ctx context.Context, postID string, limit, offset int) ([]models.Comment, int64, error) {
	var comments []models.Comment
	err := r.db.WithContext(ctx).
		Where("post_id = ? AND status = ?", postID, models.CommentStatusApproved).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&comments).Error
	if err != nil {
		return nil, 0, err
	}

	var total int64
	err = r.db.WithContext(ctx).Model(&models.Comment{}).
		Where("post_id = ? AND status = ?", postID, models.CommentStatusApproved).
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	return comments, total, nil
}

// HasRecentDuplicate reports whether an identical cleaned body was
// stored for the post since the given time
func (r *commentRepository) HasRecentDuplicate(ctx context.Context, postID, content string, since time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Comment{}).
		Where("post_id = ? AND content = ? AND created_at >= ?", postID, content, since).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
