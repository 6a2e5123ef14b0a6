package repository

import (
	"context"

	"github.com/blogpulse/backend/internal/models"
	"gorm.io/gorm"
)

// FeedbackStats aggregates feedback for reporting
type FeedbackStats struct {
	Total         int64            `json:"total"`
	AverageRating float64          `json:"average_rating"`
	ByRating      map[int]int64    `json:"by_rating"`
	ByStatus      map[string]int64 `json:"by_status"`
}

// FeedbackRepository handles feedback persistence and aggregates
type FeedbackRepository interface {
	InsertFeedback(ctx context.Context, fb *models.Feedback) error
	Stats(ctx context.Context) (*FeedbackStats, error)
	Recent(ctx context.Context, limit int, status string, minRating int) ([]models.Feedback, error)
}

type feedbackRepository struct {
	db *gorm.DB
}

// NewFeedbackRepository creates a new feedback repository
func NewFeedbackRepository(db *gorm.DB) FeedbackRepository {
	return &feedbackRepository{db: db}
}

// InsertFeedback stores a validated feedback submission
func (r *feedbackRepository) InsertFeedback(ctx context.Context, fb *models.Feedback) error {
	if fb.Status == "" {
		fb.Status = models.FeedbackPending
	}
	return r.db.WithContext(ctx).Create(fb).Error
}

// Stats computes totals, average rating and per-rating/per-status counts
func (r *feedbackRepository) Stats(ctx context.Context) (*FeedbackStats, error) {
	stats := &FeedbackStats{
		ByRating: make(map[int]int64),
		ByStatus: make(map[string]int64),
	}

	if err := r.db.WithContext(ctx).Model(&models.Feedback{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	if stats.Total == 0 {
		return stats, nil
	}

	var avg struct{ Avg float64 }
	err := r.db.WithContext(ctx).Model(&models.Feedback{}).
		Select("AVG(rating) AS avg").
		Scan(&avg).Error
	if err != nil {
		return nil, err
	}
	stats.AverageRating = avg.Avg

	type ratingCount struct {
		Rating int
		Count  int64
	}
	var ratings []ratingCount
	err = r.db.WithContext(ctx).Model(&models.Feedback{}).
		Select("rating, COUNT(*) AS count").
		Group("rating").
		Scan(&ratings).Error
	if err != nil {
		return nil, err
	}
	for _, rc := range ratings {
		stats.ByRating[rc.Rating] = rc.Count
	}

	type statusCount struct {
		Status string
		Count  int64
	}
	var statuses []statusCount
	err = r.db.WithContext(ctx).Model(&models.Feedback{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&statuses).Error
	if err != nil {
		return nil, err
	}
	for _, sc := range statuses {
		stats.ByStatus[sc.Status] = sc.Count
	}

	return stats, nil
}

// Recent lists feedback newest first with optional status/rating filters
func (r *feedbackRepository) Recent(ctx context.Context, limit int, status string, minRating int) ([]models.Feedback, error) {
	query := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if minRating > 0 {
		query = query.Where("rating >= ?", minRating)
	}

	var items []models.Feedback
	err := query.Find(&items).Error
	return items, err
}
