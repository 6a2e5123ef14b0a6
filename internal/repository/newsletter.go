package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/blogpulse/backend/internal/models"
	"gorm.io/gorm"
)

var (
	// ErrSubscriptionBounced blocks re-subscription of a bounced address
	ErrSubscriptionBounced = errors.New("address has bounced and cannot be re-subscribed")
	// ErrSubscriptionNotFound is returned when unsubscribing an unknown address
	ErrSubscriptionNotFound = errors.New("subscription not found")
)

// SubscribeOutcome describes what the upsert did
type SubscribeOutcome int

const (
	// OutcomeSubscribed means a new row was created
	OutcomeSubscribed SubscribeOutcome = iota
	// OutcomeReactivated means an unsubscribed row was flipped back to active
	OutcomeReactivated
	// OutcomeAlreadySubscribed means the address was already active
	OutcomeAlreadySubscribed
)

// NewsletterRepository handles subscription lifecycle persistence
type NewsletterRepository interface {
	UpsertSubscription(ctx context.Context, email string) (*models.NewsletterSubscription, SubscribeOutcome, error)
	Unsubscribe(ctx context.Context, email string) (*models.NewsletterSubscription, error)
	GetByEmail(ctx context.Context, email string) (*models.NewsletterSubscription, error)
}

type newsletterRepository struct {
	db *gorm.DB
}

// NewNewsletterRepository creates a new newsletter repository
func NewNewsletterRepository(db *gorm.DB) NewsletterRepository {
	return &newsletterRepository{db: db}
}

// NormalizeEmail lower-cases and trims an address; the unique index is
// on the normalized form
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UpsertSubscription creates a subscription on first subscribe,
// reactivates an unsubscribed one, reports an active one unchanged, and
// refuses bounced addresses. Concurrent first subscribes race on the
// unique email index; the loser re-reads and reports already-subscribed.
func (r *newsletterRepository) UpsertSubscription(ctx context.Context, email string) (*models.NewsletterSubscription, SubscribeOutcome, error) {
	email = NormalizeEmail(email)

	var sub models.NewsletterSubscription
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&sub).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, 0, err
	}

	now := time.Now().UTC()

	if errors.Is(err, gorm.ErrRecordNotFound) {
		sub = models.NewsletterSubscription{
			Email:        email,
			Status:       models.SubscriptionActive,
			SubscribedAt: now,
		}
		if createErr := r.db.WithContext(ctx).Create(&sub).Error; createErr != nil {
			if errors.Is(createErr, gorm.ErrDuplicatedKey) {
				// Lost a concurrent subscribe; the row exists now
				if refetch := r.db.WithContext(ctx).Where("email = ?", email).First(&sub).Error; refetch != nil {
					return nil, 0, refetch
				}
				return &sub, OutcomeAlreadySubscribed, nil
			}
			return nil, 0, createErr
		}
		return &sub, OutcomeSubscribed, nil
	}

	switch sub.Status {
	case models.SubscriptionBounced:
		return nil, 0, ErrSubscriptionBounced
	case models.SubscriptionActive:
		return &sub, OutcomeAlreadySubscribed, nil
	default: // unsubscribed
		updates := map[string]interface{}{
			"status":          models.SubscriptionActive,
			"subscribed_at":   now,
			"unsubscribed_at": nil,
		}
		if err := r.db.WithContext(ctx).Model(&sub).Updates(updates).Error; err != nil {
			return nil, 0, err
		}
		sub.Status = models.SubscriptionActive
		sub.SubscribedAt = now
		sub.UnsubscribedAt = nil
		return &sub, OutcomeReactivated, nil
	}
}

// Unsubscribe flips an active subscription to unsubscribed
func (r *newsletterRepository) Unsubscribe(ctx context.Context, email string) (*models.NewsletterSubscription, error) {
	email = NormalizeEmail(email)

	var sub models.NewsletterSubscription
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}

	now := time.Now().UTC()
	if sub.Status == models.SubscriptionActive {
		updates := map[string]interface{}{
			"status":          models.SubscriptionUnsubscribed,
			"unsubscribed_at": now,
		}
		if err := r.db.WithContext(ctx).Model(&sub).Updates(updates).Error; err != nil {
			return nil, err
		}
		sub.Status = models.SubscriptionUnsubscribed
		sub.UnsubscribedAt = &now
	}

	return &sub, nil
}

// GetByEmail returns the subscription row for an address
func (r *newsletterRepository) GetByEmail(ctx context.Context, email string) (*models.NewsletterSubscription, error) {
	email = NormalizeEmail(email)

	var sub models.NewsletterSubscription
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return &sub, nil
}
