package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Newsletter subscription lifecycle states. Bounced is terminal: it is
// set by the external bounce processor and blocks re-subscription here.
const (
	SubscriptionActive       = "active"
	SubscriptionUnsubscribed = "unsubscribed"
	SubscriptionBounced      = "bounced"
)

// NewsletterSubscription tracks one email address across its
// subscribe/unsubscribe history. Repeat subscriptions toggle the status
// on the existing row rather than inserting a new one.
type NewsletterSubscription struct {
	ID             string     `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Email          string     `gorm:"uniqueIndex;not null" json:"email"`
	Status         string     `gorm:"not null;default:active;index" json:"status"`
	Verified       bool       `gorm:"default:false" json:"verified"`
	BounceCount    int        `gorm:"default:0" json:"bounce_count"`
	SubscribedAt   time.Time  `json:"subscribed_at"`
	UnsubscribedAt *time.Time `json:"unsubscribed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TableName specifies the table name
func (NewsletterSubscription) TableName() string {
	return "newsletter_subscriptions"
}

// BeforeCreate generates the ID when the database has no uuid default
func (n *NewsletterSubscription) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	return nil
}
