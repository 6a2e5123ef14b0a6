package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Feedback review states
const (
	FeedbackPending  = "pending"
	FeedbackReviewed = "reviewed"
	FeedbackArchived = "archived"
)

// Feedback is a reader-submitted site rating with optional free text.
// Submissions are rate-limited per actor UUID at the handler layer.
type Feedback struct {
	ID        string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ActorUUID string    `gorm:"not null;index" json:"uuid"`
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email,omitempty"`
	Rating    int       `gorm:"not null" json:"rating"`
	Text      string    `gorm:"type:text;not null" json:"feedback_text"`
	Status    string    `gorm:"not null;default:pending;index" json:"status"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName specifies the table name
func (Feedback) TableName() string {
	return "feedback"
}

// BeforeCreate generates the ID when the database has no uuid default
func (f *Feedback) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	return nil
}
