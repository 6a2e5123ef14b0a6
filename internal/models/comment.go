package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Moderation status for comments. New comments default to approved;
// status changes happen outside this API.
const (
	CommentStatusApproved = "approved"
	CommentStatusPending  = "pending"
	CommentStatusRejected = "rejected"
)

// Comment is an anonymous comment on a post. Content is stored
// post-sanitization - the raw submission never reaches the database.
type Comment struct {
	ID          string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	PostID      string    `gorm:"not null;index:idx_comments_post_created" json:"post_id"`
	DisplayName string    `gorm:"not null" json:"display_name"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	ClientID    *string   `gorm:"type:text" json:"-"`
	IPHash      *string   `gorm:"type:text" json:"-"`
	Status      string    `gorm:"not null;default:approved;index" json:"status"`
	CreatedAt   time.Time `gorm:"index:idx_comments_post_created" json:"created_at"`
}

// TableName specifies the table name
func (Comment) TableName() string {
	return "comments"
}

// BeforeCreate generates the ID when the database has no uuid default
func (cm *Comment) BeforeCreate(tx *gorm.DB) error {
	if cm.ID == "" {
		cm.ID = uuid.New().String()
	}
	return nil
}
