package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Like records one anonymous like on a post.
//
// Exactly one identity leg is required: a client token, or the salted
// hash of the caller's address. Dedup scope differs per leg - tokens are
// unique per (post, token) forever, address hashes per (post, hash, UTC day).
// Both rules are enforced by partial unique indexes created in the
// migration pass; the columns here only carry the data.
type Like struct {
	ID        string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	PostID    string    `gorm:"not null;index:idx_likes_post" json:"post_id"`
	ClientID  *string   `gorm:"type:text" json:"client_id,omitempty"`
	IPHash    *string   `gorm:"type:text" json:"-"`
	LikeDay   string    `gorm:"type:text;not null" json:"-"` // UTC date bucket, YYYY-MM-DD
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name
func (Like) TableName() string {
	return "likes"
}

// BeforeCreate generates the ID when the database has no uuid default
func (l *Like) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	return nil
}
