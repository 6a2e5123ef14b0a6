package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Post is a blog post as published by the authoring pipeline.
// Posts are created out-of-band; this API only reads them.
type Post struct {
	ID        string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Slug      string    `gorm:"uniqueIndex;not null" json:"slug"`
	Title     string    `gorm:"not null" json:"title"`
	Body      string    `gorm:"type:text" json:"body,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	// Derived, never stored: populated by list/get queries
	LikeCount    int64 `gorm:"-" json:"like_count"`
	CommentCount int64 `gorm:"-" json:"comment_count"`
}

// TableName specifies the table name
func (Post) TableName() string {
	return "posts"
}

// BeforeCreate generates the ID when the database has no uuid default
func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}
