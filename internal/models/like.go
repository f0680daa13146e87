package models

import (
	"time"
)

// Like represents a like on a post. Unlike flips IsActive; CreatedAt is
// refreshed on every toggle, so it tracks the last transition.
type Like struct {
	UserID    int64     `gorm:"primaryKey;column:user_id"`
	PostID    int64     `gorm:"primaryKey;column:post_id"`
	CreatedAt time.Time `gorm:"not null;column:created_at"`
	IsActive  bool      `gorm:"not null;column:is_active"`

	// Relationships
	User *User `gorm:"foreignKey:UserID;references:ID"`
	Post *Post `gorm:"foreignKey:PostID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for Like
func (Like) TableName() string {
	return "quill_post_likes"
}
