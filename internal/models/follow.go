package models

import (
	"time"
)

// Follow represents a directed follow edge: FollowerID follows UserID.
// The composite primary key allows at most one edge per ordered pair;
// unfollow flips IsActive instead of deleting the row.
type Follow struct {
	FollowerID int64     `gorm:"primaryKey;column:follower_id"`
	UserID     int64     `gorm:"primaryKey;column:user_id"`
	CreatedAt  time.Time `gorm:"not null;column:created_at"`
	IsActive   bool      `gorm:"not null;column:is_active"`

	// Relationships
	Follower *User `gorm:"foreignKey:FollowerID;references:ID"`
	User     *User `gorm:"foreignKey:UserID;references:ID"`
}

// TableName specifies the table name for Follow
func (Follow) TableName() string {
	return "quill_follows"
}
