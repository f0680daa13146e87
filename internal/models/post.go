package models

import (
	"time"
)

// Post represents a short text update
type Post struct {
	ID          int64     `gorm:"primaryKey;autoIncrement;column:id"`
	Content     string    `gorm:"type:varchar(512);not null;column:content"`
	IsPublished bool      `gorm:"not null;column:is_published"`
	CreatedAt   time.Time `gorm:"not null;column:created_at"`
	UpdatedAt   time.Time `gorm:"not null;column:updated_at"`
}

// TableName specifies the table name for Post
func (Post) TableName() string {
	return "quill_posts"
}

// PostRelationship links a user to a post as either its author or a
// reposter. Exactly one row per post carries IsOwner=true; the partial
// unique index enforces that. The composite primary key means a user has
// at most one row per post, so authoring and reposting are exclusive.
type PostRelationship struct {
	UserID    int64     `gorm:"primaryKey;column:user_id"`
	PostID    int64     `gorm:"primaryKey;column:post_id;uniqueIndex:quill_post_owner_ux1,where:is_owner"`
	CreatedAt time.Time `gorm:"not null;column:created_at"`
	IsOwner   bool      `gorm:"not null;column:is_owner"`

	// Relationships
	User *User `gorm:"foreignKey:UserID;references:ID"`
	Post *Post `gorm:"foreignKey:PostID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for PostRelationship
func (PostRelationship) TableName() string {
	return "quill_post_relationships"
}
