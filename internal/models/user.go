package models

import (
	"time"
)

// User represents a registered account
type User struct {
	ID           int64     `gorm:"primaryKey;autoIncrement;column:id"`
	Username     string    `gorm:"type:varchar(32);not null;uniqueIndex:quill_users_ux1;column:username"`
	Email        string    `gorm:"type:varchar(255);not null;uniqueIndex:quill_users_ux2;column:email"`
	PasswordHash string    `gorm:"type:varchar(255);not null;column:password_hash"`
	DateJoined   time.Time `gorm:"not null;column:date_joined"`
	IsActive     bool      `gorm:"not null;column:is_active"`
	IsStaff      bool      `gorm:"not null;column:is_staff"`
	IsSuperuser  bool      `gorm:"not null;column:is_superuser"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "quill_users"
}
