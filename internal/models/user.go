package models

import (
	"time"
)

// User represents a registered account
type User struct {
	ID        int64     `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	Username  string    `gorm:"type:varchar(32);not null;uniqueIndex:users_username_ux;column:username" json:"username"`
	Email     string    `gorm:"type:varchar(255);not null;uniqueIndex:users_email_ux;column:email" json:"email"`
	Password  string    `gorm:"type:varchar(255);not null;column:password" json:"-"`
	CreatedAt time.Time `gorm:"not null;column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;column:updated_at" json:"updated_at"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}
