package models

import (
	"time"
)

// Vote represents one user's vote on one post. The (post_id, user_id) pair is
// the row identity: at most one vote row exists per pair, and a direction
// change updates the row in place. Rows are removed with their post.
type Vote struct {
	PostID    int64     `gorm:"primaryKey;column:post_id" json:"post_id"`
	UserID    int64     `gorm:"primaryKey;column:user_id" json:"user_id"`
	Value     int64     `gorm:"not null;column:value" json:"value"` // +1 or -1
	CreatedAt time.Time `gorm:"not null;column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;column:updated_at" json:"updated_at"`

	// Relationships
	Post  *Post `gorm:"foreignKey:PostID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	Voter *User `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for Vote
func (Vote) TableName() string {
	return "votes"
}
