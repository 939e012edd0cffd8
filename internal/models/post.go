package models

import (
	"time"
)

// Post represents a submitted text post.
//
// Points is mutated only by the vote aggregator, inside the same transaction
// that writes the vote row; it always equals the sum of the post's vote values.
type Post struct {
	ID        int64     `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	Title     string    `gorm:"type:varchar(255);not null;column:title" json:"title"`
	Text      string    `gorm:"type:text;not null;column:text" json:"text"`
	UserID    int64     `gorm:"not null;index;column:user_id" json:"user_id"`
	Points    int64     `gorm:"not null;default:0;column:points" json:"points"`
	CreatedAt time.Time `gorm:"not null;index;column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;column:updated_at" json:"updated_at"`

	// Relationships
	Author *User `gorm:"foreignKey:UserID;references:ID" json:"-"`
}

// TableName specifies the table name for Post
func (Post) TableName() string {
	return "posts"
}

// Snippet returns the leading part of the post text for list views.
func (p *Post) Snippet() string {
	const max = 50
	runes := []rune(p.Text)
	if len(runes) <= max {
		return p.Text
	}
	return string(runes[:max]) + "..."
}
