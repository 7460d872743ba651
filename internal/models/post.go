package models

import (
	"time"
)

const (
	PostTitleMaxLen   = 100
	PostContentMaxLen = 3000
)

type Post struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Title     string     `gorm:"size:255;not null" json:"title"`
	Content   string     `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `gorm:"column:updated_at;autoUpdateTime:false" json:"updated_at"` // nil until the first edit
	UserID    uint       `gorm:"not null;index" json:"user_id"`
	User      User       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`

	// Not a column. Filled by the listing queries from COUNT over post_user_likes.
	LikeCount int64 `gorm:"->;-:migration" json:"like_count"`
}
