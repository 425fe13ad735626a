package models

import (
	"time"
)

// MaxStars is the best rating for an adventure level.
const MaxStars = 3

// LevelProgress tracks one user's result on one adventure level.
type LevelProgress struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID    string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_user_level,priority:1" json:"user_id"`
	LevelID   string    `gorm:"type:varchar(32);not null;uniqueIndex:idx_user_level,priority:2" json:"level_id"`
	Completed bool      `gorm:"not null;default:false" json:"completed"`
	Stars     int       `gorm:"not null;default:0" json:"stars"` // 0..3
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
