package models

import (
	"time"
)

// UserBadge is one earned badge. (user_id, badge_id) is unique so the
// per-user badge set can only grow.
type UserBadge struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID    string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_user_badge,priority:1" json:"user_id"`
	BadgeID   string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_user_badge,priority:2" json:"badge_id"`
	AwardedAt time.Time `gorm:"not null;index" json:"awarded_at"`
}
