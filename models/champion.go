package models

import (
	"time"
)

// Champion is the frozen XP winner of a closed period.
// (period_type, period_start) is unique; rows are never updated.
type Champion struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	PeriodType  string    `gorm:"type:varchar(16);not null;uniqueIndex:idx_champion_period,priority:1" json:"period_type"`
	PeriodStart time.Time `gorm:"not null;uniqueIndex:idx_champion_period,priority:2" json:"period_start"`
	PeriodEnd   time.Time `gorm:"not null" json:"period_end"`
	UserID      string    `gorm:"type:varchar(64);not null;index" json:"user_id"`
	UserName    string    `gorm:"not null" json:"user_name"`
	UserAvatar  string    `gorm:"not null" json:"user_avatar"`
	XPEarned    int64     `gorm:"column:xp_earned;not null;default:0" json:"xp_earned"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}
