package models

import (
	"time"

	"gorm.io/gorm"
)

const DefaultAvatar = "fox"

// UserProfile is the local player record. Identity comes from the gateway;
// display fields are mirrored by the profile sync worker.
type UserProfile struct {
	ID     string `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name   string `gorm:"not null;default:''" json:"name"`
	Avatar string `gorm:"type:varchar(32);not null;default:'fox'" json:"avatar"`

	XP     int64 `gorm:"column:xp;not null;default:0" json:"xp"`
	Streak int   `gorm:"not null;default:0" json:"streak"`

	// RemoteUpdatedAt is the profile service's updated_at of the last applied change.
	RemoteUpdatedAt *time.Time `gorm:"index" json:"-"`

	Timestamps
}

// DisplayName falls back to "Unknown" for profiles that were never synced.
func (u *UserProfile) DisplayName() string {
	if u.Name == "" {
		return "Unknown"
	}
	return u.Name
}

// DisplayAvatar falls back to the default avatar.
func (u *UserProfile) DisplayAvatar() string {
	if u.Avatar == "" {
		return DefaultAvatar
	}
	return u.Avatar
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
