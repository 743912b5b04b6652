package models

import (
	"time"

	"gorm.io/gorm"
)

// User is a Winter Arc profile. Passwords are stored as bcrypt hashes only.
type User struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	Email            string         `gorm:"size:255;index" json:"email"`
	PasswordHash     string         `gorm:"size:255" json:"-"`
	Provider         string         `gorm:"size:32;uniqueIndex:idx_users_identity,priority:1" json:"provider"`
	ProviderID       string         `gorm:"size:255;uniqueIndex:idx_users_identity,priority:2" json:"provider_id"` // email for local accounts
	RegisterIP       string         `gorm:"size:45" json:"-"`
	DisplayName      string         `gorm:"size:64;not null" json:"display_name"`
	AvatarURL        string         `gorm:"size:512" json:"avatar_url"`
	TotalCoins       int            `gorm:"not null;default:0;index" json:"total_coins"`
	CurrentStreak    int            `gorm:"not null;default:0" json:"current_streak"`
	LastActivityDate *string        `gorm:"size:10" json:"last_activity_date"` // YYYY-MM-DD in the configured zone
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate hook ensures timestamps are set even when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	return nil
}

// BeforeUpdate ensures the UpdatedAt timestamp is refreshed.
func (u *User) BeforeUpdate(tx *gorm.DB) error {
	u.UpdatedAt = time.Now()
	return nil
}
