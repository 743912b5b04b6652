package models

import "time"

// Achievement is a badge unlocked once per user and type.
type Achievement struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          uint      `gorm:"uniqueIndex:idx_achievement_user_type;not null" json:"user_id"`
	AchievementType string    `gorm:"uniqueIndex:idx_achievement_user_type;size:32;not null" json:"achievement_type"`
	AchievementName string    `gorm:"size:64;not null" json:"achievement_name"`
	EarnedAt        time.Time `gorm:"not null" json:"earned_at"`
}
