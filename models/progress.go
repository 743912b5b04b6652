package models

import "time"

// UserProgress records that a user completed a question. At most one row per (user, question).
type UserProgress struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"uniqueIndex:idx_progress_user_question;not null" json:"user_id"`
	QuestionID  string    `gorm:"uniqueIndex:idx_progress_user_question;size:96;not null" json:"question_id"`
	CoinsEarned int       `gorm:"not null" json:"coins_earned"`
	CompletedAt time.Time `gorm:"not null" json:"completed_at"`
}

func (UserProgress) TableName() string { return "user_progress" }

// DailyProgress aggregates completions per user and calendar day.
type DailyProgress struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	UserID             uint      `gorm:"uniqueIndex:idx_daily_user_date;not null" json:"user_id"`
	Date               string    `gorm:"uniqueIndex:idx_daily_user_date;size:10;not null" json:"date"`
	QuestionsCompleted int       `gorm:"not null;default:0" json:"questions_completed"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (DailyProgress) TableName() string { return "daily_progress" }
