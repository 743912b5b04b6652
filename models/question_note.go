package models

import "time"

// QuestionNote holds a user's private note for a question.
type QuestionNote struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"uniqueIndex:idx_note_user_question;not null" json:"user_id"`
	QuestionID  string    `gorm:"uniqueIndex:idx_note_user_question;size:96;not null" json:"question_id"`
	NoteContent string    `gorm:"type:text" json:"note_content"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// All lists every model for auto-migration.
func All() []interface{} {
	return []interface{}{&User{}, &Question{}, &UserProgress{}, &DailyProgress{}, &Achievement{}, &QuestionNote{}}
}
