package models

// Question is one entry of the fixed practice catalog.
type Question struct {
	ID                   string `gorm:"primaryKey;size:96" json:"id"`
	Title                string `gorm:"size:255;not null" json:"title"`
	QuestionURL          string `gorm:"size:512;not null" json:"question_url"`
	Difficulty           string `gorm:"size:16;not null" json:"difficulty"`
	Coins                int    `gorm:"not null" json:"coins"`
	Topic                string `gorm:"size:64;index;not null" json:"topic"`
	DayNumber            int    `gorm:"index:idx_question_day_order;not null" json:"day_number"`
	QuestionOrder        int    `gorm:"index:idx_question_day_order;not null" json:"question_order"`
	ConceptualDifficulty string `gorm:"size:16;not null" json:"conceptual_difficulty"`
}
