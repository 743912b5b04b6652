package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/winterarc/models"
)

// QuestionRepository mirrors the catalog into the questions table.
type QuestionRepository struct {
	db *gorm.DB
}

// NewQuestionRepository wraps db.
func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

// Seed upserts every catalog question so the table always matches the shipped catalog.
func (r *QuestionRepository) Seed(ctx context.Context, questions []models.Question) error {
	if len(questions) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "question_url", "difficulty", "coins", "topic",
			"day_number", "question_order", "conceptual_difficulty",
		}),
	}).CreateInBatches(&questions, 100).Error
	if err != nil {
		return fmt.Errorf("seed questions: %w", err)
	}
	return nil
}

// Count returns the number of stored questions.
func (r *QuestionRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Question{}).Count(&n).Error
	return n, err
}
