package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/winterarc/models"
)

// NoteRepository stores per-user question notes.
type NoteRepository struct {
	db *gorm.DB
}

// NewNoteRepository wraps db.
func NewNoteRepository(db *gorm.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

// Get returns the note or found=false.
func (r *NoteRepository) Get(ctx context.Context, userID uint, questionID string) (models.QuestionNote, bool, error) {
	var note models.QuestionNote
	err := r.db.WithContext(ctx).Where("user_id = ? AND question_id = ?", userID, questionID).First(&note).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.QuestionNote{}, false, nil
		}
		return models.QuestionNote{}, false, fmt.Errorf("load note: %w", err)
	}
	return note, true, nil
}

// ListForUser returns question id -> note content.
func (r *NoteRepository) ListForUser(ctx context.Context, userID uint) (map[string]string, error) {
	var notes []models.QuestionNote
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&notes).Error; err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	out := make(map[string]string, len(notes))
	for _, n := range notes {
		out[n.QuestionID] = n.NoteContent
	}
	return out, nil
}

// Upsert creates or replaces the note content.
func (r *NoteRepository) Upsert(ctx context.Context, userID uint, questionID, content string) (models.QuestionNote, error) {
	now := time.Now()
	note := models.QuestionNote{UserID: userID, QuestionID: questionID, NoteContent: content, CreatedAt: now, UpdatedAt: now}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "question_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"note_content": content, "updated_at": now}),
	}).Create(&note).Error
	if err != nil {
		return models.QuestionNote{}, fmt.Errorf("upsert note: %w", err)
	}
	stored, _, err := r.Get(ctx, userID, questionID)
	return stored, err
}
