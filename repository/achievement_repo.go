package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/cppla/winterarc/models"
)

// AchievementRepository reads unlocked achievements.
type AchievementRepository struct {
	db *gorm.DB
}

// NewAchievementRepository wraps db.
func NewAchievementRepository(db *gorm.DB) *AchievementRepository {
	return &AchievementRepository{db: db}
}

// ListForUser returns achievements newest first.
func (r *AchievementRepository) ListForUser(ctx context.Context, userID uint) ([]models.Achievement, error) {
	var out []models.Achievement
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("earned_at DESC, id DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	return out, nil
}
