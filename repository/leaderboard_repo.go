package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/cppla/winterarc/models"
	"github.com/cppla/winterarc/services/leaderboard"
)

// LeaderboardRepository answers ranking queries over the users table.
type LeaderboardRepository struct {
	db *gorm.DB
}

// NewLeaderboardRepository wraps db.
func NewLeaderboardRepository(db *gorm.DB) *LeaderboardRepository {
	return &LeaderboardRepository{db: db}
}

// ListProfilesByCoinsDescending returns up to limit profiles ordered by coins, ties by id.
func (r *LeaderboardRepository) ListProfilesByCoinsDescending(ctx context.Context, limit int) ([]leaderboard.Entry, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Select("id", "display_name", "avatar_url", "total_coins", "current_streak").
		Order("total_coins DESC, id ASC").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("list leaderboard: %w", err)
	}
	out := make([]leaderboard.Entry, 0, len(users))
	for _, u := range users {
		out = append(out, leaderboard.Entry{
			UserID:        u.ID,
			DisplayName:   u.DisplayName,
			AvatarURL:     u.AvatarURL,
			TotalCoins:    u.TotalCoins,
			CurrentStreak: u.CurrentStreak,
		})
	}
	return out, nil
}

// CountProfilesWithCoinsGreaterThan counts profiles with strictly more than n coins.
func (r *LeaderboardRepository) CountProfilesWithCoinsGreaterThan(ctx context.Context, n int) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("total_coins > ?", n).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count leaderboard: %w", err)
	}
	return int(count), nil
}
