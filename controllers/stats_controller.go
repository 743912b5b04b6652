package controllers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/winterarc/models"
	"github.com/cppla/winterarc/services/progression"
	"github.com/cppla/winterarc/utils"
)

// StatsController provides programme-wide statistics.
type StatsController struct {
	db    *gorm.DB
	today Clock
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(db *gorm.DB, today Clock) *StatsController {
	return &StatsController{db: db, today: today}
}

// GetStats returns aggregate counts. Failed counts are reported as 0 instead of failing the endpoint.
func (s *StatsController) GetStats(ctx *gin.Context) {
	db := s.db.WithContext(ctx.Request.Context())
	var (
		userCount       int64
		completionCount int64
		activeToday     int64
		completedToday  int64
		achievements    int64
	)

	if err := db.Model(&models.User{}).Count(&userCount).Error; err != nil {
		userCount = 0
	}
	if err := db.Model(&models.UserProgress{}).Count(&completionCount).Error; err != nil {
		completionCount = 0
	}
	if err := db.Model(&models.Achievement{}).Count(&achievements).Error; err != nil {
		achievements = 0
	}

	today := progression.FormatDay(s.today())
	todayRows := db.Model(&models.DailyProgress{}).Where("date = ? AND questions_completed > 0", today)
	if err := todayRows.Count(&activeToday).Error; err != nil {
		activeToday = 0
	}
	if err := db.Model(&models.DailyProgress{}).
		Where("date = ?", today).
		Select("COALESCE(SUM(questions_completed),0)").
		Row().Scan(&completedToday); err != nil {
		completedToday = 0
	}

	utils.Success(ctx, gin.H{
		"user_count":         userCount,
		"completion_count":   completionCount,
		"achievement_count":  achievements,
		"active_today_count": activeToday,
		"completed_today":    completedToday,
		"date":               today,
	})
}
