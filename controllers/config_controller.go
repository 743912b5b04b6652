package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/cppla/winterarc/catalog"
	"github.com/cppla/winterarc/config"
	"github.com/cppla/winterarc/utils"
)

// ConfigController serves programme rules that clients display.
type ConfigController struct {
	dailyLimit int
}

// NewConfigController creates a ConfigController reporting the engine's daily limit.
func NewConfigController(dailyLimit int) *ConfigController {
	return &ConfigController{dailyLimit: dailyLimit}
}

// GetRules returns the programme length, daily limit, coin values, time zone and achievement catalog.
func (c *ConfigController) GetRules(ctx *gin.Context) {
	cfg := config.Get()
	utils.Success(ctx, gin.H{
		"total_days":      catalog.TotalDays,
		"total_questions": catalog.TotalQuestions,
		"daily_limit":     c.dailyLimit,
		"timezone":        cfg.Timezone,
		"coins": gin.H{
			"easy":   10,
			"medium": 20,
			"hard":   30,
		},
		"leaderboard_size": cfg.LeaderboardSize,
		"achievements":     catalog.Achievements(),
	})
}
