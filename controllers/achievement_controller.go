package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/winterarc/catalog"
	"github.com/cppla/winterarc/repository"
	"github.com/cppla/winterarc/utils"
)

// AchievementController lists unlocked badges.
type AchievementController struct {
	repo *repository.AchievementRepository
}

// NewAchievementController creates an AchievementController.
func NewAchievementController(repo *repository.AchievementRepository) *AchievementController {
	return &AchievementController{repo: repo}
}

// ListAchievements returns the caller's achievements newest first, plus the display catalog.
func (a *AchievementController) ListAchievements(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	rows, err := a.repo.ListForUser(ctx.Request.Context(), userID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to load achievements")
		return
	}

	earned := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		info := catalog.AchievementByType(row.AchievementType, row.AchievementName)
		earned = append(earned, gin.H{
			"type":        row.AchievementType,
			"name":        info.Name,
			"description": info.Description,
			"earned_at":   row.EarnedAt,
		})
	}
	utils.Success(ctx, gin.H{
		"earned":  earned,
		"catalog": catalog.Achievements(),
	})
}
