package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/winterarc/catalog"
	"github.com/cppla/winterarc/services/progression"
	"github.com/cppla/winterarc/utils"
)

// ProgressController handles completing questions and the dashboard summary.
type ProgressController struct {
	engine *progression.Engine
	today  Clock
}

// NewProgressController creates a new controller instance.
func NewProgressController(engine *progression.Engine, today Clock) *ProgressController {
	return &ProgressController{engine: engine, today: today}
}

// Complete records a completion for the current day and returns the new state.
func (p *ProgressController) Complete(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	questionID := strings.TrimSpace(ctx.Param("id"))

	res, err := p.engine.RecordCompletion(ctx.Request.Context(), userID, questionID, p.today())
	if err != nil {
		progressError(ctx, err)
		return
	}

	unlocked := make([]catalog.AchievementInfo, 0, len(res.Unlocked))
	for _, u := range res.Unlocked {
		unlocked = append(unlocked, catalog.AchievementByType(u.Type, u.Name))
	}
	utils.Success(ctx, gin.H{
		"question_id":       res.QuestionID,
		"coins_earned":      res.CoinsEarned,
		"total_coins":       res.Profile.TotalCoins,
		"current_streak":    res.Profile.CurrentStreak,
		"today_completed":   res.Daily.QuestionsCompleted,
		"daily_limit":       p.engine.DailyLimit(),
		"unlocked":          unlocked,
		"last_activity_day": formatDay(res.Profile),
	})
}

// Uncomplete removes the completion record. Coins, streak and the daily counter are kept.
func (p *ProgressController) Uncomplete(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	questionID := strings.TrimSpace(ctx.Param("id"))

	remaining, err := p.engine.RevertCompletion(ctx.Request.Context(), userID, questionID)
	if err != nil {
		progressError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{
		"question_id": questionID,
		"completed":   remaining,
	})
}

// Dashboard returns the caller's totals and progress percentages.
func (p *ProgressController) Dashboard(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	snap, err := p.engine.Snapshot(ctx.Request.Context(), userID, p.today())
	if err != nil {
		progressError(ctx, err)
		return
	}

	limit := p.engine.DailyLimit()
	completed := len(snap.Completed)
	utils.Success(ctx, gin.H{
		"profile": gin.H{
			"id":                 snap.Profile.UserID,
			"display_name":       snap.Profile.DisplayName,
			"avatar_url":         snap.Profile.AvatarURL,
			"total_coins":        snap.Profile.TotalCoins,
			"current_streak":     snap.Profile.CurrentStreak,
			"last_activity_date": formatDay(snap.Profile),
		},
		"total_completed":  completed,
		"total_questions":  catalog.TotalQuestions,
		"today_completed":  snap.Daily.QuestionsCompleted,
		"daily_limit":      limit,
		"overall_progress": percent(completed, catalog.TotalQuestions),
		"daily_progress":   percent(snap.Daily.QuestionsCompleted, limit),
		"completed":        snap.Completed,
	})
}

func formatDay(p progression.Profile) *string {
	if p.LastActivityDate == nil {
		return nil
	}
	s := progression.FormatDay(*p.LastActivityDate)
	return &s
}

// percent rounds to one decimal and clamps to 100.
func percent(n, total int) float64 {
	if total <= 0 {
		return 0
	}
	v := float64(n) * 1000 / float64(total)
	v = float64(int(v+0.5)) / 10
	if v > 100 {
		return 100
	}
	return v
}
