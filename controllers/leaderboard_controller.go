package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/winterarc/services/leaderboard"
	"github.com/cppla/winterarc/utils"
)

// LeaderboardController serves the coin ranking.
type LeaderboardController struct {
	board *leaderboard.Service
}

// NewLeaderboardController creates a LeaderboardController.
func NewLeaderboardController(board *leaderboard.Service) *LeaderboardController {
	return &LeaderboardController{board: board}
}

// GetLeaderboard returns the top entries and the caller's rank.
func (l *LeaderboardController) GetLeaderboard(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	board, err := l.board.Board(ctx.Request.Context(), userID)
	if err != nil {
		utils.Sugar.Errorf("leaderboard failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to load leaderboard")
		return
	}
	utils.Success(ctx, board)
}
