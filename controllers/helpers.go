package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/winterarc/middleware"
	"github.com/cppla/winterarc/services/progression"
	"github.com/cppla/winterarc/utils"
)

// Clock returns the current calendar day in the configured zone.
type Clock func() time.Time

// ZoneClock builds a Clock for loc.
func ZoneClock(loc *time.Location) Clock {
	return func() time.Time { return progression.DateOf(time.Now(), loc) }
}

func getUserID(ctx *gin.Context) (uint, bool) {
	value, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, v != 0
	case int:
		return uint(v), v > 0
	case int64:
		return uint(v), v > 0
	case float64:
		return uint(v), v > 0
	default:
		return 0, false
	}
}

// progressError maps engine errors onto the response envelope.
func progressError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, progression.ErrDailyCapReached):
		utils.Error(ctx, http.StatusConflict, 40910, err.Error())
	case errors.Is(err, progression.ErrAlreadyCompleted):
		utils.Error(ctx, http.StatusConflict, 40911, err.Error())
	case errors.Is(err, progression.ErrUnknownQuestion):
		utils.Error(ctx, http.StatusNotFound, 40420, err.Error())
	case errors.Is(err, progression.ErrProfileNotFound):
		utils.Error(ctx, http.StatusNotFound, 40401, "user not found")
	default:
		utils.Sugar.Errorf("progress update failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50010, "failed to update progress")
	}
}
