package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/winterarc/catalog"
	"github.com/cppla/winterarc/config"
	"github.com/cppla/winterarc/controllers"
	"github.com/cppla/winterarc/events"
	"github.com/cppla/winterarc/middleware"
	"github.com/cppla/winterarc/repository"
	"github.com/cppla/winterarc/services/leaderboard"
	"github.com/cppla/winterarc/services/progression"
	"github.com/cppla/winterarc/utils"
)

// Deps are the long-lived services the handlers need.
type Deps struct {
	DB          *gorm.DB
	Catalog     *catalog.Catalog
	Engine      *progression.Engine
	Leaderboard *leaderboard.Service
	Bus         events.Bus
	Location    *time.Location
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(d Deps) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Access log goes to its own rolling file
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err != nil {
		utils.Sugar.Warnf("gin access log disabled: %v", err)
		gl = utils.Logger
	}
	r.Use(utils.Ginzap(gl, time.RFC3339, true))
	r.Use(utils.RecoveryWithZap(gl, true))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	loc := d.Location
	if loc == nil {
		loc = time.UTC
	}
	today := controllers.ZoneClock(loc)

	authController := controllers.NewAuthController(d.DB)
	progressController := controllers.NewProgressController(d.Engine, today)
	questionController := controllers.NewQuestionController(d.Catalog, d.Engine, repository.NewNoteRepository(d.DB), today)
	leaderboardController := controllers.NewLeaderboardController(d.Leaderboard)
	achievementController := controllers.NewAchievementController(repository.NewAchievementRepository(d.DB))
	eventsController := controllers.NewEventsController(d.Bus)
	statsController := controllers.NewStatsController(d.DB, today)
	configController := controllers.NewConfigController(d.Engine.DailyLimit())

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.GET("/oauth/:provider/login", authController.OAuthRedirect)
	authGroup.GET("/oauth/:provider/callback", authController.OAuthCallback)
	authGroup.POST("/logout", middleware.AuthRequired(), authController.Logout)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)
	authGroup.PATCH("/profile", middleware.AuthRequired(), authController.UpdateProfile)

	// Public programme info
	api.GET("/stats", statsController.GetStats)
	api.GET("/config/rules", configController.GetRules)

	// EventSource cannot send headers, so the stream also accepts ?access_token=
	api.GET("/events", middleware.StreamAuthRequired(), eventsController.Stream)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware())
	protected.GET("/questions", questionController.ListQuestions)
	protected.GET("/questions/:id/note", questionController.GetNote)
	protected.PUT("/questions/:id/note", questionController.PutNote)
	protected.GET("/dashboard", progressController.Dashboard)
	protected.GET("/achievements", achievementController.ListAchievements)
	protected.GET("/leaderboard", leaderboardController.GetLeaderboard)

	progress := protected.Group("/questions/:id/complete")
	progress.Use(middleware.UserRateLimit(30))
	progress.POST("", progressController.Complete)
	progress.DELETE("", progressController.Uncomplete)

	r.NoRoute(func(ctx *gin.Context) {
		if strings.HasPrefix(ctx.Request.URL.Path, "/api/") {
			utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
			return
		}
		ctx.JSON(http.StatusNotFound, gin.H{"message": "not found"})
	})

	return r
}
