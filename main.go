package main

import (
	"context"
	"time"

	"github.com/cppla/winterarc/catalog"
	"github.com/cppla/winterarc/config"
	"github.com/cppla/winterarc/events"
	"github.com/cppla/winterarc/models"
	"github.com/cppla/winterarc/repository"
	"github.com/cppla/winterarc/routes"
	"github.com/cppla/winterarc/services/leaderboard"
	"github.com/cppla/winterarc/services/progression"
	"github.com/cppla/winterarc/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer func() { _ = utils.Logger.Sync() }()

	db := config.InitDatabase(models.All()...)

	cat, err := catalog.Default()
	if err != nil {
		utils.Sugar.Fatalf("load question catalog: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := repository.NewQuestionRepository(db).Seed(ctx, cat.Questions()); err != nil {
		utils.Sugar.Fatalf("seed questions: %v", err)
	}

	rdb := utils.GetRedis()

	var bus events.Bus = events.NewMemoryBus(utils.Logger)
	if rdb != nil {
		rb, err := events.NewRedisBus(ctx, rdb, cfg.RedisChannel, utils.Logger)
		if err != nil {
			utils.Sugar.Warnf("redis event bus unavailable, using in-process bus: %v", err)
		} else {
			bus = rb
		}
	}

	opts := []progression.Option{
		progression.WithPublisher(bus),
		progression.WithDailyLimit(cfg.DailyQuestionLimit),
		progression.WithLogger(utils.Logger),
	}
	if rdb != nil {
		opts = append(opts, progression.WithLocker(utils.NewRedisLocker(rdb, 10*time.Second)))
	}
	engine := progression.NewEngine(repository.NewProgressStore(db), cat, opts...)

	var cache leaderboard.Cache
	if rdb != nil {
		cache = utils.NewRedisCache(rdb)
	}
	board := leaderboard.NewService(
		repository.NewLeaderboardRepository(db),
		cache,
		cfg.LeaderboardSize,
		time.Duration(cfg.LeaderboardTTLSec)*time.Second,
		utils.Logger,
	)
	board.Watch(ctx, bus)

	r := routes.SetupRouter(routes.Deps{
		DB:          db,
		Catalog:     cat,
		Engine:      engine,
		Leaderboard: board,
		Bus:         bus,
		Location:    config.Location(),
	})

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	// closing the bus ends open event streams so shutdown is not held up by them
	if err := utils.GraceServer(":"+cfg.AppPort, r, func() { _ = bus.Close() }); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
