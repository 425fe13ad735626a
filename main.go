package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatihyuksel3109/mathlearn/badges"
	"github.com/fatihyuksel3109/mathlearn/cache"
	"github.com/fatihyuksel3109/mathlearn/config"
	"github.com/fatihyuksel3109/mathlearn/database"
	"github.com/fatihyuksel3109/mathlearn/handlers"
	"github.com/fatihyuksel3109/mathlearn/logging"
	"github.com/fatihyuksel3109/mathlearn/middleware"
	"github.com/fatihyuksel3109/mathlearn/periods"
	"github.com/fatihyuksel3109/mathlearn/services"
	"github.com/fatihyuksel3109/mathlearn/utils"
	"github.com/fatihyuksel3109/mathlearn/workers"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/jonboulle/clockwork"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logging.Info().Msg("⚠️  No .env file found, reading environment variables directly")
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	loc, _ := cfg.Location()
	cal := periods.NewCalendar(loc)
	clock := clockwork.NewRealClock()

	db, err := database.Open(cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		logging.Fatal().Err(err).Msg("failed to migrate database")
	}

	catalog, err := badges.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load badge catalog")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var archiver services.ChampionArchiver
	if cfg.Archive.Enabled {
		r2, err := utils.NewR2Archiver(ctx, cfg.Archive)
		if err != nil {
			logging.Fatal().Err(err).Msg("failed to initialize R2 client")
		}
		archiver = r2
	}

	var lbCache cache.Leaderboard = cache.Noop{}
	if cfg.Redis.Enabled {
		rc, err := cache.NewRedisLeaderboard(ctx, cfg.Redis)
		if err != nil {
			logging.Warn().Err(err).Msg("⚠️  redis unavailable, leaderboard cache disabled")
		} else {
			defer rc.Close()
			lbCache = rc
		}
	}

	progressionService := services.NewProgressionService(db, cal, clock)
	badgeService := services.NewBadgeService(db, catalog, cal, clock)
	championService := services.NewChampionService(db, cal, clock, archiver)
	leaderboardService := services.NewLeaderboardService(db, championService, lbCache)
	levelService := services.NewLevelService(db)
	gameService := services.NewGameService(db, progressionService, badgeService, championService, clock)
	gameService.Leaderboards = leaderboardService

	if cfg.Game.ChampionSweepInterval > 0 {
		sched, err := championService.StartChampionScheduler(ctx, cfg.Game.ChampionSweepInterval)
		if err != nil {
			logging.Fatal().Err(err).Msg("failed to start champion scheduler")
		}
		defer func() { _ = sched.Shutdown() }()
	}

	if cfg.Sync.Enabled {
		workers.NewProfileSyncWorker(db, cfg.Sync, cfg.Gateway.ServiceToken).Start(ctx)
	}

	app := fiber.New(fiber.Config{
		BodyLimit:   cfg.Server.BodyLimit,
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,
	})

	app.Use(middleware.RequestLogger())

	// 🔐❗ GLOBAL: Only Gateway requests allowed
	app.Use(middleware.GatewayAuthMiddleware(cfg.Gateway.ServiceToken))

	allowedOrigins := strings.Join(cfg.Server.AllowedOrigins, ",")
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     "GET,POST,OPTIONS,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, Cache-Control, X-User-ID, X-User-Name, X-User-Avatar",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	handlers.SetupGameRoutes(app, gameService, levelService)
	handlers.SetupProgressionRoutes(app, handlers.ProgressionDeps{
		Progression:    progressionService,
		Badges:         badgeService,
		Leaderboards:   leaderboardService,
		Champions:      championService,
		StreamInterval: cfg.Game.StreamPollInterval,
	})

	go func() {
		if err := app.Listen(cfg.Server.Addr); err != nil {
			logging.Error().Err(err).Msg("Server error")
		}
	}()

	logging.Info().Str("addr", cfg.Server.Addr).Msg("✅ Server running")
	logging.Info().Str("timezone", loc.String()).Int("badges", catalog.Len()).Msg("✅ Scoring ready")
	logging.Info().Str("origins", allowedOrigins).Msg("✅ CORS configured")

	<-ctx.Done()
	logging.Info().Msg("Shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logging.Error().Err(err).Msg("shutdown failed")
	}
}
