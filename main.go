package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"story-competition/archive"
	"story-competition/assessment"
	"story-competition/cache"
	"story-competition/config"
	"story-competition/handlers"
	"story-competition/logger"
	"story-competition/middleware"
	"story-competition/natsclient"
	"story-competition/repository"
	"story-competition/services"
	"story-competition/utils"
	"story-competition/workers"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}
	log, err := logger.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()
	if !cfg.EnvFileLoaded {
		log.Info("no .env file found, reading environment variables directly")
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}
	if cfg.ServiceToken == "" {
		log.Fatal("SERVICE_TOKEN is not set, service cannot authenticate gateway")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := db.AutoMigrate(repository.Models()...); err != nil {
		log.Fatal("failed to migrate database", zap.Error(err))
	}
	repo := repository.NewPostgres(db)

	// Optional collaborators: each one degrades to a no-op when unavailable.
	var resultsCache services.ResultsCache
	redisCache := cache.NewRedisCache(cfg.RedisURL, cfg.RedisPassword, 0, cfg.ResultsTTL, log.Named("cache"))
	if err := redisCache.Ping(ctx); err != nil {
		log.Warn("redis unavailable, results cache disabled", zap.Error(err))
	} else {
		resultsCache = redisCache
		defer redisCache.Close()
	}

	var notifier services.Notifier
	nc, err := natsclient.NewNatsClient(cfg.NATSURL)
	if err != nil {
		log.Warn("nats unavailable, notifications disabled", zap.Error(err))
	} else {
		notifier = nc
		defer nc.Close()
	}

	var assessmentArchive services.AssessmentArchive
	var history handlers.AssessmentHistory
	if mongoClient, err := archive.Connect(ctx, cfg.MongoDBURL); err != nil {
		log.Warn("mongodb unavailable, assessment archive disabled", zap.Error(err))
	} else if mongoArchive, err := archive.NewMongoArchive(ctx, mongoClient, cfg.MongoDatabase); err != nil {
		log.Warn("assessment archive setup failed", zap.Error(err))
	} else {
		assessmentArchive, history = mongoArchive, mongoArchive
		defer func() { _ = mongoClient.Disconnect(context.Background()) }()
	}

	var documents services.DocumentReader
	if store, err := utils.NewR2Store(ctx, utils.R2Config{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		AccessKeySecret: cfg.R2SecretAccessKey,
		Bucket:          cfg.R2Bucket,
	}); err != nil {
		log.Warn("R2 unavailable, stored documents cannot be read", zap.Error(err))
	} else {
		documents = store
	}

	engine, err := assessment.NewEngine(
		assessment.WithTimeout(cfg.AssessmentTimeout),
		assessment.WithLogger(log.Named("assessment")),
	)
	if err != nil {
		log.Fatal("failed to build assessment engine", zap.Error(err))
	}

	policy := services.SchedulePolicy{JudgingStartDay: cfg.JudgingStartDay, ArchiveAfter: cfg.ArchiveAfter}
	judgingService := services.NewJudgingService(repo, engine, documents, assessmentArchive, cfg.JudgingWorkers, log.Named("judging"))
	rankingService := services.NewRankingService(repo, resultsCache, notifier, log.Named("ranking"))
	competitionService := services.NewCompetitionService(repo, policy, judgingService, rankingService, notifier, log.Named("competition"))
	entryService := services.NewEntryService(repo, services.NewQuotaGuard(repo, cfg.QuotaCap), competitionService, notifier, log.Named("entry"))

	scheduler := services.NewPhaseScheduler(competitionService, cfg.AdvanceCron, log.Named("scheduler"))
	if err := scheduler.Start(); err != nil {
		log.Fatal("failed to start phase scheduler", zap.Error(err))
	}

	if cfg.PublishingServiceURL != "" {
		syncWorker := workers.NewSubmissionSyncWorker(repo, cfg.PublishingServiceURL, cfg.PublishingToken, cfg.SyncInterval, log.Named("sync"))
		syncWorker.Start(ctx)
	} else {
		log.Warn("PUBLISHING_SERVICE_URL not set, submission sync disabled")
	}

	app := fiber.New(fiber.Config{
		BodyLimit:             4 * 1024 * 1024,
		DisableStartupMessage: cfg.Production(),
	})

	// 🔐 GLOBAL: only gateway requests allowed
	app.Use(middleware.GatewayAuthMiddleware(cfg.ServiceToken, log.Named("gateway")))

	origins := strings.Split(cfg.AllowedOrigins, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(origins, ","),
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Request-ID, X-User-ID, X-User-Roles",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Get("/health", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"status": "ok"}) })
	handlers.SetupCompetitionRoutes(app, competitionService, entryService, rankingService)
	handlers.SetupAssessmentRoutes(app, engine)
	handlers.SetupAdminRoutes(app, competitionService, rankingService, judgingService, history)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error("server error", zap.Error(err))
		}
	}()
	log.Info("server running", zap.String("port", cfg.Port), zap.String("env", cfg.AppEnv))

	<-ctx.Done()
	log.Info("shutting down server")
	if err := scheduler.Stop(); err != nil {
		log.Warn("scheduler shutdown", zap.Error(err))
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Warn("server shutdown", zap.Error(err))
	}
}
