package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "github.com/maheshrc27/autopost-api/configs"
	"github.com/maheshrc27/autopost-api/internal/api/handlers"
	"github.com/maheshrc27/autopost-api/internal/api/middleware"
	job "github.com/maheshrc27/autopost-api/internal/jobs"
	"github.com/maheshrc27/autopost-api/internal/models"
	"github.com/maheshrc27/autopost-api/internal/queue"
	"github.com/maheshrc27/autopost-api/internal/repository"
	"github.com/maheshrc27/autopost-api/internal/service"
	"github.com/robfig/cron"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("Failed to load environment variables", "error", err)
	}

	cfg := config.LoadConfig()
	slog.SetDefault(newLogger(cfg.LogLevel, cfg.LogFormat))

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		fatal("Failed to connect to database", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		fatal("Database is unreachable", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	ctx := context.Background()

	stateRepo, err := newStateRepository(ctx, cfg)
	if err != nil {
		fatal("Failed to open scheduler state", err)
	}

	loc, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		slog.Warn("Unknown scheduler timezone, using local time", "timezone", cfg.Scheduler.Timezone)
		loc = time.Local
	}

	rateLimiter, err := service.NewRateLimiter(ctx, stateRepo, service.RateLimiterOptions{
		Defaults: models.SchedulerConfig{
			Enabled:            cfg.Scheduler.Enabled,
			MinIntervalMinutes: cfg.Scheduler.MinIntervalMinutes,
			MaxPostsPerDay:     cfg.Scheduler.MaxPostsPerDay,
			KeywordRotation:    cfg.Scheduler.KeywordRotation,
			Keywords:           cfg.Scheduler.Keywords,
		},
		TestMode: cfg.Scheduler.TestMode,
		Location: loc,
	})
	if err != nil {
		fatal("Failed to load scheduler state", err)
	}

	assetRepo := repository.NewAssetRepository(db)
	platformRepo := repository.NewPlatformRepository(db)
	historyRepo := repository.NewPostingHistoryRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	autoPostRepo := repository.NewAutoPostConfigRepository(db)

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	rnd := service.NewTimeSeededRandom()
	llm := service.NewOpenAIGenerator(cfg.OpenAI)
	if llm == nil {
		slog.Warn("OPENAI_API_KEY not set, articles will use the fallback template")
	}

	keywordService := service.NewKeywordService(llm, rnd)
	contentService := service.NewContentService(llm, rnd, service.GenerationParams{
		Temperature:      cfg.OpenAI.Temperature,
		PresencePenalty:  cfg.OpenAI.PresencePenalty,
		FrequencyPenalty: cfg.OpenAI.FrequencyPenalty,
		MaxTokens:        cfg.OpenAI.MaxTokens,
	})
	stockService := service.NewStockPhotoService(cfg.StockProvider, cfg.UnsplashKey, cfg.PexelsKey, httpClient)
	imageService := service.NewImageService(stockService, assetRepo, rnd, service.TierLimits{
		Base:    cfg.BaseMaxImages,
		Premium: cfg.PremiumMaxImages,
	})
	publishService := service.NewPublishService(httpClient)
	notifier := service.NewNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID)

	postingService := service.NewPostingService(service.PostingDeps{
		Limiter:   rateLimiter,
		Keywords:  keywordService,
		Content:   contentService,
		Images:    imageService,
		Publisher: publishService,
		Notifier:  notifier,
		History:   historyRepo,
	})
	platformService := service.NewPlatformService(*cfg, platformRepo, publishService)
	planService := service.NewPlanService(subscriptionRepo)
	quotaService := service.NewQuotaService(historyRepo, service.DailyQuota{
		Base:    cfg.BaseDailyPosts,
		Premium: cfg.PremiumDailyPosts,
	}, loc)
	jobService := service.NewJobService(platformService, planService, quotaService)
	scheduleService := service.NewScheduleService(quotaService, rnd, loc)
	autoPostService := service.NewAutoPostService(autoPostRepo, platformService, planService, rnd)
	settingsService := service.NewSettingsService(rateLimiter)

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			slog.Error("request failed", "path", c.Path(), "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		status := rateLimiter.Status()
		return c.JSON(fiber.Map{
			"status":             "ok",
			"today_post_count":   status.TodayPostCount,
			"next_post_eligible": status.NextPostEligible,
		})
	})

	authMiddleware := middleware.NewAuthMiddleware(*cfg)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	posting := handlers.NewPostingHandler(postingService, jobService, historyRepo, client)
	api.Post("/posts/run", posting.RunPost)
	api.Post("/posts/enqueue", posting.EnqueuePost)
	api.Get("/history", posting.ListHistory)
	api.Get("/history/:id", posting.GetHistory)

	schedule := handlers.NewScheduleHandler(jobService, scheduleService, client)
	api.Post("/posts/schedule", schedule.ScheduleBatch)

	autoPost := handlers.NewAutoPostHandler(autoPostService)
	api.Get("/autopost/configs", autoPost.ListConfigs)
	api.Post("/autopost/configs", autoPost.SaveConfig)
	api.Post("/autopost/configs/:id/stop", autoPost.StopConfig)

	settings := handlers.NewSettingsHandler(settingsService)
	api.Get("/scheduler/status", settings.GetStatus)
	api.Get("/scheduler/config", settings.GetConfig)
	api.Post("/scheduler/config", settings.UpdateConfig)

	platform := handlers.NewPlatformHandler(platformService)
	api.Get("/platforms", platform.ListPlatforms)
	api.Post("/platforms", platform.AddPlatform)
	api.Post("/platforms/check", platform.CheckConnection)

	// cron jobs
	autoPostJob := job.NewAutoPostJob(rateLimiter, postingService, platformService, autoPostService, jobService)

	c := cron.NewWithLocation(loc)
	if err := c.AddFunc(cfg.Scheduler.Cron, autoPostJob.Run); err != nil {
		fatal("Invalid scheduler cron expression", err)
	}
	c.Start()
	defer c.Stop()

	//queue
	queueW := queue.NewQueue(postingService, jobService)
	server := asynq.NewServer(redisConn, asynq.Config{
		Concurrency: cfg.QueueConcurrency,
	})

	go func() {
		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypeRunPost, queueW.HandleRunPostTask)

		slog.Info("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			fatal("Could not start Asynq server", err)
		}
	}()

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			fatal("Failed to start server", err)
		}
	}()
	slog.Info("Server is running", "addr", "http://localhost:"+cfg.Port, "test_mode", cfg.Scheduler.TestMode)

	gracefulShutdown(app, server, db)
}

// newStateRepository picks where scheduler config and counters live.
func newStateRepository(ctx context.Context, cfg *config.Config) (repository.SchedulerStateRepository, error) {
	switch cfg.Scheduler.StateBackend {
	case "r2":
		r2Client, err := repository.NewR2Client(ctx, cfg.R2)
		if err != nil {
			return nil, err
		}
		return repository.NewR2StateRepository(r2Client, cfg.R2.BucketName, cfg.R2.Prefix), nil
	case "file", "":
		return repository.NewFileStateRepository(cfg.Scheduler.StateDir)
	}
	return nil, fmt.Errorf("unknown state backend %q", cfg.Scheduler.StateBackend)
}

func newLogger(level, format string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}

	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, server *asynq.Server, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	slog.Info("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		fatal("Failed to shut down server", err)
	}
	server.Shutdown()

	closeDB(db)
	slog.Info("Server shutdown complete.")
}
