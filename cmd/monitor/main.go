package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/smukkama/weather-monitor/internal/aggregation"
	"github.com/smukkama/weather-monitor/internal/alerting"
	httpapi "github.com/smukkama/weather-monitor/internal/api/http"
	"github.com/smukkama/weather-monitor/internal/cache"
	"github.com/smukkama/weather-monitor/internal/database"
	"github.com/smukkama/weather-monitor/internal/history"
	"github.com/smukkama/weather-monitor/internal/ingest"
	"github.com/smukkama/weather-monitor/internal/observability"
	"github.com/smukkama/weather-monitor/internal/provider"
	"github.com/smukkama/weather-monitor/internal/queue"
	"github.com/smukkama/weather-monitor/internal/scheduler"
	"github.com/smukkama/weather-monitor/internal/threshold"
	"github.com/smukkama/weather-monitor/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := observability.NewLogger()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting weather monitor",
		zap.Strings("cities", cfg.Pipeline.Cities),
		zap.Duration("fetchInterval", cfg.Pipeline.FetchInterval))

	// Database
	db, err := database.Connect(cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := db.RunMigrations("migrations"); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	logger.Info("database ready")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Redis, used only as a short-TTL cache in front of the provider.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	logger.Info("redis ready")

	// Kafka producer for alert messages.
	producer := queue.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicAlerts)
	defer producer.Close()

	// Stores
	readings := database.NewReadingStore(db, cfg.Pipeline.ReadingRetention, logger)
	summaries := database.NewSummaryStore(db)
	thresholds := database.NewThresholdStore(db)

	readings.StartSweeper(ctx)

	// Pipeline stages
	client := provider.NewClient(&http.Client{Timeout: cfg.Provider.Timeout}, cfg.Provider)
	ingestor := ingest.NewIngestor(cfg.Pipeline.Cities, client, readings, logger)
	aggregator := aggregation.NewDailyAggregator(cfg.Pipeline.Cities, readings, summaries, logger)
	evaluator := alerting.NewEvaluator(thresholds, readings, producer, logger)

	sched := scheduler.New(cfg.Pipeline.FetchInterval, ingestor, aggregator, evaluator, logger)
	if err := sched.Start(); err != nil {
		logger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	// HTTP API
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": true, "message": err.Error()})
		},
	})
	app.Use(recover.New())
	app.Use(fiberlogger.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	conditionsCache := cache.NewCurrentConditions(redisClient, cfg.Pipeline.CurrentCacheTTL)
	api := httpapi.New(
		client,
		conditionsCache,
		history.NewService(summaries),
		threshold.NewService(thresholds),
		logger,
	)
	api.RegisterRoutes(app)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
		if err := app.Listen(addr); err != nil {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	// Metrics on a separate listener so the API surface stays clean.
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", observability.MetricsHandler())
		addr := fmt.Sprintf(":%d", cfg.HTTP.MetricsPort)
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	logger.Info("weather monitor running",
		zap.Int("httpPort", cfg.HTTP.Port),
		zap.Int("metricsPort", cfg.HTTP.MetricsPort))

	<-ctx.Done()

	logger.Info("shutting down gracefully")
	if err := app.Shutdown(); err != nil {
		logger.Error("http shutdown failed", zap.Error(err))
	}
}
