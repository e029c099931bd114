package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang-stock-calls/internal/evaluator/config"
	"golang-stock-calls/internal/evaluator/delivery/consumer"
	delivery "golang-stock-calls/internal/evaluator/delivery/http"
	_ "golang-stock-calls/internal/evaluator/docs"
	"golang-stock-calls/internal/evaluator/repository"
	"golang-stock-calls/internal/evaluator/service"
	"golang-stock-calls/pkg/logger"
	"golang-stock-calls/pkg/postgres"
	"golang-stock-calls/pkg/redis"
	"golang-stock-calls/pkg/telegram"
	"golang-stock-calls/pkg/utils"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	swagger "github.com/swaggo/echo-swagger"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the evaluation service",
	Run:   runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	// Create a context that is canceled on interrupt signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("Starting Evaluation Service",
		logger.Field("name", cfg.App.Name),
		logger.StringField("price_provider", cfg.PriceAPI.Provider))

	healthChecks := map[string]delivery.HealthCheck{}

	// Repositories stay nil when their backing store is not configured; the
	// evaluation endpoint then answers 503.
	var (
		positionRepo repository.PositionRepository
		quotaRepo    repository.UsageQuotaRepository
		profileRepo  repository.UserProfileRepository
		runRepo      repository.EvaluationRunRepository
		sessionRepo  repository.SessionRepository
	)

	if cfg.Database.Enabled() {
		db, err := postgres.NewDB(postgres.Config{
			Host:            cfg.Database.Host,
			Port:            cfg.Database.Port,
			User:            cfg.Database.User,
			Password:        cfg.Database.Password,
			DBName:          cfg.Database.DBName,
			SSLMode:         cfg.Database.SSLMode,
			TimeZone:        cfg.Database.TimeZone,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			LogLevel:        cfg.Database.LogLevel,
		})
		if err != nil {
			appLogger.Fatal("Failed to initialize database", logger.ErrorField(err))
		}
		sqlDB, err := db.DB.DB()
		if err == nil {
			defer sqlDB.Close()
			healthChecks["postgres"] = sqlDB.PingContext
		}

		positionRepo = repository.NewPositionRepository(db.DB)
		quotaRepo = repository.NewUsageQuotaRepository(db.DB)
		profileRepo = repository.NewUserProfileRepository(db.DB)
		runRepo = repository.NewEvaluationRunRepository(db.DB)
	} else {
		appLogger.Warn("Database is not configured, evaluations are disabled")
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.NewClient(redis.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			appLogger.Fatal("Failed to initialize Redis", logger.ErrorField(err))
		}
		defer redisClient.Close()
		healthChecks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
		sessionRepo = repository.NewSessionRepository(redisClient.Client)
	}

	var telegramNotifier telegram.Notifier
	if cfg.Telegram.BotToken != "" {
		telegramNotifier, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			appLogger.Error("Failed to initialize Telegram notifier, close notifications disabled", logger.ErrorField(err))
			telegramNotifier = nil
		}
	}

	var priceRepo repository.PriceRepository
	switch cfg.PriceAPI.Provider {
	case config.ProviderEOD:
		priceRepo = repository.NewEODPriceRepository(cfg.PriceAPI, cfg.Evaluation.FetchTimeout, appLogger)
	case config.ProviderAlpaca:
		priceRepo = repository.NewAlpacaPriceRepository(cfg.PriceAPI, appLogger)
	}

	location, err := utils.LoadLocation(cfg.Evaluation.TimeZone)
	if err != nil {
		appLogger.Fatal("Invalid evaluation time zone", logger.ErrorField(err))
	}

	// Initialize services
	var fetcher service.MarketDataFetcher
	if priceRepo != nil {
		fetcher = service.NewMarketDataFetcher(priceRepo, cfg.PriceAPI.Provider, cfg.Evaluation.FetchTimeout, cfg.Evaluation.FetchCacheTTL, appLogger)
	}
	var (
		quotaGate  service.QuotaGate
		batcher    service.PersistenceBatcher
		reputation service.ReputationUpdater
	)
	if positionRepo != nil {
		quotaGate = service.NewQuotaGate(quotaRepo, cfg.Evaluation.MaxDailyChecks, appLogger)
		batcher = service.NewPersistenceBatcher(positionRepo, cfg.Evaluation, appLogger)
		reputation = service.NewReputationUpdater(profileRepo, appLogger)
	}

	evaluationSvc := service.NewEvaluationService(cfg, appLogger,
		positionRepo,
		runRepo,
		quotaGate,
		fetcher,
		service.NewClassifier(cfg.Evaluation, location),
		batcher,
		reputation,
		service.NewCloseNotifier(profileRepo, telegramNotifier, appLogger),
	)
	runHistorySvc := service.NewRunHistoryService(runRepo)

	// Start the scheduled evaluation consumer
	var redisConsumer *consumer.RedisConsumer
	if redisClient != nil && cfg.Consumer.Enabled {
		scheduledSvc := service.NewScheduledEvaluationService(cfg, appLogger, redisClient.Client, evaluationSvc, telegramNotifier)
		redisConsumer = consumer.NewRedisConsumer(cfg, redisClient.Client, scheduledSvc, appLogger)
		if err := redisConsumer.Start(ctx); err != nil {
			appLogger.Fatal("Failed to start Redis consumer", logger.ErrorField(err))
		}
	}

	// Initialize Echo server
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestContext)

	// Initialize handlers and routes
	e.GET("/health", delivery.NewHealthHandler(healthChecks).Health)

	apiV1 := e.Group("/api/v1")
	evaluationHandler := delivery.NewEvaluationHandler(evaluationSvc, runHistorySvc, sessionRepo, appLogger)
	evaluationsGroup := apiV1.Group("/evaluations")
	evaluationHandler.RegisterRoutes(evaluationsGroup)

	e.GET("/swagger/*", swagger.WrapHandler)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		appLogger.Info("HTTP server starting", logger.Field("address", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("HTTP server failed to start", logger.ErrorField(err))
			stop() // trigger shutdown
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()

	appLogger.Info("Shutting down server...")

	// Gracefully shutdown the server
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", logger.ErrorField(err))
	}
	if redisConsumer != nil {
		redisConsumer.Stop()
	}

	appLogger.Info("Server exiting")
}

// requestContext copies the request id set by the RequestID middleware into the
// request context so service logs carry it.
func requestContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Response().Header().Get(echo.HeaderXRequestID)
		if id != "" {
			req := c.Request()
			c.SetRequest(req.WithContext(logger.WithRequestID(req.Context(), id)))
		}
		return next(c)
	}
}

// @title Position Evaluation API
// @version 1.0
// @description Evaluates published stock calls against daily price history.
// @BasePath /api/v1
func main() {
	rootCmd := &cobra.Command{Use: "evaluation-service"}

	serveCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config-evaluator.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing evaluation-service CLI: %s\n", err)
		os.Exit(1)
	}
}
