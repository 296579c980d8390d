package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/anytimesk/stock-ml-front-end/internal/audit"
	"github.com/anytimesk/stock-ml-front-end/internal/client"
	"github.com/anytimesk/stock-ml-front-end/internal/config"
	"github.com/anytimesk/stock-ml-front-end/internal/handler"
	"github.com/anytimesk/stock-ml-front-end/internal/middleware"
	"github.com/anytimesk/stock-ml-front-end/internal/prefs"
	"github.com/anytimesk/stock-ml-front-end/internal/service"
	"github.com/anytimesk/stock-ml-front-end/internal/session"
	"github.com/anytimesk/stock-ml-front-end/internal/tracing"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the config file")
	flag.Parse()

	// A missing .env file is not an error
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Set up logger
	logger, err := createLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Set up tracing
	shutdownTracing, err := tracing.Init(cfg.Tracing)
	if err != nil {
		logger.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	// Initialize Redis client
	redisClient, err := setupRedis(cfg, logger)
	if err != nil {
		logger.Error("Failed to set up Redis", zap.Error(err))
		// Continue without Redis
	}

	// Initialize Postgres
	db, err := setupPostgres(cfg, logger)
	if err != nil {
		logger.Error("Failed to set up Postgres", zap.Error(err))
		// Continue without Postgres
	}

	prefStore := selectPrefStore(cfg, db, redisClient, logger)

	// Audit events for ML actions
	publisher := audit.NewPublisher(cfg.Kafka, logger)

	// Backend client and services
	backendClient := client.NewBackendClient(cfg.Backend.URL, cfg.Backend.Timeout, cfg.Backend.TrainTimeout, logger)
	searchService := service.NewSearchService(backendClient, logger)
	mlService := service.NewMLService(backendClient, cfg.Training, publisher, logger)

	// Sessions
	sessions := session.NewStore(session.Factory{
		Searcher:       searchService,
		ML:             mlService,
		Prefs:          prefStore,
		SearchPageSize: cfg.Table.SearchPageSize,
		FilesPageSize:  cfg.Table.FilesPageSize,
		ChartWidth:     cfg.Chart.Width,
		ChartHeight:    cfg.Chart.Height,
		Timeout:        cfg.Backend.Timeout,
		TrainTimeout:   cfg.Backend.TrainTimeout,
	}, cfg.Session, logger)

	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	go sessions.Run(janitorCtx)

	// Set up HTTP server with Gin
	router, err := setupRouter(cfg, sessions, prefStore, redisClient, db, logger)
	if err != nil {
		logger.Fatal("Failed to set up router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start the server in a goroutine
	go func() {
		logger.Info("Starting stock dashboard server",
			zap.String("port", cfg.Server.Port),
			zap.String("backend", cfg.Backend.URL))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Create a deadline for server shutdown
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	stopJanitor()
	sessions.Close()

	if err := publisher.Close(); err != nil {
		logger.Warn("Failed to close audit publisher", zap.Error(err))
	}

	if redisClient != nil {
		redisClient.Close()
	}

	if db != nil {
		db.Close()
	}

	if err := shutdownTracing(ctx); err != nil {
		logger.Warn("Failed to flush traces", zap.Error(err))
	}

	logger.Info("Server exited properly")
}

// setupRedis initializes the Redis client. It returns nil, nil when Redis
// is disabled.
func setupRedis(cfg *config.Config, logger *zap.Logger) (*redis.Client, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}

	// Parse Redis URL
	redisOptions, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		logger.Error("Failed to parse Redis URL", zap.Error(err))
		// Try to connect with default options
		redisOptions = &redis.Options{
			Addr: cfg.Redis.URL,
			DB:   cfg.Redis.DB,
		}
	}
	if cfg.Redis.Password != "" {
		redisOptions.Password = cfg.Redis.Password
	}

	// Create Redis client
	rdb := redis.NewClient(redisOptions)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		rdb.Close()
		return nil, err
	}

	logger.Info("Connected to Redis", zap.String("addr", redisOptions.Addr))
	return rdb, nil
}

// setupPostgres connects the preference database. It returns nil, nil
// when Postgres is disabled.
func setupPostgres(cfg *config.Config, logger *zap.Logger) (*sqlx.DB, error) {
	if !cfg.Postgres.Enabled {
		return nil, nil
	}

	db, err := prefs.ConnectPostgres(cfg.Postgres)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := prefs.NewPostgresStore(db, logger).Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("Connected to Postgres",
		zap.String("host", cfg.Postgres.Host),
		zap.String("database", cfg.Postgres.DBName))
	return db, nil
}

// selectPrefStore picks where theme preferences are kept: Postgres, then
// Redis, then process memory.
func selectPrefStore(cfg *config.Config, db *sqlx.DB, redisClient *redis.Client, logger *zap.Logger) prefs.Store {
	switch {
	case db != nil:
		logger.Info("Theme preferences stored in Postgres")
		return prefs.NewPostgresStore(db, logger)
	case redisClient != nil:
		logger.Info("Theme preferences stored in Redis")
		return prefs.NewRedisStore(redisClient, cfg.Redis.PrefixKey, cfg.Redis.TTL)
	}
	logger.Info("Theme preferences kept in memory")
	return prefs.NewMemoryStore()
}

func setupRouter(
	cfg *config.Config,
	sessions *session.Store,
	prefStore prefs.Store,
	redisClient *redis.Client,
	db *sqlx.DB,
	logger *zap.Logger,
) (*gin.Engine, error) {
	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.BurstSize)
	}

	health := handler.HealthDeps{
		Sessions: sessions,
		Kafka:    cfg.Kafka.Enabled,
		Tracing:  cfg.Tracing.Enabled,
	}
	if redisClient != nil {
		health.RedisPing = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	if db != nil {
		health.PostgresPing = db.PingContext
	}

	return handler.NewRouter(handler.RouterDeps{
		Sessions: sessions,
		Prefs:    prefStore,
		Health:   health,
		UI: handler.UIConfig{
			SettleTimeout:  cfg.UI.SettleTimeout,
			RefreshSeconds: cfg.UI.RefreshSeconds,
		},
		Chart: handler.ChartLimits{
			Width:     cfg.Chart.Width,
			MaxWidth:  cfg.Chart.MaxWidth,
			MaxHeight: cfg.Chart.MaxHeight,
		},
		RateLimiter:    limiter,
		ClientIPHeader: cfg.RateLimit.ClientIPHeaderName,
		Logger:         logger,
	})
}

func createLogger(level, format string) (*zap.Logger, error) {
	// Parse log level
	var zapLevel zap.AtomicLevel
	switch level {
	case "debug":
		zapLevel = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapLevel = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapLevel = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		zapLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	if format == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
	}

	// Create logger config
	config := zap.Config{
		Level:            zapLevel,
		Development:      false,
		Encoding:         format,
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return config.Build()
}
