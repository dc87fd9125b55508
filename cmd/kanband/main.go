package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"kanban-sync/internal/board"
	"kanban-sync/internal/client"
	"kanban-sync/internal/config"
	"kanban-sync/internal/database"
	"kanban-sync/internal/domain"
	"kanban-sync/internal/job"
	"kanban-sync/internal/metrics"
	"kanban-sync/internal/repository"
	"kanban-sync/internal/router"
	"kanban-sync/internal/service"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := initLogger(cfg.Logger.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	logger.Info("Starting kanban sync",
		zap.String("port", cfg.Server.Port),
		zap.String("mode", cfg.Server.Mode),
		zap.String("base_path", cfg.Server.BasePath),
		zap.String("remote_backend", cfg.Remote.Backend),
		zap.String("media_provider", cfg.Media.Provider),
		zap.String("local_driver", cfg.Local.Driver),
	)

	ctx := context.Background()
	m := metrics.NewWithLogger(logger)

	// Local store holds the task backup and device settings, nothing works without it
	db, err := database.New(database.Config{
		Driver:          cfg.Local.Driver,
		DSN:             cfg.Local.DSN,
		MaxOpenConns:    cfg.Local.MaxOpenConns,
		MaxIdleConns:    cfg.Local.MaxIdleConns,
		ConnMaxLifetime: cfg.Local.ConnMaxLifetime,
	})
	if err != nil {
		logger.Fatal("Failed to open local store", zap.Error(err))
	}
	if err := database.AutoMigrate(db); err != nil {
		logger.Fatal("Failed to migrate local store", zap.Error(err))
	}
	if err := database.RegisterMetricsCallbacks(db, m); err != nil {
		logger.Warn("Failed to register database metrics callbacks", zap.Error(err))
	}

	entries := repository.NewLocalEntryRepository(db)
	snapshots := repository.NewSnapshotRepository(entries)
	settingsRepo := repository.NewSettingsRepository(entries)

	// Remote board document
	var (
		store  client.DocumentStore
		remote service.RemoteConfigurer
		rdb    *redis.Client
	)
	switch cfg.Remote.Backend {
	case "redis":
		rdb, err = database.NewRedis(ctx, database.RedisConfig{
			URL:      cfg.Redis.URL,
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to connect to redis", zap.Error(err))
		}
		store = client.NewRedisDocumentStore(rdb, cfg.Remote.RedisKey, logger, m)
		logger.Info("Remote board stored in redis", zap.String("key", cfg.Remote.RedisKey))
	default:
		bin := client.NewBinClient(cfg.Remote.BaseURL, client.BinCredentials{
			BinID:  cfg.Remote.BinID,
			APIKey: cfg.Remote.APIKey,
		}, cfg.Remote.Timeout, logger, m)
		store, remote = bin, bin
	}

	// Media host
	var (
		uploader client.MediaUploader = client.NewNoOpMediaUploader()
		media    service.MediaConfigurer
	)
	switch cfg.Media.Provider {
	case "s3":
		if cfg.S3.Bucket != "" && cfg.S3.Region != "" {
			s3Client, err := client.NewS3MediaClient(ctx, cfg.S3, logger)
			if err != nil {
				logger.Warn("Failed to initialize S3 client, attachments will be stored inline", zap.Error(err))
			} else {
				uploader = s3Client
				logger.Info("S3 client initialized",
					zap.String("bucket", cfg.S3.Bucket),
					zap.String("region", cfg.S3.Region),
				)
			}
		} else {
			logger.Warn("S3 configuration incomplete, attachments will be stored inline")
		}
	default:
		cloudinary := client.NewCloudinaryClient(cfg.Media.BaseURL, client.CloudinaryCredentials{
			CloudName:    cfg.Media.CloudName,
			UploadPreset: cfg.Media.UploadPreset,
		}, cfg.Media.Timeout, logger, m)
		uploader, media = cloudinary, cloudinary
	}

	ai := client.NewGeminiClient(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model, cfg.AI.Timeout, logger, m)
	if !ai.Configured() {
		logger.Info("No assistant API key, AI features disabled")
	}

	syncCfg := service.SyncConfig{
		Debounce:          cfg.Sync.Debounce,
		GraceWindow:       cfg.Sync.GraceWindow,
		RequestTimeout:    cfg.Sync.RequestTimeout,
		PresenceRetention: cfg.Sync.PresenceRetention,
	}
	newEngine := func(user domain.UserID) *service.SyncEngine {
		return service.NewSyncEngine(user, store, snapshots, syncCfg, m, logger)
	}
	heartbeat := job.NewHeartbeatJob(cfg.Sync.Heartbeat, logger)

	mutator := board.NewMutator()
	sessions := service.NewSessionService(domain.DefaultRoster, settingsRepo, newEngine, heartbeat, cfg.Sync.OnlineWindow, logger)
	boards := service.NewBoardService(sessions, mutator, service.UnsupportedDictation{}, logger)
	attachments := service.NewAttachmentService(sessions, mutator, uploader, logger)
	enrichment := service.NewEnrichmentService(sessions, mutator, ai, logger)
	settings := service.NewSettingsService(settingsRepo, remote, media, sessions, logger)

	// Credentials saved on this device win over the file defaults
	if err := settings.ApplyCached(ctx); err != nil {
		logger.Warn("Failed to apply cached settings", zap.Error(err))
	}
	if !store.Configured() {
		logger.Warn("Remote store not configured, the board stays on this device until settings are saved")
	}

	restored, err := sessions.Restore(ctx, domain.UserID(cfg.Session.UserID))
	if err != nil {
		logger.Warn("Failed to restore session", zap.Error(err))
	} else if restored {
		user, _ := sessions.Current()
		logger.Info("Session restored", zap.Int("user_id", int(user.ID)), zap.String("name", user.Name))
	}

	r := router.Setup(router.Config{
		DB:             db,
		Redis:          rdb,
		Logger:         logger,
		BasePath:       cfg.Server.BasePath,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Metrics:        m,
		Sessions:       sessions,
		Boards:         boards,
		Attachments:    attachments,
		Enrichment:     enrichment,
		Settings:       settings,
	})

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:     r,
		ReadTimeout: cfg.Server.ReadTimeout,
		// no WriteTimeout: it would cut the board stream websocket
	}

	go func() {
		logger.Info("Kanban sync started", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Push unsaved changes before the engine goes away. The remembered user is kept.
	heartbeat.Stop()
	if engine, err := sessions.Engine(); err == nil {
		if err := engine.Flush(shutdownCtx); err != nil {
			logger.Warn("Failed to flush pending changes", zap.Error(err))
		}
		engine.Stop()
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	if rdb != nil {
		if err := rdb.Close(); err != nil {
			logger.Warn("Failed to close redis", zap.Error(err))
		}
	}
	if err := database.Close(db); err != nil {
		logger.Warn("Failed to close local store", zap.Error(err))
	}

	logger.Info("Server exited gracefully")
}

// initLogger initializes the zap logger with the specified level
func initLogger(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      zapLevel == zapcore.DebugLevel,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return config.Build()
}
