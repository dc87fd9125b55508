package router

import (
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"kanban-sync/internal/handler"
	"kanban-sync/internal/metrics"
	"kanban-sync/internal/middleware"
	"kanban-sync/internal/service"
)

// Config holds the dependencies of the control API
type Config struct {
	DB             *gorm.DB
	Redis          *redis.Client // nil unless the board lives in redis
	Logger         *zap.Logger
	BasePath       string
	AllowedOrigins []string
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer // defaults to the global registry

	Sessions    service.SessionService
	Boards      service.BoardService
	Attachments service.AttachmentService
	Enrichment  service.EnrichmentService
	Settings    service.SettingsService
}

// Setup creates the gin engine with every route of the control API
func Setup(cfg Config) *gin.Engine {
	r := gin.New()

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	metricsHandler := gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	healthHandler := handler.NewHealthHandler(cfg.DB, cfg.Redis)
	sessionHandler := handler.NewSessionHandler(cfg.Sessions, cfg.Logger)
	boardHandler := handler.NewBoardHandler(cfg.Boards, cfg.Logger)
	syncHandler := handler.NewSyncHandler(cfg.Boards, cfg.Logger)
	attachmentHandler := handler.NewAttachmentHandler(cfg.Attachments, cfg.Logger)
	enrichmentHandler := handler.NewEnrichmentHandler(cfg.Enrichment, cfg.Logger)
	settingsHandler := handler.NewSettingsHandler(cfg.Settings, cfg.Logger)
	streamHandler := handler.NewStreamHandler(cfg.Sessions, cfg.Boards, cfg.Metrics, cfg.Logger)

	r.GET("/health", healthHandler.Health)
	r.GET("/ready", healthHandler.Ready)
	r.GET("/metrics", metricsHandler)

	api := r.Group(cfg.BasePath)
	{
		if cfg.BasePath != "" && cfg.BasePath != "/" {
			api.GET("/health", healthHandler.Health)
			api.GET("/ready", healthHandler.Ready)
			api.GET("/metrics", metricsHandler)
		}

		api.GET("/users", sessionHandler.GetUsers)
		api.GET("/session", sessionHandler.GetSession)
		api.POST("/session", sessionHandler.Login)
		api.DELETE("/session", sessionHandler.Logout)

		api.GET("/state", boardHandler.GetState)
		api.PUT("/viewing", boardHandler.SetViewing)
		api.GET("/stream", streamHandler.Stream)

		tasks := api.Group("/tasks")
		{
			tasks.POST("", boardHandler.CreateTask)
			tasks.PUT("/:id", boardHandler.UpdateTask)
			tasks.PATCH("/:id/column", boardHandler.MoveTask)
			tasks.DELETE("/:id", boardHandler.DeleteTask)
			tasks.POST("/:id/dictation", boardHandler.Dictate)
			tasks.POST("/:id/improve", enrichmentHandler.Improve)
			tasks.POST("/:id/attachments", attachmentHandler.UploadAttachment)
			tasks.DELETE("/:id/attachments/:attachmentId", attachmentHandler.DeleteAttachment)
		}

		api.POST("/columns/:columnId/brainstorm", enrichmentHandler.Brainstorm)

		syncGroup := api.Group("/sync")
		{
			syncGroup.POST("", syncHandler.Sync)
			syncGroup.POST("/force-push", syncHandler.ForcePush)
			syncGroup.POST("/refresh", syncHandler.Refresh)
		}

		api.GET("/settings", settingsHandler.GetSettings)
		api.PUT("/settings", settingsHandler.UpdateSettings)
	}

	return r
}
