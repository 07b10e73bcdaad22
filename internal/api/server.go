package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"dotysync/internal/api/handlers"
	"dotysync/internal/api/middleware"
	"dotysync/internal/config"
	"dotysync/internal/database"
	"dotysync/internal/logger"
	"dotysync/internal/security"
	"dotysync/internal/services/dotypos"
	"dotysync/internal/store"
	internalsync "dotysync/internal/sync"

	"github.com/gin-gonic/gin"
)

type Server struct {
	config *config.Config
	logger *logger.Logger
	db     *database.Database
	router *gin.Engine
	server *http.Server
}

func New(cfg *config.Config, logger *logger.Logger, db *database.Database, publisher internalsync.Publisher) *Server {
	// Set Gin mode
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS())

	// Stores and collaborators
	settings := store.NewSettingsStore(db.DB)
	products := store.NewProductStore(db.DB)
	categories := store.NewCategoryResolver(db.DB, logger)
	webhookLogs := store.NewWebhookLogStore(db.DB, cfg.WebhookLogRetention, logger)
	secrets := security.NewSecretStore(cfg.EncryptionKey)
	client := dotypos.NewClient(cfg.DotyposAPIURL, settings, secrets, logger)

	orchestrator := internalsync.NewOrchestrator(client, products, categories, settings, publisher, logger)
	orchestrator.FullSyncBatchSize = cfg.FullSyncBatchSize

	// Initialize handlers
	productHandler := handlers.NewProductHandler(products, logger)
	syncHandler := handlers.NewSyncHandler(orchestrator, client, cfg.BatchSyncLimit, logger)
	settingsHandler := handlers.NewSettingsHandler(settings, secrets, client, logger)
	webhookHandler := handlers.NewWebhookHandler(orchestrator, settings, webhookLogs, cfg.WebhookStrictSecret, logger)

	// Health check endpoint
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "DotySync API is running",
			"status":  "healthy",
		})
	})

	// Inbound webhook: fixed path, always answers 200
	router.POST("/webhook", webhookHandler.Handle)
	router.GET("/webhook", webhookHandler.Probe)

	// Routes
	v1 := router.Group("/api/v1")
	{
		products := v1.Group("/products")
		{
			products.GET("", productHandler.List)
			products.GET("/:id", productHandler.Get)
		}

		sync := v1.Group("/sync")
		{
			sync.POST("/batch", syncHandler.RunBatch)
			sync.POST("/run", syncHandler.RunFull)
		}

		v1.GET("/status", syncHandler.Status)

		settings := v1.Group("/settings")
		{
			settings.GET("", settingsHandler.Get)
			settings.PUT("", settingsHandler.Update)
			settings.DELETE("", settingsHandler.Disconnect)
		}

		v1.GET("/webhook/logs", webhookHandler.Logs)
	}

	return &Server{
		config: cfg,
		logger: logger,
		db:     db,
		router: router,
	}
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%s", s.config.APIHost, s.config.APIPort)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Starting server on " + addr)
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	return s.server.Shutdown(ctx)
}

func (s *Server) Router() *gin.Engine {
	return s.router
}
