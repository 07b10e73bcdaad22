package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"dotysync/internal/config"
	"dotysync/internal/database"
	"dotysync/internal/logger"
	"dotysync/internal/security"
	"dotysync/internal/services/dotypos"
	"dotysync/internal/store"
	internalsync "dotysync/internal/sync"
	"dotysync/internal/worker"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Initialize logger
	logger := logger.New(cfg.LogLevel)

	// Initialize database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database: %v", err)
	}

	// Wire the sync engine
	settings := store.NewSettingsStore(db.DB)
	products := store.NewProductStore(db.DB)
	categories := store.NewCategoryResolver(db.DB, logger)
	runs := store.NewSyncRunStore(db.DB)
	secrets := security.NewSecretStore(cfg.EncryptionKey)
	client := dotypos.NewClient(cfg.DotyposAPIURL, settings, secrets, logger)

	var publisher internalsync.Publisher
	if cfg.KafkaBrokers != "" {
		publisher = internalsync.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
	}

	orchestrator := internalsync.NewOrchestrator(client, products, categories, settings, publisher, logger)
	orchestrator.FullSyncBatchSize = cfg.FullSyncBatchSize

	// Initialize worker
	w := worker.New(cfg, logger, runs, settings, orchestrator)

	ctx, cancel := context.WithCancel(context.Background())

	// Start worker
	logger.Info("Starting worker...")
	go w.Start(ctx)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down worker...")
	cancel()
	w.Stop()
}
