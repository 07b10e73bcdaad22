package main

import (
	"log"

	"dotysync/internal/api"
	"dotysync/internal/config"
	"dotysync/internal/database"
	"dotysync/internal/logger"
	internalsync "dotysync/internal/sync"
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

	// Event publishing is optional; the engine runs standalone without it
	var publisher internalsync.Publisher
	if cfg.KafkaBrokers != "" {
		publisher = internalsync.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
	}

	// Initialize API server
	server := api.New(cfg, logger, db, publisher)

	// Start server
	logger.Info("Starting API server on port " + cfg.APIPort)
	if err := server.Start(); err != nil {
		logger.Fatal("Failed to start server: %v", err)
	}
}
