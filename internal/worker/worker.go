package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"dotysync/internal/config"
	"dotysync/internal/logger"
	"dotysync/internal/models"
	"dotysync/internal/store"
	internalsync "dotysync/internal/sync"

	"github.com/segmentio/kafka-go"
)

// Worker is the background process: it runs the scheduled full catalog sync
// and, when Kafka is configured, consumes sync events into the audit trail.
type Worker struct {
	config       *config.Config
	logger       *logger.Logger
	reader       *kafka.Reader
	processor    *EventProcessor
	runs         *store.SyncRunStore
	settings     *store.SettingsStore
	orchestrator *internalsync.Orchestrator
}

func New(cfg *config.Config, logger *logger.Logger, runs *store.SyncRunStore, settings *store.SettingsStore, orchestrator *internalsync.Orchestrator) *Worker {
	var reader *kafka.Reader
	if cfg.KafkaBrokers != "" {
		reader = kafka.NewReader(kafka.ReaderConfig{
			Brokers:        strings.Split(cfg.KafkaBrokers, ","),
			GroupID:        "dotysync-worker",
			Topic:          cfg.KafkaTopic,
			MinBytes:       10e3, // 10KB
			MaxBytes:       10e6, // 10MB
			CommitInterval: time.Second,
		})
	}

	return &Worker{
		config:       cfg,
		logger:       logger,
		reader:       reader,
		processor:    NewEventProcessor(runs, logger),
		runs:         runs,
		settings:     settings,
		orchestrator: orchestrator,
	}
}

func (w *Worker) Start(ctx context.Context) {
	go w.runScheduler(ctx)

	if w.reader == nil {
		w.logger.Info("Kafka not configured, running scheduler only")
		<-ctx.Done()
		return
	}

	w.logger.Info("Worker started, listening for events...")
	w.consumeLoop(ctx)
}

func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...")
	if w.reader != nil {
		w.reader.Close()
	}
}

func (w *Worker) consumeLoop(ctx context.Context) {
	for {
		message, err := w.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			w.logger.Error("Failed to read message: %v", err)
			continue
		}

		w.logger.Debug("Received message: %s", string(message.Value))

		var event internalsync.Event
		if err := json.Unmarshal(message.Value, &event); err != nil {
			w.logger.Error("Failed to parse event: %v", err)
			continue
		}

		if err := w.processor.Process(event); err != nil {
			w.logger.Error("Failed to process event: %v", err)
			continue
		}
	}
}

// runScheduler triggers a full sync on the configured interval. The interval
// option can change between runs; it is re-read each cycle.
func (w *Worker) runScheduler(ctx context.Context) {
	for {
		hours := w.settings.SyncIntervalHours(w.config.SyncIntervalHours)
		if hours < 1 {
			hours = 24
		}

		w.runFullSync(ctx)

		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Duration(hours) * time.Hour):
		}
	}
}

func (w *Worker) runFullSync(ctx context.Context) {
	w.logger.Info("Starting scheduled full sync")

	summary, err := w.orchestrator.RunFullSync(ctx, models.SyncSourceCron)
	if err != nil {
		w.logger.Error("Scheduled sync stopped: %v", err)
	} else {
		w.logger.Info("Scheduled sync finished: %s", summary.Describe())
	}

	// Without Kafka there is no event round-trip, so record the run directly.
	if w.reader == nil && summary != nil {
		run := &models.SyncRun{
			Source:      models.SyncSourceCron,
			SyncedCount: summary.SyncedCount,
			ErrorCount:  summary.ErrorCount,
			Detail:      "full sync",
		}
		if err != nil {
			run.Detail = "full sync (aborted: " + err.Error() + ")"
		}
		if recordErr := w.runs.Record(run); recordErr != nil {
			w.logger.Error("Failed to record sync run: %v", recordErr)
		}
	}
}
