package worker

import (
	"fmt"

	"dotysync/internal/logger"
	"dotysync/internal/models"
	"dotysync/internal/store"
	internalsync "dotysync/internal/sync"
)

// EventProcessor persists sync events as audit entries.
type EventProcessor struct {
	runs   *store.SyncRunStore
	logger *logger.Logger
}

func NewEventProcessor(runs *store.SyncRunStore, logger *logger.Logger) *EventProcessor {
	return &EventProcessor{runs: runs, logger: logger}
}

func (p *EventProcessor) Process(event internalsync.Event) error {
	run := &models.SyncRun{
		Source:      event.Source,
		SyncedCount: event.SyncedCount,
		ErrorCount:  event.ErrorCount,
	}

	switch event.Type {
	case internalsync.EventProductSynced:
		run.Detail = "product " + event.ProductID
	case internalsync.EventSyncCompleted:
		run.Detail = "full sync"
	default:
		p.logger.Debug("Skipping unknown event type: %s", event.Type)
		return nil
	}

	if err := p.runs.Record(run); err != nil {
		return fmt.Errorf("failed to record sync run: %w", err)
	}
	return nil
}
