package store

import (
	"dotysync/internal/logger"
	"dotysync/internal/models"

	"gorm.io/gorm"
)

// WebhookLogStore keeps a bounded trail of webhook events, newest first.
// Retention is configurable; writes past the bound evict the oldest entries.
type WebhookLogStore struct {
	db        *gorm.DB
	retention int
	logger    *logger.Logger
}

func NewWebhookLogStore(db *gorm.DB, retention int, logger *logger.Logger) *WebhookLogStore {
	if retention < 1 {
		retention = 50
	}
	return &WebhookLogStore{db: db, retention: retention, logger: logger}
}

func (s *WebhookLogStore) Append(message string) {
	entry := models.WebhookLog{Message: message}
	if err := s.db.Create(&entry).Error; err != nil {
		s.logger.Error("Failed to append webhook log: %v", err)
		return
	}
	s.trim()
}

func (s *WebhookLogStore) Recent(limit int) ([]models.WebhookLog, error) {
	if limit < 1 || limit > s.retention {
		limit = s.retention
	}
	var logs []models.WebhookLog
	err := s.db.Order("created_at DESC").Limit(limit).Find(&logs).Error
	return logs, err
}

func (s *WebhookLogStore) trim() {
	var stale []string
	err := s.db.Model(&models.WebhookLog{}).
		Order("created_at DESC").
		Offset(s.retention).
		Limit(1000).
		Pluck("id", &stale).Error
	if err != nil || len(stale) == 0 {
		return
	}
	if err := s.db.Delete(&models.WebhookLog{}, "id IN ?", stale).Error; err != nil {
		s.logger.Error("Failed to trim webhook log: %v", err)
	}
}
