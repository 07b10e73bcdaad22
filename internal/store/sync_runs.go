package store

import (
	"dotysync/internal/models"

	"gorm.io/gorm"
)

// SyncRunStore records sync audit entries written by the worker.
type SyncRunStore struct {
	db *gorm.DB
}

func NewSyncRunStore(db *gorm.DB) *SyncRunStore {
	return &SyncRunStore{db: db}
}

func (s *SyncRunStore) Record(run *models.SyncRun) error {
	return s.db.Create(run).Error
}

func (s *SyncRunStore) Recent(limit int) ([]models.SyncRun, error) {
	if limit < 1 {
		limit = 20
	}
	var runs []models.SyncRun
	err := s.db.Order("created_at DESC").Limit(limit).Find(&runs).Error
	return runs, err
}
