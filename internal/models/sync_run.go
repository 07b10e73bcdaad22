package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SyncRun is an audit record of one sync event (a completed full sync or a
// single webhook-triggered item sync), written by the worker.
type SyncRun struct {
	ID          string    `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Source      string    `json:"source" gorm:"not null"`
	SyncedCount int       `json:"synced_count"`
	ErrorCount  int       `json:"error_count"`
	Detail      string    `json:"detail"`
	CreatedAt   time.Time `json:"created_at"`
}

const (
	SyncSourceCron    = "cron"
	SyncSourceManual  = "manual"
	SyncSourceWebhook = "webhook"
)

func (s *SyncRun) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}
