package models

import "time"

// Setting is a single key/value configuration option. Secrets are stored
// encrypted; the value column never sees plaintext credentials.
type Setting struct {
	Key       string    `json:"key" gorm:"primary_key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Option keys used by the sync engine.
const (
	SettingCloudID         = "cloud_id"
	SettingRefreshToken    = "refresh_token" // encrypted
	SettingStatusNew       = "status_new"
	SettingStatusUpdate    = "status_update"
	SettingWebhookEnabled  = "webhook_enabled"
	SettingWebhookSecret   = "webhook_secret"
	SettingSyncIntervalHrs = "sync_interval_hours"
)
