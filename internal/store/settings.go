package store

import (
	"errors"
	"strconv"

	"dotysync/internal/models"

	"gorm.io/gorm"
)

// SettingsStore is the key/value option store the engine reads its
// configuration from. Missing keys read as empty strings; typed getters
// apply their defaults on top.
type SettingsStore struct {
	db *gorm.DB
}

func NewSettingsStore(db *gorm.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

func (s *SettingsStore) Get(key string) string {
	var setting models.Setting
	err := s.db.First(&setting, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ""
	}
	if err != nil {
		return ""
	}
	return setting.Value
}

func (s *SettingsStore) Set(key, value string) error {
	setting := models.Setting{Key: key, Value: value}
	return s.db.Save(&setting).Error
}

func (s *SettingsStore) Delete(key string) error {
	return s.db.Delete(&models.Setting{}, "key = ?", key).Error
}

// CloudID implements dotypos.CredentialSource.
func (s *SettingsStore) CloudID() string {
	return s.Get(models.SettingCloudID)
}

// EncryptedRefreshToken implements dotypos.CredentialSource.
func (s *SettingsStore) EncryptedRefreshToken() string {
	return s.Get(models.SettingRefreshToken)
}

// StatusNew is the product status applied on first import.
func (s *SettingsStore) StatusNew() string {
	if v := s.Get(models.SettingStatusNew); v != "" {
		return v
	}
	return "draft"
}

// StatusUpdate is the product status applied on re-sync.
func (s *SettingsStore) StatusUpdate() string {
	if v := s.Get(models.SettingStatusUpdate); v != "" {
		return v
	}
	return "publish"
}

func (s *SettingsStore) WebhookEnabled() bool {
	return s.Get(models.SettingWebhookEnabled) == "yes"
}

func (s *SettingsStore) WebhookSecret() string {
	return s.Get(models.SettingWebhookSecret)
}

func (s *SettingsStore) SyncIntervalHours(defaultHours int) int {
	if v := s.Get(models.SettingSyncIntervalHrs); v != "" {
		if hours, err := strconv.Atoi(v); err == nil && hours >= 1 {
			return hours
		}
	}
	return defaultHours
}
