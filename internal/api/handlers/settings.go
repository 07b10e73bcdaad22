package handlers

import (
	"net/http"
	"strconv"

	"dotysync/internal/logger"
	"dotysync/internal/models"
	"dotysync/internal/security"
	"dotysync/internal/services/dotypos"
	"dotysync/internal/store"

	"github.com/gin-gonic/gin"
)

// SettingsHandler manages the deployment configuration: the remote
// credential (stored encrypted), product status policies and webhook
// options. It replaces the original settings form with a JSON surface.
type SettingsHandler struct {
	settings *store.SettingsStore
	secrets  *security.SecretStore
	client   *dotypos.Client
	logger   *logger.Logger
}

func NewSettingsHandler(settings *store.SettingsStore, secrets *security.SecretStore, client *dotypos.Client, logger *logger.Logger) *SettingsHandler {
	return &SettingsHandler{
		settings: settings,
		secrets:  secrets,
		client:   client,
		logger:   logger,
	}
}

// Get returns the current settings. The refresh token is never echoed back;
// only its presence is reported.
func (h *SettingsHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"cloud_id":            h.settings.CloudID(),
		"connected":           h.settings.EncryptedRefreshToken() != "",
		"status_new":          h.settings.StatusNew(),
		"status_update":       h.settings.StatusUpdate(),
		"webhook_enabled":     h.settings.WebhookEnabled(),
		"webhook_secret_set":  h.settings.WebhookSecret() != "",
		"sync_interval_hours": h.settings.SyncIntervalHours(24),
	})
}

// Update applies the provided settings. Omitted fields are left untouched.
// A provided refresh token is encrypted before it touches storage.
func (h *SettingsHandler) Update(c *gin.Context) {
	var request struct {
		CloudID           *string `json:"cloud_id"`
		RefreshToken      *string `json:"refresh_token"`
		StatusNew         *string `json:"status_new"`
		StatusUpdate      *string `json:"status_update"`
		WebhookEnabled    *bool   `json:"webhook_enabled"`
		WebhookSecret     *string `json:"webhook_secret"`
		SyncIntervalHours *int    `json:"sync_interval_hours"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]string{}
	if request.CloudID != nil {
		updates[models.SettingCloudID] = *request.CloudID
	}
	if request.StatusNew != nil {
		updates[models.SettingStatusNew] = *request.StatusNew
	}
	if request.StatusUpdate != nil {
		updates[models.SettingStatusUpdate] = *request.StatusUpdate
	}
	if request.WebhookEnabled != nil {
		value := "no"
		if *request.WebhookEnabled {
			value = "yes"
		}
		updates[models.SettingWebhookEnabled] = value
	}
	if request.WebhookSecret != nil {
		updates[models.SettingWebhookSecret] = *request.WebhookSecret
	}
	if request.SyncIntervalHours != nil {
		updates[models.SettingSyncIntervalHrs] = strconv.Itoa(*request.SyncIntervalHours)
	}
	if request.RefreshToken != nil && *request.RefreshToken != "" {
		encrypted, err := h.secrets.Encrypt(*request.RefreshToken)
		if err != nil {
			h.logger.Error("Failed to encrypt refresh token: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store credential"})
			return
		}
		updates[models.SettingRefreshToken] = encrypted
	}

	for key, value := range updates {
		if err := h.settings.Set(key, value); err != nil {
			h.logger.Error("Failed to save setting %s: %v", key, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save settings"})
			return
		}
	}

	// Credential changes invalidate any cached token.
	if request.RefreshToken != nil || request.CloudID != nil {
		h.client.InvalidateToken()
	}

	c.JSON(http.StatusOK, gin.H{"message": "Settings saved"})
}

// Disconnect removes the stored credential and drops the cached token.
func (h *SettingsHandler) Disconnect(c *gin.Context) {
	if err := h.settings.Delete(models.SettingRefreshToken); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to disconnect"})
		return
	}
	h.client.InvalidateToken()
	c.JSON(http.StatusOK, gin.H{"message": "Disconnected"})
}
