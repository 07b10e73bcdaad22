package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"dotysync/internal/logger"
	"dotysync/internal/services/dotypos"
	"dotysync/internal/store"

	"github.com/gin-gonic/gin"
)

// Syncer is the single-item sync path the webhook triggers.
type Syncer interface {
	SyncSingleItem(ctx context.Context, externalID string) error
}

// WebhookSettings exposes the administratively controlled webhook options.
type WebhookSettings interface {
	WebhookEnabled() bool
	WebhookSecret() string
}

// Identifier keys tried on each payload item, in priority order, with a
// nested data.id fallback.
var webhookIDKeys = []string{"productid", "productId", "id"}

const maxLoggedPayload = 500

// WebhookHandler ingests push notifications from the remote POS. The
// external contract is lenient: the response status is always 200 and all
// failure detail goes to the webhook log.
type WebhookHandler struct {
	sync         Syncer
	settings     WebhookSettings
	logs         *store.WebhookLogStore
	strictSecret bool
	logger       *logger.Logger
}

func NewWebhookHandler(sync Syncer, settings WebhookSettings, logs *store.WebhookLogStore, strictSecret bool, logger *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		sync:         sync,
		settings:     settings,
		logs:         logs,
		strictSecret: strictSecret,
		logger:       logger,
	}
}

// Probe answers verification GETs without side effects.
func (h *WebhookHandler) Probe(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"code":    "dotysync_webhook_ok",
		"message": "DotySync Webhook Listener Ready",
	})
}

func (h *WebhookHandler) Handle(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		h.log("Error: failed to read webhook payload: " + err.Error())
		c.JSON(http.StatusOK, gin.H{"message": "Unreadable payload"})
		return
	}

	logged := string(payload)
	if len(logged) > maxLoggedPayload {
		logged = logged[:maxLoggedPayload]
	}
	h.log("Webhook Received. Payload: " + logged)

	// Shared-secret check. Mismatches are logged but processing continues
	// unless strict mode is enabled.
	if secret := h.settings.WebhookSecret(); secret != "" {
		if c.GetHeader("x-dotysync-secret") != secret {
			h.log("Security Fail: Invalid Secret.")
			if h.strictSecret {
				c.JSON(http.StatusOK, gin.H{"message": "Rejected: invalid secret"})
				return
			}
		}
	}

	if !h.settings.WebhookEnabled() {
		h.log("Ignored: Webhook Disabled.")
		c.JSON(http.StatusOK, gin.H{"message": "Webhook Disabled"})
		return
	}

	items, ok := decodeItems(payload)
	if !ok {
		h.log("Error: webhook payload is not a JSON object or array.")
		c.JSON(http.StatusOK, gin.H{"message": "No IDs found"})
		return
	}

	triggered := 0
	for _, item := range items {
		externalID := extractID(item)
		if externalID == "" {
			continue
		}

		h.log("Triggering Sync for ID: " + externalID)
		if err := h.sync.SyncSingleItem(c.Request.Context(), externalID); err != nil {
			h.log(fmt.Sprintf("Sync Failed ID %s: %v", externalID, err))
			continue
		}
		h.log("Sync Success ID " + externalID)
		triggered++
	}

	if triggered == 0 {
		h.log("Error: No valid Product IDs found in payload items.")
		c.JSON(http.StatusOK, gin.H{"message": "No IDs found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Sync Triggered for %d items", triggered)})
}

// Logs returns the recent webhook log entries, newest first.
func (h *WebhookHandler) Logs(c *gin.Context) {
	logs, err := h.logs.Recent(0)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch webhook logs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

func (h *WebhookHandler) log(message string) {
	h.logger.Info("%s", message)
	h.logs.Append(message)
}

// decodeItems accepts a single object or a sequence of objects.
func decodeItems(payload []byte) ([]map[string]interface{}, bool) {
	var decoded interface{}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, false
	}

	switch v := decoded.(type) {
	case []interface{}:
		items := make([]map[string]interface{}, 0, len(v))
		for _, entry := range v {
			if item, ok := entry.(map[string]interface{}); ok {
				items = append(items, item)
			}
		}
		return items, true
	case map[string]interface{}:
		return []map[string]interface{}{v}, true
	}
	return nil, false
}

func extractID(item map[string]interface{}) string {
	for _, key := range webhookIDKeys {
		if v, ok := item[key]; ok {
			if s := dotypos.Stringify(v); s != "" && s != "0" {
				return s
			}
		}
	}
	// Nested structure fallback.
	if data, ok := item["data"].(map[string]interface{}); ok {
		if s := dotypos.Stringify(data["id"]); s != "" && s != "0" {
			return s
		}
	}
	return ""
}
