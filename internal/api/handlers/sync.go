package handlers

import (
	"net/http"

	"dotysync/internal/logger"
	"dotysync/internal/models"
	"dotysync/internal/services/dotypos"
	internalsync "dotysync/internal/sync"

	"github.com/gin-gonic/gin"
)

// SyncHandler exposes the interactive sync surface: one batch at a time for
// client-driven iteration, a full run, and a connection probe.
type SyncHandler struct {
	orchestrator *internalsync.Orchestrator
	client       *dotypos.Client
	defaultLimit int
	logger       *logger.Logger
}

func NewSyncHandler(orchestrator *internalsync.Orchestrator, client *dotypos.Client, defaultLimit int, logger *logger.Logger) *SyncHandler {
	return &SyncHandler{
		orchestrator: orchestrator,
		client:       client,
		defaultLimit: defaultLimit,
		logger:       logger,
	}
}

// RunBatch syncs one page. The caller drives iteration: it reads next_offset
// and has_more from the result and decides whether to request another batch.
func (h *SyncHandler) RunBatch(c *gin.Context) {
	var request struct {
		Offset int `json:"offset"`
		Limit  int `json:"limit"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if request.Limit <= 0 {
		request.Limit = h.defaultLimit
	}

	result, err := h.orchestrator.RunBatch(c.Request.Context(), request.Offset, request.Limit)
	if err != nil {
		h.logger.Error("Batch sync failed at offset %d: %v", request.Offset, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// RunFull runs a complete catalog sync within the request. Cancelling the
// request cancels the run between batches.
func (h *SyncHandler) RunFull(c *gin.Context) {
	summary, err := h.orchestrator.RunFullSync(c.Request.Context(), models.SyncSourceManual)
	if err != nil {
		h.logger.Error("Full sync aborted: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   err.Error(),
			"partial": summary,
		})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// Status reports whether the stored credential yields a usable token.
func (h *SyncHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"connected": h.client.CheckConnection(c.Request.Context()),
	})
}
