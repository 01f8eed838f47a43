package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/pkgsync-go/internal/app"
	"github.com/yourusername/pkgsync-go/internal/domain"
	"go.uber.org/zap"
)

// SyncHandler handles sync-related HTTP requests
type SyncHandler struct {
	syncMgr  *app.SyncManager
	registry domain.Registry
	logger   *zap.Logger
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(syncMgr *app.SyncManager, registry domain.Registry, logger *zap.Logger) *SyncHandler {
	return &SyncHandler{
		syncMgr:  syncMgr,
		registry: registry,
		logger:   logger,
	}
}

// SyncResponse represents the result of a sync run
type SyncResponse struct {
	Outcome domain.SyncOutcome `json:"outcome"`
	Error   string             `json:"error,omitempty"`
}

// Sync handles POST /api/v1/sync
func (h *SyncHandler) Sync(c *gin.Context) {
	outcome, err := h.syncMgr.SyncAll(c.Request.Context())
	if err != nil {
		h.logger.Error("Sync failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, SyncResponse{
			Outcome: outcome,
			Error:   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, SyncResponse{Outcome: outcome})
}

// GetStatus handles GET /api/v1/sync/status
func (h *SyncHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.syncMgr.Status())
}

// ListPackages handles GET /api/v1/packages
func (h *SyncHandler) ListPackages(c *gin.Context) {
	descriptors, err := h.registry.Available()
	if err != nil {
		h.logger.Error("Failed to list packages", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, descriptors)
}

// ListRepositories handles GET /api/v1/repositories
func (h *SyncHandler) ListRepositories(c *gin.Context) {
	repos, err := h.registry.Repositories()
	if err != nil {
		h.logger.Error("Failed to list repositories", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, repos)
}
