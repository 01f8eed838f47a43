package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/pkgsync-go/internal/app"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	syncMgr *app.SyncManager
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(syncMgr *app.SyncManager) *HealthHandler {
	return &HealthHandler{
		syncMgr: syncMgr,
	}
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status  string         `json:"status"`
	Version string         `json:"version"`
	Sync    app.SyncStatus `json:"sync"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	response := HealthResponse{
		Status:  "ok",
		Version: "1.0.0",
		Sync:    h.syncMgr.Status(),
	}

	c.JSON(http.StatusOK, response)
}
