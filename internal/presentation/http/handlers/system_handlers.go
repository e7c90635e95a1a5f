package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/VoxPanel/voxpanel-go/internal/application/services"
	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/caching/stores"
	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/observability/monitoring"
	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/observability/performance"
)

// SystemHandlers serves the health and runtime metrics surface
type SystemHandlers struct {
	monitor     *monitoring.SessionMonitor
	store       *stores.SessionStore
	preload     *services.PreloadService
	perfTracker *performance.Tracker
}

// NewSystemHandlers creates system handlers with injected dependencies
func NewSystemHandlers(monitor *monitoring.SessionMonitor, store *stores.SessionStore, preload *services.PreloadService, perfTracker *performance.Tracker) *SystemHandlers {
	return &SystemHandlers{
		monitor:     monitor,
		store:       store,
		preload:     preload,
		perfTracker: perfTracker,
	}
}

// GetHealth returns runtime counters for the session store and the
// preload pipeline
func (h *SystemHandlers) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"activeSessions": h.store.Count(),
		"queueDepth":     h.preload.QueueDepth(),
		"metrics":        h.monitor.Report(),
		"recentAlerts":   h.perfTracker.RecentAlerts(10),
	})
}
