package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/VoxPanel/voxpanel-go/internal/application/services"
	"github.com/VoxPanel/voxpanel-go/internal/domain/entities/session"
	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/messaging"
	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/observability/logging"
	"github.com/VoxPanel/voxpanel-go/internal/presentation/http/middleware"
)

// SessionHandlers contains the session status and lifecycle handlers
type SessionHandlers struct {
	reader      *services.ComicReaderService
	preload     *services.PreloadService
	broadcaster *messaging.StatusBroadcaster
	logger      *logging.ChanneledLogger
}

// NewSessionHandlers creates session handlers with injected dependencies
func NewSessionHandlers(reader *services.ComicReaderService, preload *services.PreloadService, broadcaster *messaging.StatusBroadcaster, logger *logging.ChanneledLogger) *SessionHandlers {
	return &SessionHandlers{
		reader:      reader,
		preload:     preload,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// GetStatus returns the session's reading position and totals
func (h *SessionHandlers) GetStatus(c *gin.Context) {
	sess, ok := middleware.GetSession(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	sess.Mu.RLock()
	defer sess.Mu.RUnlock()
	c.JSON(http.StatusOK, gin.H{
		"current_page":  sess.CurrentPage,
		"current_panel": sess.CurrentPanel,
		"total_pages":   sess.TotalPages,
		"total_panels":  sess.PanelCount(),
		"filename":      sess.Filename,
		"language":      sess.Language,
		"queue_depth":   h.preload.QueueDepth(),
	})
}

// GetPreloadStatus reports per-stage readiness for one page
func (h *SessionHandlers) GetPreloadStatus(c *gin.Context) {
	sess, ok := middleware.GetSession(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	page, err := strconv.Atoi(c.Param("page_num"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page number"})
		return
	}

	status, err := h.preload.Status(sess, page)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Page not found"})
		return
	}
	c.JSON(http.StatusOK, status)
}

// PostNavigate applies a navigation action and recomputes the preload
// window for the new position
func (h *SessionHandlers) PostNavigate(c *gin.Context) {
	sess, ok := middleware.GetSession(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	action := c.PostForm("action")
	if action == "" {
		action = c.Query("action")
	}
	if !session.ValidAction(action) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid navigation action"})
		return
	}

	sess.Mu.Lock()
	page, panel := sess.Navigate(action)
	sess.Mu.Unlock()

	h.preload.OnNavigate(sess)

	h.logger.Session().Debug("Navigation applied",
		"sessionId", sess.ID, "action", action, "page", page, "panel", panel)
	c.JSON(http.StatusOK, gin.H{
		"current_page":  page,
		"current_panel": panel,
		"action":        action,
	})
}

// DeleteSession removes the session and its files. Deletion is
// idempotent; an unknown id still returns success.
func (h *SessionHandlers) DeleteSession(c *gin.Context) {
	id := c.Param("session_id")
	h.reader.DeleteSession(id)
	h.broadcaster.CloseSession(id)
	c.JSON(http.StatusOK, gin.H{"message": "Session cleaned up successfully"})
}
