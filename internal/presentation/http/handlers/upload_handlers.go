// Package handlers provides HTTP handlers for the comic reader endpoints
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/VoxPanel/voxpanel-go/internal/application/services"
	"github.com/VoxPanel/voxpanel-go/internal/domain/errs"
	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/observability/logging"
	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/observability/performance"
)

// UploadHandlers contains the comic upload HTTP handlers
type UploadHandlers struct {
	reader      *services.ComicReaderService
	preload     *services.PreloadService
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewUploadHandlers creates upload handlers with injected dependencies
func NewUploadHandlers(reader *services.ComicReaderService, preload *services.PreloadService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *UploadHandlers {
	return &UploadHandlers{
		reader:      reader,
		preload:     preload,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// PostUpload accepts a multipart PDF upload plus a language selection,
// creates the session, and warms the opening pages.
func (h *UploadHandlers) PostUpload(c *gin.Context) {
	start := time.Now()
	h.logger.Session().Debug("Received upload request", "method", c.Request.Method, "path", c.Request.URL.Path)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file field"})
		return
	}
	language := c.PostForm("language")

	marker := h.perfTracker.StartOperation("upload_request", "")
	defer marker.Complete()

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable upload"})
		return
	}
	defer file.Close()

	sess, err := h.reader.CreateSession(c.Request.Context(), fileHeader.Filename, fileHeader.Size, file, language)
	if err != nil {
		marker.SetError(err)
		c.JSON(errs.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	marker.SessionID = sess.ID
	marker.SetSuccess(true)

	// Warm the opening pages before the reader asks for them.
	h.preload.OnNavigate(sess)

	sess.Mu.RLock()
	response := gin.H{
		"session_id":  sess.ID,
		"filename":    sess.Filename,
		"total_pages": sess.TotalPages,
		"language":    sess.Language,
		"message":     "Comic uploaded successfully",
	}
	sess.Mu.RUnlock()

	h.logger.Session().Info("Upload request completed",
		"sessionId", sess.ID, "duration", time.Since(start))
	c.JSON(http.StatusOK, response)
}
