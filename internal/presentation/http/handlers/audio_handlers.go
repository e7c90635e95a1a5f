package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/VoxPanel/voxpanel-go/internal/application/services"
	"github.com/VoxPanel/voxpanel-go/internal/domain/errs"
	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/observability/logging"
	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/observability/performance"
	"github.com/VoxPanel/voxpanel-go/internal/presentation/http/middleware"
)

// AudioHandlers contains the audio generation HTTP handlers
type AudioHandlers struct {
	reader      *services.ComicReaderService
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewAudioHandlers creates audio handlers with injected dependencies
func NewAudioHandlers(reader *services.ComicReaderService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *AudioHandlers {
	return &AudioHandlers{
		reader:      reader,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// PostGenerateAudio voices one text with the requested or
// gender-derived voice (form: text, voice_id, gender).
func (h *AudioHandlers) PostGenerateAudio(c *gin.Context) {
	start := time.Now()
	sess, ok := middleware.GetSession(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	text := c.PostForm("text")
	voiceID := c.DefaultPostForm("voice_id", "default")
	gender := c.PostForm("gender")

	artifact, err := h.reader.GenerateAudioForText(c.Request.Context(), sess, text, voiceID, gender)
	if err != nil {
		c.JSON(errs.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	h.logger.Session().Info("Generate audio request completed",
		"sessionId", sess.ID, "engine", artifact.Engine, "duration", time.Since(start))
	c.JSON(http.StatusOK, gin.H{
		"audio_url": artifact.URL,
		"engine":    artifact.Engine,
		"text":      text,
	})
}
