package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/VoxPanel/voxpanel-go/internal/application/services"
	"github.com/VoxPanel/voxpanel-go/internal/domain/entities/session"
	"github.com/VoxPanel/voxpanel-go/internal/domain/errs"
	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/observability/logging"
	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/observability/performance"
	"github.com/VoxPanel/voxpanel-go/internal/presentation/http/middleware"
)

// TranslateRequest is the body for the translate endpoints. PageNum
// defaults to the session's current page when omitted.
type TranslateRequest struct {
	TargetLanguage string `json:"target_language" binding:"required"`
	PageNum        *int   `json:"page_num"`
}

// AnalysisHandlers contains the page analysis and translation handlers
type AnalysisHandlers struct {
	reader      *services.ComicReaderService
	preload     *services.PreloadService
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewAnalysisHandlers creates analysis handlers with injected dependencies
func NewAnalysisHandlers(reader *services.ComicReaderService, preload *services.PreloadService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *AnalysisHandlers {
	return &AnalysisHandlers{
		reader:      reader,
		preload:     preload,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// PostAnalyzePage analyzes one page synchronously. A page already
// analyzed by the preload workers returns the cached result without a
// second vendor call.
func (h *AnalysisHandlers) PostAnalyzePage(c *gin.Context) {
	start := time.Now()
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

	analysis, err := h.reader.AnalyzePage(c.Request.Context(), sess, page)
	if err != nil {
		status := errs.HTTPStatus(err)
		if analysis != nil {
			// Degraded result with a failure record.
			c.JSON(status, gin.H{"error": err.Error(), "analysis": analysis})
			return
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	// The reader is looking at this page now; keep the window warm.
	sess.Mu.Lock()
	sess.CurrentPage = page
	sess.CurrentPanel = 0
	sess.Mu.Unlock()
	h.preload.OnNavigate(sess)

	h.logger.Session().Info("Analyze page request completed",
		"sessionId", sess.ID, "page", page, "duration", time.Since(start))

	sess.Mu.RLock()
	defer sess.Mu.RUnlock()
	c.JSON(http.StatusOK, analysis)
}

// PostTranslatePanels translates the analyzed panels of a page into the
// target language.
func (h *AnalysisHandlers) PostTranslatePanels(c *gin.Context) {
	sess, ok := middleware.GetSession(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	var req TranslateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "target_language is required"})
		return
	}
	page := h.resolvePage(sess, req.PageNum)

	analysis, err := h.reader.TranslatePanels(c.Request.Context(), sess, page, req.TargetLanguage)
	if err != nil {
		c.JSON(errs.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	sess.Mu.Lock()
	sess.Language = req.TargetLanguage
	sess.Mu.Unlock()

	sess.Mu.RLock()
	defer sess.Mu.RUnlock()
	c.JSON(http.StatusOK, gin.H{
		"page":            page,
		"target_language": req.TargetLanguage,
		"panels":          analysis.Panels,
	})
}

// PostTranslateAndGenerateAudio translates a page and then voices every
// panel in the target language in one call.
func (h *AnalysisHandlers) PostTranslateAndGenerateAudio(c *gin.Context) {
	start := time.Now()
	sess, ok := middleware.GetSession(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	var req TranslateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "target_language is required"})
		return
	}
	page := h.resolvePage(sess, req.PageNum)

	marker := h.perfTracker.StartOperation("translate_and_generate_audio", sess.ID)
	defer marker.Complete()

	analysis, err := h.reader.TranslatePanels(c.Request.Context(), sess, page, req.TargetLanguage)
	if err != nil {
		marker.SetError(err)
		c.JSON(errs.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	sess.Mu.Lock()
	sess.Language = req.TargetLanguage
	sess.Mu.Unlock()

	audio, err := h.reader.GeneratePageAudio(c.Request.Context(), sess, page)
	if err != nil {
		marker.SetError(err)
		c.JSON(errs.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	marker.SetSuccess(true)

	h.logger.Session().Info("Translate and generate audio request completed",
		"sessionId", sess.ID, "page", page, "language", req.TargetLanguage,
		"duration", time.Since(start))

	sess.Mu.RLock()
	defer sess.Mu.RUnlock()
	c.JSON(http.StatusOK, gin.H{
		"page":            page,
		"target_language": req.TargetLanguage,
		"panels":          analysis.Panels,
		"audio":           audio,
	})
}

// resolvePage picks the requested page, defaulting to the session's
// current page.
func (h *AnalysisHandlers) resolvePage(sess *session.Session, pageNum *int) int {
	if pageNum != nil {
		return *pageNum
	}
	sess.Mu.RLock()
	defer sess.Mu.RUnlock()
	return sess.CurrentPage
}
