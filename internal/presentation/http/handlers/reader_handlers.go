package handlers

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/VoxPanel/voxpanel-go/internal/application/services"
	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/observability/logging"
	"github.com/VoxPanel/voxpanel-go/internal/presentation/http/middleware"
	"github.com/VoxPanel/voxpanel-go/pkg/config"
)

// ReaderHandlers serves the HTML upload and reader pages
type ReaderHandlers struct {
	voices *services.VoiceCatalogService
	logger *logging.ChanneledLogger
}

// NewReaderHandlers creates reader page handlers
func NewReaderHandlers(voices *services.VoiceCatalogService, logger *logging.ChanneledLogger) *ReaderHandlers {
	return &ReaderHandlers{voices: voices, logger: logger}
}

// GetHome renders the upload page
func (h *ReaderHandlers) GetHome(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"languages": h.voices.SupportedLanguages(),
	})
}

// GetReader renders the reader page for a session
func (h *ReaderHandlers) GetReader(c *gin.Context) {
	sess, ok := middleware.GetSession(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	sess.Mu.RLock()
	data := gin.H{
		"session_id":  sess.ID,
		"filename":    sess.Filename,
		"total_pages": sess.TotalPages,
		"language":    sess.Language,
		"pages":       pageURLs(sess.PageImages),
	}
	sess.Mu.RUnlock()

	c.HTML(http.StatusOK, "reader.html", data)
}

// pageURLs converts extracted page image paths into the /temp URLs the
// reader page loads them from. The /temp mount serves the pages
// directory, so paths are made relative to it.
func pageURLs(paths []string) []string {
	prefix := filepath.ToSlash(config.PagesDir) + "/"
	urls := make([]string, 0, len(paths))
	for _, p := range paths {
		urls = append(urls, "/temp/"+strings.TrimPrefix(filepath.ToSlash(p), prefix))
	}
	return urls
}
