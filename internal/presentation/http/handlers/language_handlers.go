package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/VoxPanel/voxpanel-go/internal/application/services"
	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/observability/logging"
)

// LanguageHandlers contains the language and voice catalog handlers
type LanguageHandlers struct {
	voices *services.VoiceCatalogService
	logger *logging.ChanneledLogger
}

// NewLanguageHandlers creates language handlers with injected dependencies
func NewLanguageHandlers(voices *services.VoiceCatalogService, logger *logging.ChanneledLogger) *LanguageHandlers {
	return &LanguageHandlers{voices: voices, logger: logger}
}

// GetLanguages returns the supported narration languages
func (h *LanguageHandlers) GetLanguages(c *gin.Context) {
	languages := h.voices.SupportedLanguages()
	c.JSON(http.StatusOK, gin.H{
		"languages": languages,
		"count":     len(languages),
	})
}

// GetVoices returns the vendor voice catalog
func (h *LanguageHandlers) GetVoices(c *gin.Context) {
	voices := h.voices.ListVoices(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"voices": voices,
		"count":  len(voices),
	})
}
