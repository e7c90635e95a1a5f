// Package routes provides HTTP route configuration for the presentation layer.
package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/VoxPanel/voxpanel-go/internal/application/container"
	"github.com/VoxPanel/voxpanel-go/internal/presentation/http/handlers"
	"github.com/VoxPanel/voxpanel-go/internal/presentation/http/middleware"
	"github.com/VoxPanel/voxpanel-go/pkg/config"
)

// SetupRoutes configures all HTTP routes and middleware with dependency injection.
func SetupRoutes(container *container.Container) *gin.Engine {
	r := gin.Default()

	r.Use(middleware.CORSMiddleware())

	r.LoadHTMLGlob("web/templates/*.html")
	r.Static("/static", "web/static")
	r.Static("/uploads", config.UploadDir)
	r.Static("/temp", config.PagesDir)

	// Initialize handlers
	uploadHandlers := handlers.NewUploadHandlers(container.ComicReaderService, container.PreloadService, container.Logger, container.PerfTracker)
	readerHandlers := handlers.NewReaderHandlers(container.VoiceCatalogService, container.Logger)
	analysisHandlers := handlers.NewAnalysisHandlers(container.ComicReaderService, container.PreloadService, container.Logger, container.PerfTracker)
	audioHandlers := handlers.NewAudioHandlers(container.ComicReaderService, container.Logger, container.PerfTracker)
	sessionHandlers := handlers.NewSessionHandlers(container.ComicReaderService, container.PreloadService, container.Broadcaster, container.Logger)
	languageHandlers := handlers.NewLanguageHandlers(container.VoiceCatalogService, container.Logger)
	streamHandlers := handlers.NewStreamHandlers(container.Broadcaster, container.Logger)
	systemHandlers := handlers.NewSystemHandlers(container.Monitor, container.SessionStore, container.PreloadService, container.PerfTracker)

	sessionResolved := middleware.SessionMiddleware(container.ComicReaderService, container.PerfTracker)

	// Pages
	r.GET("/", readerHandlers.GetHome)
	r.GET("/comic/:session_id", sessionResolved, readerHandlers.GetReader)

	// Upload and catalogs
	r.POST("/upload", uploadHandlers.PostUpload)
	r.GET("/health", systemHandlers.GetHealth)
	r.GET("/languages", languageHandlers.GetLanguages)
	r.GET("/voices", languageHandlers.GetVoices)

	// Pipeline operations
	r.POST("/analyze-page/:session_id/:page_num", sessionResolved, analysisHandlers.PostAnalyzePage)
	r.POST("/generate-audio/:session_id", sessionResolved, audioHandlers.PostGenerateAudio)
	r.POST("/translate-panels/:session_id", sessionResolved, analysisHandlers.PostTranslatePanels)
	r.POST("/translate-and-generate-audio/:session_id", sessionResolved, analysisHandlers.PostTranslateAndGenerateAudio)

	// Session lifecycle. Deletion is idempotent, so it skips resolution.
	session := r.Group("/session/:session_id")
	{
		session.GET("/status", sessionResolved, sessionHandlers.GetStatus)
		session.GET("/preload-status/:page_num", sessionResolved, sessionHandlers.GetPreloadStatus)
		session.POST("/navigate", sessionResolved, sessionHandlers.PostNavigate)
		session.GET("/stream", sessionResolved, streamHandlers.GetStream)
	}
	r.DELETE("/session/:session_id", sessionHandlers.DeleteSession)

	return r
}
