// Package startup prepares the application server
package startup

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/VoxPanel/voxpanel-go/internal/application/container"
	"github.com/VoxPanel/voxpanel-go/internal/domain/entities/session"
	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/caching/cleanup"
	"github.com/VoxPanel/voxpanel-go/internal/presentation/http/server"
	"github.com/VoxPanel/voxpanel-go/pkg/config"
)

// Initialize performs the complete startup sequence
func Initialize() error {
	setupLogging()

	start := time.Now().UTC()

	ctx, cancelBackgroundTasks := context.WithCancel(context.Background())
	defer cancelBackgroundTasks()

	log.Println("\033[32m" + `

 ██  ██  ▄██▄  ██  ██ ██▀██  ▄██▄  ██▄ ██ ██▀▀ ██
 ██  ██ ██  ██ ▀█▄▄█▀ ██▄█▀ ██▄▄██ ██▀███ ██▄▄ ██
  ▀██▀   ▀██▀  ▄█▀▀█▄ ██    ██  ██ ██  ██ ██▄▄ ██▄▄
` + "\033[97m" + `
  comics, read aloud
` + "\033[0m")

	// Step 1: Prepare working directories
	log.Println("Preparing working directories...")
	for _, dir := range []string{config.UploadDir, config.PagesDir, config.AudioDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	// Step 2: Create dependency injection container (THIS IS WHERE LOGGER IS CREATED!)
	log.Println("Initializing dependency injection container...")
	appContainer, err := container.NewContainer()
	if err != nil {
		return fmt.Errorf("failed to build container: %w", err)
	}
	log.Println("✓ Dependency injection container created with singleton services.")

	// NOW USE THE LOGGER FROM CONTAINER
	logger := appContainer.Logger
	logger.Startup().Info("Container initialization complete - switching to channeled logging")

	if !appContainer.ComicReaderService.VisionConfigured() {
		logger.Startup().Warn("GEMINI_API_KEY not set - page analysis will return degraded single-panel results")
	}
	if !appContainer.ComicReaderService.SpeechConfigured() {
		logger.Startup().Warn("MURF_API_KEY not set - narration will fall back to the local speech engine")
	}

	// Step 3: Start preload workers
	logger.Startup().Info("Starting preload workers...",
		"workers", config.PreloadWorkers, "queueSize", config.PreloadQueueSize)
	appContainer.TaskQueue.Start(ctx)

	// Step 4: Start background cleanup worker
	logger.Startup().Info("Starting background cleanup worker...")
	startWorkerTime := time.Now()

	cleanupConfig := &cleanup.Config{
		SweepInterval:    config.SessionSweepInterval,
		AudioDir:         config.AudioDir,
		AudioMaxAge:      config.AudioMaxAge,
		VerboseReporting: config.SessionSweepVerbose,
	}
	janitor := func(sess *session.Session) {
		appContainer.ComicReaderService.ReleaseFiles(sess)
		appContainer.Monitor.RecordSessionExpired()
	}
	cleanupWorker := cleanup.NewWorker(
		appContainer.SessionStore,
		janitor,
		cleanupConfig,
		logger,
	)
	go cleanupWorker.Start(ctx)

	logger.Startup().Info("Background cleanup worker started", "duration", time.Since(startWorkerTime))

	// Step 5: Start HTTP server
	logger.Startup().Info("Starting HTTP server...")
	startServerTime := time.Now()

	addr := config.Host + ":" + config.Port
	httpServer := server.New(addr, appContainer)

	logger.Startup().Info("HTTP server initialized", "address", addr, "duration", time.Since(startServerTime))

	// Step 6: Setup graceful shutdown
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.System().Info("Starting HTTP server", "address", addr)
		if err := httpServer.Start(); err != nil {
			logger.System().Error("HTTP server failed", "error", err.Error())
		}
	}()

	totalStartupTime := time.Since(start)
	logger.Startup().Info("Application startup complete",
		"totalDuration", totalStartupTime,
		"address", addr)

	// Wait for shutdown signal
	<-gracefulShutdown
	logger.Shutdown().Info("Shutdown signal received, starting graceful shutdown...")

	shutdownStart := time.Now()

	// Cancel background tasks
	cancelBackgroundTasks()

	// Stop server
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()

	logger.Shutdown().Info("Stopping HTTP server...")
	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Shutdown().Error("Error during server shutdown", "error", err.Error())
	} else {
		logger.Shutdown().Info("HTTP server stopped successfully")
	}

	// Drain preload workers
	logger.Shutdown().Info("Stopping preload workers...")
	appContainer.TaskQueue.Stop()
	logger.Shutdown().Info("Preload workers stopped")

	elapsed := time.Since(start)
	logger.Shutdown().Info("Application shutdown complete",
		"totalUptime", elapsed,
		"shutdownDuration", time.Since(shutdownStart))

	return nil
}

// setupLogging configures application logging
func setupLogging() {
	if !config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}
