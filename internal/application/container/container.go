// Package container provides dependency injection for all singleton services
package container

import (
	"github.com/VoxPanel/voxpanel-go/internal/application/services"
	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/caching/stores"
	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/media"
	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/messaging"
	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/observability/logging"
	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/observability/monitoring"
	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/observability/performance"
	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/pdf"
	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/speech"
	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/tasks"
	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/vendors/murf"
	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/vendors/vision"
	"github.com/VoxPanel/voxpanel-go/pkg/config"
)

// Container holds all singleton services and infrastructure dependencies
type Container struct {
	// Application services (singletons)
	ComicReaderService  *services.ComicReaderService
	PreloadService      *services.PreloadService
	VoiceCatalogService *services.VoiceCatalogService

	// Infrastructure
	SessionStore *stores.SessionStore
	TaskQueue    *tasks.Queue
	Broadcaster  *messaging.StatusBroadcaster
	Logger       *logging.ChanneledLogger
	PerfTracker  *performance.Tracker
	Monitor      *monitoring.SessionMonitor
}

// preloadPublisher bridges the preload service to the websocket
// broadcaster without the infrastructure layer importing application
// types.
type preloadPublisher struct {
	broadcaster *messaging.StatusBroadcaster
}

func (p *preloadPublisher) PublishPreload(sessionID string, status services.PreloadStatus) {
	p.broadcaster.Publish(sessionID, map[string]any{
		"type":   "preload_status",
		"status": status,
	})
}

// NewContainer creates and wires all singleton services
func NewContainer() (*Container, error) {
	logger, err := logging.NewChanneledLogger(logging.DefaultLoggerConfig())
	if err != nil {
		return nil, err
	}
	perfTracker := performance.NewTracker(performance.DefaultTrackerConfig())
	monitor := monitoring.NewSessionMonitor()

	sessionStore := stores.NewSessionStore(config.SessionIdleTTL, logger)
	taskQueue := tasks.NewQueue(config.PreloadWorkers, config.PreloadQueueSize, logger)
	broadcaster := messaging.NewStatusBroadcaster(logger)

	processor := media.NewImageProcessor(config.PageMaxWidth, config.PageWebPQuality)
	extractor := pdf.NewExtractor(config.PagesDir, processor, logger)

	visionClient := vision.NewClient(config.GeminiAPIKey, config.GeminiModel, config.VendorTimeout, processor, logger)
	murfClient := murf.NewClient(config.MurfAPIKey, config.MurfAPIURL, config.VendorTimeout, config.VendorRetries, logger)

	synthesizer := speech.NewFallbackSynthesizer(config.AudioDir, logger,
		speech.NewMurfEngine(murfClient, config.AudioDir),
		speech.NewLocalEngine(config.AudioDir),
	)

	voiceCatalog := services.NewVoiceCatalogService(murfClient, logger)
	comicReader := services.NewComicReaderService(
		sessionStore,
		extractor,
		visionClient,
		murfClient,
		synthesizer,
		voiceCatalog,
		perfTracker,
		monitor,
		logger,
		config.UploadDir,
		config.MaxUploadBytes(),
	)
	preload := services.NewPreloadService(taskQueue, comicReader, monitor, logger, config.PreloadAhead, config.PreloadStageAttempts)
	preload.SetNotifier(&preloadPublisher{broadcaster: broadcaster})

	return &Container{
		ComicReaderService:  comicReader,
		PreloadService:      preload,
		VoiceCatalogService: voiceCatalog,
		SessionStore:        sessionStore,
		TaskQueue:           taskQueue,
		Broadcaster:         broadcaster,
		Logger:              logger,
		PerfTracker:         perfTracker,
		Monitor:             monitor,
	}, nil
}
