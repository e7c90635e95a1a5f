// Package cleanup provides the background idle-session sweep worker.
package cleanup

import (
	"context"
	"time"

	"github.com/VoxPanel/voxpanel-go/internal/domain/entities/session"
	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/caching/stores"
	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/observability/logging"
	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/speech"
)

// Config controls the sweep worker.
type Config struct {
	SweepInterval    time.Duration
	AudioDir         string
	AudioMaxAge      time.Duration
	VerboseReporting bool
}

// Janitor releases a removed session's files (upload, page images, audio).
type Janitor func(sess *session.Session)

// Worker periodically removes idle-expired sessions and stale audio
// artifacts. The expiry policy is deliberate: sessions live until
// explicit deletion or until idle longer than the store TTL.
type Worker struct {
	store    *stores.SessionStore
	janitor  Janitor
	config   *Config
	reporter *Reporter
	logger   *logging.ChanneledLogger
}

// NewWorker creates a sweep worker with injected configuration.
func NewWorker(store *stores.SessionStore, janitor Janitor, config *Config, logger *logging.ChanneledLogger) *Worker {
	return &Worker{
		store:    store,
		janitor:  janitor,
		config:   config,
		reporter: NewReporter(),
		logger:   logger,
	}
}

// Start begins the sweep routine, using the configured interval.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.config.SweepInterval)
	defer ticker.Stop()

	w.logger.System().Info("Session sweep worker started",
		"interval", w.config.SweepInterval,
		"verbose", w.config.VerboseReporting,
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Shutdown().Info("Session sweep worker stopping")
			return
		case <-ticker.C:
			w.performSweep()
		}
	}
}

// performSweep removes expired sessions and old audio artifacts.
func (w *Worker) performSweep() {
	start := time.Now()

	expired := w.store.Expired(time.Now().UTC())
	if w.config.VerboseReporting {
		w.reporter.LogStage("PERIODIC SESSION SWEEP (%d active, %d expired)", w.store.Count(), len(expired))
	}

	for _, sess := range expired {
		removed := w.store.Delete(sess.ID)
		if removed == nil {
			continue // already explicitly deleted
		}
		w.janitor(removed)
		w.logger.Session().Info("Expired idle session", "sessionId", removed.ID)
	}

	removedAudio := speech.CleanupOldArtifacts(w.config.AudioDir, w.config.AudioMaxAge, w.logger)

	duration := time.Since(start)
	if len(expired) > 0 || removedAudio > 0 {
		w.reporter.LogSuccess("Sweep finished: %d sessions and %d audio files removed in %v",
			len(expired), removedAudio, duration)
	} else if w.config.VerboseReporting {
		w.reporter.LogInfo("Sweep completed - nothing expired (%v)", duration)
	}
}
