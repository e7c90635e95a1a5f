package services

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/VoxPanel/voxpanel-go/internal/domain/entities/comic"
	"github.com/VoxPanel/voxpanel-go/internal/domain/entities/session"
	"github.com/VoxPanel/voxpanel-go/internal/domain/errs"
	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/observability/logging"
	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/observability/monitoring"
	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/tasks"
)

// PreloadStatus is the per-page readiness snapshot served to the reader
// and pushed over the status stream.
type PreloadStatus struct {
	Page        int    `json:"page"`
	Analysis    string `json:"analysis"`
	Translation string `json:"translation"`
	Audio       string `json:"audio"`
	Ready       bool   `json:"ready"`
}

// StatusSkipped marks a stage that does not apply, such as translation
// when the comic's base language was selected.
const StatusSkipped = "skipped"

// PreloadNotifier receives status snapshots as preload stages complete.
type PreloadNotifier interface {
	PublishPreload(sessionID string, status PreloadStatus)
}

// PreloadService keeps pages near the reader's position ready ahead of
// navigation. Each page runs a dependent chain: analyze, then translate
// when the session language is not the base language, then synthesize.
// Work is queued on a bounded worker pool deduplicated per
// (session, page, stage); navigation never cancels in-flight work, so a
// page the reader has moved away from still completes and lands in the
// session cache.
type PreloadService struct {
	queue       *tasks.Queue
	reader      *ComicReaderService
	notifier    PreloadNotifier
	monitor     *monitoring.SessionMonitor
	logger      *logging.ChanneledLogger
	ahead       int
	maxAttempts int
}

// NewPreloadService wires the preload manager. ahead is the number of
// pages beyond the current one to keep warm; maxAttempts bounds stage
// retries on retryable vendor errors.
func NewPreloadService(queue *tasks.Queue, reader *ComicReaderService, monitor *monitoring.SessionMonitor, logger *logging.ChanneledLogger, ahead, maxAttempts int) *PreloadService {
	if ahead < 0 {
		ahead = 0
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &PreloadService{
		queue:       queue,
		reader:      reader,
		monitor:     monitor,
		logger:      logger,
		ahead:       ahead,
		maxAttempts: maxAttempts,
	}
}

// SetNotifier installs the status push hook. Must be called before the
// queue starts accepting work.
func (pl *PreloadService) SetNotifier(n PreloadNotifier) {
	pl.notifier = n
}

// EnsurePreloaded queues the preload chain for one page. Calling it
// again while the page's work is queued or running coalesces into the
// existing work, so concurrent callers trigger at most one vendor call
// per stage. A full queue is logged and dropped; preload is best
// effort and the synchronous endpoints remain available.
func (pl *PreloadService) EnsurePreloaded(sess *session.Session, page int) {
	sess.Mu.RLock()
	total := sess.TotalPages
	sess.Mu.RUnlock()
	if page < 0 || page >= total {
		return
	}

	queued, err := pl.queue.Enqueue(&tasks.Task{
		Key:      tasks.Key{SessionID: sess.ID, Page: page, Kind: tasks.KindAnalyze},
		Enqueued: time.Now(),
		Run: func(ctx context.Context) {
			pl.runAnalyze(ctx, sess, page)
		},
	})
	if err != nil {
		var capacity *errs.CapacityError
		if errors.As(err, &capacity) {
			pl.logger.Preload().Warn("Preload queue full, dropping page",
				"sessionId", sess.ID, "page", page)
			return
		}
		pl.logger.Preload().Error("Preload enqueue failed",
			"sessionId", sess.ID, "page", page, "error", err.Error())
		return
	}
	if queued {
		pl.logger.Preload().Debug("Page queued for preload", "sessionId", sess.ID, "page", page)
	}
}

// OnNavigate recomputes the preload window after a navigation: the new
// current page plus the configured look-ahead.
func (pl *PreloadService) OnNavigate(sess *session.Session) {
	sess.Mu.RLock()
	current := sess.CurrentPage
	sess.Mu.RUnlock()
	for page := current; page <= current+pl.ahead; page++ {
		pl.EnsurePreloaded(sess, page)
	}
}

func (pl *PreloadService) runAnalyze(ctx context.Context, sess *session.Session, page int) {
	start := time.Now()
	err := pl.withRetries(ctx, string(tasks.KindAnalyze), func() error {
		_, err := pl.reader.AnalyzePage(ctx, sess, page)
		return err
	})
	pl.monitor.RecordStage(string(tasks.KindAnalyze), time.Since(start), err != nil)
	pl.logger.LogPreloadTransition(sess.ID, page, string(tasks.KindAnalyze),
		comic.StatusInProgress, stageOutcome(err))
	pl.publish(sess, page)
	if err != nil {
		pl.logger.Preload().Warn("Preload analyze gave up",
			"sessionId", sess.ID, "page", page, "error", err.Error())
		return
	}

	sess.Mu.RLock()
	language := sess.Language
	sess.Mu.RUnlock()
	next := tasks.KindSynthesize
	if language != DefaultLanguage {
		next = tasks.KindTranslate
	}
	pl.chain(sess, page, next)
}

func (pl *PreloadService) runTranslate(ctx context.Context, sess *session.Session, page int) {
	sess.Mu.RLock()
	language := sess.Language
	sess.Mu.RUnlock()

	start := time.Now()
	err := pl.withRetries(ctx, string(tasks.KindTranslate), func() error {
		_, err := pl.reader.TranslatePanels(ctx, sess, page, language)
		return err
	})
	pl.monitor.RecordStage(string(tasks.KindTranslate), time.Since(start), err != nil)
	pl.logger.LogPreloadTransition(sess.ID, page, string(tasks.KindTranslate),
		comic.StatusInProgress, stageOutcome(err))
	pl.publish(sess, page)
	if err != nil {
		pl.logger.Preload().Warn("Preload translate gave up",
			"sessionId", sess.ID, "page", page, "error", err.Error())
		return
	}
	pl.chain(sess, page, tasks.KindSynthesize)
}

func (pl *PreloadService) runSynthesize(ctx context.Context, sess *session.Session, page int) {
	start := time.Now()
	err := pl.withRetries(ctx, string(tasks.KindSynthesize), func() error {
		_, err := pl.reader.GeneratePageAudio(ctx, sess, page)
		return err
	})
	pl.monitor.RecordStage(string(tasks.KindSynthesize), time.Since(start), err != nil)
	pl.logger.LogPreloadTransition(sess.ID, page, string(tasks.KindSynthesize),
		comic.StatusInProgress, stageOutcome(err))
	pl.publish(sess, page)
	if err != nil {
		pl.logger.Preload().Warn("Preload synthesize gave up",
			"sessionId", sess.ID, "page", page, "error", err.Error())
	}
}

func stageOutcome(err error) string {
	if err != nil {
		return comic.StatusFailed
	}
	return comic.StatusDone
}

// chain enqueues the next stage of a page's pipeline.
func (pl *PreloadService) chain(sess *session.Session, page int, kind tasks.Kind) {
	run := pl.runSynthesize
	if kind == tasks.KindTranslate {
		run = pl.runTranslate
	}
	_, err := pl.queue.Enqueue(&tasks.Task{
		Key:      tasks.Key{SessionID: sess.ID, Page: page, Kind: kind},
		Enqueued: time.Now(),
		Run: func(ctx context.Context) {
			run(ctx, sess, page)
		},
	})
	if err != nil {
		pl.logger.Preload().Warn("Preload chain enqueue failed",
			"sessionId", sess.ID, "page", page, "stage", string(kind), "error", err.Error())
	}
}

// withRetries runs op up to maxAttempts times, backing off between
// attempts. Only retryable vendor errors are retried; validation and
// non-retryable vendor errors surface immediately. The vendor clients
// retry their own HTTP calls, so a stage attempt here is a full pass
// through that inner retry loop and maxAttempts stays small.
func (pl *PreloadService) withRetries(ctx context.Context, stage string, op func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second
	bo.MaxElapsedTime = 0

	var err error
	for attempt := 1; attempt <= pl.maxAttempts; attempt++ {
		err = op()
		if err == nil || !errs.IsRetryable(err) {
			return err
		}
		if attempt == pl.maxAttempts {
			break
		}
		pl.monitor.RecordRetry(stage)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(bo.NextBackOff()):
		}
	}
	return err
}

// Status reports the readiness of one page across all stages.
func (pl *PreloadService) Status(sess *session.Session, page int) (PreloadStatus, error) {
	sess.Mu.RLock()
	defer sess.Mu.RUnlock()
	if page < 0 || page >= sess.TotalPages {
		return PreloadStatus{}, errs.ErrPageNotFound
	}

	status := PreloadStatus{
		Page:        page,
		Analysis:    comic.StatusPending,
		Translation: comic.StatusPending,
		Audio:       comic.StatusPending,
	}
	if sess.Language == DefaultLanguage {
		status.Translation = StatusSkipped
	}

	if analysis, ok := sess.Analyses[page]; ok {
		status.Analysis = analysis.Status
		if sess.Language != DefaultLanguage {
			switch {
			case analysis.TranslatedTo == sess.Language:
				status.Translation = comic.StatusDone
			case pl.queue.InFlight(tasks.Key{SessionID: sess.ID, Page: page, Kind: tasks.KindTranslate}):
				status.Translation = comic.StatusInProgress
			case analysis.TranslationFailure != "":
				status.Translation = comic.StatusFailed
			}
		}
	} else if pl.queue.InFlight(tasks.Key{SessionID: sess.ID, Page: page, Kind: tasks.KindAnalyze}) {
		status.Analysis = comic.StatusInProgress
	}

	if audio, ok := sess.Audio[page]; ok {
		status.Audio = audio.Status
	} else if pl.queue.InFlight(tasks.Key{SessionID: sess.ID, Page: page, Kind: tasks.KindSynthesize}) {
		status.Audio = comic.StatusInProgress
	}

	status.Ready = status.Analysis == comic.StatusDone &&
		(status.Translation == comic.StatusDone || status.Translation == StatusSkipped) &&
		status.Audio == comic.StatusDone
	return status, nil
}

// QueueDepth reports how many tasks are waiting, for the status surface.
func (pl *PreloadService) QueueDepth() int {
	return pl.queue.Depth()
}

func (pl *PreloadService) publish(sess *session.Session, page int) {
	if pl.notifier == nil {
		return
	}
	status, err := pl.Status(sess, page)
	if err != nil {
		return
	}
	pl.notifier.PublishPreload(sess.ID, status)
}
