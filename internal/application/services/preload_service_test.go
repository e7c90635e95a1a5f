package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VoxPanel/voxpanel-go/internal/domain/entities/comic"
	"github.com/VoxPanel/voxpanel-go/internal/domain/entities/session"
	"github.com/VoxPanel/voxpanel-go/internal/domain/errs"
	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/tasks"
)

type recordingNotifier struct {
	mu       sync.Mutex
	statuses []PreloadStatus
}

func (rn *recordingNotifier) PublishPreload(sessionID string, status PreloadStatus) {
	rn.mu.Lock()
	rn.statuses = append(rn.statuses, status)
	rn.mu.Unlock()
}

func (rn *recordingNotifier) count() int {
	rn.mu.Lock()
	defer rn.mu.Unlock()
	return len(rn.statuses)
}

func newTestPreload(t *testing.T, f *testFixture, ahead, maxAttempts int) (*PreloadService, *tasks.Queue) {
	t.Helper()
	queue := tasks.NewQueue(2, 32, f.logger)
	pl := NewPreloadService(queue, f.reader, f.monitor, f.logger, ahead, maxAttempts)

	ctx, cancel := context.WithCancel(context.Background())
	queue.Start(ctx)
	t.Cleanup(func() {
		cancel()
		queue.Stop()
	})
	return pl, queue
}

// waitReady blocks until the page's full chain has completed.
func waitReady(t *testing.T, pl *PreloadService, sess *session.Session, page int) {
	t.Helper()
	require.Eventually(t, func() bool {
		status, err := pl.Status(sess, page)
		return err == nil && status.Ready
	}, 5*time.Second, 10*time.Millisecond)
}

func TestPreloadRunsFullChain(t *testing.T) {
	f := newTestFixture(t)
	pl, _ := newTestPreload(t, f, 2, 1)
	sess := f.newSession(t, "en-US", 1)

	pl.EnsurePreloaded(sess, 0)
	waitReady(t, pl, sess, 0)

	status, err := pl.Status(sess, 0)
	require.NoError(t, err)
	assert.Equal(t, comic.StatusDone, status.Analysis)
	assert.Equal(t, StatusSkipped, status.Translation, "base language needs no translation")
	assert.Equal(t, comic.StatusDone, status.Audio)

	assert.Equal(t, 1, f.vision.callCount())
	assert.Equal(t, 0, f.translator.callCount())
	assert.Equal(t, 2, f.synth.callCount(), "one synthesis per panel")
}

func TestPreloadTranslatesNonBaseLanguage(t *testing.T) {
	f := newTestFixture(t)
	pl, _ := newTestPreload(t, f, 2, 1)
	sess := f.newSession(t, "es-MX", 1)

	pl.EnsurePreloaded(sess, 0)
	waitReady(t, pl, sess, 0)

	assert.Equal(t, 1, f.translator.callCount())

	sess.Mu.RLock()
	defer sess.Mu.RUnlock()
	analysis := sess.Analyses[0]
	assert.Equal(t, "es-MX", analysis.TranslatedTo)
	assert.Equal(t, "es-MX:The city sleeps", analysis.Panels[0].TextElements[0].TranslatedText)
	assert.Equal(t, comic.StatusDone, sess.Audio[0].Status)
}

func TestPreloadCoalescesConcurrentRequests(t *testing.T) {
	f := newTestFixture(t)
	gate := make(chan struct{})
	f.vision.gate = gate
	pl, _ := newTestPreload(t, f, 2, 1)
	sess := f.newSession(t, "en-US", 1)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pl.EnsurePreloaded(sess, 0)
		}()
	}
	wg.Wait()

	close(gate)
	waitReady(t, pl, sess, 0)
	assert.Equal(t, 1, f.vision.callCount(), "concurrent requests for one page coalesce into one analysis")
}

func TestPreloadFailedPageBlocksOnlyItself(t *testing.T) {
	f := newTestFixture(t)
	f.vision.failFor = map[string]error{
		"page_0.png": errs.NewVendor("gemini", 400, fmt.Errorf("unreadable image")),
	}
	pl, _ := newTestPreload(t, f, 1, 1)
	sess := f.newSession(t, "en-US", 2)

	pl.OnNavigate(sess)
	waitReady(t, pl, sess, 1)

	status, err := pl.Status(sess, 0)
	require.NoError(t, err)
	assert.Equal(t, comic.StatusFailed, status.Analysis)
	assert.False(t, status.Ready)

	status, err = pl.Status(sess, 1)
	require.NoError(t, err)
	assert.True(t, status.Ready)
}

func TestPreloadTranslateFailureSurfaced(t *testing.T) {
	f := newTestFixture(t)
	f.translator.setErr(errs.NewVendor("murf", 400, fmt.Errorf("unsupported glyphs")))
	pl, _ := newTestPreload(t, f, 0, 1)
	sess := f.newSession(t, "fr-FR", 1)

	pl.EnsurePreloaded(sess, 0)

	require.Eventually(t, func() bool {
		status, err := pl.Status(sess, 0)
		return err == nil && status.Translation == comic.StatusFailed
	}, 5*time.Second, 10*time.Millisecond)

	status, err := pl.Status(sess, 0)
	require.NoError(t, err)
	assert.Equal(t, comic.StatusDone, status.Analysis, "analysis survives a failed translation")
	assert.Equal(t, comic.StatusPending, status.Audio, "audio waits for a successful translation")
	assert.False(t, status.Ready)

	// A later manual translation succeeds and clears the failure.
	f.translator.setErr(nil)
	_, err = f.reader.TranslatePanels(context.Background(), sess, 0, "fr-FR")
	require.NoError(t, err)
	status, err = pl.Status(sess, 0)
	require.NoError(t, err)
	assert.Equal(t, comic.StatusDone, status.Translation)
}

func TestPreloadStatusValidation(t *testing.T) {
	f := newTestFixture(t)
	pl, _ := newTestPreload(t, f, 0, 1)
	sess := f.newSession(t, "en-US", 1)

	status, err := pl.Status(sess, 0)
	require.NoError(t, err)
	assert.Equal(t, comic.StatusPending, status.Analysis)
	assert.False(t, status.Ready)

	_, err = pl.Status(sess, 3)
	assert.ErrorIs(t, err, errs.ErrPageNotFound)
	_, err = pl.Status(sess, -1)
	assert.ErrorIs(t, err, errs.ErrPageNotFound)
}

func TestPreloadOutOfRangePagesIgnored(t *testing.T) {
	f := newTestFixture(t)
	pl, queue := newTestPreload(t, f, 0, 1)
	sess := f.newSession(t, "en-US", 1)

	pl.EnsurePreloaded(sess, -1)
	pl.EnsurePreloaded(sess, 1)
	assert.Equal(t, 0, queue.Depth())
}

func TestPreloadNotifierReceivesUpdates(t *testing.T) {
	f := newTestFixture(t)
	pl, _ := newTestPreload(t, f, 0, 1)
	notifier := &recordingNotifier{}
	pl.SetNotifier(notifier)
	sess := f.newSession(t, "en-US", 1)

	pl.EnsurePreloaded(sess, 0)
	waitReady(t, pl, sess, 0)

	// One publish per completed stage: analyze and synthesize.
	require.Eventually(t, func() bool { return notifier.count() >= 2 }, time.Second, 10*time.Millisecond)
	notifier.mu.Lock()
	final := notifier.statuses[len(notifier.statuses)-1]
	notifier.mu.Unlock()
	assert.True(t, final.Ready)
}

func TestWithRetries(t *testing.T) {
	f := newTestFixture(t)
	pl := NewPreloadService(tasks.NewQueue(1, 8, f.logger), f.reader, f.monitor, f.logger, 0, 3)

	t.Run("retryable error retried until success", func(t *testing.T) {
		calls := 0
		err := pl.withRetries(context.Background(), "analyze", func() error {
			calls++
			if calls < 2 {
				return errs.NewVendorTransient("gemini", fmt.Errorf("overloaded"))
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("non-retryable error fails fast", func(t *testing.T) {
		calls := 0
		err := pl.withRetries(context.Background(), "analyze", func() error {
			calls++
			return errs.NewValidation("bad page")
		})
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("attempts are bounded", func(t *testing.T) {
		calls := 0
		err := pl.withRetries(context.Background(), "analyze", func() error {
			calls++
			return errs.NewVendorTransient("gemini", fmt.Errorf("still overloaded"))
		})
		require.Error(t, err)
		assert.Equal(t, 3, calls)
		assert.True(t, errs.IsRetryable(err))
	})

	t.Run("context cancellation stops the loop", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := pl.withRetries(ctx, "analyze", func() error {
			return errs.NewVendorTransient("gemini", fmt.Errorf("overloaded"))
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
