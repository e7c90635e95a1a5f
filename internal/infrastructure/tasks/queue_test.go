package tasks

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VoxPanel/voxpanel-go/internal/domain/errs"
	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/observability/logging"
)

func testLogger(t *testing.T) *logging.ChanneledLogger {
	t.Helper()
	cfg := logging.DefaultLoggerConfig()
	cfg.OutputToFile = false
	cfg.DefaultLevel = slog.LevelError
	logger, err := logging.NewChanneledLogger(cfg)
	require.NoError(t, err)
	return logger
}

func TestEnqueueCoalescesDuplicateKeys(t *testing.T) {
	q := NewQueue(1, 8, testLogger(t))
	key := Key{SessionID: "s1", Page: 0, Kind: KindAnalyze}

	queued, err := q.Enqueue(&Task{Key: key, Run: func(context.Context) {}})
	require.NoError(t, err)
	assert.True(t, queued)

	queued, err = q.Enqueue(&Task{Key: key, Run: func(context.Context) {}})
	require.NoError(t, err)
	assert.False(t, queued, "second enqueue of the same key must coalesce")

	assert.True(t, q.InFlight(key))
	assert.Equal(t, 1, q.Depth())
}

func TestEnqueueDistinctKindsAreIndependent(t *testing.T) {
	q := NewQueue(1, 8, testLogger(t))

	for _, kind := range []Kind{KindAnalyze, KindTranslate, KindSynthesize} {
		queued, err := q.Enqueue(&Task{
			Key: Key{SessionID: "s1", Page: 0, Kind: kind},
			Run: func(context.Context) {},
		})
		require.NoError(t, err)
		assert.True(t, queued)
	}
	assert.Equal(t, 3, q.Depth())
}

func TestEnqueueFullQueueReturnsCapacityError(t *testing.T) {
	q := NewQueue(1, 2, testLogger(t))

	for i := 0; i < 2; i++ {
		_, err := q.Enqueue(&Task{
			Key: Key{SessionID: "s1", Page: i, Kind: KindAnalyze},
			Run: func(context.Context) {},
		})
		require.NoError(t, err)
	}

	overflow := Key{SessionID: "s1", Page: 99, Kind: KindAnalyze}
	_, err := q.Enqueue(&Task{Key: overflow, Run: func(context.Context) {}})

	var capacity *errs.CapacityError
	require.ErrorAs(t, err, &capacity)
	assert.False(t, q.InFlight(overflow), "rejected task must not stay marked in-flight")
}

func TestWorkersRunTasksAndReleaseKeys(t *testing.T) {
	q := NewQueue(2, 8, testLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)

	var ran atomic.Int32
	var wg sync.WaitGroup
	key := Key{SessionID: "s1", Page: 0, Kind: KindAnalyze}

	wg.Add(1)
	_, err := q.Enqueue(&Task{Key: key, Run: func(context.Context) {
		ran.Add(1)
		wg.Done()
	}})
	require.NoError(t, err)
	wg.Wait()

	assert.Equal(t, int32(1), ran.Load())

	// The key must become available again once the task finished.
	require.Eventually(t, func() bool {
		return !q.InFlight(key)
	}, time.Second, 5*time.Millisecond)

	wg.Add(1)
	queued, err := q.Enqueue(&Task{Key: key, Run: func(context.Context) {
		ran.Add(1)
		wg.Done()
	}})
	require.NoError(t, err)
	assert.True(t, queued)
	wg.Wait()
	assert.Equal(t, int32(2), ran.Load())
}

func TestConcurrentEnqueueRunsTaskOnce(t *testing.T) {
	q := NewQueue(2, 32, testLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs atomic.Int32
	release := make(chan struct{})
	key := Key{SessionID: "s1", Page: 3, Kind: KindAnalyze}

	var enqueued atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			queued, err := q.Enqueue(&Task{Key: key, Run: func(context.Context) {
				runs.Add(1)
				<-release
			}})
			require.NoError(t, err)
			if queued {
				enqueued.Add(1)
			}
		}()
	}
	wg.Wait()

	q.Start(ctx)
	require.Eventually(t, func() bool {
		return runs.Load() == 1
	}, time.Second, 5*time.Millisecond)
	close(release)

	assert.Equal(t, int32(1), enqueued.Load(), "exactly one enqueue must win")
	assert.Equal(t, int32(1), runs.Load(), "coalesced tasks must not run")
}
