// Package tasks provides the bounded background task queue that drives
// page preloading. Tasks are deduplicated by (session, page, kind): a
// key already queued or running is coalesced rather than enqueued twice.
package tasks

import (
	"context"
	"sync"
	"time"

	"github.com/VoxPanel/voxpanel-go/internal/domain/errs"
	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/observability/logging"
)

// Kind identifies a preload stage.
type Kind string

const (
	KindAnalyze    Kind = "analyze"
	KindTranslate  Kind = "translate"
	KindSynthesize Kind = "synthesize"
)

// Key uniquely identifies one unit of preload work.
type Key struct {
	SessionID string
	Page      int
	Kind      Kind
}

// Task is one queued unit of work. Run carries its own retry policy;
// the queue only guarantees bounded concurrency and dedup.
type Task struct {
	Key      Key
	Enqueued time.Time
	Run      func(ctx context.Context)
}

// Queue is a bounded worker pool with per-key deduplication.
type Queue struct {
	ch       chan *Task
	inflight map[Key]struct{}
	mu       sync.Mutex
	workers  int
	wg       sync.WaitGroup
	logger   *logging.ChanneledLogger
}

// NewQueue creates a queue with the given worker count and capacity.
func NewQueue(workers, capacity int, logger *logging.ChanneledLogger) *Queue {
	if workers < 1 {
		workers = 1
	}
	return &Queue{
		ch:       make(chan *Task, capacity),
		inflight: make(map[Key]struct{}),
		workers:  workers,
		logger:   logger,
	}
}

// Start launches the worker pool. Workers exit when ctx is cancelled,
// after finishing the task they are currently running.
func (q *Queue) Start(ctx context.Context) {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, i)
	}
	q.logger.Preload().Info("Preload queue started", "workers", q.workers, "capacity", cap(q.ch))
}

func (q *Queue) worker(ctx context.Context, id int) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case task := <-q.ch:
			q.logger.Preload().Debug("Worker picked up task",
				"worker", id,
				"sessionId", task.Key.SessionID,
				"page", task.Key.Page,
				"kind", string(task.Key.Kind),
				"queuedFor", time.Since(task.Enqueued),
			)
			task.Run(ctx)
			q.release(task.Key)
		}
	}
}

// Enqueue submits a task. A duplicate of an in-flight key is coalesced
// and reported as already queued; a full queue returns a CapacityError.
func (q *Queue) Enqueue(task *Task) (queued bool, err error) {
	q.mu.Lock()
	if _, exists := q.inflight[task.Key]; exists {
		q.mu.Unlock()
		return false, nil
	}
	q.inflight[task.Key] = struct{}{}
	q.mu.Unlock()

	task.Enqueued = time.Now()

	select {
	case q.ch <- task:
		return true, nil
	default:
		q.release(task.Key)
		return false, &errs.CapacityError{Queue: "preload"}
	}
}

// InFlight reports whether work for key is queued or running.
func (q *Queue) InFlight(key Key) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, exists := q.inflight[key]
	return exists
}

// Depth returns the number of queued (not yet running) tasks.
func (q *Queue) Depth() int {
	return len(q.ch)
}

// Stop waits for workers to finish their current tasks. Queued tasks
// that never ran are dropped; session deletion tolerates this.
func (q *Queue) Stop() {
	q.wg.Wait()
	q.logger.Preload().Info("Preload queue stopped", "dropped", len(q.ch))
}

func (q *Queue) release(key Key) {
	q.mu.Lock()
	delete(q.inflight, key)
	q.mu.Unlock()
}
