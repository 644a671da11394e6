package trigger

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/duel/pkg/logger"
	"github.com/okian/duel/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultScanInterval = 3 * time.Second
)

// Matcher is what the worker drives. TryMatch reports whether a pairing
// was committed for the given user.
type Matcher interface {
	TryMatch(ctx context.Context, userID int64) (bool, error)
	QueueSnapshot() []int64
}

// Worker consumes match triggers and rescans the wait queue on an
// interval. Exactly one worker runs per process; the engine's own lock
// serializes any overlap with direct callers.
type Worker struct {
	queue   Queue
	matcher Matcher

	scanInterval time.Duration

	shutdown chan struct{}
	done     chan struct{}

	log logger.Logger
}

// WorkerOption applies a configuration option to the Worker.
type WorkerOption func(*Worker)

// WithScanInterval sets the periodic rescan interval.
func WithScanInterval(d time.Duration) WorkerOption {
	return func(w *Worker) {
		if d > 0 {
			w.scanInterval = d
		}
	}
}

// WithWorkerLogger sets a custom logger for the worker.
func WithWorkerLogger(log logger.Logger) WorkerOption {
	return func(w *Worker) {
		if log != nil {
			w.log = log
		}
	}
}

// NewWorker creates the matcher worker with configuration options.
func NewWorker(queue Queue, matcher Matcher, opts ...WorkerOption) *Worker {
	w := &Worker{
		queue:        queue,
		matcher:      matcher,
		scanInterval: defaultScanInterval,
		shutdown:     make(chan struct{}),
		done:         make(chan struct{}),
		log:          logger.Get().Named("matcher"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run processes triggers until ctx is canceled or Shutdown is called.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.scanInterval)
	defer ticker.Stop()

	triggers := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case userID, ok := <-triggers:
			if !ok {
				return
			}
			w.attempt(ctx, userID)
		case <-ticker.C:
			w.rescan(ctx)
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *Worker) Shutdown(ctx context.Context) error {
	close(w.shutdown)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.log.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *Worker) attempt(ctx context.Context, userID int64) {
	start := time.Now()
	matched, err := w.matcher.TryMatch(ctx, userID)
	metrics.RecordMatchScanLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		w.log.Warn(ctx, "match attempt failed",
			logger.Int64("user_id", userID), logger.Error(err))
		return
	}
	if !matched {
		w.log.Debug(ctx, "no match this round", logger.Int64("user_id", userID))
	}
}

// rescan sweeps the whole wait queue so users enqueued before a suitable
// peer existed are eventually paired without rejoining.
func (w *Worker) rescan(ctx context.Context) {
	for _, userID := range w.matcher.QueueSnapshot() {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		default:
		}
		w.attempt(ctx, userID)
	}
}
