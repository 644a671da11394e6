// Package trigger carries match-scan triggers from the enqueue surface to
// the single matcher worker. A trigger names a user whose queue entry
// deserves an immediate scan; the worker also rescans periodically so a
// dropped or unlucky trigger only delays a pairing.
package trigger

import (
	"context"
	"sync"

	"github.com/okian/duel/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultBufferSize = 1024
)

// Queue provides non-blocking enqueue and channel-based dequeue of match
// triggers.
type Queue interface {
	// Enqueue adds a trigger for the given user.
	// Returns false when the queue is full or closed.
	Enqueue(ctx context.Context, userID int64) bool

	// Dequeue returns a channel receiving triggers as they arrive.
	// The channel is closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan int64

	// Close shuts the queue down; further enqueues are rejected.
	Close() error
}

// InMemoryQueue implements Queue with a buffered channel.
type InMemoryQueue struct {
	triggers chan int64
	buffer   int

	mu     sync.RWMutex
	closed bool
}

// Option applies a configuration option to the InMemoryQueue.
type Option func(*InMemoryQueue)

// WithBufferSize sets the trigger channel buffer size.
func WithBufferSize(size int) Option {
	return func(q *InMemoryQueue) {
		if size > 0 {
			q.buffer = size
		}
	}
}

// NewInMemoryQueue creates a trigger queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{buffer: defaultBufferSize}
	for _, opt := range opts {
		opt(q)
	}
	q.triggers = make(chan int64, q.buffer)
	return q
}

// Enqueue adds a trigger for the given user.
func (q *InMemoryQueue) Enqueue(ctx context.Context, userID int64) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return false
	}
	select {
	case q.triggers <- userID:
		metrics.RecordTriggerEnqueued()
		return true
	case <-ctx.Done():
		return false
	default:
		metrics.RecordTriggerDropped()
		return false
	}
}

// Dequeue returns the trigger channel.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan int64 {
	return q.triggers
}

// Close shuts the queue down.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	close(q.triggers)
	q.closed = true
	return nil
}
