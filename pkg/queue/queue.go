// Package queue provides the bounded ingest queue between the AddLine
// callers and the single delivery worker, plus a registry used by
// shutdown sequences to drain all queues before exiting.
package queue

import (
	"context"

	"github.com/logship/logship-go/pkg/logging"
)

// DefaultCapacity is the default number of pending lines the queue holds
const DefaultCapacity = 32768

// IngestQueue is a bounded, thread-safe FIFO of pending lines. Many
// producers call Enqueue; exactly one consumer calls Dequeue. Producers
// are never blocked: when the queue is full the oldest entry is evicted
// to make room.
type IngestQueue struct {
	items  chan string
	logger logging.Logger
	onDrop func()
}

// Option configures an IngestQueue
type Option func(*IngestQueue)

// WithLogger sets the logger the overflow warnings go to
func WithLogger(logger logging.Logger) Option {
	return func(q *IngestQueue) {
		q.logger = logger
	}
}

// WithDropHook registers a hook invoked once per dropped line
func WithDropHook(hook func()) Option {
	return func(q *IngestQueue) {
		q.onDrop = hook
	}
}

// NewIngestQueue creates a queue with the given capacity. A capacity of
// zero or less falls back to DefaultCapacity.
func NewIngestQueue(capacity int, opts ...Option) *IngestQueue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	q := &IngestQueue{
		items:  make(chan string, capacity),
		logger: logging.NopLogger(),
	}

	for _, opt := range opts {
		opt(q)
	}

	return q
}

// Enqueue inserts a line without ever blocking the caller. When the
// queue is full it evicts exactly one oldest entry and retries the
// insertion once; if the retry also fails (possible only under
// pathological concurrent growth) the line is dropped. Both outcomes are
// reported as overflow warnings, never as errors to the caller.
func (q *IngestQueue) Enqueue(line string) {
	select {
	case q.items <- line:
		return
	default:
	}

	// Full: make room by discarding the oldest pending line.
	select {
	case <-q.items:
		q.drop()
	default:
	}

	select {
	case q.items <- line:
	default:
		q.drop()
	}
}

// Dequeue blocks the single consumer until a line is available or the
// context is cancelled. The second return value is false on
// cancellation.
func (q *IngestQueue) Dequeue(ctx context.Context) (string, bool) {
	select {
	case line := <-q.items:
		return line, true
	case <-ctx.Done():
		return "", false
	}
}

// Depth returns the number of pending lines
func (q *IngestQueue) Depth() int {
	return len(q.items)
}

// Capacity returns the fixed capacity of the queue
func (q *IngestQueue) Capacity() int {
	return cap(q.items)
}

func (q *IngestQueue) drop() {
	q.logger.Warn("ingest queue overflow, line dropped",
		logging.Int("capacity", cap(q.items)))
	if q.onDrop != nil {
		q.onDrop()
	}
}
