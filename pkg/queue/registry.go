package queue

import (
	"sync"
	"time"
)

// pollInterval is how often WaitEmpty re-checks the registered queues
const pollInterval = 100 * time.Millisecond

// Registry tracks the active ingest queues of a process. It is an
// explicit object so tests can construct and reset their own instance;
// production code normally uses the shared DefaultRegistry.
type Registry struct {
	mu     sync.Mutex
	queues map[*IngestQueue]struct{}
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		queues: make(map[*IngestQueue]struct{}),
	}
}

// Register adds a queue to the registry
func (r *Registry) Register(q *IngestQueue) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queues[q] = struct{}{}
}

// Deregister removes a queue from the registry
func (r *Registry) Deregister(q *IngestQueue) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.queues, q)
}

// AllEmpty reports whether every registered queue has zero pending lines
func (r *Registry) AllEmpty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for q := range r.queues {
		if q.Depth() > 0 {
			return false
		}
	}
	return true
}

// WaitEmpty polls until all registered queues are empty or the wait
// budget elapses. It returns true if the queues drained in time. Used by
// shutdown sequences that want to flush pending lines before exiting.
func (r *Registry) WaitEmpty(maxWait time.Duration) bool {
	deadline := time.Now().Add(maxWait)

	for {
		if r.AllEmpty() {
			return true
		}
		if !time.Now().Before(deadline) {
			return false
		}

		sleep := pollInterval
		if remaining := time.Until(deadline); remaining < sleep {
			sleep = remaining
		}
		time.Sleep(sleep)
	}
}

var (
	defaultRegistry   *Registry
	defaultRegistryMu sync.Mutex
)

// DefaultRegistry returns the shared per-process registry
func DefaultRegistry() *Registry {
	defaultRegistryMu.Lock()
	defer defaultRegistryMu.Unlock()

	if defaultRegistry == nil {
		defaultRegistry = NewRegistry()
	}
	return defaultRegistry
}

// ResetDefaultRegistry replaces the shared registry with a fresh one.
// Intended for tests.
func ResetDefaultRegistry() {
	defaultRegistryMu.Lock()
	defer defaultRegistryMu.Unlock()
	defaultRegistry = NewRegistry()
}
