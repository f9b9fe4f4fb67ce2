package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryAllEmpty(t *testing.T) {
	r := NewRegistry()
	assert.True(t, r.AllEmpty(), "empty registry reports empty")

	q := NewIngestQueue(4)
	r.Register(q)
	assert.True(t, r.AllEmpty())

	q.Enqueue("pending")
	assert.False(t, r.AllEmpty())

	_, ok := q.Dequeue(context.Background())
	require.True(t, ok)
	assert.True(t, r.AllEmpty())
}

func TestRegistryDeregister(t *testing.T) {
	r := NewRegistry()
	q := NewIngestQueue(4)
	r.Register(q)
	q.Enqueue("pending")

	r.Deregister(q)
	assert.True(t, r.AllEmpty(), "deregistered queue no longer counts")
}

func TestWaitEmptyTimesOut(t *testing.T) {
	r := NewRegistry()
	q := NewIngestQueue(4)
	r.Register(q)
	q.Enqueue("stuck")

	start := time.Now()
	drained := r.WaitEmpty(250 * time.Millisecond)
	elapsed := time.Since(start)

	assert.False(t, drained)
	assert.GreaterOrEqual(t, elapsed, 250*time.Millisecond)
	assert.Less(t, elapsed, 2*time.Second)
}

func TestWaitEmptyObservesDrain(t *testing.T) {
	r := NewRegistry()
	q := NewIngestQueue(4)
	r.Register(q)
	q.Enqueue("pending")

	go func() {
		time.Sleep(150 * time.Millisecond)
		q.Dequeue(context.Background())
	}()

	assert.True(t, r.WaitEmpty(2*time.Second))
}

func TestDefaultRegistryReset(t *testing.T) {
	ResetDefaultRegistry()
	r := DefaultRegistry()
	require.Same(t, r, DefaultRegistry())

	q := NewIngestQueue(4)
	r.Register(q)
	q.Enqueue("pending")
	assert.False(t, DefaultRegistry().AllEmpty())

	ResetDefaultRegistry()
	assert.True(t, DefaultRegistry().AllEmpty())
}
