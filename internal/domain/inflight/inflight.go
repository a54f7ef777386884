// Package inflight guards against overlapping submissions of the same application.
package inflight

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

var (
	// ErrBusy means the id already has a submission in progress.
	ErrBusy = errors.New("inflight: id is busy")
	// ErrFull means the tracker holds its maximum number of ids.
	ErrFull = errors.New("inflight: tracker is full")
)

// Tracker records which application ids have a submission in progress.
type Tracker interface {
	// Acquire marks id as busy. It fails with ErrBusy if id is already busy
	// and with ErrFull if the tracker is at capacity.
	Acquire(ctx context.Context, id string) error

	// Release frees id so it can be submitted again.
	Release(ctx context.Context, id string)

	Size() int64
}

type inMemoryTracker struct {
	mu      sync.Mutex
	busy    map[string]struct{}
	maxSize int // 0 or negative = unbounded
	size    atomic.Int64
}

// NewTracker creates an in-memory Tracker with configuration options.
func NewTracker(opts ...Option) Tracker {
	t := &inMemoryTracker{
		maxSize: 10000,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.busy = make(map[string]struct{})
	return t
}

func (t *inMemoryTracker) Acquire(_ context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.busy[id]; exists {
		return ErrBusy
	}
	if t.maxSize > 0 && len(t.busy) >= t.maxSize {
		return ErrFull
	}
	t.busy[id] = struct{}{}
	t.size.Add(1)
	return nil
}

func (t *inMemoryTracker) Release(_ context.Context, id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.busy[id]; exists {
		delete(t.busy, id)
		t.size.Add(-1)
	}
}

func (t *inMemoryTracker) Size() int64 {
	return t.size.Load()
}
