package inflight

// Option applies a configuration option to the in-memory Tracker.
type Option func(*inMemoryTracker)

// WithMaxSize caps how many submissions may be in flight at once.
// If maxSize <= 0 the tracker is unbounded.
func WithMaxSize(maxSize int) Option {
	return func(t *inMemoryTracker) {
		t.maxSize = maxSize
	}
}
