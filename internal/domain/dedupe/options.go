// Package dedupe defines the interface for idempotency tracking of game
// submissions ahead of the processing queue.
package dedupe

// Option applies a configuration option to the InMemoryDeduper.
type Option func(*inMemoryDeduper)

// WithMaxSize bounds the number of IDs kept in memory.
// If maxSize <= 0: unbounded mode (no eviction, no size limit).
func WithMaxSize(maxSize int) Option {
	return func(d *inMemoryDeduper) {
		d.maxSize = maxSize
	}
}
