// Package dedupe defines the interface for idempotency tracking of game
// submissions ahead of the processing queue. It is defense in depth: the
// processor's own is_processed check remains the authoritative guard.
package dedupe

import (
	"context"
	"sync"
)

// Deduper records seen game IDs to ensure at-most-once intake.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord removes an ID from the seen set, allowing it to be retried.
	// Used when a game was recorded but could not be enqueued
	// (e.g., queue backpressure).
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// inMemoryDeduper implements Deduper with two-generation eviction: IDs live
// in a current set; when it fills, the previous generation is dropped and
// the current one rotates back. Lookups consult both generations, so an ID
// survives at least maxSize/2 and at most maxSize insertions.
type inMemoryDeduper struct {
	mu      sync.Mutex
	maxSize int
	cur     map[string]struct{}
	prev    map[string]struct{}
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: 50000, // default max size
	}

	for _, opt := range opts {
		opt(d)
	}

	d.cur = make(map[string]struct{})
	d.prev = make(map[string]struct{})

	return d
}

// SeenAndRecord atomically checks if id was seen and records it if not.
func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.cur[id]; ok {
		return true
	}
	if _, ok := d.prev[id]; ok {
		return true
	}

	if d.maxSize > 0 && len(d.cur) >= d.maxSize/2 {
		d.prev = d.cur
		d.cur = make(map[string]struct{})
	}
	d.cur[id] = struct{}{}
	return false
}

// Unrecord removes an ID from both generations.
func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.cur, id)
	delete(d.prev, id)
}

// Size returns the current number of tracked IDs.
func (d *inMemoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	return int64(len(d.cur) + len(d.prev))
}
