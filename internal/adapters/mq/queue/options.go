// Package queue defines the contract for enqueuing and consuming completed
// games awaiting processing.
package queue

// Option applies a configuration option to the InMemoryQueue.
type Option func(*InMemoryQueue)

// WithCapacity sets the maximum number of buffered games.
func WithCapacity(capacity int) Option {
	return func(q *InMemoryQueue) {
		if capacity > 0 {
			q.capacity = capacity
		}
	}
}
