// Package queue defines the contract for enqueuing and consuming completed
// games awaiting processing.
//
// Implementations may use channels or more advanced structures; the service
// runs on an in-memory bounded queue.
package queue

import (
	"context"
	"sync"

	"github.com/okian/pylon/internal/domain/model"
	"github.com/okian/pylon/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 10000
)

// Game represents the payload type flowing through the queue.
type Game = model.Game

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a game to the queue.
	// Returns false if the queue is full and the game was not enqueued.
	Enqueue(ctx context.Context, g Game) bool

	// Dequeue returns a channel that will receive games as they become
	// available. The channel is closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan Game

	// Len returns the current number of queued games.
	Len(ctx context.Context) int

	// Close gracefully shuts down the queue. After closing, no new games
	// can be enqueued and the dequeue channel is closed.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	games    chan Game
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
	}

	for _, opt := range opts {
		opt(q)
	}

	q.games = make(chan Game, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0.0)

	return q
}

// Enqueue adds a game to the queue without blocking.
func (q *InMemoryQueue) Enqueue(_ context.Context, g Game) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return false
	}

	select {
	case q.games <- g:
		metrics.RecordQueueEnqueue()
		size := len(q.games)
		metrics.UpdateQueueSize(size)
		metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
		return true
	default:
		// Backpressure: the caller decides whether to retry.
		return false
	}
}

// Dequeue returns the receive channel for workers.
func (q *InMemoryQueue) Dequeue(_ context.Context) <-chan Game {
	return q.games
}

// Len returns the current number of queued games.
func (q *InMemoryQueue) Len(_ context.Context) int {
	return len(q.games)
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	q.closed = true
	close(q.games)
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	return q.closed
}
