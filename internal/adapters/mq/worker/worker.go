// Package worker defines worker contracts for asynchronous game processing.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/okian/pylon/internal/domain/engine"
	"github.com/okian/pylon/internal/domain/model"
	"github.com/okian/pylon/pkg/logger"
	"github.com/okian/pylon/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 4 // multiplier for runtime.NumCPU()
	workerShutdownTimeout   = 5 * time.Second
)

// Game abstracts what workers read off the queue.
type Game = model.Game

// Processor applies a completed game to the rating state.
type Processor interface {
	Process(ctx context.Context, g *model.Game) (engine.Result, error)
}

// Recorder observes which weeks have been processed per season.
type Recorder interface {
	NoteProcessed(season, week int)
}

// Queue defines how workers receive games.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Game
}

// Worker processes completed games using the provided interfaces.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for processing games off the queue.
type InMemoryWorker struct {
	queue     Queue
	processor Processor
	recorder  Recorder
	locks     *teamLocker
	name      string

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, processor Processor, recorder Recorder, locks *teamLocker, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     queue,
		processor: processor,
		recorder:  recorder,
		locks:     locks,
		name:      "worker", // default name
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	if w.locks == nil {
		w.locks = newTeamLocker()
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer func() {
		close(w.done)
	}()

	gameChan := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case g, ok := <-gameChan:
			if !ok {
				// Channel closed, worker should stop
				return
			}
			metrics.RecordQueueDequeue()

			// A failed game is logged and skipped; it never blocks
			// the rest of the queue.
			if err := w.processGame(ctx, &g); err != nil {
				w.logger.Error(ctx, "error processing game",
					logger.String("gameID", g.ID),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processGame handles a single completed game.
//
// Both teams' locks are held for the duration so the read-compute-write
// of each rating is atomic against every other game touching either team.
func (w *InMemoryWorker) processGame(ctx context.Context, g *model.Game) error {
	unlock := w.locks.LockPair(g.HomeTeamID, g.AwayTeamID)
	defer unlock()

	res, err := w.processor.Process(ctx, g)
	if err != nil {
		return fmt.Errorf("failed to process game %s: %w", g.ID, err)
	}

	if w.recorder != nil {
		w.recorder.NoteProcessed(g.Season, g.Week)
	}

	w.logger.Debug(ctx, "game processed",
		logger.String("gameID", g.ID),
		logger.Float64("homeDelta", res.HomeDelta),
		logger.Float64("awayDelta", res.AwayDelta),
	)
	return nil
}

// Pool manages multiple workers sharing a single team lock manager.
type Pool struct {
	workers []*InMemoryWorker

	// Logging
	logger logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, queue Queue, processor Processor, recorder Recorder) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		logger:  logger.Get().Named("worker-pool"),
	}

	// One lock manager for the whole pool; per-worker lockers would
	// not serialize games sharing a team.
	locks := newTeamLocker()

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(
			queue,
			processor,
			recorder,
			locks,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateWorkerCount(workerCount)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, worker := range p.workers {
		go worker.Run(ctx)
	}
}

// Shutdown gracefully shuts down the entire worker pool.
// Workers drain the queue until it closes or the context expires.
func (p *Pool) Shutdown(ctx context.Context) error {
	for _, worker := range p.workers {
		if err := worker.Shutdown(ctx); err != nil {
			return fmt.Errorf("worker shutdown failed: %w", err)
		}
	}

	metrics.UpdateWorkerCount(0)
	return nil
}
