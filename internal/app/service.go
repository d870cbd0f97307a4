// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	gamequeue "github.com/okian/pylon/internal/adapters/mq/queue"
	workerpool "github.com/okian/pylon/internal/adapters/mq/worker"
	"github.com/okian/pylon/internal/adapters/repository"
	"github.com/okian/pylon/internal/domain/dedupe"
	"github.com/okian/pylon/internal/domain/engine"
	"github.com/okian/pylon/internal/domain/margin"
	"github.com/okian/pylon/internal/domain/model"
	"github.com/okian/pylon/internal/domain/season"
	"github.com/okian/pylon/internal/domain/types"
	"github.com/okian/pylon/pkg/logger"
	"github.com/okian/pylon/pkg/metrics"
)

// Service implements the API dependencies for the rating engine.
type Service struct {
	mu sync.RWMutex

	// Core components
	ratings     repository.Store
	ledger      *repository.Ledger
	predictions *repository.PredictionStore
	policy      *season.Policy
	deduper     dedupe.Deduper
	gameQueue   gamequeue.Queue
	processor   *engine.Processor
	predictor   *engine.Predictor
	workerPool  *workerpool.Pool

	// Configuration
	workerCount int
	queueSize   int
	dedupeSize  int
	shardCount  int

	kFactor          float64
	homeAdvantage    float64
	baseRating       float64
	garbageThreshold int
	garbageQ4Weight  float64
	movScale         float64
	movCap           float64
	baseScore        float64
	scoreVariance    float64

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the game queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithShardCount sets the number of rating store shards.
func WithShardCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.shardCount = count
		}
	}
}

// WithRatingModel overrides the K-factor and home advantage.
func WithRatingModel(kFactor, homeAdvantage float64) Option {
	return func(s *Service) {
		if kFactor > 0 {
			s.kFactor = kFactor
		}
		if homeAdvantage >= 0 {
			s.homeAdvantage = homeAdvantage
		}
	}
}

// WithBaseRating overrides the fallback rating for teams without history.
func WithBaseRating(rating float64) Option {
	return func(s *Service) {
		if rating > 0 {
			s.baseRating = rating
		}
	}
}

// WithGarbageTime overrides the garbage-time threshold and Q4 weight.
func WithGarbageTime(threshold int, q4Weight float64) Option {
	return func(s *Service) {
		if threshold >= 0 {
			s.garbageThreshold = threshold
		}
		if q4Weight >= 0 && q4Weight <= 1 {
			s.garbageQ4Weight = q4Weight
		}
	}
}

// WithMOVCurve overrides the margin-of-victory multiplier shape.
func WithMOVCurve(scale, capValue float64) Option {
	return func(s *Service) {
		if scale > 0 {
			s.movScale = scale
		}
		if capValue >= 1 {
			s.movCap = capValue
		}
	}
}

// WithScoreHeuristic overrides the predicted-score parameters.
func WithScoreHeuristic(baseScore, variance float64) Option {
	return func(s *Service) {
		if baseScore > 0 {
			s.baseScore = baseScore
		}
		if variance > 0 {
			s.scoreVariance = variance
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:      runtime.NumCPU() * 4,
		queueSize:        10_000,
		dedupeSize:       50_000,
		shardCount:       8,
		kFactor:          engine.DefaultKFactor,
		homeAdvantage:    engine.DefaultHomeAdvantage,
		baseRating:       engine.DefaultBaseRating,
		garbageThreshold: -1, // detector default applies
		garbageQ4Weight:  -1, // calculator default applies
		movScale:         0,  // calculator default applies
		movCap:           0,
		baseScore:        engine.DefaultBaseScore,
		scoreVariance:    engine.DefaultScoreVariance,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting rating engine service...")

	s.ratings = repository.NewMapStore(ctx, repository.WithShardCount(s.shardCount))
	s.ledger = repository.NewLedger()
	s.predictions = repository.NewPredictionStore()
	s.policy = season.NewPolicy()
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.gameQueue = gamequeue.NewInMemoryQueue(
		gamequeue.WithCapacity(s.queueSize),
	)

	var detectorOpts []margin.DetectorOption
	if s.garbageThreshold >= 0 {
		detectorOpts = append(detectorOpts, margin.WithGarbageThreshold(s.garbageThreshold))
	}
	detector := margin.NewDetector(detectorOpts...)

	var calcOpts []margin.Option
	if s.movScale > 0 {
		calcOpts = append(calcOpts, margin.WithScale(s.movScale))
	}
	if s.movCap >= 1 {
		calcOpts = append(calcOpts, margin.WithCap(s.movCap))
	}
	if s.garbageQ4Weight >= 0 {
		calcOpts = append(calcOpts, margin.WithGarbageQ4Weight(s.garbageQ4Weight))
	}
	calc := margin.NewCalculator(detector, calcOpts...)

	s.processor = engine.NewProcessor(s.ratings, s.ledger, calc, s.policy,
		engine.WithKFactor(s.kFactor),
		engine.WithHomeAdvantage(s.homeAdvantage),
	)
	s.predictor = engine.NewPredictor(s.ratings, s.ledger, s.predictions,
		engine.WithPredictorHomeAdvantage(s.homeAdvantage),
		engine.WithBaseRating(s.baseRating),
		engine.WithScoreHeuristic(s.baseScore, s.scoreVariance),
	)

	// The policy doubles as the processed-week recorder so current-week
	// derivation feeds only from completed processing.
	s.workerPool = workerpool.NewPool(s.workerCount, s.gameQueue, s.processor, s.policy)
	s.workerPool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "rating engine service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping rating engine service...")

	// Close the queue first so workers drain what remains.
	if q, ok := s.gameQueue.(*gamequeue.InMemoryQueue); ok {
		_ = q.Close()
	}

	if s.workerPool != nil {
		_ = s.workerPool.Shutdown(ctx)
	}

	s.started = false
	s.logger.Info(ctx, "rating engine service stopped")
}

// SeenAndRecord atomically checks if a game id was seen and records it if not.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	return s.deduper.SeenAndRecord(ctx, id)
}

// Unrecord removes a game ID from the seen list, allowing it to be retried.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

// EnqueueGame submits a completed game for asynchronous processing.
func (s *Service) EnqueueGame(ctx context.Context, g model.Game) bool {
	ok := s.gameQueue.Enqueue(ctx, g)
	if !ok {
		s.logger.Warn(ctx, "game queue backpressure",
			logger.String("gameID", g.ID),
		)
	}
	return ok
}

// TopN returns the top N rankings rows for a season.
func (s *Service) TopN(ctx context.Context, n, seasonYear int) ([]types.Entry, error) {
	entries, err := s.ratings.TopN(ctx, n, seasonYear)
	if err != nil {
		return nil, fmt.Errorf("rankings query: %w", err)
	}

	apiEntries := make([]types.Entry, len(entries))
	for i, entry := range entries {
		apiEntries[i] = types.Entry{
			Rank:       entry.Rank,
			TeamID:     entry.TeamID,
			Name:       entry.Name,
			Conference: entry.Conference,
			Rating:     entry.Rating,
			Wins:       entry.Wins,
			Losses:     entry.Losses,
		}
	}
	return apiEntries, nil
}

// Rank returns one team's rankings row for a season.
func (s *Service) Rank(ctx context.Context, teamID string, seasonYear int) (types.Entry, error) {
	entry, err := s.ratings.Rank(ctx, teamID, seasonYear)
	if err != nil {
		return types.Entry{}, err
	}

	return types.Entry{
		Rank:       entry.Rank,
		TeamID:     entry.TeamID,
		Name:       entry.Name,
		Conference: entry.Conference,
		Rating:     entry.Rating,
		Wins:       entry.Wins,
		Losses:     entry.Losses,
	}, nil
}

// History returns a team's week-by-week rating trajectory for a season.
func (s *Service) History(ctx context.Context, teamID string, seasonYear int) ([]types.HistoryPoint, error) {
	if _, err := s.ratings.Team(ctx, teamID); err != nil {
		return nil, err
	}

	entries := s.ledger.Entries(ctx, teamID, seasonYear)
	points := make([]types.HistoryPoint, len(entries))
	for i, e := range entries {
		points[i] = types.HistoryPoint{
			Season: e.Season,
			Week:   e.Week,
			Rating: e.Rating,
			Wins:   e.Wins,
			Losses: e.Losses,
		}
	}
	return points, nil
}

// Predict creates a live prediction from both teams' current ratings.
func (s *Service) Predict(ctx context.Context, g *model.Game) (model.Prediction, error) {
	return s.predictor.Predict(ctx, g)
}

// PredictAsOf creates a retrospective prediction from ledger ratings as of
// the week before the game.
func (s *Service) PredictAsOf(ctx context.Context, g *model.Game) (model.Prediction, error) {
	return s.predictor.PredictAsOf(ctx, g)
}

// PredictionByGame returns the stored prediction snapshot for a game.
func (s *Service) PredictionByGame(ctx context.Context, gameID string) (model.Prediction, error) {
	return s.predictions.ByGame(ctx, gameID)
}

// ActivateSeason seeds every team's preseason rating and marks the season
// active.
func (s *Service) ActivateSeason(ctx context.Context, seasonYear int, seeds []model.Team) error {
	return s.policy.Activate(ctx, seasonYear, seeds, s.ratings)
}

// ArchiveSeason marks a season inactive.
func (s *Service) ArchiveSeason(ctx context.Context, seasonYear int) error {
	return s.policy.Archive(ctx, seasonYear)
}

// ForceCurrentWeek sets the administrative current-week override.
func (s *Service) ForceCurrentWeek(ctx context.Context, seasonYear, week int) error {
	return s.policy.ForceCurrentWeek(ctx, seasonYear, week)
}

// CurrentWeek returns the season's derived current week.
func (s *Service) CurrentWeek(_ context.Context, seasonYear int) (int, bool) {
	return s.policy.CurrentWeek(seasonYear)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}

	if s.started {
		queueLen := s.gameQueue.Len(ctx)
		totalTeams := s.ratings.Count(ctx)

		stats["queueLength"] = queueLen
		stats["totalTeams"] = totalTeams
		stats["predictions"] = s.predictions.Count(ctx)

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateTotalTeams(totalTeams)
	}

	return stats
}
