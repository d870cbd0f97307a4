// Package engine applies completed game results to team ratings and
// produces pre-game predictions from the same expectation model.
package engine

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/okian/pylon/internal/domain/margin"
	"github.com/okian/pylon/internal/domain/model"
	"github.com/okian/pylon/internal/domain/season"
	"github.com/okian/pylon/pkg/logger"
	"github.com/okian/pylon/pkg/metrics"
)

// Default rating update constants.
const (
	// DefaultKFactor is the base magnitude of rating change per game,
	// scaled further by the margin-of-victory multiplier.
	DefaultKFactor = 32.0

	// DefaultHomeAdvantage is added to the home team's rating before the
	// expectation is computed, unless the game is at a neutral site.
	DefaultHomeAdvantage = 65.0

	// logisticScale is the rating gap at which the stronger team is
	// expected to win ten times as often.
	logisticScale = 400.0
)

// RatingStore is the mutable per-team state the processor writes through.
// Implemented by the repository adapter.
type RatingStore interface {
	// Rating returns a team's current rating.
	Rating(ctx context.Context, teamID string) (float64, error)

	// ApplyDelta adjusts a team's rating and returns the new value.
	ApplyDelta(ctx context.Context, teamID string, delta float64) (float64, error)

	// RecordWin and RecordLoss increment season-scoped counters.
	RecordWin(ctx context.Context, teamID string, seasonYear int) error
	RecordLoss(ctx context.Context, teamID string, seasonYear int) error

	// SeasonRecord returns the season-scoped win/loss counts.
	SeasonRecord(ctx context.Context, teamID string, seasonYear int) (wins, losses int, err error)
}

// HistoryLedger is the append-only per-week audit trail the processor
// writes after each game.
type HistoryLedger interface {
	// Record appends a write-once entry; a duplicate
	// (team, season, week) key is rejected, never overwritten.
	Record(ctx context.Context, entry model.RankingHistoryEntry) error
}

// Result reports what one Process call did.
type Result struct {
	GameID          string
	ExpectedHome    float64
	Multiplier      float64
	QuarterWeighted bool
	GarbageTime     bool
	HomeDelta       float64
	AwayDelta       float64
	HomeRating      float64 // after the update
	AwayRating      float64
}

// ProcessorOption applies a configuration option to the Processor.
type ProcessorOption func(*Processor)

// WithKFactor overrides the base K-factor.
func WithKFactor(k float64) ProcessorOption {
	return func(p *Processor) {
		if k > 0 {
			p.kFactor = k
		}
	}
}

// WithHomeAdvantage overrides the home-field rating bonus.
func WithHomeAdvantage(points float64) ProcessorOption {
	return func(p *Processor) {
		if points >= 0 {
			p.homeAdvantage = points
		}
	}
}

// WithProcessorLogger sets a custom logger for the processor.
func WithProcessorLogger(l logger.Logger) ProcessorOption {
	return func(p *Processor) {
		if l != nil {
			p.logger = l
		}
	}
}

// Processor converts one completed game into symmetric rating deltas and a
// pair of ranking history entries.
type Processor struct {
	ratings RatingStore
	ledger  HistoryLedger
	margin  *margin.Calculator
	policy  *season.Policy

	kFactor       float64
	homeAdvantage float64

	logger logger.Logger
}

// NewProcessor wires a processor from its collaborators.
func NewProcessor(ratings RatingStore, ledger HistoryLedger, calc *margin.Calculator, policy *season.Policy, opts ...ProcessorOption) *Processor {
	p := &Processor{
		ratings:       ratings,
		ledger:        ledger,
		margin:        calc,
		policy:        policy,
		kFactor:       DefaultKFactor,
		homeAdvantage: DefaultHomeAdvantage,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Get().Named("processor")
	}
	return p
}

// expectedScore is the standard logistic ELO expectation for the home team.
func expectedScore(effectiveHome, away float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, (away-effectiveHome)/logisticScale))
}

// actualScore maps a final score onto the outcome value: 1.0 win, 0.0 loss,
// 0.5 tie. Ties cannot occur in this sport but the formula stays generic.
func actualScore(homeScore, awayScore int) float64 {
	switch {
	case homeScore > awayScore:
		return 1.0
	case homeScore < awayScore:
		return 0.0
	default:
		return 0.5
	}
}

// Process applies one completed, not-yet-processed game. All preconditions
// are checked before any mutation; a violation aborts with
// ErrInvalidGameState and leaves every rating untouched.
func (p *Processor) Process(ctx context.Context, g *model.Game) (Result, error) {
	start := time.Now()
	defer func() {
		metrics.RecordProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	if g.Processed {
		metrics.RecordGameRejected("already_processed")
		return Result{}, fmt.Errorf("game %s already processed: %w", g.ID, ErrInvalidGameState)
	}
	if g.Excluded {
		metrics.RecordGameRejected("excluded_from_rankings")
		return Result{}, fmt.Errorf("game %s is excluded from rankings: %w", g.ID, ErrInvalidGameState)
	}
	if !p.policy.ValidateWeek(g.Week) {
		metrics.RecordGameRejected("invalid_week")
		return Result{}, fmt.Errorf("game %s week %d: %w", g.ID, g.Week, ErrInvalidGameState)
	}

	homeRating, err := p.ratings.Rating(ctx, g.HomeTeamID)
	if err != nil {
		metrics.RecordGameRejected("rating_not_found")
		return Result{}, fmt.Errorf("home team %s: %w", g.HomeTeamID, ErrRatingNotFound)
	}
	awayRating, err := p.ratings.Rating(ctx, g.AwayTeamID)
	if err != nil {
		metrics.RecordGameRejected("rating_not_found")
		return Result{}, fmt.Errorf("away team %s: %w", g.AwayTeamID, ErrRatingNotFound)
	}

	effectiveHome := homeRating
	if !g.NeutralSite {
		effectiveHome += p.homeAdvantage
	}

	expected := expectedScore(effectiveHome, awayRating)
	actual := actualScore(g.HomeScore, g.AwayScore)
	mov := p.margin.ForGame(ctx, g)

	// No rounding until the final delta.
	delta := p.kFactor * mov.Multiplier * (actual - expected)
	delta = math.Round(delta*100) / 100

	newHome, err := p.ratings.ApplyDelta(ctx, g.HomeTeamID, delta)
	if err != nil {
		return Result{}, fmt.Errorf("apply home delta: %w", err)
	}
	// Same magnitude, opposite sign: rating mass across the two teams is
	// conserved by every game.
	newAway, err := p.ratings.ApplyDelta(ctx, g.AwayTeamID, -delta)
	if err != nil {
		return Result{}, fmt.Errorf("apply away delta: %w", err)
	}

	switch actual {
	case 1.0:
		if err := p.ratings.RecordWin(ctx, g.HomeTeamID, g.Season); err != nil {
			return Result{}, fmt.Errorf("record home win: %w", err)
		}
		if err := p.ratings.RecordLoss(ctx, g.AwayTeamID, g.Season); err != nil {
			return Result{}, fmt.Errorf("record away loss: %w", err)
		}
	case 0.0:
		if err := p.ratings.RecordLoss(ctx, g.HomeTeamID, g.Season); err != nil {
			return Result{}, fmt.Errorf("record home loss: %w", err)
		}
		if err := p.ratings.RecordWin(ctx, g.AwayTeamID, g.Season); err != nil {
			return Result{}, fmt.Errorf("record away win: %w", err)
		}
	}

	// The flag flips before the ledger writes: a retry after a ledger
	// failure is caught by the already-processed precondition instead of
	// double-applying deltas.
	g.Processed = true

	if err := p.appendHistory(ctx, g.HomeTeamID, g.Season, g.Week, newHome); err != nil {
		return Result{}, err
	}
	if err := p.appendHistory(ctx, g.AwayTeamID, g.Season, g.Week, newAway); err != nil {
		return Result{}, err
	}

	metrics.RecordGameProcessed()
	metrics.RecordRatingDelta(delta)

	p.logger.Debug(ctx, "game processed",
		logger.String("gameID", g.ID),
		logger.Int("season", g.Season),
		logger.Int("week", g.Week),
		logger.Float64("expectedHome", expected),
		logger.Float64("multiplier", mov.Multiplier),
		logger.Float64("delta", delta),
		logger.Bool("quarterWeighted", mov.QuarterWeighted),
		logger.Bool("garbageTime", mov.GarbageTime),
	)

	return Result{
		GameID:          g.ID,
		ExpectedHome:    expected,
		Multiplier:      mov.Multiplier,
		QuarterWeighted: mov.QuarterWeighted,
		GarbageTime:     mov.GarbageTime,
		HomeDelta:       delta,
		AwayDelta:       -delta,
		HomeRating:      newHome,
		AwayRating:      newAway,
	}, nil
}

// appendHistory writes one team's post-week snapshot to the ledger.
func (p *Processor) appendHistory(ctx context.Context, teamID string, seasonYear, week int, rating float64) error {
	wins, losses, err := p.ratings.SeasonRecord(ctx, teamID, seasonYear)
	if err != nil {
		return fmt.Errorf("season record for %s: %w", teamID, err)
	}

	entry := model.RankingHistoryEntry{
		TeamID: teamID,
		Season: seasonYear,
		Week:   week,
		Rating: rating,
		Wins:   wins,
		Losses: losses,
	}
	if err := p.ledger.Record(ctx, entry); err != nil {
		metrics.RecordDuplicateHistoryReject()
		return fmt.Errorf("ledger write for %s season %d week %d: %w", teamID, seasonYear, week, ErrDuplicateHistoryEntry)
	}
	metrics.RecordHistoryEntry()
	return nil
}
