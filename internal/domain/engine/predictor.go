package engine

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/okian/pylon/internal/domain/model"
	"github.com/okian/pylon/pkg/logger"
	"github.com/okian/pylon/pkg/metrics"
)

// Default prediction constants.
const (
	// DefaultBaseRating seeds teams with no history; it is only applied
	// as an explicit, opt-in fallback at the prediction call site.
	DefaultBaseRating = 1500.0

	// DefaultBaseScore and DefaultScoreVariance drive the linear score
	// heuristic; this is a documented heuristic, not a trained model.
	DefaultBaseScore     = 30.0
	DefaultScoreVariance = 3.5

	minPredictedScore = 0
	maxPredictedScore = 150

	// Confidence band lower bounds, inclusive.
	highConfidenceMargin   = 0.30
	mediumConfidenceMargin = 0.15
)

// RatingReader is the read-only view of current ratings.
type RatingReader interface {
	Rating(ctx context.Context, teamID string) (float64, error)
}

// HistoryReader resolves ratings as of a past week for retrospective
// predictions. The boolean reports absence explicitly; no default is baked
// into the data-access layer.
type HistoryReader interface {
	RatingAsOf(ctx context.Context, teamID string, seasonYear, week int) (float64, bool)
}

// PredictionWriter persists the one immutable prediction per game.
type PredictionWriter interface {
	Create(ctx context.Context, p model.Prediction) error
}

// PredictorOption applies a configuration option to the Predictor.
type PredictorOption func(*Predictor)

// WithPredictorHomeAdvantage overrides the home-field rating bonus.
func WithPredictorHomeAdvantage(points float64) PredictorOption {
	return func(p *Predictor) {
		if points >= 0 {
			p.homeAdvantage = points
		}
	}
}

// WithBaseRating overrides the fallback rating for teams without history.
func WithBaseRating(rating float64) PredictorOption {
	return func(p *Predictor) {
		if rating > 0 {
			p.baseRating = rating
		}
	}
}

// WithScoreHeuristic overrides the score estimate parameters.
func WithScoreHeuristic(baseScore, variance float64) PredictorOption {
	return func(p *Predictor) {
		if baseScore > 0 {
			p.baseScore = baseScore
		}
		if variance > 0 {
			p.scoreVariance = variance
		}
	}
}

// WithPredictorLogger sets a custom logger for the predictor.
func WithPredictorLogger(l logger.Logger) PredictorOption {
	return func(p *Predictor) {
		if l != nil {
			p.logger = l
		}
	}
}

// Predictor produces win probabilities, heuristic scores and confidence
// tiers for not-yet-played games. The probability formula is intentionally
// identical to the processor's: a prediction reflects what the engine would
// have expected, not a separate model.
type Predictor struct {
	ratings RatingReader
	history HistoryReader
	store   PredictionWriter

	homeAdvantage float64
	baseRating    float64
	baseScore     float64
	scoreVariance float64

	logger logger.Logger
}

// NewPredictor wires a predictor from its collaborators. The store may be
// nil when callers only want the computed prediction without persistence.
func NewPredictor(ratings RatingReader, history HistoryReader, store PredictionWriter, opts ...PredictorOption) *Predictor {
	p := &Predictor{
		ratings:       ratings,
		history:       history,
		store:         store,
		homeAdvantage: DefaultHomeAdvantage,
		baseRating:    DefaultBaseRating,
		baseScore:     DefaultBaseScore,
		scoreVariance: DefaultScoreVariance,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Get().Named("predictor")
	}
	return p
}

// ConfidenceFor buckets a probability margin |P_home - P_away| into a tier.
// Lower bounds are inclusive: exactly 30% is High, exactly 15% is Medium.
func ConfidenceFor(probabilityMargin float64) model.ConfidenceTier {
	switch {
	case probabilityMargin >= highConfidenceMargin:
		return model.ConfidenceHigh
	case probabilityMargin >= mediumConfidenceMargin:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}

// Predict creates a live prediction from both teams' current ratings.
func (p *Predictor) Predict(ctx context.Context, g *model.Game) (model.Prediction, error) {
	if g.Processed {
		return model.Prediction{}, fmt.Errorf("game %s already processed: %w", g.ID, ErrInvalidGameState)
	}

	home, err := p.ratings.Rating(ctx, g.HomeTeamID)
	if err != nil {
		return model.Prediction{}, fmt.Errorf("home team %s: %w", g.HomeTeamID, ErrRatingNotFound)
	}
	away, err := p.ratings.Rating(ctx, g.AwayTeamID)
	if err != nil {
		return model.Prediction{}, fmt.Errorf("away team %s: %w", g.AwayTeamID, ErrRatingNotFound)
	}

	return p.build(ctx, g, home, away, false, "live")
}

// PredictAsOf creates a retrospective prediction for historical analysis:
// ratings are read from the ledger as of the week before the game, so the
// prediction reflects only information available before kickoff. Teams with
// no ledger entry yet fall back to the base rating; the fallback is applied
// here, explicitly, not inside the ledger.
func (p *Predictor) PredictAsOf(ctx context.Context, g *model.Game) (model.Prediction, error) {
	if g.Processed {
		return model.Prediction{}, fmt.Errorf("game %s already processed: %w", g.ID, ErrInvalidGameState)
	}

	asOfWeek := g.Week - 1
	home, ok := p.history.RatingAsOf(ctx, g.HomeTeamID, g.Season, asOfWeek)
	if !ok {
		home = p.baseRating
	}
	away, ok := p.history.RatingAsOf(ctx, g.AwayTeamID, g.Season, asOfWeek)
	if !ok {
		away = p.baseRating
	}

	return p.build(ctx, g, home, away, true, "retrospective")
}

// build assembles and optionally persists the prediction snapshot.
func (p *Predictor) build(ctx context.Context, g *model.Game, homeRating, awayRating float64, retrospective bool, mode string) (model.Prediction, error) {
	effectiveHome := homeRating
	if !g.NeutralSite {
		effectiveHome += p.homeAdvantage
	}

	probHome := expectedScore(effectiveHome, awayRating)
	probAway := 1 - probHome

	// Linear score heuristic; rounding happens only at this output
	// boundary.
	term := (effectiveHome - awayRating) / 100 * p.scoreVariance
	predictedHome := clampScore(p.baseScore + term)
	predictedAway := clampScore(p.baseScore - term)

	pred := model.Prediction{
		ID:                 uuid.NewString(),
		GameID:             g.ID,
		Season:             g.Season,
		Week:               g.Week,
		HomeTeamID:         g.HomeTeamID,
		AwayTeamID:         g.AwayTeamID,
		HomeRating:         homeRating,
		AwayRating:         awayRating,
		HomeWinProbability: probHome,
		AwayWinProbability: probAway,
		PredictedHomeScore: predictedHome,
		PredictedAwayScore: predictedAway,
		Confidence:         ConfidenceFor(math.Abs(probHome - probAway)),
		Retrospective:      retrospective,
		CreatedAt:          time.Now().UTC(),
	}

	if p.store != nil {
		if err := p.store.Create(ctx, pred); err != nil {
			return model.Prediction{}, fmt.Errorf("persist prediction for game %s: %w", g.ID, ErrPredictionExists)
		}
	}

	metrics.RecordPredictionCreated(mode)

	p.logger.Debug(ctx, "prediction created",
		logger.String("gameID", g.ID),
		logger.String("mode", mode),
		logger.Float64("probHome", probHome),
		logger.String("confidence", string(pred.Confidence)),
	)

	return pred, nil
}

// clampScore bounds a heuristic score to [0,150] and rounds to an integer.
func clampScore(score float64) int {
	score = math.Round(score)
	if score < minPredictedScore {
		return minPredictedScore
	}
	if score > maxPredictedScore {
		return maxPredictedScore
	}
	return int(score)
}
