package margin

import (
	"context"
	"math"

	"github.com/okian/pylon/internal/domain/model"
	"github.com/okian/pylon/pkg/logger"
	"github.com/okian/pylon/pkg/metrics"
)

// Default margin-of-victory configuration constants.
const (
	// defaultScale and defaultCap pin the multiplier curve
	// min(cap, 1 + scale*ln(1+|diff|)), bounded to [1.0, 2.5].
	// The exact shape is a calibration detail held in place by
	// golden-value tests.
	defaultScale = 0.35
	defaultCap   = 2.5

	// defaultGarbageQ4Weight discounts fourth-quarter scoring in blowouts.
	defaultGarbageQ4Weight = 0.25
	fullQ4Weight           = 1.0
)

// Option applies a configuration option to the Calculator.
type Option func(*Calculator)

// WithScale sets the multiplier curve's growth factor.
func WithScale(scale float64) Option {
	return func(c *Calculator) {
		if scale > 0 {
			c.scale = scale
		}
	}
}

// WithCap sets the multiplier upper bound.
func WithCap(capValue float64) Option {
	return func(c *Calculator) {
		if capValue >= 1 {
			c.capValue = capValue
		}
	}
}

// WithGarbageQ4Weight sets the Q4 weight applied during garbage time.
func WithGarbageQ4Weight(weight float64) Option {
	return func(c *Calculator) {
		if weight > 0 && weight <= 1 {
			c.q4Weight = weight
		}
	}
}

// WithLogger sets a custom logger for the calculator.
func WithLogger(l logger.Logger) Option {
	return func(c *Calculator) {
		if l != nil {
			c.logger = l
		}
	}
}

// Calculator computes margin-of-victory multipliers for rating updates.
type Calculator struct {
	detector *Detector
	scale    float64
	capValue float64
	q4Weight float64
	logger   logger.Logger
}

// NewCalculator creates a calculator backed by the given detector.
func NewCalculator(detector *Detector, opts ...Option) *Calculator {
	c := &Calculator{
		detector: detector,
		scale:    defaultScale,
		capValue: defaultCap,
		q4Weight: defaultGarbageQ4Weight,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.detector == nil {
		c.detector = NewDetector()
	}
	if c.logger == nil {
		c.logger = logger.Get().Named("margin")
	}
	return c
}

// curve maps an effective point differential onto the bounded multiplier.
func (c *Calculator) curve(diff float64) float64 {
	diff = math.Abs(diff)
	m := 1 + c.scale*math.Log1p(diff)
	return math.Min(m, c.capValue)
}

// FullGame returns the multiplier for a final score with no quarter data.
// Symmetric in sign: winner's gain and loser's loss share the magnitude.
func (c *Calculator) FullGame(homeScore, awayScore int) float64 {
	return c.curve(float64(homeScore - awayScore))
}

// QuarterWeighted returns the multiplier using quarters 1-3 at full weight
// and quarter 4 at the garbage weight when isGarbageTime is set. The
// effective differential is diff(Q1-Q3) + w*diff(Q4), fed through the same
// curve as the full-game path.
func (c *Calculator) QuarterWeighted(q model.QuarterLine, isGarbageTime bool) float64 {
	w := fullQ4Weight
	if isGarbageTime {
		w = c.q4Weight
	}
	diff := float64(q.HomeThroughThree()-q.AwayThroughThree()) + w*float64(q.Home[3]-q.Away[3])
	return c.curve(diff)
}

// Result carries the multiplier plus which path produced it.
type Result struct {
	Multiplier      float64
	QuarterWeighted bool
	GarbageTime     bool
}

// ForGame applies the selection rule: the quarter-weighted path runs only
// when all four quarter pairs are present and sum to the final score;
// otherwise the full-game path is used. The fallback is silent to the
// caller but observable via logs and metrics.
func (c *Calculator) ForGame(ctx context.Context, g *model.Game) Result {
	if g.Quarters == nil {
		metrics.RecordQuarterFallback()
		return Result{Multiplier: c.FullGame(g.HomeScore, g.AwayScore)}
	}

	if !Consistent(*g.Quarters, g.HomeScore, g.AwayScore) {
		c.logger.Warn(ctx, "quarter scores do not sum to final score; using full-game margin",
			logger.String("gameID", g.ID),
			logger.Int("homeScore", g.HomeScore),
			logger.Int("awayScore", g.AwayScore),
		)
		metrics.RecordInconsistentQuarterData()
		metrics.RecordQuarterFallback()
		return Result{Multiplier: c.FullGame(g.HomeScore, g.AwayScore)}
	}

	garbage := c.detector.IsGarbageTime(*g.Quarters)
	if garbage {
		metrics.RecordGarbageTimeDetection()
	}
	metrics.RecordQuarterWeightedGame()
	return Result{
		Multiplier:      c.QuarterWeighted(*g.Quarters, garbage),
		QuarterWeighted: true,
		GarbageTime:     garbage,
	}
}
