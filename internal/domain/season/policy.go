// Package season enforces week validation and season isolation: derived
// statistics are computed only from one season's games, never accumulated
// across season boundaries.
package season

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/pylon/internal/domain/model"
	"github.com/okian/pylon/pkg/logger"
)

// Week bounds: 0 is preseason, 15-19 cover four rounds of postseason.
const (
	MinWeek = 0
	MaxWeek = 19
)

// Status describes a season's lifecycle state.
type Status string

// Season lifecycle states. Transitions are explicit operations, never an
// ambient process-wide flag.
const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

// Seeder applies preseason rating seeds when a season is initialized.
// Implemented by the rating store.
type Seeder interface {
	Seed(ctx context.Context, team model.Team) error
}

// Option applies a configuration option to the Policy.
type Option func(*Policy)

// WithLogger sets a custom logger for the policy.
func WithLogger(l logger.Logger) Option {
	return func(p *Policy) {
		if l != nil {
			p.logger = l
		}
	}
}

// Policy tracks per-season state: lifecycle status, the highest processed
// week, and any administrative week override.
type Policy struct {
	mu        sync.RWMutex
	status    map[int]Status
	maxWeek   map[int]int  // highest week with a processed game
	hasWeek   map[int]bool // whether any game was processed for the season
	overrides map[int]int  // admin-forced current week

	logger logger.Logger
}

// NewPolicy creates an empty policy.
func NewPolicy(opts ...Option) *Policy {
	p := &Policy{
		status:    make(map[int]Status),
		maxWeek:   make(map[int]int),
		hasWeek:   make(map[int]bool),
		overrides: make(map[int]int),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Get().Named("season")
	}
	return p
}

// ValidateWeek reports whether week falls in the 0-19 range.
func (p *Policy) ValidateWeek(week int) bool {
	return week >= MinWeek && week <= MaxWeek
}

// NoteProcessed records that a game for (season, week) completed processing.
// Current-week derivation feeds exclusively from these notifications, never
// from score-nullness or placeholder rows.
func (p *Policy) NoteProcessed(season, week int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.hasWeek[season] || week > p.maxWeek[season] {
		p.maxWeek[season] = week
		p.hasWeek[season] = true
	}
}

// CurrentWeek returns the season's current week. An administrative override
// wins; otherwise it is the maximum week among processed games. The second
// return is false when neither exists.
func (p *Policy) CurrentWeek(season int) (int, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if w, ok := p.overrides[season]; ok {
		return w, true
	}
	if p.hasWeek[season] {
		return p.maxWeek[season], true
	}
	return 0, false
}

// ForceCurrentWeek sets an administrative override for a season's current
// week. The override goes through week validation, never around it.
func (p *Policy) ForceCurrentWeek(ctx context.Context, season, week int) error {
	if !p.ValidateWeek(week) {
		return fmt.Errorf("week %d out of range [%d,%d]: %w", week, MinWeek, MaxWeek, ErrInvalidWeek)
	}

	p.mu.Lock()
	p.overrides[season] = week
	p.mu.Unlock()

	p.logger.Warn(ctx, "current week forced by administrator",
		logger.Int("season", season),
		logger.Int("week", week),
	)
	return nil
}

// Status returns the season's lifecycle state and whether it is known.
func (p *Policy) Status(season int) (Status, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s, ok := p.status[season]
	return s, ok
}

// Activate initializes a season: seeds every team's rating from the
// preseason inputs and marks the season active. In-season win/loss counters
// are never carried forward; seeding resets them.
func (p *Policy) Activate(ctx context.Context, season int, seeds []model.Team, seeder Seeder) error {
	p.mu.Lock()
	if p.status[season] == StatusArchived {
		p.mu.Unlock()
		return fmt.Errorf("season %d: %w", season, ErrSeasonArchived)
	}
	p.status[season] = StatusActive
	p.mu.Unlock()

	for _, team := range seeds {
		if err := seeder.Seed(ctx, team); err != nil {
			return fmt.Errorf("seed team %s: %w", team.ID, err)
		}
	}

	p.logger.Info(ctx, "season activated",
		logger.Int("season", season),
		logger.Int("teams", len(seeds)),
	)
	return nil
}

// Archive marks a season inactive. Archiving is an explicit transition
// recorded in data; an archived season can no longer be activated.
func (p *Policy) Archive(ctx context.Context, season int) error {
	p.mu.Lock()
	p.status[season] = StatusArchived
	p.mu.Unlock()

	p.logger.Info(ctx, "season archived", logger.Int("season", season))
	return nil
}
