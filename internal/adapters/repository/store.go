// Package repository defines the engine-side state stores and their errors:
// current ratings with season-scoped records, the write-once ranking history
// ledger, and the prediction snapshots.
package repository

import (
	"context"

	"github.com/okian/pylon/internal/domain/model"
)

// Entry represents one rankings row.
type Entry struct {
	Rank       int
	TeamID     string
	Name       string
	Conference string
	Rating     float64
	Wins       int
	Losses     int
}

// Store provides read/write access to per-team rating state.
type Store interface {
	// Seed creates or resets a team with its preseason rating. Season
	// records are keyed by year and are never carried across seasons.
	Seed(ctx context.Context, team model.Team) error

	// Team returns the stored team.
	// Returns ErrTeamNotFound if the team is unknown.
	Team(ctx context.Context, teamID string) (model.Team, error)

	// Rating returns a team's current rating.
	Rating(ctx context.Context, teamID string) (float64, error)

	// ApplyDelta adjusts a team's rating and returns the new value.
	ApplyDelta(ctx context.Context, teamID string, delta float64) (float64, error)

	// RecordWin / RecordLoss increment the season-scoped counters.
	RecordWin(ctx context.Context, teamID string, season int) error
	RecordLoss(ctx context.Context, teamID string, season int) error

	// SeasonRecord returns wins and losses for one season only.
	SeasonRecord(ctx context.Context, teamID string, season int) (wins, losses int, err error)

	// Rank returns the team's current rankings row for a season.
	// FCS teams are not ranked; ErrTeamNotRanked is returned.
	Rank(ctx context.Context, teamID string, season int) (Entry, error)

	// TopN returns the top-N ranking-eligible teams by rating desc.
	TopN(ctx context.Context, n, season int) ([]Entry, error)

	// Count returns the number of teams tracked.
	Count(ctx context.Context) int
}
