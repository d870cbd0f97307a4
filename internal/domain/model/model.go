// Package model contains domain models passed between layers.
package model

import "time"

// ConferenceTier classifies a program's level of competition.
// Only POWER_5 and GROUP_5 teams are eligible for rankings.
type ConferenceTier string

// Conference tiers.
const (
	Power5 ConferenceTier = "POWER_5"
	Group5 ConferenceTier = "GROUP_5"
	FCS    ConferenceTier = "FCS"
)

// RankingEligible reports whether a team of this tier may appear in rankings.
func (t ConferenceTier) RankingEligible() bool {
	return t == Power5 || t == Group5
}

// Team is the season-independent identity of a program plus its current
// rating. The rating seed (base plus preseason adjustments) is computed by
// the season-setup collaborator before the season begins.
type Team struct {
	ID         string
	Name       string
	Tier       ConferenceTier
	Conference string // display only, never used by the engine
	Rating     float64
}

// QuarterLine holds per-quarter scoring for both teams. The four pairs are
// present or absent as a group; a Game carries a nil *QuarterLine when
// quarter data is unavailable.
type QuarterLine struct {
	Home [4]int
	Away [4]int
}

// HomeThroughThree returns the home points scored in quarters 1-3.
func (q QuarterLine) HomeThroughThree() int {
	return q.Home[0] + q.Home[1] + q.Home[2]
}

// AwayThroughThree returns the away points scored in quarters 1-3.
func (q QuarterLine) AwayThroughThree() int {
	return q.Away[0] + q.Away[1] + q.Away[2]
}

// HomeTotal returns the home points summed over all four quarters.
func (q QuarterLine) HomeTotal() int {
	return q.HomeThroughThree() + q.Home[3]
}

// AwayTotal returns the away points summed over all four quarters.
func (q QuarterLine) AwayTotal() int {
	return q.AwayThroughThree() + q.Away[3]
}

// Game is one scheduled or completed matchup. A game transitions
// Processed false -> true exactly once and is never reprocessed.
// A game with Excluded set must never reach the processor.
type Game struct {
	ID             string
	Season         int
	Week           int
	HomeTeamID     string
	AwayTeamID     string
	HomeScore      int
	AwayScore      int
	Quarters       *QuarterLine
	NeutralSite    bool
	Excluded       bool // excluded from rankings (FCS opponent, unplayed slot, ...)
	Processed      bool
	GameType       string // classification only, e.g. "regular", "postseason"
	PostseasonName string
}

// RankingHistoryEntry is an immutable snapshot of a team's rating and
// season-scoped record after one week's processing. Exactly one entry may
// exist per (TeamID, Season, Week).
type RankingHistoryEntry struct {
	TeamID string
	Season int
	Week   int
	Rating float64
	Wins   int
	Losses int
}

// ConfidenceTier buckets a prediction by its probability margin.
type ConfidenceTier string

// Confidence tiers. Band lower bounds are inclusive:
// High [30%, 100%], Medium [15%, 30%), Low [0, 15%).
const (
	ConfidenceHigh   ConfidenceTier = "High"
	ConfidenceMedium ConfidenceTier = "Medium"
	ConfidenceLow    ConfidenceTier = "Low"
)

// Prediction is a pre-game snapshot of what the engine expected. One
// prediction exists per game, created before the game is processed, and is
// never mutated afterwards.
type Prediction struct {
	ID                 string
	GameID             string
	Season             int
	Week               int
	HomeTeamID         string
	AwayTeamID         string
	HomeRating         float64 // rating at prediction time
	AwayRating         float64
	HomeWinProbability float64
	AwayWinProbability float64
	PredictedHomeScore int
	PredictedAwayScore int
	Confidence         ConfidenceTier
	Retrospective      bool
	CreatedAt          time.Time
}
