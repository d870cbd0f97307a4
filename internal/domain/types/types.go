// Package types contains common types used across the application
package types

// Entry represents one row of the rankings
type Entry struct {
	Rank       int     `json:"rank"`
	TeamID     string  `json:"team_id"`
	Name       string  `json:"name"`
	Conference string  `json:"conference,omitempty"`
	Rating     float64 `json:"rating"`
	Wins       int     `json:"wins"`
	Losses     int     `json:"losses"`
}

// HistoryPoint is one week of a team's rating trajectory
type HistoryPoint struct {
	Season int     `json:"season"`
	Week   int     `json:"week"`
	Rating float64 `json:"rating"`
	Wins   int     `json:"wins"`
	Losses int     `json:"losses"`
}
