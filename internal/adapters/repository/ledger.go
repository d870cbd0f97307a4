package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/okian/pylon/internal/domain/model"
)

// Ledger is the append-only ranking history: one immutable snapshot per
// (team, season, week). It is the source of truth for "what was the rating
// before this game" and for season-scoped records, which is what keeps one
// season's statistics from bleeding into the next.
type Ledger struct {
	mu      sync.RWMutex
	keys    map[string]struct{}                    // team|season|week
	entries map[string][]model.RankingHistoryEntry // team|season -> sorted by week
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		keys:    make(map[string]struct{}),
		entries: make(map[string][]model.RankingHistoryEntry),
	}
}

func seasonKey(teamID string, season int) string {
	return fmt.Sprintf("%s|%d", teamID, season)
}

func entryKey(teamID string, season, week int) string {
	return fmt.Sprintf("%s|%d|%d", teamID, season, week)
}

// Record appends a write-once entry. A duplicate key is rejected with
// ErrDuplicateEntry and the prior entry is left untouched.
func (l *Ledger) Record(_ context.Context, e model.RankingHistoryEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := entryKey(e.TeamID, e.Season, e.Week)
	if _, exists := l.keys[key]; exists {
		return fmt.Errorf("entry for %s season %d week %d: %w", e.TeamID, e.Season, e.Week, ErrDuplicateEntry)
	}
	l.keys[key] = struct{}{}

	sk := seasonKey(e.TeamID, e.Season)
	entries := append(l.entries[sk], e)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Week < entries[j].Week })
	l.entries[sk] = entries
	return nil
}

// RatingAsOf returns the most recent rating at or before week for the
// (team, season). The boolean is false when no such entry exists; there is
// deliberately no default baked in here.
func (l *Ledger) RatingAsOf(_ context.Context, teamID string, season, week int) (float64, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entries := l.entries[seasonKey(teamID, season)]
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Week <= week {
			return entries[i].Rating, true
		}
	}
	return 0, false
}

// SeasonRecord derives wins and losses strictly from that season's entries.
func (l *Ledger) SeasonRecord(_ context.Context, teamID string, season int) (wins, losses int) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entries := l.entries[seasonKey(teamID, season)]
	if len(entries) == 0 {
		return 0, 0
	}
	last := entries[len(entries)-1]
	return last.Wins, last.Losses
}

// Entries returns a copy of a team's trajectory for one season, week asc.
func (l *Ledger) Entries(_ context.Context, teamID string, season int) []model.RankingHistoryEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entries := l.entries[seasonKey(teamID, season)]
	out := make([]model.RankingHistoryEntry, len(entries))
	copy(out, entries)
	return out
}
