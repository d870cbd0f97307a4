package repository

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"sync"

	"github.com/okian/pylon/internal/domain/model"
	"github.com/okian/pylon/pkg/metrics"
)

// defaultShardCount spreads team state across locks so games with disjoint
// team sets never contend.
const defaultShardCount = 8

// teamState is a team's mutable rating plus season-keyed counters.
type teamState struct {
	team   model.Team
	wins   map[int]int
	losses map[int]int
}

// shard guards a slice of the team map.
type shard struct {
	mu    sync.RWMutex
	teams map[string]*teamState
}

// MapStore implements Store with a sharded in-memory map.
type MapStore struct {
	shards     []*shard
	shardCount int
}

// NewMapStore creates a sharded rating store.
func NewMapStore(_ context.Context, opts ...Option) *MapStore {
	s := &MapStore{shardCount: defaultShardCount}
	for _, opt := range opts {
		opt(s)
	}
	s.shards = make([]*shard, s.shardCount)
	for i := range s.shards {
		s.shards[i] = &shard{teams: make(map[string]*teamState)}
	}
	return s
}

// shardFor picks the shard owning a team id.
func (s *MapStore) shardFor(teamID string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(teamID))
	return s.shards[int(h.Sum32())%s.shardCount]
}

// Seed creates or resets a team with its preseason rating. Existing
// season-keyed records are preserved; the new season starts at zero simply
// because no counter for it exists yet.
func (s *MapStore) Seed(_ context.Context, team model.Team) error {
	sh := s.shardFor(team.ID)
	sh.mu.Lock()
	if st, ok := sh.teams[team.ID]; ok {
		st.team = team
	} else {
		sh.teams[team.ID] = &teamState{
			team:   team,
			wins:   make(map[int]int),
			losses: make(map[int]int),
		}
	}
	sh.mu.Unlock()

	metrics.UpdateTotalTeams(s.count())
	return nil
}

// count takes each shard's read lock in turn.
func (s *MapStore) count() int {
	total := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		total += len(sh.teams)
		sh.mu.RUnlock()
	}
	return total
}

// Team returns the stored team.
func (s *MapStore) Team(_ context.Context, teamID string) (model.Team, error) {
	sh := s.shardFor(teamID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	st, ok := sh.teams[teamID]
	if !ok {
		return model.Team{}, fmt.Errorf("team %s: %w", teamID, ErrTeamNotFound)
	}
	return st.team, nil
}

// Rating returns a team's current rating.
func (s *MapStore) Rating(_ context.Context, teamID string) (float64, error) {
	sh := s.shardFor(teamID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	st, ok := sh.teams[teamID]
	if !ok {
		return 0, fmt.Errorf("team %s: %w", teamID, ErrTeamNotFound)
	}
	return st.team.Rating, nil
}

// ApplyDelta adjusts a team's rating and returns the new value.
func (s *MapStore) ApplyDelta(_ context.Context, teamID string, delta float64) (float64, error) {
	sh := s.shardFor(teamID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	st, ok := sh.teams[teamID]
	if !ok {
		return 0, fmt.Errorf("team %s: %w", teamID, ErrTeamNotFound)
	}
	st.team.Rating += delta
	return st.team.Rating, nil
}

// RecordWin increments the season-scoped win counter.
func (s *MapStore) RecordWin(_ context.Context, teamID string, season int) error {
	sh := s.shardFor(teamID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	st, ok := sh.teams[teamID]
	if !ok {
		return fmt.Errorf("team %s: %w", teamID, ErrTeamNotFound)
	}
	st.wins[season]++
	return nil
}

// RecordLoss increments the season-scoped loss counter.
func (s *MapStore) RecordLoss(_ context.Context, teamID string, season int) error {
	sh := s.shardFor(teamID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	st, ok := sh.teams[teamID]
	if !ok {
		return fmt.Errorf("team %s: %w", teamID, ErrTeamNotFound)
	}
	st.losses[season]++
	return nil
}

// SeasonRecord returns wins and losses for one season only.
func (s *MapStore) SeasonRecord(_ context.Context, teamID string, season int) (int, int, error) {
	sh := s.shardFor(teamID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	st, ok := sh.teams[teamID]
	if !ok {
		return 0, 0, fmt.Errorf("team %s: %w", teamID, ErrTeamNotFound)
	}
	return st.wins[season], st.losses[season], nil
}

// snapshotEligible copies every ranking-eligible team, sorted by rating
// desc with team id as the tiebreaker for deterministic output.
func (s *MapStore) snapshotEligible(season int) []Entry {
	entries := make([]Entry, 0, 64)
	for _, sh := range s.shards {
		sh.mu.RLock()
		for id, st := range sh.teams {
			if !st.team.Tier.RankingEligible() {
				continue
			}
			entries = append(entries, Entry{
				TeamID:     id,
				Name:       st.team.Name,
				Conference: st.team.Conference,
				Rating:     st.team.Rating,
				Wins:       st.wins[season],
				Losses:     st.losses[season],
			})
		}
		sh.mu.RUnlock()
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Rating != entries[j].Rating {
			return entries[i].Rating > entries[j].Rating
		}
		return entries[i].TeamID < entries[j].TeamID
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// Rank returns the team's current rankings row for a season.
func (s *MapStore) Rank(ctx context.Context, teamID string, season int) (Entry, error) {
	if _, err := s.Team(ctx, teamID); err != nil {
		return Entry{}, err
	}
	for _, e := range s.snapshotEligible(season) {
		if e.TeamID == teamID {
			return e, nil
		}
	}
	return Entry{}, fmt.Errorf("team %s: %w", teamID, ErrTeamNotRanked)
}

// TopN returns the top-N ranking-eligible teams by rating desc.
func (s *MapStore) TopN(_ context.Context, n, season int) ([]Entry, error) {
	if n < 1 {
		return nil, ErrInvalidLimit
	}
	entries := s.snapshotEligible(season)
	if n < len(entries) {
		entries = entries[:n]
	}
	return entries, nil
}

// Count returns the number of teams tracked.
func (s *MapStore) Count(_ context.Context) int {
	return s.count()
}
