// Command seasonsim drives a running service with a synthetic season:
// it activates a season with seeded teams, submits randomized completed
// games week by week, and fetches the resulting rankings.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
)

// Default configuration constants.
const (
	defaultTeams    = 64
	defaultWeeks    = 14
	defaultSeason   = 2025
	defaultTimeout  = 30 * time.Second
	defaultRunLimit = 10 * time.Minute
)

type team struct {
	TeamID     string  `json:"team_id"`
	Name       string  `json:"name"`
	Tier       string  `json:"tier"`
	Conference string  `json:"conference,omitempty"`
	Rating     float64 `json:"rating"`
}

type quarters struct {
	Home [4]int `json:"home"`
	Away [4]int `json:"away"`
}

type game struct {
	GameID      string    `json:"game_id"`
	Season      int       `json:"season"`
	Week        int       `json:"week"`
	HomeTeamID  string    `json:"home_team_id"`
	AwayTeamID  string    `json:"away_team_id"`
	HomeScore   int       `json:"home_score"`
	AwayScore   int       `json:"away_score"`
	Quarters    *quarters `json:"quarters,omitempty"`
	NeutralSite bool      `json:"neutral_site"`
}

type client struct {
	baseURL string
	http    *http.Client
}

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:9080", "Base URL of the service")
		numTeams = flag.Int("teams", defaultTeams, "Number of teams to seed")
		numWeeks = flag.Int("weeks", defaultWeeks, "Number of regular-season weeks to simulate")
		season   = flag.Int("season", defaultSeason, "Season year")
		topN     = flag.Int("top", 25, "Number of rankings rows to fetch at the end")
		seed     = flag.Int64("seed", time.Now().UnixNano(), "Random seed")
		timeout  = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunLimit)
	defer cancel()

	rng := rand.New(rand.NewSource(*seed))
	c := &client{
		baseURL: *baseURL,
		http:    &http.Client{Timeout: *timeout},
	}

	teams := makeTeams(rng, *numTeams)
	if err := c.activateSeason(ctx, *season, teams); err != nil {
		fail("activate season: " + err.Error())
	}
	fmt.Printf("season %d activated with %d teams\n", *season, len(teams))

	var submitted int
	for week := 1; week <= *numWeeks; week++ {
		for _, g := range makeWeek(rng, teams, *season, week) {
			if err := c.submitGame(ctx, g); err != nil {
				fail(fmt.Sprintf("submit game %s: %v", g.GameID, err))
			}
			submitted++
		}
	}
	fmt.Printf("%d games submitted over %d weeks\n", submitted, *numWeeks)

	// Give the workers a moment to drain the queue.
	time.Sleep(2 * time.Second)

	if err := c.printRankings(ctx, *season, *topN); err != nil {
		fail("fetch rankings: " + err.Error())
	}
}

func fail(msg string) {
	os.Stderr.WriteString(msg + "\n")
	os.Exit(1)
}

// makeTeams seeds a field with ratings spread around the 1500 baseline.
func makeTeams(rng *rand.Rand, n int) []team {
	tiers := []string{"POWER_5", "GROUP_5"}
	teams := make([]team, 0, n)
	for i := 0; i < n; i++ {
		tier := tiers[i%len(tiers)]
		teams = append(teams, team{
			TeamID: fmt.Sprintf("team-%03d", i),
			Name:   fmt.Sprintf("Team %03d", i),
			Tier:   tier,
			Rating: 1500 + rng.Float64()*400 - 200,
		})
	}
	return teams
}

// makeWeek pairs shuffled teams into one slate of completed games.
func makeWeek(rng *rand.Rand, teams []team, season, week int) []game {
	order := rng.Perm(len(teams))
	games := make([]game, 0, len(teams)/2)
	for i := 0; i+1 < len(order); i += 2 {
		home, away := teams[order[i]], teams[order[i+1]]
		g := game{
			GameID:      uuid.NewString(),
			Season:      season,
			Week:        week,
			HomeTeamID:  home.TeamID,
			AwayTeamID:  away.TeamID,
			NeutralSite: rng.Intn(20) == 0,
		}

		// Quarter-by-quarter scores; totals always stay consistent.
		var q quarters
		for qi := 0; qi < 4; qi++ {
			q.Home[qi] = rng.Intn(15)
			q.Away[qi] = rng.Intn(15)
		}
		g.Quarters = &q
		for qi := 0; qi < 4; qi++ {
			g.HomeScore += q.Home[qi]
			g.AwayScore += q.Away[qi]
		}
		if g.HomeScore == g.AwayScore {
			// Break ties with a walk-off field goal.
			g.HomeScore += 3
			g.Quarters.Home[3] += 3
		}
		games = append(games, g)
	}
	return games
}

func (c *client) activateSeason(ctx context.Context, season int, teams []team) error {
	body := map[string]any{"teams": teams}
	return c.post(ctx, fmt.Sprintf("/seasons/%d/activate", season), body)
}

func (c *client) submitGame(ctx context.Context, g game) error {
	return c.post(ctx, "/games", g)
}

func (c *client) post(ctx context.Context, path string, body any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s: %s", resp.Status, string(msg))
	}
	return nil
}

func (c *client) printRankings(ctx context.Context, season, topN int) error {
	url := fmt.Sprintf("%s/rankings?limit=%d&season=%d", c.baseURL, topN, season)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s: %s", resp.Status, string(msg))
	}

	var entries []struct {
		Rank   int     `json:"rank"`
		TeamID string  `json:"team_id"`
		Rating float64 `json:"rating"`
		Wins   int     `json:"wins"`
		Losses int     `json:"losses"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return err
	}

	fmt.Printf("top %d after season %d:\n", topN, season)
	for _, e := range entries {
		fmt.Printf("%3d. %-10s %8.2f (%d-%d)\n", e.Rank, e.TeamID, e.Rating, e.Wins, e.Losses)
	}
	return nil
}
