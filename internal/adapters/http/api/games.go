// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/pylon/internal/domain/dedupe"
	"github.com/okian/pylon/internal/domain/model"
	"github.com/okian/pylon/internal/domain/season"
	"github.com/okian/pylon/pkg/metrics"
)

// GameDependencies defines the interface for game intake dependencies.
type GameDependencies interface {
	dedupe.Deduper
	EnqueueGame(ctx context.Context, g model.Game) bool
}

// GamesHandler handles completed game submissions.
type GamesHandler struct {
	deps GameDependencies
}

// NewGamesHandler creates a new games handler.
func NewGamesHandler(deps GameDependencies) *GamesHandler {
	return &GamesHandler{deps: deps}
}

// quarterRequest carries per-quarter scoring on the wire.
type quarterRequest struct {
	Home [4]int `json:"home"`
	Away [4]int `json:"away"`
}

// gameRequest mirrors the wire schema for POST /games.
type gameRequest struct {
	GameID         string          `json:"game_id"`
	Season         int             `json:"season"`
	Week           int             `json:"week"`
	HomeTeamID     string          `json:"home_team_id"`
	AwayTeamID     string          `json:"away_team_id"`
	HomeScore      int             `json:"home_score"`
	AwayScore      int             `json:"away_score"`
	Quarters       *quarterRequest `json:"quarters,omitempty"`
	NeutralSite    bool            `json:"neutral_site"`
	Excluded       bool            `json:"excluded"`
	GameType       string          `json:"game_type,omitempty"`
	PostseasonName string          `json:"postseason_name,omitempty"`
}

func (g gameRequest) validate() error {
	switch {
	case strings.TrimSpace(g.GameID) == "":
		return errors.New("missing game_id")
	case strings.TrimSpace(g.HomeTeamID) == "":
		return errors.New("missing home_team_id")
	case strings.TrimSpace(g.AwayTeamID) == "":
		return errors.New("missing away_team_id")
	case g.HomeTeamID == g.AwayTeamID:
		return errors.New("home and away teams must differ")
	case g.Season < 1:
		return errors.New("invalid season")
	case g.Week < season.MinWeek || g.Week > season.MaxWeek:
		return errors.New("week out of range")
	case g.HomeScore < 0 || g.AwayScore < 0:
		return errors.New("negative score")
	}
	if g.Quarters != nil {
		for _, q := range g.Quarters.Home {
			if q < 0 {
				return errors.New("negative quarter score")
			}
		}
		for _, q := range g.Quarters.Away {
			if q < 0 {
				return errors.New("negative quarter score")
			}
		}
	}
	return nil
}

func (g gameRequest) toModel() model.Game {
	game := model.Game{
		ID:             g.GameID,
		Season:         g.Season,
		Week:           g.Week,
		HomeTeamID:     g.HomeTeamID,
		AwayTeamID:     g.AwayTeamID,
		HomeScore:      g.HomeScore,
		AwayScore:      g.AwayScore,
		NeutralSite:    g.NeutralSite,
		Excluded:       g.Excluded,
		GameType:       g.GameType,
		PostseasonName: g.PostseasonName,
	}
	if g.Quarters != nil {
		game.Quarters = &model.QuarterLine{
			Home: g.Quarters.Home,
			Away: g.Quarters.Away,
		}
	}
	return game
}

// HandlePostGame handles POST /games requests.
func (h *GamesHandler) HandlePostGame(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_game"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req gameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	// Idempotency check - mark as seen first
	if h.deps.SeenAndRecord(r.Context(), req.GameID) {
		metrics.RecordDuplicateGame()
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}

	// Try to enqueue for async processing
	if ok := h.deps.EnqueueGame(r.Context(), req.toModel()); !ok {
		// Rollback the "seen" status since enqueue failed
		h.deps.Unrecord(r.Context(), req.GameID)
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", Duplicate: false})
}

// parsePositiveInt parses a required positive integer query value.
func parsePositiveInt(raw, name string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New("invalid " + name)
	}
	return n, nil
}
