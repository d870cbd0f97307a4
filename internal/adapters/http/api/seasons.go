// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/pylon/internal/domain/model"
	"github.com/okian/pylon/internal/domain/season"
)

// SeasonDependencies defines the interface for season administration.
type SeasonDependencies interface {
	ActivateSeason(ctx context.Context, season int, seeds []model.Team) error
	ArchiveSeason(ctx context.Context, season int) error
	ForceCurrentWeek(ctx context.Context, season, week int) error
	CurrentWeek(ctx context.Context, season int) (int, bool)
}

// SeasonsHandler handles season lifecycle and current-week administration.
type SeasonsHandler struct {
	deps SeasonDependencies
}

// NewSeasonsHandler creates a new seasons handler.
func NewSeasonsHandler(deps SeasonDependencies) *SeasonsHandler {
	return &SeasonsHandler{deps: deps}
}

// teamSeed mirrors the wire schema for one preseason team seed.
type teamSeed struct {
	TeamID     string  `json:"team_id"`
	Name       string  `json:"name"`
	Tier       string  `json:"tier"`
	Conference string  `json:"conference,omitempty"`
	Rating     float64 `json:"rating"`
}

// activateRequest mirrors the wire schema for POST /seasons/{y}/activate.
type activateRequest struct {
	Teams []teamSeed `json:"teams"`
}

// weekRequest mirrors the wire schema for PUT /seasons/{y}/week.
type weekRequest struct {
	Week int `json:"week"`
}

type weekResponse struct {
	Season int  `json:"season"`
	Week   int  `json:"week"`
	Known  bool `json:"known"`
}

// HandleSeasons routes /seasons/{season}/{action} requests.
func (h *SeasonsHandler) HandleSeasons(w http.ResponseWriter, r *http.Request) {
	const op = "api.seasons"
	rest := strings.TrimPrefix(r.URL.Path, "/seasons/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	seasonYear, err := strconv.Atoi(parts[0])
	if err != nil || seasonYear < 1 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	switch {
	case parts[1] == "week" && r.Method == http.MethodGet:
		h.handleGetWeek(w, r, seasonYear)
	case parts[1] == "week" && r.Method == http.MethodPut:
		h.handlePutWeek(w, r, seasonYear)
	case parts[1] == "activate" && r.Method == http.MethodPost:
		h.handleActivate(w, r, seasonYear)
	case parts[1] == "archive" && r.Method == http.MethodPost:
		h.handleArchive(w, r, seasonYear)
	default:
		http.NotFound(w, r)
	}
}

func (h *SeasonsHandler) handleGetWeek(w http.ResponseWriter, r *http.Request, seasonYear int) {
	week, known := h.deps.CurrentWeek(r.Context(), seasonYear)
	writeJSON(w, http.StatusOK, weekResponse{Season: seasonYear, Week: week, Known: known})
}

func (h *SeasonsHandler) handlePutWeek(w http.ResponseWriter, r *http.Request, seasonYear int) {
	const op = "api.put_week"
	var req weekRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := h.deps.ForceCurrentWeek(r.Context(), seasonYear, req.Week); err != nil {
		if errors.Is(err, season.ErrInvalidWeek) {
			writeError(w, http.StatusBadRequest, "invalid_week", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, weekResponse{Season: seasonYear, Week: req.Week, Known: true})
}

func (h *SeasonsHandler) handleActivate(w http.ResponseWriter, r *http.Request, seasonYear int) {
	const op = "api.activate_season"
	var req activateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if len(req.Teams) == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("missing teams")))
		return
	}

	seeds := make([]model.Team, 0, len(req.Teams))
	for _, t := range req.Teams {
		if strings.TrimSpace(t.TeamID) == "" || t.Rating <= 0 {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("invalid team seed")))
			return
		}
		seeds = append(seeds, model.Team{
			ID:         t.TeamID,
			Name:       t.Name,
			Tier:       model.ConferenceTier(t.Tier),
			Conference: t.Conference,
			Rating:     t.Rating,
		})
	}

	if err := h.deps.ActivateSeason(r.Context(), seasonYear, seeds); err != nil {
		if errors.Is(err, season.ErrSeasonArchived) {
			writeError(w, http.StatusConflict, "season_archived", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"season": seasonYear, "teams": len(seeds)})
}

func (h *SeasonsHandler) handleArchive(w http.ResponseWriter, r *http.Request, seasonYear int) {
	const op = "api.archive_season"
	if err := h.deps.ArchiveSeason(r.Context(), seasonYear); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"season": seasonYear, "status": "archived"})
}
