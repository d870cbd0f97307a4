// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/pylon/internal/adapters/repository"
	"github.com/okian/pylon/internal/domain/dedupe"
	"github.com/okian/pylon/internal/domain/engine"
	"github.com/okian/pylon/internal/domain/model"
	"github.com/okian/pylon/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	dedupe.Deduper

	// EnqueueGame pushes a completed game for async processing.
	// Returns false on backpressure.
	EnqueueGame(ctx context.Context, g model.Game) bool

	// Read operations expose rankings data.
	TopN(ctx context.Context, n, season int) ([]Entry, error)
	Rank(ctx context.Context, teamID string, season int) (Entry, error)
	History(ctx context.Context, teamID string, season int) ([]HistoryPoint, error)

	// Prediction operations.
	Predict(ctx context.Context, g *model.Game) (model.Prediction, error)
	PredictAsOf(ctx context.Context, g *model.Game) (model.Prediction, error)
	PredictionByGame(ctx context.Context, gameID string) (model.Prediction, error)

	// Season administration.
	ActivateSeason(ctx context.Context, season int, seeds []model.Team) error
	ArchiveSeason(ctx context.Context, season int) error
	ForceCurrentWeek(ctx context.Context, season, week int) error
	CurrentWeek(ctx context.Context, season int) (int, bool)
}

// Entry mirrors the read shape returned by rankings queries.
type Entry = types.Entry

// HistoryPoint mirrors the read shape returned by history queries.
type HistoryPoint = types.HistoryPoint

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	gamesHandler       *GamesHandler
	rankingsHandler    *RankingsHandler
	rankHandler        *RankHandler
	predictionsHandler *PredictionsHandler
	historyHandler     *HistoryHandler
	seasonsHandler     *SeasonsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxRankingLimit int) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		gamesHandler:       NewGamesHandler(deps),
		rankingsHandler:    NewRankingsHandler(deps, maxRankingLimit),
		rankHandler:        NewRankHandler(deps),
		predictionsHandler: NewPredictionsHandler(deps),
		historyHandler:     NewHistoryHandler(deps),
		seasonsHandler:     NewSeasonsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/games", MetricsMiddleware(s.gamesHandler.HandlePostGame, "games"))
	mux.HandleFunc("/rankings", MetricsMiddleware(s.rankingsHandler.HandleGetRankings, "rankings"))
	mux.HandleFunc("/rank/", MetricsMiddleware(s.rankHandler.HandleGetRank, "rank"))
	mux.HandleFunc("/predictions", MetricsMiddleware(s.predictionsHandler.HandlePostPrediction, "predictions"))
	mux.HandleFunc("/predictions/", MetricsMiddleware(s.predictionsHandler.HandleGetPrediction, "predictions"))
	mux.HandleFunc("/history/", MetricsMiddleware(s.historyHandler.HandleGetHistory, "history"))
	mux.HandleFunc("/seasons/", MetricsMiddleware(s.seasonsHandler.HandleSeasons, "seasons"))
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// isNotFound translates upstream not-found conditions to 404.
func isNotFound(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, repository.ErrTeamNotFound),
		errors.Is(err, repository.ErrTeamNotRanked),
		errors.Is(err, repository.ErrPredictionNotFound),
		errors.Is(err, engine.ErrRatingNotFound):
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "not found")
}

// parseSeason reads the required season query parameter.
func parseSeason(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("season")
	if raw == "" {
		return 0, errors.New("missing season")
	}
	return parsePositiveInt(raw, "season")
}
