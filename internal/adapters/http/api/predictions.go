// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/pylon/internal/domain/engine"
	"github.com/okian/pylon/internal/domain/model"
)

// PredictionDependencies defines the interface for prediction operations.
type PredictionDependencies interface {
	Predict(ctx context.Context, g *model.Game) (model.Prediction, error)
	PredictAsOf(ctx context.Context, g *model.Game) (model.Prediction, error)
	PredictionByGame(ctx context.Context, gameID string) (model.Prediction, error)
}

// PredictionsHandler handles prediction requests.
type PredictionsHandler struct {
	deps PredictionDependencies
}

// NewPredictionsHandler creates a new predictions handler.
func NewPredictionsHandler(deps PredictionDependencies) *PredictionsHandler {
	return &PredictionsHandler{deps: deps}
}

// predictionRequest mirrors the wire schema for POST /predictions.
// Retrospective predictions read ledger ratings as of the week before the
// game instead of current ratings.
type predictionRequest struct {
	GameID        string `json:"game_id"`
	Season        int    `json:"season"`
	Week          int    `json:"week"`
	HomeTeamID    string `json:"home_team_id"`
	AwayTeamID    string `json:"away_team_id"`
	NeutralSite   bool   `json:"neutral_site"`
	Retrospective bool   `json:"retrospective"`
}

func (p predictionRequest) validate() error {
	switch {
	case strings.TrimSpace(p.GameID) == "":
		return errors.New("missing game_id")
	case strings.TrimSpace(p.HomeTeamID) == "":
		return errors.New("missing home_team_id")
	case strings.TrimSpace(p.AwayTeamID) == "":
		return errors.New("missing away_team_id")
	case p.HomeTeamID == p.AwayTeamID:
		return errors.New("home and away teams must differ")
	case p.Season < 1:
		return errors.New("invalid season")
	}
	return nil
}

// HandlePostPrediction handles POST /predictions requests.
func (h *PredictionsHandler) HandlePostPrediction(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_prediction"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req predictionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	g := &model.Game{
		ID:          req.GameID,
		Season:      req.Season,
		Week:        req.Week,
		HomeTeamID:  req.HomeTeamID,
		AwayTeamID:  req.AwayTeamID,
		NeutralSite: req.NeutralSite,
	}

	var (
		pred model.Prediction
		err  error
	)
	if req.Retrospective {
		pred, err = h.deps.PredictAsOf(r.Context(), g)
	} else {
		pred, err = h.deps.Predict(r.Context(), g)
	}
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrPredictionExists):
			writeError(w, http.StatusConflict, "prediction_exists", err)
		case errors.Is(err, engine.ErrInvalidGameState):
			writeError(w, http.StatusConflict, "invalid_game_state", err)
		case isNotFound(err):
			writeError(w, http.StatusNotFound, "not_found", err)
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		}
		return
	}
	writeJSON(w, http.StatusCreated, pred)
}

// HandleGetPrediction handles GET /predictions/{game_id} requests.
func (h *PredictionsHandler) HandleGetPrediction(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_prediction"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/predictions/")
	if path == "" || strings.Contains(path, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	pred, err := h.deps.PredictionByGame(r.Context(), path)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, pred)
}
