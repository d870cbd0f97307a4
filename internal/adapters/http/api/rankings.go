// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strconv"
)

// RankingsDependencies defines the interface for rankings queries.
type RankingsDependencies interface {
	TopN(ctx context.Context, n, season int) ([]Entry, error)
}

// RankingsHandler handles rankings requests.
type RankingsHandler struct {
	deps     RankingsDependencies
	maxLimit int
}

// NewRankingsHandler creates a new rankings handler.
func NewRankingsHandler(deps RankingsDependencies, maxLimit int) *RankingsHandler {
	return &RankingsHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// HandleGetRankings handles GET /rankings?limit=N&season=Y requests.
func (h *RankingsHandler) HandleGetRankings(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_rankings"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	limitStr := r.URL.Query().Get("limit")
	n, err := strconv.Atoi(limitStr)
	if err != nil || n < 1 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	if n > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
		return
	}
	seasonYear, err := parseSeason(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	entries, err := h.deps.TopN(r.Context(), n, seasonYear)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
