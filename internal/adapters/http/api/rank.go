// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strings"
)

// RankDependencies defines the interface for single-team rank lookups.
type RankDependencies interface {
	Rank(ctx context.Context, teamID string, season int) (Entry, error)
}

// RankHandler handles rank requests.
type RankHandler struct {
	deps RankDependencies
}

// NewRankHandler creates a new rank handler.
func NewRankHandler(deps RankDependencies) *RankHandler {
	return &RankHandler{deps: deps}
}

// HandleGetRank handles GET /rank/{team_id}?season=Y requests.
func (h *RankHandler) HandleGetRank(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_rank"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	// Extract path parameter after /rank/
	path := strings.TrimPrefix(r.URL.Path, "/rank/")
	if path == "" || strings.Contains(path, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	seasonYear, err := parseSeason(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	entry, err := h.deps.Rank(r.Context(), path, seasonYear)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
