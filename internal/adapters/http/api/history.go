// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strings"
)

// HistoryDependencies defines the interface for rating history queries.
type HistoryDependencies interface {
	History(ctx context.Context, teamID string, season int) ([]HistoryPoint, error)
}

// HistoryHandler handles rating trajectory requests.
type HistoryHandler struct {
	deps HistoryDependencies
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(deps HistoryDependencies) *HistoryHandler {
	return &HistoryHandler{deps: deps}
}

// HandleGetHistory handles GET /history/{team_id}?season=Y requests.
func (h *HistoryHandler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_history"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/history/")
	if path == "" || strings.Contains(path, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	seasonYear, err := parseSeason(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	points, err := h.deps.History(r.Context(), path, seasonYear)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, points)
}
