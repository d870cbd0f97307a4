package engine

import (
	"errors"
)

// Sentinel kinds for the engine's error taxonomy. Callers branch with
// errors.Is; a precondition or ledger-integrity violation surfaces to the
// batch runner so a single bad game never corrupts ratings.
var (
	// ErrInvalidGameState marks a precondition violation: already
	// processed, excluded from rankings, or an out-of-range week.
	ErrInvalidGameState = errors.New("invalid game state")

	// ErrDuplicateHistoryEntry marks a write-once violation in the
	// ranking history ledger.
	ErrDuplicateHistoryEntry = errors.New("duplicate ranking history entry")

	// ErrRatingNotFound marks a team unknown to the rating store. Fatal:
	// every team must be seeded before any game referencing it runs.
	ErrRatingNotFound = errors.New("team rating not found")

	// ErrPredictionExists marks a second prediction attempt for a game.
	ErrPredictionExists = errors.New("prediction already exists for game")
)
