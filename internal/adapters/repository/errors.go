package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrTeamNotFound       = errors.New("team not found")
	ErrTeamNotRanked      = errors.New("team not ranking eligible")
	ErrDuplicateEntry     = errors.New("duplicate ranking history entry")
	ErrPredictionExists   = errors.New("prediction already exists")
	ErrPredictionNotFound = errors.New("prediction not found")
	ErrInvalidLimit       = errors.New("invalid rankings limit")
)
