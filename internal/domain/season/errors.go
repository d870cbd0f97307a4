package season

import (
	"errors"
)

// Sentinel kinds for season policy errors.
var (
	ErrInvalidWeek    = errors.New("week out of range")
	ErrSeasonArchived = errors.New("season is archived")
)
