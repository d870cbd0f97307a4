// Package margin converts score differentials into the multiplicative
// adjustment applied to rating updates, including garbage-time discounting
// of fourth-quarter scoring.
package margin

import (
	"github.com/okian/pylon/internal/domain/model"
)

// defaultGarbageThreshold is the Q1-Q3 differential beyond which fourth
// quarter scoring is considered garbage time. Exactly 21 is not garbage
// time; 22 is.
const defaultGarbageThreshold = 21

// Detector decides whether the final quarter's scoring should be discounted.
type Detector struct {
	threshold int
}

// DetectorOption applies a configuration option to the Detector.
type DetectorOption func(*Detector)

// WithGarbageThreshold overrides the Q1-Q3 differential threshold.
func WithGarbageThreshold(points int) DetectorOption {
	return func(d *Detector) {
		if points > 0 {
			d.threshold = points
		}
	}
}

// NewDetector creates a detector with the default 21-point threshold.
func NewDetector(opts ...DetectorOption) *Detector {
	d := &Detector{threshold: defaultGarbageThreshold}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// IsGarbageTime reports whether the absolute score differential entering the
// fourth quarter exceeds the threshold. Pure and total over its domain.
func (d *Detector) IsGarbageTime(q model.QuarterLine) bool {
	diff := q.HomeThroughThree() - q.AwayThroughThree()
	if diff < 0 {
		diff = -diff
	}
	return diff > d.threshold
}

// Consistent reports whether the quarter scores sum to the final score.
// An inconsistency degrades to "quarter data unavailable", never a failure.
func Consistent(q model.QuarterLine, homeFinal, awayFinal int) bool {
	return q.HomeTotal() == homeFinal && q.AwayTotal() == awayFinal
}
