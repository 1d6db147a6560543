package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// ErrInsufficientData marks a group with fewer than two comparable
	// values; callers skip the group rather than fail the run.
	ErrInsufficientData = errors.New("insufficient data for analysis")

	// ErrNoData marks a run whose observed totals are all zero; no report
	// is produced.
	ErrNoData = errors.New("no positive spots in selection")

	// ErrDegenerateProbability marks a NaN p-value; the summarization
	// layer treats it as not significant.
	ErrDegenerateProbability = errors.New("degenerate probability")

	// ErrCancelled marks a cooperative cancellation at a phase boundary.
	ErrCancelled = errors.New("analysis cancelled")

	ErrInvalidSpot      = errors.New("spot number outside 1..25")
	ErrInvalidAlpha     = errors.New("alpha level outside (0,1)")
	ErrInvalidRatio     = errors.New("positive spot count outside 1..25")
	ErrNotFound         = errors.New("resource not found")
	ErrReportFinalized  = errors.New("report already finalized")
	ErrInvalidAreaName  = errors.New("unknown canonical area")
	ErrProbabilitySum   = errors.New("expected probabilities do not sum to 1")
	ErrLengthMismatch   = errors.New("sequence length mismatch")
	ErrReportNotReady   = errors.New("report not yet generated")
	ErrInvalidSpotCount = errors.New("positive spot count outside 0..25")
)

// NewSpotError reports an out-of-range spot number with its value.
func NewSpotError(spot int) error {
	return fmt.Errorf("%w: %d", ErrInvalidSpot, spot)
}

// NewNotFoundError reports a missing resource with identifying context.
func NewNotFoundError(resource, id string) error {
	return fmt.Errorf("%w: %s %s", ErrNotFound, resource, id)
}

// IsSkippable reports whether an error is a per-group condition that the
// engines absorb locally instead of failing the whole run.
func IsSkippable(err error) bool {
	return errors.Is(err, ErrInsufficientData) ||
		errors.Is(err, ErrDegenerateProbability)
}

// IsAborted reports whether an error represents an aborted run (cancel
// or global no-data), as opposed to an internal failure.
func IsAborted(err error) bool {
	return errors.Is(err, ErrCancelled) || errors.Is(err, ErrNoData)
}
