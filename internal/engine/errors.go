package engine

import "fmt"

// InsufficientDataError is returned when fewer than two assets survive
// preprocessing. Optimization over 0 or 1 asset is undefined, so the whole
// request is rejected rather than returning a partial allocation.
type InsufficientDataError struct {
	Kept    []string
	Dropped []string
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: %d usable assets after filtering (need at least 2), dropped %v", len(e.Kept), e.Dropped)
}

// EmptyProblemError is returned when the solver receives a QUBO with zero
// variables. The preprocessor guard makes this unreachable in normal
// operation; seeing it indicates a bug upstream.
type EmptyProblemError struct{}

func (e *EmptyProblemError) Error() string {
	return "empty problem: QUBO has zero binary variables"
}

// DegenerateSolutionError is returned when the annealer's best bitstring has
// no bits set, so no allocation can be derived. Recoverable: retry with more
// reads/sweeps or a different penalty multiplier.
type DegenerateSolutionError struct {
	Energy float64
}

func (e *DegenerateSolutionError) Error() string {
	return fmt.Sprintf("degenerate solution: all slice variables off (energy=%g)", e.Energy)
}
