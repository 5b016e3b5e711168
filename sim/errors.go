package sim

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig marks configuration faults: non-positive capacities,
// negative loads, cyclic DAGs, missing templates, unknown predecessors.
// Raised synchronously at engine construction or first use; aborts the run.
var ErrInvalidConfig = errors.New("invalid configuration")

// ErrInvariant marks logic invariant violations. Any such violation
// indicates a programming defect; the engine makes no attempt to recover.
var ErrInvariant = errors.New("invariant violation")

// InvariantError identifies the offending entity and simulation time of a
// logic invariant violation.
type InvariantError struct {
	Entity string  // tool/request/event identity
	Time   float64 // simulation time at which the violation was detected
	Reason string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violation at t=%g (%s): %s", e.Time, e.Entity, e.Reason)
}

func (e *InvariantError) Unwrap() error { return ErrInvariant }

func invariantf(entity string, t float64, format string, args ...any) error {
	return &InvariantError{Entity: entity, Time: t, Reason: fmt.Sprintf(format, args...)}
}
