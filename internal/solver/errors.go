package solver

import (
	"errors"
	"fmt"

	"github.com/junekyoopark/ReUSV/internal/geometry"
)

var (
	// ErrDidNotConverge is returned when the outer budget runs out or the
	// iterate stalls before reaching a feasible stationary point.
	ErrDidNotConverge = errors.New("solver did not converge")
	// ErrInfeasible is returned when the constraint set cannot be satisfied.
	ErrInfeasible = errors.New("constraint set is infeasible")
	// ErrIterationLimit is returned when MaxIterations is reached.
	ErrIterationLimit = errors.New("iteration limit exceeded")
	// ErrCanceled is returned when the context is done at an iteration callback.
	ErrCanceled = errors.New("solve canceled")
)

// SolveError is a failed solve. LastIterate is for diagnostics only and must
// not be used as a solution.
type SolveError struct {
	Kind        error
	LastIterate []geometry.Vec3
	Iterations  int
	Objective   float64
	Violation   float64
	Err         error
}

func (e *SolveError) Error() string {
	msg := fmt.Sprintf("%s after %d iterations (objective %.6g, violation %.3g)", e.Kind, e.Iterations, e.Objective, e.Violation)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SolveError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// KindName is the stable failure name used on the command line and in reports.
func KindName(err error) string {
	switch {
	case err == nil:
		return "Converged"
	case errors.Is(err, ErrCanceled):
		return "Canceled"
	case errors.Is(err, ErrInfeasible):
		return "Infeasible"
	case errors.Is(err, ErrIterationLimit):
		return "IterationLimitExceeded"
	case errors.Is(err, ErrDidNotConverge):
		return "DidNotConverge"
	case errors.Is(err, geometry.ErrConstraintModel):
		return "ConstraintModelError"
	default:
		return "Error"
	}
}
