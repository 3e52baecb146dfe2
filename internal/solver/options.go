package solver

import "fmt"

const (
	defaultTolerance           = 1e-6
	defaultOptimalityTolerance = 1e-4
	defaultMaxIterations       = 3000
	defaultMaxOuterIterations  = 60
	defaultInitialPenalty      = 10.0
	defaultPenaltyGrowth       = 10.0
	defaultMaxPenalty          = 1e9
)

// Options tunes convergence and budgets of a solve.
type Options struct {
	// Tolerance bounds the largest accepted constraint violation.
	Tolerance float64
	// OptimalityTolerance bounds Lagrangian stationarity and complementarity.
	OptimalityTolerance float64
	// MaxIterations caps the total number of iterations across outer loops.
	MaxIterations int
	// MaxOuterIterations caps multiplier updates.
	MaxOuterIterations int
	InitialPenalty     float64
	PenaltyGrowth      float64
	MaxPenalty         float64
}

// DefaultOptions returns the defaults used when a caller does not override them.
func DefaultOptions() Options {
	return Options{
		Tolerance:           defaultTolerance,
		OptimalityTolerance: defaultOptimalityTolerance,
		MaxIterations:       defaultMaxIterations,
		MaxOuterIterations:  defaultMaxOuterIterations,
		InitialPenalty:      defaultInitialPenalty,
		PenaltyGrowth:       defaultPenaltyGrowth,
		MaxPenalty:          defaultMaxPenalty,
	}
}

// Validate reports the first unusable setting.
func (o Options) Validate() error {
	switch {
	case !(o.Tolerance > 0):
		return fmt.Errorf("tolerance must be positive, got %g", o.Tolerance)
	case !(o.OptimalityTolerance > 0):
		return fmt.Errorf("optimality tolerance must be positive, got %g", o.OptimalityTolerance)
	case o.MaxIterations <= 0:
		return fmt.Errorf("max iterations must be positive, got %d", o.MaxIterations)
	case o.MaxOuterIterations <= 0:
		return fmt.Errorf("max outer iterations must be positive, got %d", o.MaxOuterIterations)
	case !(o.InitialPenalty > 0):
		return fmt.Errorf("initial penalty must be positive, got %g", o.InitialPenalty)
	case !(o.PenaltyGrowth > 1):
		return fmt.Errorf("penalty growth must exceed 1, got %g", o.PenaltyGrowth)
	case o.MaxPenalty < o.InitialPenalty:
		return fmt.Errorf("max penalty %g is below initial penalty %g", o.MaxPenalty, o.InitialPenalty)
	}
	return nil
}
