package packer

import (
	"context"
	"errors"

	"github.com/junekyoopark/ReUSV/internal/geometry"
	"github.com/junekyoopark/ReUSV/internal/solver"
	"github.com/junekyoopark/ReUSV/internal/trace"
)

// ModeComparison is the outcome of one problem under one separation mode.
type ModeComparison struct {
	Mode       geometry.SeparationMode
	Report     *trace.Report
	Outcome    string
	Objective  float64
	Iterations int
	// MinClearance is the smallest separation constraint value of the
	// latest layout. Negative values mean overlap.
	MinClearance float64
	Err          error
}

// SeparationModes lists the modes CompareModes runs, in order.
var SeparationModes = []geometry.SeparationMode{
	geometry.SeparationPerAxis,
	geometry.SeparationExactSAT,
}

// CompareModes solves p once per separation mode. Solver failures are
// reported per mode; a malformed problem or a canceled context stops the
// comparison and is returned with the results gathered so far.
func CompareModes(ctx context.Context, svc *Service, p Problem) ([]ModeComparison, error) {
	results := make([]ModeComparison, 0, len(SeparationModes))

	for _, mode := range SeparationModes {
		variant := p.withMode(mode)
		report, err := svc.Solve(ctx, variant)
		if report == nil {
			return results, err
		}

		cmp := ModeComparison{
			Mode:       mode,
			Report:     report,
			Outcome:    report.Outcome,
			Objective:  report.Objective,
			Iterations: report.Iterations(),
			Err:        err,
		}
		model, modelErr := geometry.NewModel(variant.Container, variant.Bodies, mode)
		if modelErr != nil {
			return results, modelErr
		}
		cmp.MinClearance = model.MinClearance(geometry.Flatten(report.LatestPositions()))
		results = append(results, cmp)

		if errors.Is(err, solver.ErrCanceled) {
			return results, err
		}
	}
	return results, nil
}

// Best returns the converged comparison with the lowest objective.
func Best(results []ModeComparison) (ModeComparison, bool) {
	var (
		best  ModeComparison
		found bool
	)
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		if !found || r.Objective < best.Objective {
			best, found = r, true
		}
	}
	return best, found
}
