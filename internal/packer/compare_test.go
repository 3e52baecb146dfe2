package packer

import (
	"context"
	"errors"
	"testing"

	"github.com/junekyoopark/ReUSV/internal/geometry"
	"github.com/junekyoopark/ReUSV/internal/solver"
)

func twoCubes() Problem {
	return Problem{
		Name:      "two-cubes",
		Container: geometry.CylinderContainer(geometry.Vec3{}, 5, 20),
		Bodies: []geometry.Body{
			geometry.Box("a", geometry.V3(1, 1, 1), geometry.V3(0, 0, 0)),
			geometry.Box("b", geometry.V3(1, 1, 1), geometry.V3(3, 0.5, 0.2)),
		},
	}
}

func TestCompareModes(t *testing.T) {
	t.Parallel()

	results, err := CompareModes(context.Background(), NewService(), twoCubes())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != len(SeparationModes) {
		t.Fatalf("expected %d results, got %d", len(SeparationModes), len(results))
	}

	for i, r := range results {
		if r.Mode != SeparationModes[i] {
			t.Fatalf("result %d has mode %s, want %s", i, r.Mode, SeparationModes[i])
		}
		if r.Err != nil {
			t.Fatalf("mode %s failed: %v", r.Mode, r.Err)
		}
		if r.MinClearance < -1e-6 {
			t.Fatalf("mode %s left overlap %g", r.Mode, r.MinClearance)
		}
	}

	perAxis, sat := results[0], results[1]
	if sat.Objective >= perAxis.Objective {
		t.Fatalf("exact separation should pack tighter: sat %g, per-axis %g", sat.Objective, perAxis.Objective)
	}

	best, ok := Best(results)
	if !ok || best.Mode != geometry.SeparationExactSAT {
		t.Fatalf("expected exact-sat to be best, got %+v", best)
	}
}

func TestCompareModesStopsOnMalformedProblem(t *testing.T) {
	t.Parallel()

	p := twoCubes()
	p.Bodies = nil

	results, err := CompareModes(context.Background(), NewService(), p)
	if !errors.Is(err, geometry.ErrConstraintModel) {
		t.Fatalf("expected constraint model error, got %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
}

func TestCompareModesStopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := CompareModes(ctx, NewService(), twoCubes())
	if !errors.Is(err, solver.ErrCanceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected the comparison to stop after the first mode, got %d", len(results))
	}
}

func TestBestSkipsFailures(t *testing.T) {
	t.Parallel()

	results := []ModeComparison{
		{Mode: geometry.SeparationPerAxis, Objective: 1, Err: solver.ErrDidNotConverge},
		{Mode: geometry.SeparationExactSAT, Objective: 5},
	}
	best, ok := Best(results)
	if !ok || best.Mode != geometry.SeparationExactSAT {
		t.Fatalf("expected the converged result, got %+v", best)
	}

	if _, ok := Best(results[:1]); ok {
		t.Fatalf("expected no best result when every mode failed")
	}
}
