package trace

import (
	"context"
	"errors"
	"testing"

	"github.com/junekyoopark/ReUSV/internal/geometry"
	"github.com/junekyoopark/ReUSV/internal/solver"
)

func twoSphereModel(t *testing.T) *geometry.Model {
	t.Helper()

	model, err := geometry.NewModel(
		geometry.SphereContainer(geometry.Vec3{}, 10),
		[]geometry.Body{
			geometry.Sphere("a", 1, geometry.V3(0, 0, 0)),
			geometry.Sphere("b", 1, geometry.V3(3, 0, 0)),
		},
		geometry.SeparationPerAxis,
	)
	if err != nil {
		t.Fatalf("unexpected model error: %v", err)
	}
	return model
}

func TestTraceCopiesSnapshots(t *testing.T) {
	t.Parallel()

	tr := New()
	positions := []geometry.Vec3{geometry.V3(1, 2, 3)}
	tr.OnIteration(solver.Snapshot{Iteration: 0, Objective: 5, Positions: positions})
	tr.OnIteration(solver.Snapshot{Iteration: 1, Objective: 4, Positions: positions})

	positions[0] = geometry.V3(9, 9, 9)

	if tr.Len() != 2 {
		t.Fatalf("expected 2 snapshots, got %d", tr.Len())
	}
	snaps := tr.Snapshots()
	if snaps[0].Positions[0] != geometry.V3(1, 2, 3) {
		t.Fatalf("trace shares caller positions: %v", snaps[0].Positions[0])
	}

	snaps[1].Positions[0] = geometry.V3(7, 7, 7)
	last, ok := tr.Last()
	if !ok || last.Positions[0] != geometry.V3(1, 2, 3) {
		t.Fatalf("Snapshots must return copies, got %v", last.Positions)
	}

	objectives := tr.Objectives()
	if len(objectives) != 2 || objectives[0] != 5 || objectives[1] != 4 {
		t.Fatalf("unexpected objectives %v", objectives)
	}
}

func TestNilTraceIsEmpty(t *testing.T) {
	t.Parallel()

	var tr *Trace
	if tr.Len() != 0 || tr.Snapshots() != nil || tr.Objectives() != nil {
		t.Fatalf("nil trace should behave as empty")
	}
	if _, ok := tr.Last(); ok {
		t.Fatalf("nil trace has no last snapshot")
	}
}

func TestNewReportOnSuccess(t *testing.T) {
	t.Parallel()

	model := twoSphereModel(t)
	tr := New()
	res, err := solver.Solve(context.Background(), model, solver.DefaultOptions(), tr)
	if err != nil {
		t.Fatalf("unexpected solve error: %v", err)
	}

	report := NewReport("run-1", model, tr, res, nil)
	if !report.Succeeded() {
		t.Fatalf("expected final layout on success")
	}
	if report.Outcome != "Converged" {
		t.Fatalf("unexpected outcome %q", report.Outcome)
	}
	if report.Iterations() != tr.Len() || report.Iterations() == 0 {
		t.Fatalf("expected iterations to match trace, got %d vs %d", report.Iterations(), tr.Len())
	}
	if report.Initial[1] != geometry.V3(3, 0, 0) {
		t.Fatalf("initial layout must be the caller's guess, got %v", report.Initial)
	}
	if report.Objective != res.Objective {
		t.Fatalf("expected objective %v, got %v", res.Objective, report.Objective)
	}
}

func TestNewReportOnFailure(t *testing.T) {
	t.Parallel()

	model := twoSphereModel(t)
	tr := New()
	tr.OnIteration(solver.Snapshot{Iteration: 0, Objective: 3, Positions: model.InitialGuess()})

	solveErr := &solver.SolveError{Kind: solver.ErrDidNotConverge, Iterations: 1}
	report := NewReport("run-2", model, tr, nil, solveErr)

	if report.Succeeded() || report.Final != nil {
		t.Fatalf("failed run must not carry a final layout")
	}
	if report.Outcome != "DidNotConverge" {
		t.Fatalf("unexpected outcome %q", report.Outcome)
	}
	if !errors.Is(report.Err, solver.ErrDidNotConverge) {
		t.Fatalf("expected error to be kept, got %v", report.Err)
	}
	if report.Objective != 3 {
		t.Fatalf("expected last traced objective, got %v", report.Objective)
	}
	if got := report.LatestPositions(); got[1] != geometry.V3(3, 0, 0) {
		t.Fatalf("expected last iterate positions, got %v", got)
	}
}

func TestNewReportWithoutIterations(t *testing.T) {
	t.Parallel()

	model := twoSphereModel(t)
	report := NewReport("run-3", model, nil, nil, errors.New("boom"))

	if report.Outcome != "Error" {
		t.Fatalf("unexpected outcome %q", report.Outcome)
	}
	if report.Iterations() != 0 {
		t.Fatalf("expected no iterations, got %d", report.Iterations())
	}
	if report.Objective != 3 {
		t.Fatalf("expected initial objective 3, got %v", report.Objective)
	}
	summary := report.Summarize()
	if summary.RunID != "run-3" || summary.Bodies != 2 {
		t.Fatalf("unexpected summary %+v", summary)
	}
}
