package packer

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/junekyoopark/ReUSV/internal/geometry"
)

func TestExamplesBuildValidModels(t *testing.T) {
	t.Parallel()

	for _, name := range ExampleNames() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			p, err := Example(name)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.Name != name || len(p.Bodies) != 5 {
				t.Fatalf("unexpected problem %+v", p)
			}
			model, err := geometry.NewModel(p.Container, p.Bodies, p.Mode)
			if err != nil {
				t.Fatalf("example does not build a model: %v", err)
			}
			if model.VolumeRatio() >= 1 {
				t.Fatalf("example is trivially infeasible")
			}
		})
	}
}

func TestReferenceBoxProblemMatchesSetup(t *testing.T) {
	t.Parallel()

	p := ReferenceBoxProblem()
	if p.Container.Kind != geometry.ContainerCylinder || p.Container.Radius != 5 || p.Container.Height != 20 {
		t.Fatalf("unexpected container %+v", p.Container)
	}
	column := p.Bodies[4]
	if column.Dimensions != geometry.V3(2, 2, 8) || column.InitialGuess != geometry.V3(5, 5, 7) {
		t.Fatalf("unexpected column body %+v", column)
	}
}

func TestExampleUnknownName(t *testing.T) {
	t.Parallel()

	if _, err := Example("pyramid"); !errors.Is(err, ErrUnknownExample) {
		t.Fatalf("expected ErrUnknownExample, got %v", err)
	}
	if !slices.Equal(ExampleNames(), []string{ExampleBoxes, ExampleSpheres}) {
		t.Fatalf("unexpected example names %v", ExampleNames())
	}
}

func TestExamplesReturnIndependentCopies(t *testing.T) {
	t.Parallel()

	a := ReferenceSphereProblem()
	a.Bodies[0].Radius = 9
	if ReferenceSphereProblem().Bodies[0].Radius != 1 {
		t.Fatalf("examples must not share body slices")
	}
}

func TestReferenceSphereProblemRuns(t *testing.T) {
	t.Parallel()

	report, _ := NewService().Solve(context.Background(), ReferenceSphereProblem())
	if report == nil || report.Iterations() == 0 {
		t.Fatalf("expected a report with recorded iterations")
	}
	if report.Succeeded() {
		model, err := geometry.NewModel(report.Container, report.Bodies, report.Mode)
		if err != nil {
			t.Fatalf("unexpected model error: %v", err)
		}
		violations, err := model.Check(report.Final, 1e-6)
		if err != nil || len(violations) != 0 {
			t.Fatalf("converged layout is infeasible: %v %v", violations, err)
		}
	}
}
