package packer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/junekyoopark/ReUSV/internal/geometry"
	"github.com/junekyoopark/ReUSV/internal/solver"
	"github.com/junekyoopark/ReUSV/internal/trace"
)

type recordingMetrics struct {
	mu          sync.Mutex
	outcomes    []string
	iterations  []int
	modelErrors int
}

func (m *recordingMetrics) ObserveSolve(outcome, _ string, _ time.Duration, iterations int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, outcome)
	m.iterations = append(m.iterations, iterations)
}

func (m *recordingMetrics) ObserveModelError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modelErrors++
}

func twoSpheres() Problem {
	return Problem{
		Name:      "two-spheres",
		Container: geometry.SphereContainer(geometry.Vec3{}, 10),
		Bodies: []geometry.Body{
			geometry.Sphere("a", 1, geometry.V3(0, 0, 0)),
			geometry.Sphere("b", 1, geometry.V3(3, 0, 0)),
		},
	}
}

func fixedIDs(ids ...string) func() string {
	i := 0
	return func() string {
		id := ids[i%len(ids)]
		i++
		return id
	}
}

func TestServiceSolveConverges(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	store := trace.NewMemoryStore(4)
	metrics := &recordingMetrics{}
	svc := NewService(
		WithLogger(zap.New(core)),
		WithStore(store),
		WithMetrics(metrics),
		WithRunIDs(fixedIDs("run-1")),
	)

	report, err := svc.Solve(context.Background(), twoSpheres())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.RunID != "run-1" || !report.Succeeded() {
		t.Fatalf("unexpected report %+v", report)
	}

	stored, err := store.Get("run-1")
	if err != nil {
		t.Fatalf("report not stored: %v", err)
	}
	if stored.Outcome != "Converged" {
		t.Fatalf("unexpected stored outcome %q", stored.Outcome)
	}

	if len(metrics.outcomes) != 1 || metrics.outcomes[0] != "Converged" {
		t.Fatalf("unexpected metrics %+v", metrics.outcomes)
	}
	if metrics.iterations[0] != report.Iterations() {
		t.Fatalf("expected %d iterations in metrics, got %d", report.Iterations(), metrics.iterations[0])
	}

	for _, msg := range []string{"solve started", "solver progress", "solve converged"} {
		if logs.FilterMessage(msg).Len() == 0 {
			t.Fatalf("expected log message %q", msg)
		}
	}
	if got := logs.FilterField(zap.String("run_id", "run-1")).Len(); got != logs.Len() {
		t.Fatalf("expected every log line to carry the run id, got %d of %d", got, logs.Len())
	}
}

func TestServiceRejectsMalformedProblem(t *testing.T) {
	t.Parallel()

	store := trace.NewMemoryStore(4)
	metrics := &recordingMetrics{}
	svc := NewService(WithStore(store), WithMetrics(metrics))

	p := twoSpheres()
	p.Bodies[1].Radius = 0

	report, err := svc.Solve(context.Background(), p)
	if !errors.Is(err, geometry.ErrConstraintModel) {
		t.Fatalf("expected constraint model error, got %v", err)
	}
	if report != nil {
		t.Fatalf("expected no report for a malformed problem")
	}
	if metrics.modelErrors != 1 || len(metrics.outcomes) != 0 {
		t.Fatalf("unexpected metrics %+v", metrics)
	}
	if store.Len() != 0 {
		t.Fatalf("malformed problems must not be stored")
	}
}

func TestServiceRejectsInvalidOptions(t *testing.T) {
	t.Parallel()

	called := false
	svc := NewService(WithRunIDs(func() string {
		called = true
		return "unused"
	}))

	p := twoSpheres()
	p.Options = solver.DefaultOptions()
	p.Options.Tolerance = -1

	if _, err := svc.Solve(context.Background(), p); err == nil {
		t.Fatalf("expected options error")
	}
	if called {
		t.Fatalf("no run should start with invalid options")
	}
}

func TestServiceReportsSolverFailure(t *testing.T) {
	t.Parallel()

	store := trace.NewMemoryStore(4)
	svc := NewService(WithStore(store), WithRunIDs(fixedIDs("failed")))

	p := twoSpheres()
	p.Options = solver.DefaultOptions()
	p.Options.MaxIterations = 1

	report, err := svc.Solve(context.Background(), p)
	if !errors.Is(err, solver.ErrIterationLimit) {
		t.Fatalf("expected iteration limit, got %v", err)
	}
	if report == nil || report.Final != nil {
		t.Fatalf("expected a report without final layout, got %+v", report)
	}
	if report.Outcome != "IterationLimitExceeded" {
		t.Fatalf("unexpected outcome %q", report.Outcome)
	}
	if _, err := store.Get("failed"); err != nil {
		t.Fatalf("failed runs must be stored too: %v", err)
	}
}

func TestServiceCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := NewService().Solve(ctx, twoSpheres())
	if !errors.Is(err, solver.ErrCanceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if report.Outcome != "Canceled" || report.Iterations() != 1 {
		t.Fatalf("expected one recorded iteration before cancel, got %q with %d", report.Outcome, report.Iterations())
	}
}

func TestServiceExtraObserversSeeEveryIteration(t *testing.T) {
	t.Parallel()

	var seen []int
	obs := solver.ObserverFunc(func(s solver.Snapshot) {
		seen = append(seen, s.Iteration)
	})

	report, err := NewService().Solve(context.Background(), twoSpheres(), obs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seen) != report.Iterations() {
		t.Fatalf("expected %d iterations, observer saw %d", report.Iterations(), len(seen))
	}
	for i, it := range seen {
		if it != i {
			t.Fatalf("iterations out of order: %v", seen)
		}
	}
}

func TestProgressLoggingIsThrottled(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		interval time.Duration
		all      bool
	}{
		{name: "hourly", interval: time.Hour, all: false},
		{name: "every", interval: 0, all: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			core, logs := observer.New(zap.InfoLevel)
			svc := NewService(WithLogger(zap.New(core)), WithProgressInterval(tc.interval))

			report, err := svc.Solve(context.Background(), twoSpheres())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			got := logs.FilterMessage("solver progress").Len()
			want := 1
			if tc.all {
				want = report.Iterations()
			}
			if got != want {
				t.Fatalf("expected %d progress lines, got %d", want, got)
			}
		})
	}
}

func TestZeroOptionsUseDefaults(t *testing.T) {
	t.Parallel()

	if got := (Problem{}).options(); got != solver.DefaultOptions() {
		t.Fatalf("expected defaults, got %+v", got)
	}
	custom := solver.DefaultOptions()
	custom.MaxIterations = 7
	if got := (Problem{Options: custom}).options(); got.MaxIterations != 7 {
		t.Fatalf("expected explicit options to win, got %+v", got)
	}
}
