package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveSolveCountsByOutcome(t *testing.T) {
	t.Parallel()

	m := NewCollector()
	m.ObserveSolve("Converged", "conservative-per-axis", 10*time.Millisecond, 12)
	m.ObserveSolve("Converged", "conservative-per-axis", 20*time.Millisecond, 30)
	m.ObserveSolve("Infeasible", "exact-sat", time.Millisecond, 0)

	if got := testutil.ToFloat64(m.solvesTotal.WithLabelValues("Converged", "conservative-per-axis")); got != 2 {
		t.Fatalf("expected 2 converged solves, got %v", got)
	}
	if got := testutil.ToFloat64(m.solvesTotal.WithLabelValues("Infeasible", "exact-sat")); got != 1 {
		t.Fatalf("expected 1 infeasible solve, got %v", got)
	}
	if got := testutil.CollectAndCount(m.solveIterations); got != 1 {
		t.Fatalf("expected a single iterations histogram, got %d", got)
	}
}

func TestObserveModelError(t *testing.T) {
	t.Parallel()

	m := NewCollector()
	m.ObserveModelError()
	m.ObserveModelError()

	if got := testutil.ToFloat64(m.modelErrors); got != 2 {
		t.Fatalf("expected 2 model errors, got %v", got)
	}
}

func TestHandlerExposesRegistry(t *testing.T) {
	t.Parallel()

	m := NewCollector()
	m.RecordRequest("/api/solve", http.StatusOK, 5*time.Millisecond)
	m.ObserveSolve("Converged", "exact-sat", time.Millisecond, 3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	for _, name := range []string{
		"packopt_solves_total",
		"packopt_http_requests_total",
		"packopt_solve_duration_seconds_bucket",
		"go_goroutines",
	} {
		if !strings.Contains(string(body), name) {
			t.Fatalf("expected %s in exposition", name)
		}
	}
}

func TestCollectorsAreIndependent(t *testing.T) {
	t.Parallel()

	a, b := NewCollector(), NewCollector()
	a.ObserveModelError()

	if got := testutil.ToFloat64(b.modelErrors); got != 0 {
		t.Fatalf("collectors must not share state, got %v", got)
	}
}
