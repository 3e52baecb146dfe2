package application

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/junekyoopark/ReUSV/internal/config"
	"github.com/junekyoopark/ReUSV/internal/geometry"
	"github.com/junekyoopark/ReUSV/internal/packer"
	"github.com/junekyoopark/ReUSV/internal/solver"
)

func TestNewInitializesDependencies(t *testing.T) {
	cfg := baseTestConfig(":8085")
	cfg.RunCapacity = 3
	logger := zaptest.NewLogger(t)

	app, err := New(cfg, logger)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if app.server == nil || app.router == nil || app.handler == nil || app.service == nil || app.metrics == nil {
		t.Fatalf("expected server, router, handler, service and metrics to be initialized")
	}
	if app.Server() != app.server {
		t.Fatalf("Server accessor did not return underlying instance")
	}
	if app.store.Len() != 0 {
		t.Fatalf("expected an empty run store")
	}
}

func TestNewRequiresLogger(t *testing.T) {
	if _, err := New(baseTestConfig(":0"), nil); err == nil {
		t.Fatalf("expected error without a logger")
	}
}

func TestNewServerAppliesConfig(t *testing.T) {
	cfg := baseTestConfig("9090")
	handler := http.NewServeMux()

	server := NewServer(cfg, handler)
	if server.Addr != ":9090" {
		t.Fatalf("expected address :9090, got %s", server.Addr)
	}
	if server.Handler != handler {
		t.Fatalf("expected handler to be applied")
	}
	if server.ReadHeaderTimeout != cfg.ReadHeaderTimeout ||
		server.WriteTimeout != cfg.WriteTimeout ||
		server.IdleTimeout != cfg.IdleTimeout {
		t.Fatalf("server timeouts do not match configuration")
	}
}

func TestRootHandlerServesSolveAndMetrics(t *testing.T) {
	app, err := New(baseTestConfig(":0"), zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	root := app.Handler()

	payload, _ := json.Marshal(map[string]any{
		"problem": config.Describe(sphereProblem()),
	})
	rec := httptest.NewRecorder()
	root.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/solve", bytes.NewReader(payload)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from solve, got %d: %s", rec.Code, rec.Body.String())
	}
	if app.store.Len() != 1 {
		t.Fatalf("expected the run to be stored, have %d", app.store.Len())
	}

	rec = httptest.NewRecorder()
	root.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from metrics, got %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`packopt_solves_total{outcome="Converged",separation="conservative-per-axis"} 1`,
		`packopt_http_requests_total{code="200",route="POST /api/solve"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("expected metrics to contain %q", want)
		}
	}
}

func TestRootHandlerRedirectsIndex(t *testing.T) {
	root := BuildRootHandler(http.NotFoundHandler(), nil)

	rec := httptest.NewRecorder()
	root.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/api/health" {
		t.Fatalf("expected redirect to health, got %d %q", rec.Code, rec.Header().Get("Location"))
	}

	rec = httptest.NewRecorder()
	root.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without a metrics handler, got %d", rec.Code)
	}
}

func sphereProblem() packer.Problem {
	return packer.Problem{
		Name:      "pair",
		Container: geometry.SphereContainer(geometry.Vec3{}, 10),
		Bodies: []geometry.Body{
			geometry.Sphere("a", 1, geometry.V3(0, 0, 0)),
			geometry.Sphere("b", 1, geometry.V3(3, 0, 0)),
		},
		Mode: geometry.SeparationPerAxis,
	}
}

func baseTestConfig(port string) config.Config {
	return config.Config{
		Solver:               solver.DefaultOptions(),
		Separation:           geometry.SeparationPerAxis,
		Port:                 port,
		ShutdownGracePeriod:  50 * time.Millisecond,
		ReadHeaderTimeout:    20 * time.Millisecond,
		WriteTimeout:         30 * time.Millisecond,
		IdleTimeout:          40 * time.Millisecond,
		EnableRequestLogging: false,
		RateLimitRPS:         0,
		RateLimitBurst:       0,
		RunCapacity:          8,
	}
}
