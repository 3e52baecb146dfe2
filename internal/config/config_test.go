package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/junekyoopark/ReUSV/internal/geometry"
	"github.com/junekyoopark/ReUSV/internal/packer"
	"github.com/junekyoopark/ReUSV/internal/solver"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "LOG_LEVEL",
		"PACKOPT_TOLERANCE", "PACKOPT_MAX_ITERATIONS", "PACKOPT_SEPARATION",
	} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "packopt.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func ptr[T any](v T) *T { return &v }

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != defaultPort {
		t.Fatalf("expected default port %s, got %s", defaultPort, cfg.Port)
	}
	if cfg.Solver != solver.DefaultOptions() {
		t.Fatalf("expected default solver options, got %+v", cfg.Solver)
	}
	if cfg.Separation != geometry.SeparationPerAxis {
		t.Fatalf("unexpected default separation %q", cfg.Separation)
	}
	if cfg.ShutdownGracePeriod != 10*time.Second {
		t.Fatalf("unexpected shutdown grace period: %s", cfg.ShutdownGracePeriod)
	}
	if cfg.RunCapacity != defaultRunCapacity {
		t.Fatalf("unexpected run capacity %d", cfg.RunCapacity)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("PACKOPT_TOLERANCE", "1e-5")
	t.Setenv("PACKOPT_MAX_ITERATIONS", "250")
	t.Setenv("PACKOPT_SEPARATION", "exact-sat")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != "9000" {
		t.Fatalf("expected overridden port, got %s", cfg.Port)
	}
	if cfg.Solver.Tolerance != 1e-5 || cfg.Solver.MaxIterations != 250 {
		t.Fatalf("unexpected solver options %+v", cfg.Solver)
	}
	if cfg.Separation != geometry.SeparationExactSAT {
		t.Fatalf("unexpected separation %q", cfg.Separation)
	}
}

func TestLoadRejectsMalformedEnv(t *testing.T) {
	testCases := map[string]string{
		"PACKOPT_TOLERANCE":      "tight",
		"PACKOPT_MAX_ITERATIONS": "many",
		"PACKOPT_SEPARATION":     "diagonal",
	}

	for key, value := range testCases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)
			if _, err := Load(nil); !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig for %s=%s, got %v", key, value, err)
			}
		})
	}
}

func TestLoadPrecedence(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "7000")
	t.Setenv("PACKOPT_MAX_ITERATIONS", "100")
	t.Setenv("PACKOPT_TOLERANCE", "1e-4")

	path := writeConfig(t, `
port: "7100"
solver:
  max_iterations: 200
  separation: exact-sat
rate_limit:
  rps: 0
write_timeout: 90s
`)

	cfg, err := Load(&CLIOverrides{
		ConfigFile:    path,
		MaxIterations: ptr(300),
	})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != "7100" {
		t.Fatalf("YAML must override env, got port %s", cfg.Port)
	}
	if cfg.Solver.MaxIterations != 300 {
		t.Fatalf("CLI must override YAML, got %d", cfg.Solver.MaxIterations)
	}
	if cfg.Solver.Tolerance != 1e-4 {
		t.Fatalf("env must apply when YAML is silent, got %g", cfg.Solver.Tolerance)
	}
	if cfg.Separation != geometry.SeparationExactSAT {
		t.Fatalf("unexpected separation %q", cfg.Separation)
	}
	if cfg.RateLimitRPS != 0 {
		t.Fatalf("explicit zero rps must be kept, got %g", cfg.RateLimitRPS)
	}
	if cfg.RateLimitBurst != defaultRateLimitBurst {
		t.Fatalf("absent burst must keep the default, got %d", cfg.RateLimitBurst)
	}
	if cfg.WriteTimeout != 90*time.Second {
		t.Fatalf("unexpected write timeout %s", cfg.WriteTimeout)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	testCases := []struct {
		name      string
		overrides *CLIOverrides
	}{
		{name: "negative tolerance", overrides: &CLIOverrides{Tolerance: ptr(-1.0)}},
		{name: "zero iterations", overrides: &CLIOverrides{MaxIterations: ptr(0)}},
		{name: "unknown separation", overrides: &CLIOverrides{Separation: ptr("loose")}},
		{name: "unknown example", overrides: &CLIOverrides{Example: ptr("pyramid")}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			if _, err := Load(tc.overrides); !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)

	if _, err := Load(&CLIOverrides{ConfigFile: filepath.Join(t.TempDir(), "absent.yaml")}); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestOutputOverridesMerge(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
output:
  trace_csv: from-file.csv
  report_pdf: from-file.pdf
`)

	cfg, err := Load(&CLIOverrides{
		ConfigFile: path,
		Output:     OutputConfig{ReportPDF: "from-flag.pdf", STL: "mesh.stl"},
	})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	want := OutputConfig{TraceCSV: "from-file.csv", ReportPDF: "from-flag.pdf", STL: "mesh.stl"}
	if cfg.Output != want {
		t.Fatalf("expected %+v, got %+v", want, cfg.Output)
	}
}

func TestResolveProblemFromFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
problem:
  name: pair
  container:
    kind: sphere
    radius: 10
  bodies:
    - name: a
      shape: sphere
      radius: 1
      guess: {x: 0, y: 0, z: 0}
    - name: b
      shape: box
      dimensions: {x: 1, y: 2, z: 3}
      guess: {x: 3, y: 0, z: 0}
solver:
  tolerance: 0.00001
`)

	cfg, err := Load(&CLIOverrides{ConfigFile: path})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	p, err := cfg.ResolveProblem()
	if err != nil {
		t.Fatalf("ResolveProblem returned error: %v", err)
	}
	if p.Name != "pair" || len(p.Bodies) != 2 {
		t.Fatalf("unexpected problem %+v", p)
	}
	if p.Bodies[1].Shape != geometry.ShapeBox || p.Bodies[1].Dimensions != geometry.V3(1, 2, 3) {
		t.Fatalf("unexpected box %+v", p.Bodies[1])
	}
	if p.Container.Kind != geometry.ContainerSphere || p.Container.Radius != 10 {
		t.Fatalf("unexpected container %+v", p.Container)
	}
	if p.Options.Tolerance != 1e-5 {
		t.Fatalf("solver options must be applied, got %+v", p.Options)
	}
	if p.Mode != geometry.SeparationPerAxis {
		t.Fatalf("unexpected mode %q", p.Mode)
	}
}

func TestResolveProblemExampleWins(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
problem:
  name: ignored
  container: {kind: sphere, radius: 3}
  bodies: [{shape: sphere, radius: 1}]
`)

	cfg, err := Load(&CLIOverrides{
		ConfigFile: path,
		Example:    ptr(packer.ExampleBoxes),
		Separation: ptr("exact-sat"),
	})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	p, err := cfg.ResolveProblem()
	if err != nil {
		t.Fatalf("ResolveProblem returned error: %v", err)
	}
	if p.Name != packer.ExampleBoxes || p.Mode != geometry.SeparationExactSAT {
		t.Fatalf("unexpected problem %q in mode %q", p.Name, p.Mode)
	}
}

func TestResolveProblemRequiresAProblem(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if _, err := cfg.ResolveProblem(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestProblemConfigBuildErrors(t *testing.T) {
	t.Parallel()

	testCases := map[string]ProblemConfig{
		"container kind": {Container: ContainerConfig{Kind: "cube", Radius: 1}},
		"shape":          {Container: ContainerConfig{Kind: "sphere", Radius: 5}, Bodies: []BodyConfig{{Shape: "cone"}}},
		"separation":     {Container: ContainerConfig{Kind: "sphere", Radius: 5}, Separation: "maybe"},
	}

	for name, pc := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if _, err := pc.Build(geometry.SeparationPerAxis); !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestDescribeRoundTrip(t *testing.T) {
	t.Parallel()

	original := packer.ReferenceBoxProblem()
	rebuilt, err := Describe(original).Build("")
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if rebuilt.Container != original.Container || rebuilt.Mode != original.Mode {
		t.Fatalf("container or mode changed: %+v", rebuilt)
	}
	for i := range original.Bodies {
		if rebuilt.Bodies[i] != original.Bodies[i] {
			t.Fatalf("body %d changed: %+v vs %+v", i, rebuilt.Bodies[i], original.Bodies[i])
		}
	}
}
