package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/junekyoopark/ReUSV/internal/geometry"
	"github.com/junekyoopark/ReUSV/internal/packer"
	"github.com/junekyoopark/ReUSV/internal/solver"
)

const (
	defaultPort           = "8080"
	defaultRateLimitRPS   = 5.0
	defaultRateLimitBurst = 10
	defaultLogLevel       = "info"
	defaultRunCapacity    = 64
)

// ErrInvalidConfig marks configuration that cannot be used.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > YAML config > Environment variables > Defaults
type Config struct {
	// Problem is the problem from the config file, if it has one.
	Problem *ProblemConfig
	// Example names a built-in problem. It wins over Problem.
	Example    string
	Solver     solver.Options
	Separation geometry.SeparationMode
	Output     OutputConfig
	LogLevel   string

	Port                 string
	ShutdownGracePeriod  time.Duration
	ReadHeaderTimeout    time.Duration
	WriteTimeout         time.Duration
	IdleTimeout          time.Duration
	EnableRequestLogging bool
	RateLimitRPS         float64
	RateLimitBurst       int
	RunCapacity          int
}

// OutputConfig holds the optional export paths of the solve command. Empty
// paths are skipped.
type OutputConfig struct {
	TraceCSV  string `yaml:"trace_csv"`
	TraceXLSX string `yaml:"trace_xlsx"`
	ReportPDF string `yaml:"report_pdf"`
	DXF       string `yaml:"dxf"`
	STL       string `yaml:"stl"`
}

// yamlConfig represents the YAML configuration file structure.
type yamlConfig struct {
	Problem              *ProblemConfig `yaml:"problem"`
	Example              string         `yaml:"example"`
	Solver               yamlSolver     `yaml:"solver"`
	Output               OutputConfig   `yaml:"output"`
	LogLevel             string         `yaml:"log_level"`
	Port                 string         `yaml:"port"`
	ShutdownGracePeriod  string         `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    string         `yaml:"read_header_timeout"`
	WriteTimeout         string         `yaml:"write_timeout"`
	IdleTimeout          string         `yaml:"idle_timeout"`
	EnableRequestLogging *bool          `yaml:"enable_request_logging"`
	RateLimit            yamlRateLimit  `yaml:"rate_limit"`
	RunCapacity          int            `yaml:"run_capacity"`
}

// yamlSolver represents the solver section in YAML.
type yamlSolver struct {
	Tolerance           *float64 `yaml:"tolerance"`
	OptimalityTolerance *float64 `yaml:"optimality_tolerance"`
	MaxIterations       *int     `yaml:"max_iterations"`
	MaxOuterIterations  *int     `yaml:"max_outer_iterations"`
	Separation          string   `yaml:"separation"`
}

// yamlRateLimit represents the rate limit section in YAML.
type yamlRateLimit struct {
	RPS   *float64 `yaml:"rps"`
	Burst *int     `yaml:"burst"`
}

// CLIOverrides holds command-line flag overrides. Nil or empty values leave
// the lower-precedence setting in place.
type CLIOverrides struct {
	ConfigFile     string
	Example        *string
	Tolerance      *float64
	MaxIterations  *int
	Separation     *string
	Output         OutputConfig
	LogLevel       *string
	Port           *string
	RateLimitRPS   *float64
	RateLimitBurst *int
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > YAML config > Environment variables > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	if err := applyEnvConfig(&cfg); err != nil {
		return Config{}, err
	}

	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		if err := applyYAMLConfig(&cfg, yamlCfg); err != nil {
			return Config{}, err
		}
	}

	if overrides != nil {
		if err := applyCLIOverrides(&cfg, overrides); err != nil {
			return Config{}, err
		}
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		Solver:               solver.DefaultOptions(),
		Separation:           geometry.SeparationPerAxis,
		LogLevel:             defaultLogLevel,
		Port:                 defaultPort,
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         5 * time.Minute,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		RateLimitRPS:         defaultRateLimitRPS,
		RateLimitBurst:       defaultRateLimitBurst,
		RunCapacity:          defaultRunCapacity,
	}
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

// applyYAMLConfig applies YAML configuration to the Config struct.
func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig) error {
	if yamlCfg.Problem != nil {
		cfg.Problem = yamlCfg.Problem
	}
	if yamlCfg.Example != "" {
		cfg.Example = yamlCfg.Example
	}

	if v := yamlCfg.Solver.Tolerance; v != nil {
		cfg.Solver.Tolerance = *v
	}
	if v := yamlCfg.Solver.OptimalityTolerance; v != nil {
		cfg.Solver.OptimalityTolerance = *v
	}
	if v := yamlCfg.Solver.MaxIterations; v != nil {
		cfg.Solver.MaxIterations = *v
	}
	if v := yamlCfg.Solver.MaxOuterIterations; v != nil {
		cfg.Solver.MaxOuterIterations = *v
	}
	if yamlCfg.Solver.Separation != "" {
		mode, err := geometry.ParseSeparationMode(yamlCfg.Solver.Separation)
		if err != nil {
			return fmt.Errorf("%w: solver.separation: %w", ErrInvalidConfig, err)
		}
		cfg.Separation = mode
	}

	mergeOutput(&cfg.Output, yamlCfg.Output)

	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}
	if yamlCfg.Port != "" {
		cfg.Port = yamlCfg.Port
	}

	durations := []struct {
		raw    string
		target *time.Duration
		name   string
	}{
		{yamlCfg.ShutdownGracePeriod, &cfg.ShutdownGracePeriod, "shutdown_grace_period"},
		{yamlCfg.ReadHeaderTimeout, &cfg.ReadHeaderTimeout, "read_header_timeout"},
		{yamlCfg.WriteTimeout, &cfg.WriteTimeout, "write_timeout"},
		{yamlCfg.IdleTimeout, &cfg.IdleTimeout, "idle_timeout"},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, d.name, err)
		}
		*d.target = parsed
	}

	if yamlCfg.EnableRequestLogging != nil {
		cfg.EnableRequestLogging = *yamlCfg.EnableRequestLogging
	}
	if yamlCfg.RateLimit.RPS != nil {
		cfg.RateLimitRPS = *yamlCfg.RateLimit.RPS
	}
	if yamlCfg.RateLimit.Burst != nil {
		cfg.RateLimitBurst = *yamlCfg.RateLimit.Burst
	}
	if yamlCfg.RunCapacity > 0 {
		cfg.RunCapacity = yamlCfg.RunCapacity
	}
	return nil
}

// applyEnvConfig applies environment variable configuration.
func applyEnvConfig(cfg *Config) error {
	if raw := strings.TrimSpace(os.Getenv("PACKOPT_TOLERANCE")); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("%w: PACKOPT_TOLERANCE: %w", ErrInvalidConfig, err)
		}
		cfg.Solver.Tolerance = value
	}

	if raw := strings.TrimSpace(os.Getenv("PACKOPT_MAX_ITERATIONS")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%w: PACKOPT_MAX_ITERATIONS: %w", ErrInvalidConfig, err)
		}
		cfg.Solver.MaxIterations = value
	}

	if raw := strings.TrimSpace(os.Getenv("PACKOPT_SEPARATION")); raw != "" {
		mode, err := geometry.ParseSeparationMode(raw)
		if err != nil {
			return fmt.Errorf("%w: PACKOPT_SEPARATION: %w", ErrInvalidConfig, err)
		}
		cfg.Separation = mode
	}

	if level := strings.TrimSpace(os.Getenv("LOG_LEVEL")); level != "" {
		cfg.LogLevel = level
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		cfg.Port = port
	}

	if rps := strings.TrimSpace(os.Getenv("RATE_LIMIT_RPS")); rps != "" {
		if value, err := strconv.ParseFloat(rps, 64); err == nil && value >= 0 {
			cfg.RateLimitRPS = value
		}
	}

	if burst := strings.TrimSpace(os.Getenv("RATE_LIMIT_BURST")); burst != "" {
		if value, err := strconv.Atoi(burst); err == nil && value >= 0 {
			cfg.RateLimitBurst = value
		}
	}
	return nil
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) error {
	if overrides.Example != nil && *overrides.Example != "" {
		cfg.Example = *overrides.Example
	}
	if overrides.Tolerance != nil {
		cfg.Solver.Tolerance = *overrides.Tolerance
	}
	if overrides.MaxIterations != nil {
		cfg.Solver.MaxIterations = *overrides.MaxIterations
	}
	if overrides.Separation != nil && *overrides.Separation != "" {
		mode, err := geometry.ParseSeparationMode(*overrides.Separation)
		if err != nil {
			return fmt.Errorf("%w: --separation: %w", ErrInvalidConfig, err)
		}
		cfg.Separation = mode
	}

	mergeOutput(&cfg.Output, overrides.Output)

	if overrides.LogLevel != nil && *overrides.LogLevel != "" {
		cfg.LogLevel = *overrides.LogLevel
	}
	if overrides.Port != nil && *overrides.Port != "" {
		cfg.Port = *overrides.Port
	}
	if overrides.RateLimitRPS != nil && *overrides.RateLimitRPS >= 0 {
		cfg.RateLimitRPS = *overrides.RateLimitRPS
	}
	if overrides.RateLimitBurst != nil && *overrides.RateLimitBurst >= 0 {
		cfg.RateLimitBurst = *overrides.RateLimitBurst
	}

	return nil
}

func mergeOutput(dst *OutputConfig, src OutputConfig) {
	for _, f := range []struct {
		dst *string
		src string
	}{
		{&dst.TraceCSV, src.TraceCSV},
		{&dst.TraceXLSX, src.TraceXLSX},
		{&dst.ReportPDF, src.ReportPDF},
		{&dst.DXF, src.DXF},
		{&dst.STL, src.STL},
	} {
		if f.src != "" {
			*f.dst = f.src
		}
	}
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	if err := cfg.Solver.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if cfg.RateLimitRPS < 0 {
		return fmt.Errorf("%w: RATE_LIMIT_RPS must be >= 0", ErrInvalidConfig)
	}
	if cfg.RateLimitBurst < 0 {
		return fmt.Errorf("%w: RATE_LIMIT_BURST must be >= 0", ErrInvalidConfig)
	}
	if cfg.Example != "" {
		if _, err := packer.Example(cfg.Example); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	return nil
}

// ResolveProblem returns the problem to solve: the named example if one is
// set, otherwise the problem section of the config file. Solver options and
// the separation mode from cfg are applied to it; a problem file's own
// separation setting wins over the global one.
func (cfg Config) ResolveProblem() (packer.Problem, error) {
	var (
		p   packer.Problem
		err error
	)
	switch {
	case cfg.Example != "":
		p, err = packer.Example(cfg.Example)
		if err != nil {
			return packer.Problem{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		p.Mode = cfg.Separation
	case cfg.Problem != nil:
		p, err = cfg.Problem.Build(cfg.Separation)
		if err != nil {
			return packer.Problem{}, err
		}
	default:
		return packer.Problem{}, fmt.Errorf("%w: no problem given; use --example or a config file with a problem section", ErrInvalidConfig)
	}
	p.Options = cfg.Solver
	return p, nil
}
