package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kingpin/v2"

	"github.com/junekyoopark/ReUSV/internal/config"
	"github.com/junekyoopark/ReUSV/internal/logging"
	"github.com/junekyoopark/ReUSV/internal/packer"
)

// Exit statuses.
const (
	exitOK          = 0
	exitSolveFailed = 1
	exitBadInput    = 2
)

var signalNotify = signal.Notify

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// exitRequest carries the status kingpin hands its terminate hook after
// printing help, which would otherwise be os.Exit inside Parse.
type exitRequest int

// parseCommand parses args and reports whether run must stop with code. A
// missing command is bad input; help output exits cleanly.
func parseCommand(app *kingpin.Application, args []string, stderr io.Writer) (command string, code int, done bool) {
	parsed, err := app.ParseContext(args)
	if err != nil {
		fmt.Fprintf(stderr, "packopt: %v\n", err)
		return "", exitBadInput, true
	}
	if parsed.SelectedCommand == nil && !helpRequested(app, parsed) {
		_ = app.UsageForContext(parsed)
		fmt.Fprintln(stderr, "packopt: command not specified")
		return "", exitBadInput, true
	}

	defer func() {
		if r := recover(); r != nil {
			status, ok := r.(exitRequest)
			if !ok {
				panic(r)
			}
			command, code, done = "", int(status), true
		}
	}()
	app.Terminate(func(status int) { panic(exitRequest(status)) })

	command, err = app.Parse(args)
	if err != nil {
		fmt.Fprintf(stderr, "packopt: %v\n", err)
		return "", exitBadInput, true
	}
	return command, exitOK, false
}

func helpRequested(app *kingpin.Application, parsed *kingpin.ParseContext) bool {
	for _, element := range parsed.Elements {
		if flag, ok := element.Clause.(*kingpin.FlagClause); ok && flag == app.HelpFlag {
			return true
		}
	}
	return false
}

// solverFlags are the problem and solver flags shared by solve and compare.
type solverFlags struct {
	example          *string
	separation       *string
	tolerance        *float64
	maxIterations    *int
	toleranceSet     bool
	maxIterationsSet bool
}

func registerSolverFlags(cmd *kingpin.CmdClause, withSeparation bool) *solverFlags {
	f := &solverFlags{}
	f.example = cmd.Flag("example", "Built-in problem to solve ("+strings.Join(packer.ExampleNames(), ", ")+")").String()
	f.tolerance = cmd.Flag("tolerance", "Constraint feasibility tolerance").IsSetByUser(&f.toleranceSet).Float64()
	f.maxIterations = cmd.Flag("max-iterations", "Cap on total solver iterations").IsSetByUser(&f.maxIterationsSet).Int()
	if withSeparation {
		f.separation = cmd.Flag("separation", "Box separation mode (conservative-per-axis, exact-sat)").String()
	}
	return f
}

func (f *solverFlags) apply(overrides *config.CLIOverrides) {
	if *f.example != "" {
		overrides.Example = f.example
	}
	if f.toleranceSet {
		overrides.Tolerance = f.tolerance
	}
	if f.maxIterationsSet {
		overrides.MaxIterations = f.maxIterations
	}
	if f.separation != nil && *f.separation != "" {
		overrides.Separation = f.separation
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	app := kingpin.New("packopt", "Nonlinear 3D packing optimizer - places bodies in a container as tightly as possible")
	app.UsageWriter(stderr)
	app.ErrorWriter(stderr)

	configFile := app.Flag("config", "Path to YAML configuration file").String()
	logLevel := app.Flag("log-level", "Log level (debug, info, warn, error)").String()

	solveCmd := app.Command("solve", "Solve one packing problem and optionally export the run")
	solveFlags := registerSolverFlags(solveCmd, true)
	traceCSV := solveCmd.Flag("trace-csv", "Write the iteration trace as CSV").String()
	traceXLSX := solveCmd.Flag("trace-xlsx", "Write the iteration trace as an XLSX workbook").String()
	reportPDF := solveCmd.Flag("report-pdf", "Write a PDF report with convergence and layout plots").String()
	dxfPath := solveCmd.Flag("dxf", "Write a DXF wireframe of the initial and final layouts").String()
	stlPath := solveCmd.Flag("stl", "Write an STL mesh of the final layout").String()

	compareCmd := app.Command("compare", "Solve one problem under every separation mode")
	compareFlags := registerSolverFlags(compareCmd, false)

	serveCmd := app.Command("serve", "Serve the solver over HTTP")
	port := serveCmd.Flag("port", "HTTP port exposed by the service").String()
	var rpsSet, burstSet bool
	rateLimitRPS := serveCmd.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").IsSetByUser(&rpsSet).Float64()
	rateLimitBurst := serveCmd.Flag("rate-limit-burst", "Burst capacity for rate limiter").IsSetByUser(&burstSet).Int()

	command, code, done := parseCommand(app, args, stderr)
	if done {
		return code
	}

	overrides := &config.CLIOverrides{
		ConfigFile: *configFile,
	}
	if *logLevel != "" {
		overrides.LogLevel = logLevel
	}

	switch command {
	case solveCmd.FullCommand():
		solveFlags.apply(overrides)
		overrides.Output = config.OutputConfig{
			TraceCSV:  *traceCSV,
			TraceXLSX: *traceXLSX,
			ReportPDF: *reportPDF,
			DXF:       *dxfPath,
			STL:       *stlPath,
		}
	case compareCmd.FullCommand():
		compareFlags.apply(overrides)
	case serveCmd.FullCommand():
		if *port != "" {
			overrides.Port = port
		}
		if rpsSet {
			overrides.RateLimitRPS = rateLimitRPS
		}
		if burstSet {
			overrides.RateLimitBurst = rateLimitBurst
		}
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		fmt.Fprintf(stderr, "packopt: failed to load configuration: %v\n", err)
		return exitBadInput
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(stderr, "packopt: failed to initialize logger: %v\n", err)
		return exitBadInput
	}
	defer func() {
		_ = logger.Sync()
	}()

	switch command {
	case solveCmd.FullCommand():
		return runSolve(ctx, cfg, logger, stdout, stderr)
	case compareCmd.FullCommand():
		return runCompare(ctx, cfg, logger, stdout, stderr)
	case serveCmd.FullCommand():
		return runServe(cfg, logger)
	}
	fmt.Fprintf(stderr, "packopt: unknown command %q\n", command)
	return exitBadInput
}
