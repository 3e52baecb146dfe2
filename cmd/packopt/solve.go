package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/junekyoopark/ReUSV/internal/config"
	"github.com/junekyoopark/ReUSV/internal/export"
	"github.com/junekyoopark/ReUSV/internal/packer"
	"github.com/junekyoopark/ReUSV/internal/solver"
	"github.com/junekyoopark/ReUSV/internal/trace"
)

func runSolve(ctx context.Context, cfg config.Config, logger *zap.Logger, stdout, stderr io.Writer) int {
	p, err := cfg.ResolveProblem()
	if err != nil {
		fmt.Fprintf(stderr, "packopt: %v\n", err)
		return exitBadInput
	}

	svc := packer.NewService(packer.WithLogger(logger))
	report, solveErr := svc.Solve(ctx, p)
	if report == nil {
		fmt.Fprintf(stderr, "packopt: %v\n", solveErr)
		return exitBadInput
	}

	printReport(stdout, report)

	code := exitOK
	if solveErr != nil {
		fmt.Fprintf(stderr, "%s: %v\n", solver.KindName(solveErr), solveErr)
		code = exitSolveFailed
	}
	if err := writeOutputs(cfg.Output, report, logger); err != nil {
		fmt.Fprintf(stderr, "packopt: %v\n", err)
		code = exitSolveFailed
	}
	return code
}

func runCompare(ctx context.Context, cfg config.Config, logger *zap.Logger, stdout, stderr io.Writer) int {
	p, err := cfg.ResolveProblem()
	if err != nil {
		fmt.Fprintf(stderr, "packopt: %v\n", err)
		return exitBadInput
	}

	svc := packer.NewService(packer.WithLogger(logger))
	results, err := packer.CompareModes(ctx, svc, p)
	if len(results) == 0 {
		fmt.Fprintf(stderr, "packopt: %v\n", err)
		return exitBadInput
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "mode\toutcome\tobjective\titerations\tmin clearance")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%.6g\t%d\t%.3g\n", r.Mode, r.Outcome, r.Objective, r.Iterations, r.MinClearance)
	}
	_ = tw.Flush()

	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", solver.KindName(err), err)
		return exitSolveFailed
	}
	best, ok := packer.Best(results)
	if !ok {
		fmt.Fprintln(stderr, "packopt: no separation mode converged")
		return exitSolveFailed
	}
	fmt.Fprintf(stdout, "best: %s (objective %.6g)\n", best.Mode, best.Objective)
	return exitOK
}

func printReport(w io.Writer, r *trace.Report) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "run\t%s\n", r.RunID)
	fmt.Fprintf(tw, "outcome\t%s\n", r.Outcome)
	fmt.Fprintf(tw, "separation\t%s\n", r.Mode)
	fmt.Fprintf(tw, "iterations\t%d\n", r.Iterations())
	fmt.Fprintf(tw, "objective\t%.6g\n", r.Objective)

	if r.Final != nil {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "body\tshape\tx\ty\tz")
		for i, b := range r.Bodies {
			p := r.Final[i]
			fmt.Fprintf(tw, "%s\t%s\t%.6f\t%.6f\t%.6f\n", b.Name, b.Shape, p.X, p.Y, p.Z)
		}
	}
	_ = tw.Flush()
}

// writeOutputs runs every configured exporter. Exporters that need a final
// layout are skipped for failed runs.
func writeOutputs(out config.OutputConfig, r *trace.Report, logger *zap.Logger) error {
	targets := []struct {
		path  string
		kind  string
		write func(string, *trace.Report) error
	}{
		{path: out.TraceCSV, kind: "trace csv", write: writeCSVFile},
		{path: out.TraceXLSX, kind: "trace xlsx", write: export.ExportXLSX},
		{path: out.ReportPDF, kind: "pdf report", write: export.ExportPDF},
		{path: out.DXF, kind: "dxf wireframe", write: export.ExportDXF},
		{path: out.STL, kind: "stl mesh", write: export.ExportSTL},
	}

	var errs []error
	for _, t := range targets {
		if t.path == "" {
			continue
		}
		if err := t.write(t.path, r); err != nil {
			if errors.Is(err, export.ErrNoFinalLayout) {
				logger.Warn("export skipped", zap.String("kind", t.kind), zap.String("path", t.path), zap.Error(err))
				continue
			}
			errs = append(errs, fmt.Errorf("write %s %s: %w", t.kind, t.path, err))
			continue
		}
		logger.Info("export written", zap.String("kind", t.kind), zap.String("path", t.path))
	}
	return errors.Join(errs...)
}

func writeCSVFile(path string, r *trace.Report) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()
	return export.WriteCSV(f, r)
}
