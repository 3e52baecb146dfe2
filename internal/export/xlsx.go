package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/junekyoopark/ReUSV/internal/geometry"
	"github.com/junekyoopark/ReUSV/internal/trace"
)

// Sheet names of the XLSX workbook.
const (
	SummarySheet = "Summary"
	TraceSheet   = "Trace"
	BodiesSheet  = "Bodies"
)

// ExportXLSX writes a workbook with a run summary, the iteration trace and a
// per-body table of initial and final positions.
func ExportXLSX(path string, r *trace.Report) error {
	f, err := buildWorkbook(r)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

// WriteXLSX writes the same workbook as ExportXLSX to w.
func WriteXLSX(w io.Writer, r *trace.Report) error {
	f, err := buildWorkbook(r)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func buildWorkbook(r *trace.Report) (*excelize.File, error) {
	if err := checkReport(r); err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	if err := fillWorkbook(f, r); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

func fillWorkbook(f *excelize.File, r *trace.Report) error {
	if err := f.SetSheetName(f.GetSheetName(0), SummarySheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{TraceSheet, BodiesSheet} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	summary := [][]interface{}{
		{"Run", r.RunID},
		{"Outcome", r.Outcome},
		{"Container", string(r.Container.Kind)},
		{"Separation", string(r.Mode)},
		{"Bodies", len(r.Bodies)},
		{"Iterations", r.Iterations()},
		{"Objective", r.Objective},
	}
	if err := writeRows(f, SummarySheet, summary); err != nil {
		return err
	}

	traceRows := [][]interface{}{toRow(TraceHeader(r))}
	for _, s := range r.Trace.Snapshots() {
		row := []interface{}{s.Iteration, s.Outer, s.Objective, s.Merit, s.Violation}
		for _, p := range s.Positions {
			row = append(row, p.X, p.Y, p.Z)
		}
		traceRows = append(traceRows, row)
	}
	if err := writeRows(f, TraceSheet, traceRows); err != nil {
		return err
	}

	return writeRows(f, BodiesSheet, bodyRows(r))
}

func bodyRows(r *trace.Report) [][]interface{} {
	rows := [][]interface{}{{
		"name", "shape", "radius", "dim_x", "dim_y", "dim_z",
		"initial_x", "initial_y", "initial_z", "final_x", "final_y", "final_z",
	}}
	for i, b := range r.Bodies {
		row := []interface{}{b.Name, string(b.Shape)}
		if b.Shape == geometry.ShapeSphere {
			row = append(row, b.Radius, nil, nil, nil)
		} else {
			row = append(row, nil, b.Dimensions.X, b.Dimensions.Y, b.Dimensions.Z)
		}
		if i < len(r.Initial) {
			p := r.Initial[i]
			row = append(row, p.X, p.Y, p.Z)
		}
		if i < len(r.Final) {
			p := r.Final[i]
			row = append(row, p.X, p.Y, p.Z)
		}
		rows = append(rows, row)
	}
	return rows
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func toRow(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
