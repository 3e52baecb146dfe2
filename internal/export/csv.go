package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/junekyoopark/ReUSV/internal/trace"
)

// TraceHeader returns the column names of the trace table: the iteration
// fields followed by x, y and z of every body.
func TraceHeader(r *trace.Report) []string {
	header := []string{"iteration", "outer", "objective", "merit", "violation"}
	for _, b := range r.Bodies {
		header = append(header, b.Name+"_x", b.Name+"_y", b.Name+"_z")
	}
	return header
}

// TraceRows returns one formatted row per recorded iteration.
func TraceRows(r *trace.Report) [][]string {
	snaps := r.Trace.Snapshots()
	rows := make([][]string, 0, len(snaps))
	for _, s := range snaps {
		row := []string{
			strconv.Itoa(s.Iteration),
			strconv.Itoa(s.Outer),
			formatFloat(s.Objective),
			formatFloat(s.Merit),
			formatFloat(s.Violation),
		}
		for _, p := range s.Positions {
			row = append(row, formatFloat(p.X), formatFloat(p.Y), formatFloat(p.Z))
		}
		rows = append(rows, row)
	}
	return rows
}

// WriteCSV writes the iteration trace of r as CSV with a header row.
func WriteCSV(w io.Writer, r *trace.Report) error {
	if err := checkReport(r); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(TraceHeader(r)); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := cw.WriteAll(TraceRows(r)); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
