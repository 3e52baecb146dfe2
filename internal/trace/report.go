package trace

import (
	"time"

	"github.com/junekyoopark/ReUSV/internal/geometry"
	"github.com/junekyoopark/ReUSV/internal/solver"
)

// Report is everything known about one finished run. Final is nil unless
// the solve converged.
type Report struct {
	RunID     string
	CreatedAt time.Time
	Container geometry.Container
	Bodies    []geometry.Body
	Mode      geometry.SeparationMode
	Initial   []geometry.Vec3
	Final     []geometry.Vec3
	Objective float64
	Outcome   string
	Err       error
	Trace     *Trace
}

// NewReport assembles a report from a finished solve. It accepts any
// combination of result and error and never fails.
func NewReport(runID string, model *geometry.Model, tr *Trace, res *solver.Result, solveErr error) *Report {
	if tr == nil {
		tr = New()
	}
	r := &Report{
		RunID:     runID,
		CreatedAt: time.Now().UTC(),
		Container: model.Container(),
		Bodies:    model.Bodies(),
		Mode:      model.Mode(),
		Initial:   model.InitialGuess(),
		Outcome:   solver.KindName(solveErr),
		Err:       solveErr,
		Trace:     tr,
	}

	switch {
	case solveErr == nil && res != nil:
		r.Final = clonePositions(res.Positions)
		r.Objective = res.Objective
	default:
		if r.Outcome == solver.KindName(nil) {
			r.Outcome = "Error"
		}
		if last, ok := tr.Last(); ok {
			r.Objective = last.Objective
		} else {
			x := geometry.Flatten(r.Initial)
			r.Objective = model.Objective(x)
		}
	}
	return r
}

// Succeeded reports whether the run produced a final layout.
func (r *Report) Succeeded() bool {
	return r != nil && r.Final != nil
}

// Iterations is the number of recorded iterations.
func (r *Report) Iterations() int {
	return r.Trace.Len()
}

// LatestPositions is the final layout when there is one, otherwise the last
// recorded iterate, otherwise the initial guess. It is meant for diagnostics
// and drawing, never as a solution.
func (r *Report) LatestPositions() []geometry.Vec3 {
	if r.Final != nil {
		return clonePositions(r.Final)
	}
	if last, ok := r.Trace.Last(); ok {
		return last.Positions
	}
	return clonePositions(r.Initial)
}

// Summary is a compact view of a report for listings.
type Summary struct {
	RunID      string    `json:"runId"`
	CreatedAt  time.Time `json:"createdAt"`
	Outcome    string    `json:"outcome"`
	Bodies     int       `json:"bodies"`
	Iterations int       `json:"iterations"`
	Objective  float64   `json:"objective"`
}

// Summarize returns the listing view of r.
func (r *Report) Summarize() Summary {
	return Summary{
		RunID:      r.RunID,
		CreatedAt:  r.CreatedAt,
		Outcome:    r.Outcome,
		Bodies:     len(r.Bodies),
		Iterations: r.Iterations(),
		Objective:  r.Objective,
	}
}
