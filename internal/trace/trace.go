// Package trace records solver iterations and assembles the read-only
// report of a run: the initial layout, the iteration history and, for
// converged runs only, the final layout.
package trace

import (
	"github.com/junekyoopark/ReUSV/internal/geometry"
	"github.com/junekyoopark/ReUSV/internal/solver"
)

// Trace is an append-only iteration history. It is filled by a single solve
// and is not safe for concurrent writers.
type Trace struct {
	snapshots []solver.Snapshot
}

// New returns an empty trace.
func New() *Trace {
	return &Trace{}
}

// OnIteration appends a copy of the snapshot.
func (t *Trace) OnIteration(s solver.Snapshot) {
	s.Positions = clonePositions(s.Positions)
	t.snapshots = append(t.snapshots, s)
}

// Len is the number of recorded iterations.
func (t *Trace) Len() int {
	if t == nil {
		return 0
	}
	return len(t.snapshots)
}

// Snapshots returns a copy of the history in iteration order.
func (t *Trace) Snapshots() []solver.Snapshot {
	if t == nil {
		return nil
	}
	out := make([]solver.Snapshot, len(t.snapshots))
	for i, s := range t.snapshots {
		s.Positions = clonePositions(s.Positions)
		out[i] = s
	}
	return out
}

// Objectives returns the objective value of every iteration.
func (t *Trace) Objectives() []float64 {
	if t == nil {
		return nil
	}
	out := make([]float64, len(t.snapshots))
	for i, s := range t.snapshots {
		out[i] = s.Objective
	}
	return out
}

// Last returns the most recent snapshot.
func (t *Trace) Last() (solver.Snapshot, bool) {
	if t.Len() == 0 {
		return solver.Snapshot{}, false
	}
	s := t.snapshots[len(t.snapshots)-1]
	s.Positions = clonePositions(s.Positions)
	return s, true
}

func clonePositions(src []geometry.Vec3) []geometry.Vec3 {
	if src == nil {
		return nil
	}
	out := make([]geometry.Vec3, len(src))
	copy(out, src)
	return out
}
