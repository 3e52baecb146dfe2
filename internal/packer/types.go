package packer

import (
	"time"

	"github.com/junekyoopark/ReUSV/internal/geometry"
	"github.com/junekyoopark/ReUSV/internal/solver"
)

// Problem is one packing request. A zero Options selects
// solver.DefaultOptions.
type Problem struct {
	Name      string
	Container geometry.Container
	Bodies    []geometry.Body
	Mode      geometry.SeparationMode
	Options   solver.Options
}

// Metrics receives solve statistics.
type Metrics interface {
	ObserveSolve(outcome, separation string, duration time.Duration, iterations int)
	ObserveModelError()
}

type noopMetrics struct{}

func (noopMetrics) ObserveSolve(string, string, time.Duration, int) {}
func (noopMetrics) ObserveModelError()                              {}

func (p Problem) options() solver.Options {
	if p.Options == (solver.Options{}) {
		return solver.DefaultOptions()
	}
	return p.Options
}

func (p Problem) withMode(mode geometry.SeparationMode) Problem {
	out := p
	out.Mode = mode
	out.Bodies = append([]geometry.Body(nil), p.Bodies...)
	return out
}
