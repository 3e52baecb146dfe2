package solver

import "github.com/junekyoopark/ReUSV/internal/geometry"

// Snapshot is the solver state at one iteration. Positions may be infeasible.
type Snapshot struct {
	Iteration int
	Outer     int
	Objective float64
	Merit     float64
	Violation float64
	Positions []geometry.Vec3
}

// Observer receives every iteration synchronously, in iteration order.
type Observer interface {
	OnIteration(Snapshot)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Snapshot)

func (f ObserverFunc) OnIteration(s Snapshot) { f(s) }

type multiObserver []Observer

func (m multiObserver) OnIteration(s Snapshot) {
	for _, o := range m {
		o.OnIteration(s)
	}
}

// Observers fans a snapshot out to each non-nil observer in argument order.
func Observers(observers ...Observer) Observer {
	out := make(multiObserver, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			out = append(out, o)
		}
	}
	return out
}
