// Package export writes run reports to files: the iteration trace as CSV or
// XLSX, a PDF summary with convergence plot and layout projections, a DXF
// wireframe and an STL mesh of the packed layout.
package export

import (
	"errors"
	"math"

	"github.com/junekyoopark/ReUSV/internal/geometry"
	"github.com/junekyoopark/ReUSV/internal/trace"
)

var (
	// ErrNilReport is returned when no report is given.
	ErrNilReport = errors.New("no report to export")
	// ErrNoFinalLayout is returned by exporters that need a converged layout.
	ErrNoFinalLayout = errors.New("report has no final layout")
)

func checkReport(r *trace.Report) error {
	if r == nil {
		return ErrNilReport
	}
	return nil
}

// bounds is an axis-aligned box enclosing the container and every drawn body.
type bounds struct {
	min, max geometry.Vec3
}

func emptyBounds() bounds {
	inf := math.Inf(1)
	return bounds{
		min: geometry.V3(inf, inf, inf),
		max: geometry.V3(-inf, -inf, -inf),
	}
}

func (b *bounds) include(center, half geometry.Vec3) {
	lo, hi := center.Sub(half), center.Add(half)
	b.min = geometry.V3(math.Min(b.min.X, lo.X), math.Min(b.min.Y, lo.Y), math.Min(b.min.Z, lo.Z))
	b.max = geometry.V3(math.Max(b.max.X, hi.X), math.Max(b.max.Y, hi.Y), math.Max(b.max.Z, hi.Z))
}

// layoutBounds covers the container and the bodies at every given layout.
func layoutBounds(r *trace.Report, layouts ...[]geometry.Vec3) bounds {
	b := emptyBounds()
	c := r.Container
	half := geometry.V3(c.Radius, c.Radius, c.Radius)
	if c.Kind == geometry.ContainerCylinder {
		half.Z = c.Height / 2
	}
	b.include(c.Center, half)
	for _, layout := range layouts {
		for i, p := range layout {
			if i < len(r.Bodies) {
				b.include(p, r.Bodies[i].HalfExtents())
			}
		}
	}
	return b
}
