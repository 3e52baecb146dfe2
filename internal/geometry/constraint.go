package geometry

import "math"

// ConstraintKind tags where a constraint came from.
type ConstraintKind string

const (
	KindRadial        ConstraintKind = "containment-radial"
	KindAxialLow      ConstraintKind = "containment-axial-low"
	KindAxialHigh     ConstraintKind = "containment-axial-high"
	KindSphereShell   ConstraintKind = "containment-sphere"
	KindOverlapSphere ConstraintKind = "overlap-sphere"
	KindOverlapAxis   ConstraintKind = "overlap-axis"
	KindOverlapSAT    ConstraintKind = "overlap-sat"
)

// IsContainment reports whether the kind keeps a body inside the container.
func (k ConstraintKind) IsContainment() bool {
	switch k {
	case KindRadial, KindAxialLow, KindAxialHigh, KindSphereShell:
		return true
	}
	return false
}

// Constraint is a scalar inequality c(x) >= 0 over the flat position vector.
// J is -1 for containment constraints; Axis is -1 unless the constraint
// concerns a single axis.
type Constraint struct {
	Kind ConstraintKind
	I    int
	J    int
	Axis int

	center Vec3
	bound  float64
	sep    Vec3
}

// Value evaluates c(x). Negative values are violations.
func (c Constraint) Value(x []float64) float64 {
	switch c.Kind {
	case KindRadial:
		p := at(x, c.I).Sub(c.center)
		return c.bound - (p.X*p.X + p.Y*p.Y)
	case KindAxialLow:
		return x[3*c.I+2] - c.bound
	case KindAxialHigh:
		return c.bound - x[3*c.I+2]
	case KindSphereShell:
		p := at(x, c.I).Sub(c.center)
		return c.bound - p.Dot(p)
	case KindOverlapSphere:
		return at(x, c.I).Sub(at(x, c.J)).Norm() - c.bound
	case KindOverlapAxis:
		return math.Abs(x[3*c.I+c.Axis]-x[3*c.J+c.Axis]) - c.sep.Axis(c.Axis)
	case KindOverlapSAT:
		v, _ := c.satAxis(x)
		return v
	}
	return 0
}

// AddGradient accumulates w * dc/dx into grad.
func (c Constraint) AddGradient(x, grad []float64, w float64) {
	i, j := 3*c.I, 3*c.J
	switch c.Kind {
	case KindRadial:
		p := at(x, c.I).Sub(c.center)
		grad[i] -= w * 2 * p.X
		grad[i+1] -= w * 2 * p.Y
	case KindAxialLow:
		grad[i+2] += w
	case KindAxialHigh:
		grad[i+2] -= w
	case KindSphereShell:
		p := at(x, c.I).Sub(c.center)
		grad[i] -= w * 2 * p.X
		grad[i+1] -= w * 2 * p.Y
		grad[i+2] -= w * 2 * p.Z
	case KindOverlapSphere:
		u := unitOrX(at(x, c.I).Sub(at(x, c.J)))
		grad[i] += w * u.X
		grad[i+1] += w * u.Y
		grad[i+2] += w * u.Z
		grad[j] -= w * u.X
		grad[j+1] -= w * u.Y
		grad[j+2] -= w * u.Z
	case KindOverlapAxis:
		s := sign(x[i+c.Axis] - x[j+c.Axis])
		grad[i+c.Axis] += w * s
		grad[j+c.Axis] -= w * s
	case KindOverlapSAT:
		_, axis := c.satAxis(x)
		s := sign(x[i+axis] - x[j+axis])
		grad[i+axis] += w * s
		grad[j+axis] -= w * s
	}
}

// satAxis returns the largest per-axis clearance and the axis it occurs on.
// Ties go to the lowest axis.
func (c Constraint) satAxis(x []float64) (float64, int) {
	best, bestAxis := math.Inf(-1), 0
	for axis := 0; axis < 3; axis++ {
		v := math.Abs(x[3*c.I+axis]-x[3*c.J+axis]) - c.sep.Axis(axis)
		if v > best {
			best, bestAxis = v, axis
		}
	}
	return best, bestAxis
}

// sign treats zero as positive so coincident centers still get pushed apart.
func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

func unitOrX(d Vec3) Vec3 {
	n := d.Norm()
	if n == 0 {
		return Vec3{X: 1}
	}
	return d.Scale(1 / n)
}
