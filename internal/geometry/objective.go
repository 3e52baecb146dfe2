package geometry

import "math"

// Objective is the sum of Euclidean distances between every pair of body
// centers. It is zero when there are fewer than two bodies.
func (m *Model) Objective(x []float64) float64 {
	n := len(m.bodies)
	sum := 0.0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			sum += at(x, i).Sub(at(x, j)).Norm()
		}
	}
	return sum
}

// ObjectiveGradient writes the gradient of Objective into grad. Coincident
// pairs contribute nothing.
func (m *Model) ObjectiveGradient(x, grad []float64) {
	for k := range grad {
		grad[k] = 0
	}
	n := len(m.bodies)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := at(x, i).Sub(at(x, j))
			norm := d.Norm()
			if norm == 0 {
				continue
			}
			u := d.Scale(1 / norm)
			grad[3*i] += u.X
			grad[3*i+1] += u.Y
			grad[3*i+2] += u.Z
			grad[3*j] -= u.X
			grad[3*j+1] -= u.Y
			grad[3*j+2] -= u.Z
		}
	}
}

// MaxViolation returns the largest amount by which any constraint is
// violated, or zero when x is feasible.
func (m *Model) MaxViolation(x []float64) float64 {
	worst := 0.0
	for _, c := range m.constraints {
		worst = math.Max(worst, -c.Value(x))
	}
	return worst
}

// MinClearance is the smallest non-overlap constraint value at x, or +Inf
// when there are no pairs.
func (m *Model) MinClearance(x []float64) float64 {
	clearance := math.Inf(1)
	for _, c := range m.constraints {
		if c.Kind.IsContainment() {
			continue
		}
		clearance = math.Min(clearance, c.Value(x))
	}
	return clearance
}
