package geometry

import "fmt"

// Violation is one constraint that a layout fails to satisfy.
type Violation struct {
	Constraint Constraint
	Amount     float64
}

func (v Violation) String() string {
	if v.Constraint.J < 0 {
		return fmt.Sprintf("%s body %d violated by %g", v.Constraint.Kind, v.Constraint.I, v.Amount)
	}
	return fmt.Sprintf("%s bodies %d,%d violated by %g", v.Constraint.Kind, v.Constraint.I, v.Constraint.J, v.Amount)
}

// Check verifies a layout against every containment and non-overlap
// constraint, independently of any solver. Constraints violated by no more
// than tol are accepted.
func (m *Model) Check(positions []Vec3, tol float64) ([]Violation, error) {
	if len(positions) != len(m.bodies) {
		return nil, fmt.Errorf("layout has %d positions for %d bodies", len(positions), len(m.bodies))
	}
	x := Flatten(positions)
	var out []Violation
	for _, c := range m.constraints {
		if v := c.Value(x); v < -tol {
			out = append(out, Violation{Constraint: c, Amount: -v})
		}
	}
	return out, nil
}
