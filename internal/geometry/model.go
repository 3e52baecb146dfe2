package geometry

import (
	"fmt"
	"math"
)

// Model is the static constraint set built from a container and its bodies.
// It never changes after NewModel returns.
type Model struct {
	container   Container
	bodies      []Body
	mode        SeparationMode
	constraints []Constraint
}

// NewModel validates the inputs and translates containment and non-overlap
// requirements into inequality constraints over the body centers.
func NewModel(container Container, bodies []Body, mode SeparationMode) (*Model, error) {
	if mode == "" {
		mode = SeparationPerAxis
	}
	if mode != SeparationPerAxis && mode != SeparationExactSAT {
		return nil, containerError("unknown separation mode %q", mode)
	}
	if err := validateContainer(container); err != nil {
		return nil, err
	}
	if len(bodies) == 0 {
		return nil, containerError("no bodies to pack")
	}

	owned := make([]Body, len(bodies))
	for i, b := range bodies {
		if b.Name == "" {
			b.Name = fmt.Sprintf("body-%d", i+1)
		}
		if err := validateBody(i, b, container); err != nil {
			return nil, err
		}
		owned[i] = b
	}

	m := &Model{container: container, bodies: owned, mode: mode}
	m.buildContainment()
	m.buildSeparation()
	return m, nil
}

func validateContainer(c Container) error {
	switch c.Kind {
	case ContainerSphere, ContainerCylinder:
	default:
		return containerError("unknown container kind %q", c.Kind)
	}
	if !c.Center.finite() {
		return containerError("center must be finite")
	}
	if !(c.Radius > 0) || math.IsInf(c.Radius, 0) {
		return containerError("radius must be positive, got %g", c.Radius)
	}
	if c.Kind == ContainerCylinder && (!(c.Height > 0) || math.IsInf(c.Height, 0)) {
		return containerError("height must be positive, got %g", c.Height)
	}
	return nil
}

func validateBody(i int, b Body, c Container) error {
	switch b.Shape {
	case ShapeSphere:
		if !(b.Radius > 0) || math.IsInf(b.Radius, 0) {
			return bodyError(i, b.Name, "radius must be positive, got %g", b.Radius)
		}
	case ShapeBox:
		d := b.Dimensions
		if !d.finite() || !(d.X > 0) || !(d.Y > 0) || !(d.Z > 0) {
			return bodyError(i, b.Name, "dimensions must be positive, got (%g, %g, %g)", d.X, d.Y, d.Z)
		}
	default:
		return bodyError(i, b.Name, "unknown shape %q", b.Shape)
	}
	if !b.InitialGuess.finite() {
		return bodyError(i, b.Name, "initial guess must be finite")
	}

	switch c.Kind {
	case ContainerCylinder:
		if h := b.HorizontalExtent(); h >= c.Radius {
			return bodyError(i, b.Name, "horizontal half extent %g does not fit cylinder radius %g", h, c.Radius)
		}
		if full := 2 * b.HalfExtents().Z; full >= c.Height {
			return bodyError(i, b.Name, "height %g does not fit cylinder height %g", full, c.Height)
		}
	case ContainerSphere:
		if r := b.BoundingRadius(); r >= c.Radius {
			return bodyError(i, b.Name, "bounding radius %g does not fit sphere radius %g", r, c.Radius)
		}
	}
	return nil
}

func (m *Model) buildContainment() {
	c := m.container
	for i, b := range m.bodies {
		switch c.Kind {
		case ContainerCylinder:
			allowed := c.Radius - b.HorizontalExtent()
			halfZ := b.HalfExtents().Z
			m.constraints = append(m.constraints,
				Constraint{Kind: KindRadial, I: i, J: -1, Axis: -1, center: c.Center, bound: allowed * allowed},
				Constraint{Kind: KindAxialLow, I: i, J: -1, Axis: 2, bound: c.Center.Z - c.Height/2 + halfZ},
				Constraint{Kind: KindAxialHigh, I: i, J: -1, Axis: 2, bound: c.Center.Z + c.Height/2 - halfZ},
			)
		case ContainerSphere:
			allowed := c.Radius - b.BoundingRadius()
			m.constraints = append(m.constraints,
				Constraint{Kind: KindSphereShell, I: i, J: -1, Axis: -1, center: c.Center, bound: allowed * allowed},
			)
		}
	}
}

func (m *Model) buildSeparation() {
	for i := 0; i < len(m.bodies); i++ {
		for j := i + 1; j < len(m.bodies); j++ {
			bi, bj := m.bodies[i], m.bodies[j]
			if bi.Shape == ShapeSphere && bj.Shape == ShapeSphere {
				m.constraints = append(m.constraints, Constraint{
					Kind: KindOverlapSphere, I: i, J: j, Axis: -1, bound: bi.Radius + bj.Radius,
				})
				continue
			}
			sep := bi.HalfExtents().Add(bj.HalfExtents())
			if m.mode == SeparationExactSAT {
				m.constraints = append(m.constraints, Constraint{Kind: KindOverlapSAT, I: i, J: j, Axis: -1, sep: sep})
				continue
			}
			for axis := 0; axis < 3; axis++ {
				m.constraints = append(m.constraints, Constraint{Kind: KindOverlapAxis, I: i, J: j, Axis: axis, sep: sep})
			}
		}
	}
}

// Container returns the bounding region.
func (m *Model) Container() Container { return m.container }

// Mode returns the box separation policy.
func (m *Model) Mode() SeparationMode { return m.mode }

// Bodies returns a copy of the body definitions, with defaulted names.
func (m *Model) Bodies() []Body {
	out := make([]Body, len(m.bodies))
	copy(out, m.bodies)
	return out
}

// NumBodies is the number of movable bodies.
func (m *Model) NumBodies() int { return len(m.bodies) }

// NumVars is the length of the flat variable vector.
func (m *Model) NumVars() int { return 3 * len(m.bodies) }

// Constraints returns a copy of the constraint set.
func (m *Model) Constraints() []Constraint {
	out := make([]Constraint, len(m.constraints))
	copy(out, m.constraints)
	return out
}

// InitialGuess returns the caller-supplied starting positions.
func (m *Model) InitialGuess() []Vec3 {
	out := make([]Vec3, len(m.bodies))
	for i, b := range m.bodies {
		out[i] = b.InitialGuess
	}
	return out
}

// VolumeRatio is the summed body volume over the container volume. A ratio
// above one proves that no feasible layout exists.
func (m *Model) VolumeRatio() float64 {
	total := 0.0
	for _, b := range m.bodies {
		total += b.Volume()
	}
	return total / m.container.Volume()
}
