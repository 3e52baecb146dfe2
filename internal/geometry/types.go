package geometry

import (
	"fmt"
	"math"
	"strings"
)

// Shape is the kind of a movable body.
type Shape string

const (
	ShapeSphere Shape = "sphere"
	ShapeBox    Shape = "box"
)

// ParseShape accepts "sphere" or "box", case-insensitively.
func ParseShape(raw string) (Shape, error) {
	switch s := Shape(strings.ToLower(strings.TrimSpace(raw))); s {
	case ShapeSphere, ShapeBox:
		return s, nil
	default:
		return "", fmt.Errorf("unknown body shape %q", raw)
	}
}

// Body is one packable object. Shape parameters are fixed for a run; only the
// position is optimized, starting from InitialGuess.
type Body struct {
	Name         string
	Shape        Shape
	Radius       float64
	Dimensions   Vec3
	InitialGuess Vec3
}

// Sphere builds a spherical body.
func Sphere(name string, radius float64, guess Vec3) Body {
	return Body{Name: name, Shape: ShapeSphere, Radius: radius, InitialGuess: guess}
}

// Box builds an axis-aligned box with full width, length and height.
func Box(name string, dims Vec3, guess Vec3) Body {
	return Body{Name: name, Shape: ShapeBox, Dimensions: dims, InitialGuess: guess}
}

// HalfExtents returns the half size of the body along each axis.
func (b Body) HalfExtents() Vec3 {
	if b.Shape == ShapeSphere {
		return Vec3{X: b.Radius, Y: b.Radius, Z: b.Radius}
	}
	return b.Dimensions.Scale(0.5)
}

// HorizontalExtent is the larger of the x and y half extents, used against a
// cylinder wall.
func (b Body) HorizontalExtent() float64 {
	h := b.HalfExtents()
	return math.Max(h.X, h.Y)
}

// BoundingRadius is the radius of the smallest sphere around the body's center
// that encloses it.
func (b Body) BoundingRadius() float64 {
	if b.Shape == ShapeSphere {
		return b.Radius
	}
	return b.HalfExtents().Norm()
}

// Volume of the body.
func (b Body) Volume() float64 {
	if b.Shape == ShapeSphere {
		return 4.0 / 3.0 * math.Pi * b.Radius * b.Radius * b.Radius
	}
	return b.Dimensions.X * b.Dimensions.Y * b.Dimensions.Z
}

// ContainerKind selects the bounding region variant.
type ContainerKind string

const (
	ContainerSphere   ContainerKind = "sphere"
	ContainerCylinder ContainerKind = "cylinder"
)

// ParseContainerKind accepts "sphere" or "cylinder", case-insensitively.
func ParseContainerKind(raw string) (ContainerKind, error) {
	switch k := ContainerKind(strings.ToLower(strings.TrimSpace(raw))); k {
	case ContainerSphere, ContainerCylinder:
		return k, nil
	default:
		return "", fmt.Errorf("unknown container kind %q", raw)
	}
}

// Container is the bounding region. A cylinder's axis is parallel to z and
// passes through Center; Height is measured symmetrically about Center.Z.
// Height is ignored for spheres.
type Container struct {
	Kind   ContainerKind
	Center Vec3
	Radius float64
	Height float64
}

// SphereContainer builds a spherical container.
func SphereContainer(center Vec3, radius float64) Container {
	return Container{Kind: ContainerSphere, Center: center, Radius: radius}
}

// CylinderContainer builds a z-aligned finite cylinder.
func CylinderContainer(center Vec3, radius, height float64) Container {
	return Container{Kind: ContainerCylinder, Center: center, Radius: radius, Height: height}
}

// Volume of the container.
func (c Container) Volume() float64 {
	if c.Kind == ContainerSphere {
		return 4.0 / 3.0 * math.Pi * c.Radius * c.Radius * c.Radius
	}
	return math.Pi * c.Radius * c.Radius * c.Height
}

// SeparationMode controls how box pairs are kept apart.
type SeparationMode string

const (
	// SeparationPerAxis requires clearance on every axis independently.
	SeparationPerAxis SeparationMode = "conservative-per-axis"
	// SeparationExactSAT requires clearance on at least one axis.
	SeparationExactSAT SeparationMode = "exact-sat"
)

// ParseSeparationMode maps the textual mode. An empty string selects the
// per-axis mode.
func ParseSeparationMode(raw string) (SeparationMode, error) {
	switch m := SeparationMode(strings.ToLower(strings.TrimSpace(raw))); m {
	case "":
		return SeparationPerAxis, nil
	case SeparationPerAxis, SeparationExactSAT:
		return m, nil
	default:
		return "", fmt.Errorf("unknown separation mode %q", raw)
	}
}
