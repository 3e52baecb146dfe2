package geometry

import "math"

// Vec3 is a point or displacement in container coordinates.
type Vec3 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// V3 is shorthand for building a Vec3.
func V3(x, y, z float64) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// Norm returns the Euclidean length.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

// Axis returns the component along axis 0 (x), 1 (y) or 2 (z).
func (v Vec3) Axis(axis int) float64 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

// MaxComponent returns the largest of the three components.
func (v Vec3) MaxComponent() float64 {
	return math.Max(v.X, math.Max(v.Y, v.Z))
}

func (v Vec3) finite() bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// Flatten packs positions into the solver's variable layout: body i occupies
// x[3i], x[3i+1], x[3i+2].
func Flatten(positions []Vec3) []float64 {
	x := make([]float64, 3*len(positions))
	for i, p := range positions {
		x[3*i] = p.X
		x[3*i+1] = p.Y
		x[3*i+2] = p.Z
	}
	return x
}

// Unflatten is the inverse of Flatten. Trailing values that do not form a
// full triple are ignored.
func Unflatten(x []float64) []Vec3 {
	out := make([]Vec3, len(x)/3)
	for i := range out {
		out[i] = Vec3{X: x[3*i], Y: x[3*i+1], Z: x[3*i+2]}
	}
	return out
}

func at(x []float64, body int) Vec3 {
	return Vec3{X: x[3*body], Y: x[3*body+1], Z: x[3*body+2]}
}
