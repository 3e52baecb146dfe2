package packer

import (
	"fmt"
	"sort"

	"github.com/junekyoopark/ReUSV/internal/geometry"
	"github.com/junekyoopark/ReUSV/internal/solver"
)

// Reference problem names accepted by Example.
const (
	ExampleBoxes   = "boxes"
	ExampleSpheres = "spheres"
)

var examples = map[string]func() Problem{
	ExampleBoxes:   ReferenceBoxProblem,
	ExampleSpheres: ReferenceSphereProblem,
}

// referenceGuesses are the starting centers shared by the reference problems.
var referenceGuesses = []geometry.Vec3{
	geometry.V3(0, 0, 0),
	geometry.V3(1, 1, 1),
	geometry.V3(4, 4, 4),
	geometry.V3(5, 4, 5),
	geometry.V3(5, 5, 7),
}

// ReferenceBoxProblem packs three unit cubes, a 1.1 cube and a 2x2x8 column
// into a cylinder of radius 5 and height 20 centered on the origin.
func ReferenceBoxProblem() Problem {
	dims := []geometry.Vec3{
		geometry.V3(1, 1, 1),
		geometry.V3(1, 1, 1),
		geometry.V3(1, 1, 1),
		geometry.V3(1.1, 1.1, 1.1),
		geometry.V3(2, 2, 8),
	}
	bodies := make([]geometry.Body, len(dims))
	for i, d := range dims {
		bodies[i] = geometry.Box(fmt.Sprintf("box-%d", i), d, referenceGuesses[i])
	}
	return Problem{
		Name:      ExampleBoxes,
		Container: geometry.CylinderContainer(geometry.Vec3{}, 5, 20),
		Bodies:    bodies,
		Mode:      geometry.SeparationPerAxis,
		Options:   solver.DefaultOptions(),
	}
}

// ReferenceSphereProblem packs five spheres into a sphere of radius 10
// centered on the origin.
func ReferenceSphereProblem() Problem {
	radii := []float64{1, 1, 1, 1.1, 2}
	bodies := make([]geometry.Body, len(radii))
	for i, r := range radii {
		bodies[i] = geometry.Sphere(fmt.Sprintf("sphere-%d", i), r, referenceGuesses[i])
	}
	return Problem{
		Name:      ExampleSpheres,
		Container: geometry.SphereContainer(geometry.Vec3{}, 10),
		Bodies:    bodies,
		Mode:      geometry.SeparationPerAxis,
		Options:   solver.DefaultOptions(),
	}
}

// Example returns the built-in problem called name.
func Example(name string) (Problem, error) {
	build, ok := examples[name]
	if !ok {
		return Problem{}, fmt.Errorf("%w %q (known: %v)", ErrUnknownExample, name, ExampleNames())
	}
	return build(), nil
}

// ExampleNames lists the built-in problems in sorted order.
func ExampleNames() []string {
	names := make([]string, 0, len(examples))
	for name := range examples {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
