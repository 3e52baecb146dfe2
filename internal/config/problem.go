package config

import (
	"fmt"

	"github.com/junekyoopark/ReUSV/internal/geometry"
	"github.com/junekyoopark/ReUSV/internal/packer"
)

// ProblemConfig is the file and wire form of a packing problem.
type ProblemConfig struct {
	Name       string          `yaml:"name" json:"name"`
	Container  ContainerConfig `yaml:"container" json:"container"`
	Separation string          `yaml:"separation,omitempty" json:"separation,omitempty"`
	Bodies     []BodyConfig    `yaml:"bodies" json:"bodies"`
}

// ContainerConfig describes the bounding region.
type ContainerConfig struct {
	Kind   string        `yaml:"kind" json:"kind"`
	Center geometry.Vec3 `yaml:"center" json:"center"`
	Radius float64       `yaml:"radius" json:"radius"`
	Height float64       `yaml:"height,omitempty" json:"height,omitempty"`
}

// BodyConfig describes one body. Radius applies to spheres and Dimensions
// to boxes.
type BodyConfig struct {
	Name       string        `yaml:"name" json:"name"`
	Shape      string        `yaml:"shape" json:"shape"`
	Radius     float64       `yaml:"radius,omitempty" json:"radius,omitempty"`
	Dimensions geometry.Vec3 `yaml:"dimensions,omitempty" json:"dimensions,omitempty"`
	Guess      geometry.Vec3 `yaml:"guess" json:"guess"`
}

// Build converts the description into a packer problem. fallback is used
// when the description has no separation mode of its own. Solver options
// are left zero so the caller can supply them.
func (pc ProblemConfig) Build(fallback geometry.SeparationMode) (packer.Problem, error) {
	kind, err := geometry.ParseContainerKind(pc.Container.Kind)
	if err != nil {
		return packer.Problem{}, fmt.Errorf("%w: container: %w", ErrInvalidConfig, err)
	}

	mode := fallback
	if pc.Separation != "" {
		if mode, err = geometry.ParseSeparationMode(pc.Separation); err != nil {
			return packer.Problem{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}

	bodies := make([]geometry.Body, len(pc.Bodies))
	for i, bc := range pc.Bodies {
		shape, err := geometry.ParseShape(bc.Shape)
		if err != nil {
			return packer.Problem{}, fmt.Errorf("%w: body %d: %w", ErrInvalidConfig, i, err)
		}
		bodies[i] = geometry.Body{
			Name:         bc.Name,
			Shape:        shape,
			Radius:       bc.Radius,
			Dimensions:   bc.Dimensions,
			InitialGuess: bc.Guess,
		}
	}

	return packer.Problem{
		Name: pc.Name,
		Container: geometry.Container{
			Kind:   kind,
			Center: pc.Container.Center,
			Radius: pc.Container.Radius,
			Height: pc.Container.Height,
		},
		Bodies: bodies,
		Mode:   mode,
	}, nil
}

// Describe converts a packer problem back into its file form.
func Describe(p packer.Problem) ProblemConfig {
	pc := ProblemConfig{
		Name:       p.Name,
		Separation: string(p.Mode),
		Container: ContainerConfig{
			Kind:   string(p.Container.Kind),
			Center: p.Container.Center,
			Radius: p.Container.Radius,
			Height: p.Container.Height,
		},
		Bodies: make([]BodyConfig, len(p.Bodies)),
	}
	for i, b := range p.Bodies {
		pc.Bodies[i] = BodyConfig{
			Name:       b.Name,
			Shape:      string(b.Shape),
			Radius:     b.Radius,
			Dimensions: b.Dimensions,
			Guess:      b.InitialGuess,
		}
	}
	return pc
}
