package export

import (
	"fmt"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/junekyoopark/ReUSV/internal/geometry"
	"github.com/junekyoopark/ReUSV/internal/trace"
)

// defaultMeshCells controls marching cubes tessellation resolution.
const defaultMeshCells = 120

// ExportSTL writes a binary STL mesh of the union of all bodies at their
// final positions. Runs without a final layout are refused.
func ExportSTL(path string, r *trace.Report) error {
	return exportSTL(path, r, defaultMeshCells)
}

func exportSTL(path string, r *trace.Report, cells int) error {
	if err := checkReport(r); err != nil {
		return err
	}
	if r.Final == nil {
		return ErrNoFinalLayout
	}

	solid, err := layoutSolid(r.Bodies, r.Final)
	if err != nil {
		return err
	}
	triangles := render.ToTriangles(solid, render.NewMarchingCubesUniform(cells))
	if len(triangles) == 0 {
		return fmt.Errorf("layout of run %s produced an empty mesh", r.RunID)
	}
	return render.SaveSTL(path, triangles)
}

// layoutSolid builds the signed distance union of the bodies placed at layout.
func layoutSolid(bodies []geometry.Body, layout []geometry.Vec3) (sdf.SDF3, error) {
	if len(bodies) == 0 || len(layout) != len(bodies) {
		return nil, fmt.Errorf("layout has %d positions for %d bodies", len(layout), len(bodies))
	}

	parts := make([]sdf.SDF3, 0, len(bodies))
	for i, b := range bodies {
		var (
			s   sdf.SDF3
			err error
		)
		if b.Shape == geometry.ShapeSphere {
			s, err = sdf.Sphere3D(b.Radius)
		} else {
			s, err = sdf.Box3D(v3.Vec{X: b.Dimensions.X, Y: b.Dimensions.Y, Z: b.Dimensions.Z}, 0)
		}
		if err != nil {
			return nil, fmt.Errorf("body %s: %w", b.Name, err)
		}
		p := layout[i]
		parts = append(parts, sdf.Transform3D(s, sdf.Translate3d(v3.Vec{X: p.X, Y: p.Y, Z: p.Z})))
	}
	return sdf.Union3D(parts...), nil
}
