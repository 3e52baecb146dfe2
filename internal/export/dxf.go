package export

import (
	"fmt"
	"math"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"
	"github.com/yofu/dxf/drawing"

	"github.com/junekyoopark/ReUSV/internal/geometry"
	"github.com/junekyoopark/ReUSV/internal/trace"
)

// DXF layer names.
const (
	LayerContainer = "CONTAINER"
	LayerInitial   = "INITIAL"
	LayerFinal     = "FINAL"
)

// ringSegments is the number of line segments used for vertical circles.
const ringSegments = 32

// ExportDXF writes a 3D wireframe of the container and the bodies. The
// initial layout goes on layer INITIAL and, when the run succeeded, the
// final layout on layer FINAL.
func ExportDXF(path string, r *trace.Report) error {
	if err := checkReport(r); err != nil {
		return err
	}

	d := dxf.NewDrawing()
	layers := []struct {
		name  string
		color color.ColorNumber
	}{
		{LayerContainer, dxf.DefaultColor},
		{LayerInitial, color.Red},
		{LayerFinal, color.Blue},
	}
	for _, l := range layers {
		if _, err := d.AddLayer(l.name, l.color, dxf.DefaultLineType, false); err != nil {
			return fmt.Errorf("add layer %s: %w", l.name, err)
		}
	}

	if err := d.ChangeLayer(LayerContainer); err != nil {
		return err
	}
	if err := drawContainerWire(d, r.Container); err != nil {
		return fmt.Errorf("draw container: %w", err)
	}

	if err := d.ChangeLayer(LayerInitial); err != nil {
		return err
	}
	if err := drawBodiesWire(d, r.Bodies, r.Initial); err != nil {
		return fmt.Errorf("draw initial layout: %w", err)
	}

	if r.Final != nil {
		if err := d.ChangeLayer(LayerFinal); err != nil {
			return err
		}
		if err := drawBodiesWire(d, r.Bodies, r.Final); err != nil {
			return fmt.Errorf("draw final layout: %w", err)
		}
	}

	if err := d.SaveAs(path); err != nil {
		return fmt.Errorf("save dxf: %w", err)
	}
	return nil
}

func drawContainerWire(d *drawing.Drawing, c geometry.Container) error {
	if c.Kind == geometry.ContainerSphere {
		return drawSphereWire(d, c.Center, c.Radius)
	}

	bottom, top := c.Center.Z-c.Height/2, c.Center.Z+c.Height/2
	for _, z := range []float64{bottom, top} {
		if _, err := d.Circle(c.Center.X, c.Center.Y, z, c.Radius); err != nil {
			return err
		}
	}
	for k := 0; k < 4; k++ {
		a := float64(k) * math.Pi / 2
		x := c.Center.X + c.Radius*math.Cos(a)
		y := c.Center.Y + c.Radius*math.Sin(a)
		if _, err := d.Line(x, y, bottom, x, y, top); err != nil {
			return err
		}
	}
	return nil
}

func drawBodiesWire(d *drawing.Drawing, bodies []geometry.Body, layout []geometry.Vec3) error {
	for i, pos := range layout {
		if i >= len(bodies) {
			break
		}
		var err error
		if bodies[i].Shape == geometry.ShapeSphere {
			err = drawSphereWire(d, pos, bodies[i].Radius)
		} else {
			err = drawBoxWire(d, pos, bodies[i].HalfExtents())
		}
		if err != nil {
			return fmt.Errorf("body %s: %w", bodies[i].Name, err)
		}
	}
	return nil
}

// drawSphereWire draws the equator as a circle and two meridians as
// segmented rings in the XZ and YZ planes.
func drawSphereWire(d *drawing.Drawing, c geometry.Vec3, radius float64) error {
	if _, err := d.Circle(c.X, c.Y, c.Z, radius); err != nil {
		return err
	}
	for _, plane := range [][2]int{{0, 2}, {1, 2}} {
		prev := ringPoint(c, radius, plane, 0)
		for k := 1; k <= ringSegments; k++ {
			next := ringPoint(c, radius, plane, 2*math.Pi*float64(k)/ringSegments)
			if _, err := d.Line(prev.X, prev.Y, prev.Z, next.X, next.Y, next.Z); err != nil {
				return err
			}
			prev = next
		}
	}
	return nil
}

func ringPoint(c geometry.Vec3, radius float64, plane [2]int, angle float64) geometry.Vec3 {
	offset := [3]float64{}
	offset[plane[0]] = radius * math.Cos(angle)
	offset[plane[1]] = radius * math.Sin(angle)
	return c.Add(geometry.V3(offset[0], offset[1], offset[2]))
}

// drawBoxWire draws the twelve edges of an axis-aligned box.
func drawBoxWire(d *drawing.Drawing, c, half geometry.Vec3) error {
	corner := func(i int) geometry.Vec3 {
		s := geometry.V3(-1, -1, -1)
		if i&1 != 0 {
			s.X = 1
		}
		if i&2 != 0 {
			s.Y = 1
		}
		if i&4 != 0 {
			s.Z = 1
		}
		return c.Add(geometry.V3(s.X*half.X, s.Y*half.Y, s.Z*half.Z))
	}
	for i := 0; i < 8; i++ {
		for _, bit := range []int{1, 2, 4} {
			j := i | bit
			if j == i {
				continue
			}
			a, b := corner(i), corner(j)
			if _, err := d.Line(a.X, a.Y, a.Z, b.X, b.Y, b.Z); err != nil {
				return err
			}
		}
	}
	return nil
}
