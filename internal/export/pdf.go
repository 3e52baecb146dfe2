package export

import (
	"fmt"
	"io"
	"math"

	"github.com/go-pdf/fpdf"

	"github.com/junekyoopark/ReUSV/internal/geometry"
	"github.com/junekyoopark/ReUSV/internal/trace"
)

type rgb struct {
	R, G, B int
}

var (
	initialColor   = rgb{R: 220, G: 40, B: 40}
	finalColor     = rgb{R: 30, G: 90, B: 220}
	containerColor = rgb{R: 120, G: 120, B: 120}
	plotColor      = rgb{R: 0, G: 0, B: 0}
)

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	panelGap     = 8.0
	panelTop     = marginTop + headerHeight + 14.0
	titleHeight  = 6.0
)

// panel is a rectangular drawing area on the page.
type panel struct {
	x, y, w, h float64
}

// viewport maps model coordinates (u, v) into a panel with a uniform scale.
// v grows upward on the page.
type viewport struct {
	panel
	minU, minV float64
	scale      float64
	offU, offV float64
}

func fitViewport(p panel, minU, maxU, minV, maxV float64) viewport {
	spanU := math.Max(maxU-minU, 1e-9)
	spanV := math.Max(maxV-minV, 1e-9)
	scale := math.Min(p.w/spanU, p.h/spanV)
	return viewport{
		panel: p,
		minU:  minU,
		minV:  minV,
		scale: scale,
		offU:  (p.w - spanU*scale) / 2,
		offV:  (p.h - spanV*scale) / 2,
	}
}

func (v viewport) point(u, w float64) (float64, float64) {
	px := v.x + v.offU + (u-v.minU)*v.scale
	py := v.y + v.h - v.offV - (w-v.minV)*v.scale
	return px, py
}

// projection names the two model axes a layout view shows.
type projection struct {
	title string
	u, v  int
}

var (
	topView  = projection{title: "Top view (XY)", u: 0, v: 1}
	sideView = projection{title: "Side view (XZ)", u: 0, v: 2}
)

// ExportPDF renders a one-page report: run statistics, the objective per
// iteration, and top and side projections of the initial (red) and final
// (blue) layouts inside the container.
func ExportPDF(path string, r *trace.Report) error {
	pdf, err := buildPDF(r)
	if err != nil {
		return err
	}
	return pdf.OutputFileAndClose(path)
}

// WritePDF renders the same report as ExportPDF to w.
func WritePDF(w io.Writer, r *trace.Report) error {
	pdf, err := buildPDF(r)
	if err != nil {
		return err
	}
	return pdf.Output(w)
}

func buildPDF(r *trace.Report) (*fpdf.Fpdf, error) {
	if err := checkReport(r); err != nil {
		return nil, err
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)
	pdf.AddPage()

	renderHeader(pdf, r)

	width := (pageWidth - marginLeft - marginRight - 2*panelGap) / 3
	height := pageHeight - panelTop - marginBottom - titleHeight
	panels := []panel{
		{x: marginLeft, y: panelTop + titleHeight, w: width, h: height},
		{x: marginLeft + width + panelGap, y: panelTop + titleHeight, w: width, h: height},
		{x: marginLeft + 2*(width+panelGap), y: panelTop + titleHeight, w: width, h: height},
	}

	renderConvergence(pdf, panels[0], r.Trace.Objectives())

	layouts := [][]geometry.Vec3{r.Initial}
	if r.Final != nil {
		layouts = append(layouts, r.Final)
	}
	b := layoutBounds(r, layouts...)
	renderLayout(pdf, panels[1], topView, r, b)
	renderLayout(pdf, panels[2], sideView, r, b)

	return pdf, pdf.Error()
}

func renderHeader(pdf *fpdf.Fpdf, r *trace.Report) {
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	title := fmt.Sprintf("Packing run %s", r.RunID)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, title, "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	stats := fmt.Sprintf("Outcome: %s | Bodies: %d | Container: %s R=%g H=%g | Separation: %s | Iterations: %d | Objective: %.6g",
		r.Outcome, len(r.Bodies), r.Container.Kind, r.Container.Radius, r.Container.Height, r.Mode, r.Iterations(), r.Objective)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 5, stats, "", 0, "L", false, 0, "")

	if r.Final == nil {
		pdf.SetXY(marginLeft, marginTop+headerHeight+6)
		pdf.SetTextColor(initialColor.R, initialColor.G, initialColor.B)
		pdf.CellFormat(pageWidth-marginLeft-marginRight, 5, "No final layout: the solve did not succeed.", "", 0, "L", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	}
}

func renderPanelTitle(pdf *fpdf.Fpdf, p panel, title string) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(p.x, p.y-titleHeight)
	pdf.CellFormat(p.w, titleHeight, title, "", 0, "L", false, 0, "")
}

// renderConvergence plots the objective against the iteration number.
func renderConvergence(pdf *fpdf.Fpdf, p panel, objectives []float64) {
	renderPanelTitle(pdf, p, "Objective per iteration")

	pdf.SetDrawColor(containerColor.R, containerColor.G, containerColor.B)
	pdf.SetLineWidth(0.2)
	pdf.Rect(p.x, p.y, p.w, p.h, "D")

	if len(objectives) == 0 {
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetXY(p.x, p.y+p.h/2)
		pdf.CellFormat(p.w, 5, "no iterations recorded", "", 0, "C", false, 0, "")
		return
	}

	lo, hi := objectives[0], objectives[0]
	for _, v := range objectives {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi-lo < 1e-12 {
		lo, hi = lo-1, hi+1
	}
	last := math.Max(float64(len(objectives)-1), 1)

	inner := panel{x: p.x + 4, y: p.y + 4, w: p.w - 8, h: p.h - 12}
	x := func(i int) float64 { return inner.x + float64(i)/last*inner.w }
	y := func(v float64) float64 { return inner.y + inner.h - (v-lo)/(hi-lo)*inner.h }

	pdf.SetDrawColor(plotColor.R, plotColor.G, plotColor.B)
	pdf.SetLineWidth(0.3)
	for i := 1; i < len(objectives); i++ {
		pdf.Line(x(i-1), y(objectives[i-1]), x(i), y(objectives[i]))
	}
	if len(objectives) == 1 {
		pdf.Circle(x(0), y(objectives[0]), 0.6, "F")
	}

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetTextColor(0, 0, 0)
	pdf.Text(inner.x, inner.y-0.5, fmt.Sprintf("max %.4g", hi))
	pdf.Text(inner.x, inner.y+inner.h+3, fmt.Sprintf("min %.4g", lo))
	pdf.Text(inner.x+inner.w-20, inner.y+inner.h+6, fmt.Sprintf("%d iterations", len(objectives)))
}

// renderLayout draws the container outline and the initial and final
// layouts projected onto the plane of proj.
func renderLayout(pdf *fpdf.Fpdf, p panel, proj projection, r *trace.Report, b bounds) {
	renderPanelTitle(pdf, p, proj.title)

	vp := fitViewport(p, b.min.Axis(proj.u), b.max.Axis(proj.u), b.min.Axis(proj.v), b.max.Axis(proj.v))

	pdf.SetLineWidth(0.4)
	pdf.SetDrawColor(containerColor.R, containerColor.G, containerColor.B)
	drawContainer(pdf, vp, proj, r.Container)

	pdf.SetLineWidth(0.3)
	pdf.SetDrawColor(initialColor.R, initialColor.G, initialColor.B)
	pdf.SetDashPattern([]float64{1, 1}, 0)
	drawBodies(pdf, vp, proj, r.Bodies, r.Initial)
	pdf.SetDashPattern([]float64{}, 0)

	if r.Final != nil {
		pdf.SetDrawColor(finalColor.R, finalColor.G, finalColor.B)
		drawBodies(pdf, vp, proj, r.Bodies, r.Final)
	}
}

func drawContainer(pdf *fpdf.Fpdf, vp viewport, proj projection, c geometry.Container) {
	cu, cv := vp.point(c.Center.Axis(proj.u), c.Center.Axis(proj.v))
	if c.Kind == geometry.ContainerSphere || proj.v != 2 {
		pdf.Circle(cu, cv, c.Radius*vp.scale, "D")
		return
	}
	x, y := vp.point(c.Center.Axis(proj.u)-c.Radius, c.Center.Z+c.Height/2)
	pdf.Rect(x, y, 2*c.Radius*vp.scale, c.Height*vp.scale, "D")
}

func drawBodies(pdf *fpdf.Fpdf, vp viewport, proj projection, bodies []geometry.Body, layout []geometry.Vec3) {
	for i, pos := range layout {
		if i >= len(bodies) {
			return
		}
		body := bodies[i]
		if body.Shape == geometry.ShapeSphere {
			cu, cv := vp.point(pos.Axis(proj.u), pos.Axis(proj.v))
			pdf.Circle(cu, cv, body.Radius*vp.scale, "D")
			continue
		}
		half := body.HalfExtents()
		hu, hv := half.Axis(proj.u), half.Axis(proj.v)
		x, y := vp.point(pos.Axis(proj.u)-hu, pos.Axis(proj.v)+hv)
		pdf.Rect(x, y, 2*hu*vp.scale, 2*hv*vp.scale, "D")
	}
}
