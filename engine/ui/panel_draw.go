package ui

import (
	"cmp"
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gg"
)

var (
	panelBackground = gg.RGBA2(0.06, 0.07, 0.09, 0.88)
	rowHighlight    = gg.RGBA2(1, 1, 1, 0.07)
	accent          = gg.RGB(0.33, 0.62, 0.98)
	textColor       = gg.RGB(0.93, 0.94, 0.96)
	dimTextColor    = gg.RGB(0.62, 0.65, 0.70)
	trackColor      = gg.RGB(0.22, 0.24, 0.28)
)

// gizmoAxis is one world axis projected onto the gizmo.
type gizmoAxis struct {
	label string
	color gg.RGBA
	// x and y are the screen direction of the axis, y pointing up.
	x, y float32
	// depth is positive when the axis points away from the viewer.
	depth float32
}

// projectGizmo returns the world axes in the camera frame of c2w, sorted back to front.
func projectGizmo(c2w mgl32.Mat4) []gizmoAxis {
	right := c2w.Col(0).Vec3()
	up := c2w.Col(1).Vec3()
	forward := c2w.Col(2).Vec3().Mul(-1)

	world := []struct {
		label string
		dir   mgl32.Vec3
		color gg.RGBA
	}{
		{"X", mgl32.Vec3{1, 0, 0}, gg.RGB(0.92, 0.30, 0.30)},
		{"Y", mgl32.Vec3{0, 1, 0}, gg.RGB(0.35, 0.85, 0.38)},
		{"Z", mgl32.Vec3{0, 0, 1}, gg.RGB(0.36, 0.55, 0.98)},
	}
	axes := make([]gizmoAxis, 0, len(world))
	for _, w := range world {
		axes = append(axes, gizmoAxis{
			label: w.label,
			color: w.color,
			x:     w.dir.Dot(right),
			y:     w.dir.Dot(up),
			depth: w.dir.Dot(forward),
		})
	}
	slices.SortStableFunc(axes, func(a, b gizmoAxis) int {
		return cmp.Compare(b.depth, a.depth)
	})
	return axes
}

// drawPanel rasterizes the panel into panelDC. Caller must hold the mutex.
func (p *panel) drawPanel() error {
	dc := p.panelDC
	w, h := float64(dc.Width()), float64(dc.Height())

	dc.ClearWithColor(gg.Transparent)
	dc.SetColor(panelBackground)
	dc.DrawRoundedRectangle(0, 0, w, h, 6)
	if err := dc.Fill(); err != nil {
		return errors.Wrap(err, "fill panel background")
	}
	if p.focused {
		dc.SetColor(accent)
		dc.SetLineWidth(1.5)
		dc.DrawRoundedRectangle(0.75, 0.75, w-1.5, h-1.5, 6)
		if err := dc.Stroke(); err != nil {
			return errors.Wrap(err, "stroke panel focus border")
		}
	}

	dc.SetFont(p.face)
	dc.SetColor(textColor)
	dc.DrawStringAnchored(p.title, panelPadding, panelPadding+titleHeight/2, 0, 0.5)

	for i := range p.controls {
		if err := p.drawRow(i, float64(panelPadding+titleHeight+i*rowHeight)); err != nil {
			return errors.Wrapf(err, "draw row %q", p.controls[i].label)
		}
	}

	y := float64(panelPadding + titleHeight + len(p.controls)*rowHeight + sectionGap)
	dc.SetColor(dimTextColor)
	for _, line := range helpLines {
		dc.DrawStringAnchored(line, panelPadding, y+helpHeight/2, 0, 0.5)
		y += helpHeight
	}
	return nil
}

// drawRow draws control i with its top edge at y. Caller must hold the mutex.
func (p *panel) drawRow(i int, y float64) error {
	dc := p.panelDC
	c := &p.controls[i]
	mid := y + rowHeight/2

	if i == p.hovered || (p.focused && i == p.selected) {
		dc.SetColor(rowHighlight)
		dc.DrawRectangle(panelPadding/2, y, panelWidth-panelPadding, rowHeight)
		if err := dc.Fill(); err != nil {
			return err
		}
	}

	if c.isCheckbox() {
		dc.SetColor(trackColor)
		dc.DrawRoundedRectangle(panelPadding, mid-7, 14, 14, 3)
		if err := dc.Fill(); err != nil {
			return err
		}
		if *c.toggle(&p.shown) {
			dc.SetColor(accent)
			dc.DrawRoundedRectangle(panelPadding+3, mid-4, 8, 8, 2)
			if err := dc.Fill(); err != nil {
				return err
			}
		}
		dc.SetColor(textColor)
		dc.DrawStringAnchored(c.label, panelPadding+22, mid, 0, 0.5)
		return nil
	}

	dc.SetColor(textColor)
	dc.DrawStringAnchored(c.label, panelPadding, mid, 0, 0.5)

	dc.SetColor(trackColor)
	dc.DrawRoundedRectangle(trackX, mid-2, trackWidth, 4, 2)
	if err := dc.Fill(); err != nil {
		return err
	}
	knob := trackX + float64(c.fraction(&p.shown))*trackWidth
	dc.SetColor(accent)
	dc.DrawRoundedRectangle(trackX, mid-2, knob-trackX, 4, 2)
	if err := dc.Fill(); err != nil {
		return err
	}
	dc.DrawCircle(knob, mid, 6)
	if err := dc.Fill(); err != nil {
		return err
	}

	dc.SetColor(textColor)
	dc.DrawStringAnchored(c.format(&p.shown), trackX+trackWidth+8, mid, 0, 0.5)
	return nil
}

// drawGizmo rasterizes the mini axis gizmo into gizmoDC. Caller must hold the mutex.
func (p *panel) drawGizmo() error {
	dc := p.gizmoDC
	size := float64(p.gizmo)
	center := size / 2
	radius := size * 0.34

	dc.ClearWithColor(gg.Transparent)
	dc.SetColor(gg.RGBA2(0.06, 0.07, 0.09, 0.6))
	dc.DrawCircle(center, center, size/2-1)
	if err := dc.Fill(); err != nil {
		return errors.Wrap(err, "fill gizmo background")
	}

	dc.SetFont(p.face)
	for _, a := range projectGizmo(p.c2w) {
		x := center + float64(a.x)*radius
		y := center - float64(a.y)*radius

		dc.SetColor(a.color)
		dc.SetLineWidth(2.5)
		dc.DrawLine(center, center, x, y)
		if err := dc.Stroke(); err != nil {
			return errors.Wrapf(err, "stroke gizmo axis %s", a.label)
		}
		dc.DrawCircle(x, y, 3.5)
		if err := dc.Fill(); err != nil {
			return errors.Wrapf(err, "fill gizmo tip %s", a.label)
		}
		dc.DrawStringAnchored(a.label, center+float64(a.x)*(radius+10), center-float64(a.y)*(radius+10), 0.5, 0.5)
	}
	return nil
}
