package ui

import (
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-inspect/common"
	"github.com/Carmen-Shannon/oxy-inspect/engine/scene"
)

// control is one row of the panel: a checkbox when toggle is set, a slider otherwise.
type control struct {
	label  string
	toggle func(s *scene.GridSettings) *bool

	get     func(s *scene.GridSettings) float32
	set     func(s *scene.GridSettings, v float32)
	lo, hi  float32
	integer bool
}

func (c *control) isCheckbox() bool {
	return c.toggle != nil
}

// fraction returns the slider position of the current value in [0, 1].
func (c *control) fraction(s *scene.GridSettings) float32 {
	if c.hi <= c.lo {
		return 0
	}
	return common.Clamp((c.get(s)-c.lo)/(c.hi-c.lo), 0, 1)
}

// setFraction moves the slider to t in [0, 1].
func (c *control) setFraction(s *scene.GridSettings, t float32) {
	c.setValue(s, c.lo+common.Clamp(t, 0, 1)*(c.hi-c.lo))
}

func (c *control) setValue(s *scene.GridSettings, v float32) {
	v = common.Clamp(v, c.lo, c.hi)
	if c.integer {
		v = float32(math.Round(float64(v)))
	}
	c.set(s, v)
}

// nudge moves the slider by n increments; integer sliders step by one, others by 1% of the range.
func (c *control) nudge(s *scene.GridSettings, n float32) {
	step := (c.hi - c.lo) / 100
	if c.integer {
		step = 1
	}
	c.setValue(s, c.get(s)+n*step)
}

func (c *control) format(s *scene.GridSettings) string {
	if c.integer {
		return fmt.Sprintf("%d", int(c.get(s)))
	}
	return fmt.Sprintf("%.2f", c.get(s))
}

// gridControls returns the panel rows in display order.
func gridControls() []control {
	return []control{
		{label: "Show grid", toggle: func(s *scene.GridSettings) *bool { return &s.ShowGrid }},
		{label: "Show axes", toggle: func(s *scene.GridSettings) *bool { return &s.ShowAxes }},
		{label: "Show origin", toggle: func(s *scene.GridSettings) *bool { return &s.ShowOrigin }},
		{
			label: "Grid extent", lo: 2, hi: 100,
			get: func(s *scene.GridSettings) float32 { return s.Extent },
			set: func(s *scene.GridSettings, v float32) { s.Extent = v },
		},
		{
			label: "Grid step", lo: 0.1, hi: 5,
			get: func(s *scene.GridSettings) float32 { return s.Step },
			set: func(s *scene.GridSettings, v float32) { s.Step = v },
		},
		{
			label: "Major every", lo: 1, hi: 20, integer: true,
			get: func(s *scene.GridSettings) float32 { return float32(s.MajorEvery) },
			set: func(s *scene.GridSettings, v float32) { s.MajorEvery = int(v) },
		},
		{
			label: "Axis length", lo: 0.5, hi: 20,
			get: func(s *scene.GridSettings) float32 { return s.AxisLength },
			set: func(s *scene.GridSettings, v float32) { s.AxisLength = v },
		},
		{
			label: "Origin scale", lo: 0.05, hi: 2,
			get: func(s *scene.GridSettings) float32 { return s.OriginScale },
			set: func(s *scene.GridSettings, v float32) { s.OriginScale = v },
		},
		{label: "Fly mode", toggle: func(s *scene.GridSettings) *bool { return &s.FlyMode }},
	}
}

var helpLines = []string{
	"Orbit: Alt/Space + LMB rotate, MMB pan, wheel zoom",
	"Fly: RMB look + WASD move, Q/E down/up",
}
