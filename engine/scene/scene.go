package scene

import (
	"encoding/binary"
	"math"

	"github.com/Carmen-Shannon/oxy-inspect/common"
	"github.com/Carmen-Shannon/oxy-inspect/engine/gfx"
	"github.com/go-gl/mathgl/mgl32"
)

// GridPushSize is the size in bytes of the marshaled GridPush block.
const GridPushSize = 96

// Smallest values the shader receives.
const (
	MinStep        float32 = 0.001
	MinExtent      float32 = 0.1
	MinAxisLength  float32 = 0.001
	MinOriginScale float32 = 0.001
)

// GridSettings are the user editable grid parameters. Changing Extent requires a geometry
// rebuild; every other field only changes the per-frame push data.
type GridSettings struct {
	ShowGrid   bool
	ShowAxes   bool
	ShowOrigin bool

	// Step is the spacing of minor grid lines in world units.
	Step float32
	// Extent is the half size of the ground quad.
	Extent float32
	// MajorEvery is how many minor cells make up one major cell.
	MajorEvery int
	// AxisLength is the length of the drawn X and Z axes.
	AxisLength float32
	// OriginScale is the radius of the origin marker.
	OriginScale float32

	// FlyMode selects the fly camera instead of the orbit camera.
	FlyMode bool
}

// DefaultGridSettings returns the settings the viewer starts with.
func DefaultGridSettings() GridSettings {
	return GridSettings{
		ShowGrid:    true,
		ShowAxes:    true,
		ShowOrigin:  true,
		Step:        1.0,
		Extent:      10.0,
		MajorEvery:  10,
		AxisLength:  5.0,
		OriginScale: 0.25,
	}
}

// Sanitize replaces NaN or infinite scalars with their defaults and raises every scalar to its
// floor, so settings supplied by callers compare equal from frame to frame.
func (g *GridSettings) Sanitize() {
	def := DefaultGridSettings()
	g.Step = common.AtLeast(common.FiniteOr(g.Step, def.Step), MinStep)
	g.Extent = common.AtLeast(common.FiniteOr(g.Extent, def.Extent), MinExtent)
	g.AxisLength = common.AtLeast(common.FiniteOr(g.AxisLength, def.AxisLength), MinAxisLength)
	g.OriginScale = common.AtLeast(common.FiniteOr(g.OriginScale, def.OriginScale), MinOriginScale)
	g.MajorEvery = max(g.MajorEvery, 1)
}

// AnyVisible reports whether at least one of the grid layers is enabled.
func (g *GridSettings) AnyVisible() bool {
	return g.ShowGrid || g.ShowAxes || g.ShowOrigin
}

// GridPush is the data block consumed by the grid shader each draw.
type GridPush struct {
	MVP mgl32.Mat4
	// Grid is (step, major step, extent, axis length).
	Grid mgl32.Vec4
	// Toggles is (origin scale, grid, axes, origin) with the flags as 1 or 0.
	Toggles mgl32.Vec4
}

// MakeGridPush converts settings into shader constants. Every scalar is clamped so the shader
// never divides by zero.
//
// Parameters:
//   - settings: the current grid settings
//   - mvp: the view-projection matrix; the ground quad has an identity model transform
//
// Returns:
//   - GridPush: the push block
func MakeGridPush(settings *GridSettings, mvp mgl32.Mat4) GridPush {
	step := common.AtLeast(settings.Step, MinStep)
	extent := common.AtLeast(settings.Extent, MinExtent)
	major := float32(max(settings.MajorEvery, 1))
	return GridPush{
		MVP:  mvp,
		Grid: mgl32.Vec4{step, step * major, extent, common.AtLeast(settings.AxisLength, MinAxisLength)},
		Toggles: mgl32.Vec4{
			common.AtLeast(settings.OriginScale, MinOriginScale),
			common.BoolToFloat(settings.ShowGrid),
			common.BoolToFloat(settings.ShowAxes),
			common.BoolToFloat(settings.ShowOrigin),
		},
	}
}

// Marshal encodes the block little endian: the matrix column major, then Grid, then Toggles.
func (p GridPush) Marshal() []byte {
	out := make([]byte, GridPushSize)
	off := 0
	put := func(f float32) {
		binary.LittleEndian.PutUint32(out[off:], math.Float32bits(f))
		off += 4
	}
	for _, f := range p.MVP {
		put(f)
	}
	for _, f := range p.Grid {
		put(f)
	}
	for _, f := range p.Toggles {
		put(f)
	}
	return out
}

// BuildGroundPlane returns a white quad on the y = 0 plane spanning plus or minus extent on X
// and Z, wound counter clockwise seen from above.
//
// Parameters:
//   - extent: the half size of the quad, raised to at least MinExtent; NaN and infinity give MinExtent
//
// Returns:
//   - []gfx.Vertex: the four corners
//   - []uint32: two triangles
func BuildGroundPlane(extent float32) ([]gfx.Vertex, []uint32) {
	e := common.AtLeast(extent, MinExtent)
	white := [4]float32{1, 1, 1, 1}
	vertices := []gfx.Vertex{
		{Position: [3]float32{-e, 0, -e}, Color: white},
		{Position: [3]float32{e, 0, -e}, Color: white},
		{Position: [3]float32{e, 0, e}, Color: white},
		{Position: [3]float32{-e, 0, e}, Color: white},
	}
	return vertices, []uint32{0, 1, 2, 0, 2, 3}
}
