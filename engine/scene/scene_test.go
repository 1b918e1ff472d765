package scene

import (
	"encoding/binary"
	"math"
	"slices"
	"testing"
	"testing/quick"

	"github.com/Carmen-Shannon/oxy-inspect/engine/gfx"
	"github.com/Carmen-Shannon/oxy-inspect/engine/gfx/gfxtest"
	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
)

func TestDefaultGridSettings(t *testing.T) {
	s := DefaultGridSettings()
	if !s.ShowGrid || !s.ShowAxes || !s.ShowOrigin || s.FlyMode {
		t.Errorf("flags = %+v", s)
	}
	if s.Step != 1 || s.Extent != 10 || s.MajorEvery != 10 || s.AxisLength != 5 || s.OriginScale != 0.25 {
		t.Errorf("values = %+v", s)
	}
}

func TestMakeGridPushClamps(t *testing.T) {
	f := func(step, extent, axis, origin float32, major int, g, a, o bool) bool {
		step = float32(math.Mod(float64(step), 100))
		major %= 1000
		s := GridSettings{
			ShowGrid: g, ShowAxes: a, ShowOrigin: o,
			Step: step, Extent: extent, MajorEvery: major, AxisLength: axis, OriginScale: origin,
		}
		p := MakeGridPush(&s, mgl32.Ident4())
		if p.Grid[0] < 0.001 || p.Grid[2] < 0.1 || p.Grid[3] < 0.001 || p.Toggles[0] < 0.001 {
			return false
		}
		if p.Grid[1] < p.Grid[0] {
			return false
		}
		for _, v := range append(p.Grid[:], p.Toggles[:]...) {
			if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
				return false
			}
		}
		for i, flag := range []bool{g, a, o} {
			want := float32(0)
			if flag {
				want = 1
			}
			if p.Toggles[i+1] != want {
				return false
			}
		}
		return true
	}
	if err := quick.Check(f, &quick.Config{MaxCount: 2000}); err != nil {
		t.Error(err)
	}
}

func TestMakeGridPushValues(t *testing.T) {
	s := DefaultGridSettings()
	s.ShowAxes = false
	vp := mgl32.Translate3D(1, 2, 3)
	p := MakeGridPush(&s, vp)
	if p.MVP != vp {
		t.Error("mvp not passed through")
	}
	if want := (mgl32.Vec4{1, 10, 10, 5}); p.Grid != want {
		t.Errorf("grid = %v, want %v", p.Grid, want)
	}
	if want := (mgl32.Vec4{0.25, 1, 0, 1}); p.Toggles != want {
		t.Errorf("toggles = %v, want %v", p.Toggles, want)
	}

	s = GridSettings{Step: 0, Extent: -4, MajorEvery: 0, AxisLength: 0, OriginScale: -1}
	p = MakeGridPush(&s, mgl32.Ident4())
	if want := (mgl32.Vec4{0.001, 0.001, 0.1, 0.001}); p.Grid != want {
		t.Errorf("clamped grid = %v, want %v", p.Grid, want)
	}
	if p.Toggles[0] != 0.001 {
		t.Errorf("clamped origin scale = %v", p.Toggles[0])
	}

	for _, bad := range []float32{float32(math.NaN()), float32(math.Inf(1)), float32(math.Inf(-1))} {
		s = GridSettings{Step: bad, Extent: bad, MajorEvery: 1, AxisLength: bad, OriginScale: bad}
		p = MakeGridPush(&s, mgl32.Ident4())
		if want := (mgl32.Vec4{0.001, 0.001, 0.1, 0.001}); p.Grid != want {
			t.Errorf("%v: grid = %v, want %v", bad, p.Grid, want)
		}
		if p.Toggles[0] != 0.001 {
			t.Errorf("%v: origin scale = %v", bad, p.Toggles[0])
		}
	}
}

func TestGridSettingsSanitize(t *testing.T) {
	nan := float32(math.NaN())
	s := GridSettings{Step: nan, Extent: float32(math.Inf(1)), MajorEvery: -2, AxisLength: 0, OriginScale: nan}
	s.Sanitize()
	want := GridSettings{Step: 1, Extent: 10, MajorEvery: 1, AxisLength: MinAxisLength, OriginScale: 0.25}
	if s != want {
		t.Errorf("Sanitize = %+v, want %+v", s, want)
	}

	kept := DefaultGridSettings()
	kept.Extent = 42
	s = kept
	s.Sanitize()
	if s != kept {
		t.Errorf("Sanitize changed valid settings: %+v", s)
	}
}

func TestGridPushMarshal(t *testing.T) {
	p := GridPush{
		MVP:     mgl32.Mat4{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15},
		Grid:    mgl32.Vec4{16, 17, 18, 19},
		Toggles: mgl32.Vec4{20, 21, 22, 23},
	}
	b := p.Marshal()
	if len(b) != GridPushSize {
		t.Fatalf("len = %d, want %d", len(b), GridPushSize)
	}
	for i := 0; i < 24; i++ {
		got := math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
		if got != float32(i) {
			t.Fatalf("float %d = %v", i, got)
		}
	}
}

func TestBuildGroundPlane(t *testing.T) {
	tests := []struct {
		extent float32
		want   float32
	}{
		{10, 10},
		{0.05, 0.1},
		{-3, 0.1},
		{float32(math.NaN()), 0.1},
		{float32(math.Inf(1)), 0.1},
	}
	for _, tt := range tests {
		v, idx := BuildGroundPlane(tt.extent)
		if len(v) != 4 || !slices.Equal(idx, []uint32{0, 1, 2, 0, 2, 3}) {
			t.Fatalf("extent %v: %d vertices, indices %v", tt.extent, len(v), idx)
		}
		for _, vert := range v {
			if vert.Position[1] != 0 || vert.Color != [4]float32{1, 1, 1, 1} {
				t.Errorf("vertex %+v", vert)
			}
			if math.Abs(float64(vert.Position[0])) != float64(tt.want) || math.Abs(float64(vert.Position[2])) != float64(tt.want) {
				t.Errorf("extent %v: corner %v, want +-%v", tt.extent, vert.Position, tt.want)
			}
		}
	}
}

func TestGridRebuildDrainsFirst(t *testing.T) {
	dev := gfxtest.NewDevice()
	g := NewGrid(dev, []byte("src"))
	if err := g.Rebuild(10); err != nil {
		t.Fatal(err)
	}
	first := g.Mesh()

	dev.Log = nil
	rebuilt, err := g.Sync(&GridSettings{Extent: 25})
	if err != nil || !rebuilt {
		t.Fatalf("Sync = %v, %v", rebuilt, err)
	}
	if want := []string{"idle", "upload 6"}; !slices.Equal(dev.Log, want) {
		t.Errorf("log = %v, want %v", dev.Log, want)
	}
	if !first.(*gfxtest.Mesh).Released {
		t.Error("previous mesh not released")
	}
	if g.Extent() != 25 {
		t.Errorf("Extent() = %v", g.Extent())
	}

	dev.Log = nil
	if rebuilt, _ := g.Sync(&GridSettings{Extent: 25}); rebuilt || len(dev.Log) != 0 {
		t.Errorf("unchanged extent rebuilt the mesh: %v", dev.Log)
	}

	nan := &GridSettings{Extent: float32(math.NaN())}
	if rebuilt, err := g.Sync(nan); err != nil || !rebuilt {
		t.Fatalf("Sync(NaN) = %v, %v", rebuilt, err)
	}
	if g.Extent() != MinExtent {
		t.Errorf("Extent() after NaN = %v, want %v", g.Extent(), MinExtent)
	}
	dev.Log = nil
	if rebuilt, _ := g.Sync(nan); rebuilt || len(dev.Log) != 0 {
		t.Errorf("NaN extent rebuilt the mesh again: %v", dev.Log)
	}

	g.Release()
	if dev.Live() != 0 {
		t.Errorf("%d handles live after Release", dev.Live())
	}
}

func TestGridUploadFailureKeepsMesh(t *testing.T) {
	dev := gfxtest.NewDevice()
	g := NewGrid(dev, nil)
	if err := g.Rebuild(10); err != nil {
		t.Fatal(err)
	}
	mesh := g.Mesh()
	dev.UploadErr = errors.New("out of memory")
	if err := g.Rebuild(20); err == nil {
		t.Fatal("Rebuild succeeded with a failing upload")
	}
	if g.Mesh() != mesh || g.Extent() != 10 {
		t.Error("failed rebuild replaced the mesh")
	}
}

func TestGridPipelineRebuild(t *testing.T) {
	dev := gfxtest.NewDevice()
	g := NewGrid(dev, []byte("wgsl"))
	if err := g.RebuildPipeline(1, 2); err != nil {
		t.Fatal(err)
	}
	first := g.Pipeline().(*gfxtest.Pipeline)
	if first.Desc.PipelineKey() != "ground_grid" || !first.Desc.BlendEnabled() {
		t.Errorf("pipeline desc = %+v", first.Desc)
	}
	if pc := first.Desc.PushConstants(); pc.Size != GridPushSize || pc.Stages != gfx.StageVertex|gfx.StageFragment {
		t.Errorf("push constants = %+v", pc)
	}
	if err := g.RebuildPipeline(3, 2); err != nil {
		t.Fatal(err)
	}
	if !first.Released {
		t.Error("old pipeline not released")
	}
	if g.Pipeline().(*gfxtest.Pipeline).ColorFormat != 3 {
		t.Error("new pipeline uses the old color format")
	}
}

type layouts struct {
	color map[uint32]gfx.ImageLayout
	depth gfx.ImageLayout
}

func (l *layouts) ImageLayout(i uint32) gfx.ImageLayout       { return l.color[i] }
func (l *layouts) SetImageLayout(i uint32, v gfx.ImageLayout) { l.color[i] = v }
func (l *layouts) DepthLayout() gfx.ImageLayout               { return l.depth }
func (l *layouts) SetDepthLayout(v gfx.ImageLayout)           { l.depth = v }

type fakeOverlay struct {
	o   *gfxtest.Overlay
	err error
}

func (f *fakeOverlay) Render(cmd gfx.CommandBuffer, extent gfx.Extent2D) error {
	if f.err != nil {
		return f.err
	}
	cmd.DrawOverlay(f.o, gfx.Rect{Width: extent.Width, Height: extent.Height})
	return nil
}

type passFixture struct {
	dev     *gfxtest.Device
	cmd     *gfxtest.CommandBuffer
	grid    Grid
	target  Target
	layouts *layouts
}

func newPassFixture(t *testing.T) *passFixture {
	t.Helper()
	dev := gfxtest.NewDevice()
	surf := gfxtest.NewSurface(dev, 1)
	sc, err := surf.CreateSwapchain(gfx.Extent2D{Width: 800, Height: 600})
	if err != nil {
		t.Fatal(err)
	}
	g := NewGrid(dev, []byte("wgsl"))
	if err := g.Rebuild(10); err != nil {
		t.Fatal(err)
	}
	if err := g.RebuildPipeline(sc.ColorFormat, sc.DepthFormat); err != nil {
		t.Fatal(err)
	}
	c, _ := dev.CreateCommandBuffer()
	cmd := c.(*gfxtest.CommandBuffer)
	if err := cmd.Begin(); err != nil {
		t.Fatal(err)
	}
	l := &layouts{color: map[uint32]gfx.ImageLayout{}}
	return &passFixture{
		dev:  dev,
		cmd:  cmd,
		grid: g,
		target: Target{
			Image:     sc.Images[0],
			View:      sc.Views[0],
			Depth:     sc.Depth,
			DepthView: sc.DepthView,
			Extent:    sc.Extent,
			Colors:    l,
			Depths:    l,
		},
		layouts: l,
	}
}

func TestRecordFirstFrame(t *testing.T) {
	f := newPassFixture(t)
	s := DefaultGridSettings()
	if err := NewRenderPass().Record(f.cmd, f.target, f.grid, &s, mgl32.Ident4(), nil); err != nil {
		t.Fatal(err)
	}
	want := []string{
		"barrier img0 Undefined->ColorAttachment",
		"barrier depth2 Undefined->DepthAttachment",
		"begin view1 800x600",
		"viewport 800x600",
		"scissor 800x600",
		"pipeline pipe5",
		"push 96",
		"mesh mesh4",
		"draw 6",
		"end",
		"barrier img0 ColorAttachment->PresentSrc",
	}
	if !slices.Equal(f.cmd.Ops, want) {
		t.Errorf("ops =\n%q\nwant\n%q", f.cmd.Ops, want)
	}
	if f.layouts.color[0] != gfx.LayoutPresentSrc || f.layouts.depth != gfx.LayoutDepthAttachment {
		t.Errorf("trackers = %v / %v", f.layouts.color[0], f.layouts.depth)
	}
	want0 := MakeGridPush(&s, mgl32.Ident4()).Marshal()
	if !slices.Equal(f.cmd.Pushed, want0) {
		t.Error("pushed bytes differ from MakeGridPush")
	}
}

func TestRecordSecondFrameUsesTrackedLayouts(t *testing.T) {
	f := newPassFixture(t)
	s := DefaultGridSettings()
	pass := NewRenderPass()
	_ = pass.Record(f.cmd, f.target, f.grid, &s, mgl32.Ident4(), nil)
	f.cmd.Ops = nil
	_ = pass.Record(f.cmd, f.target, f.grid, &s, mgl32.Ident4(), nil)

	if f.cmd.Ops[0] != "barrier img0 PresentSrc->ColorAttachment" {
		t.Errorf("first op = %q", f.cmd.Ops[0])
	}
	for _, op := range f.cmd.Ops {
		if op == "barrier depth2 DepthAttachment->DepthAttachment" || op == "barrier depth2 Undefined->DepthAttachment" {
			t.Errorf("redundant depth barrier %q", op)
		}
	}
}

func TestRecordSkipsGridDraw(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*GridSettings)
		empty  bool
	}{
		{"all layers hidden", func(s *GridSettings) { s.ShowGrid, s.ShowAxes, s.ShowOrigin = false, false, false }, false},
		{"empty mesh", func(*GridSettings) {}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPassFixture(t)
			if tt.empty {
				m, _ := f.dev.UploadMesh(nil, nil)
				f.grid.(*grid).mesh = m
			}
			s := DefaultGridSettings()
			tt.mutate(&s)
			_ = NewRenderPass().Record(f.cmd, f.target, f.grid, &s, mgl32.Ident4(), nil)
			for _, op := range f.cmd.Ops {
				if op == "draw 6" || op == "draw 0" || op == "push 96" {
					t.Errorf("unexpected %q", op)
				}
			}
			if f.cmd.Ops[len(f.cmd.Ops)-1] != "barrier img0 ColorAttachment->PresentSrc" {
				t.Error("image not returned to PresentSrc")
			}
		})
	}
}

func TestRecordShowAxesOnlyStillDraws(t *testing.T) {
	f := newPassFixture(t)
	s := GridSettings{ShowAxes: true, Extent: 10}
	_ = NewRenderPass().Record(f.cmd, f.target, f.grid, &s, mgl32.Ident4(), nil)
	if !slices.Contains(f.cmd.Ops, "draw 6") {
		t.Errorf("ops = %q, want a draw", f.cmd.Ops)
	}
}

func TestRecordOverlayAfterGrid(t *testing.T) {
	f := newPassFixture(t)
	o, _ := f.dev.CreateOverlay()
	s := DefaultGridSettings()
	err := NewRenderPass().Record(f.cmd, f.target, f.grid, &s, mgl32.Ident4(), &fakeOverlay{o: o.(*gfxtest.Overlay)})
	if err != nil {
		t.Fatal(err)
	}
	draw := slices.Index(f.cmd.Ops, "draw 6")
	ov := slices.Index(f.cmd.Ops, "overlay overlay7")
	end := slices.Index(f.cmd.Ops, "end")
	if !(draw >= 0 && draw < ov && ov < end) {
		t.Errorf("ops order = %q", f.cmd.Ops)
	}
}

func TestRecordOverlayErrorStillFinishesPass(t *testing.T) {
	f := newPassFixture(t)
	s := DefaultGridSettings()
	boom := errors.New("boom")
	err := NewRenderPass().Record(f.cmd, f.target, f.grid, &s, mgl32.Ident4(), &fakeOverlay{err: boom})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if f.layouts.color[0] != gfx.LayoutPresentSrc {
		t.Error("image not returned to PresentSrc")
	}
}
