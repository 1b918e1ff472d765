package ui

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-inspect/common"
	"github.com/Carmen-Shannon/oxy-inspect/engine/gfx"
	"github.com/Carmen-Shannon/oxy-inspect/engine/scene"
	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/goregular"
)

// Panel layout in pixels, relative to the panel origin.
const (
	panelWidth   = 340
	panelPadding = 10
	titleHeight  = 26
	rowHeight    = 22
	labelWidth   = 120
	valueWidth   = 60
	helpHeight   = 18
	sectionGap   = 8

	trackX     = panelPadding + labelWidth
	trackWidth = panelWidth - trackX - valueWidth - panelPadding
)

type eventKind int

const (
	eventKey eventKind = iota
	eventButton
	eventCursor
	eventScroll
)

// event is a window event waiting for the next Update.
type event struct {
	kind    eventKind
	code    int
	pressed bool
	x, y    float64
}

// panel is the gg rasterized implementation of Controls.
type panel struct {
	mu *sync.Mutex

	factory  OverlayFactory
	title    string
	origin   [2]int
	fontSize float64
	gizmo    int
	visible  bool

	controls []control
	queue    []event

	cursorX, cursorY float64
	dragging         int
	captured         bool
	focused          bool
	selected         int

	wantsMouse    bool
	wantsKeyboard bool

	shown      scene.GridSettings
	hovered    int
	c2w        mgl32.Mat4
	panelDirty bool
	gizmoDirty bool

	font       *text.FontSource
	face       text.Face
	panelDC    *gg.Context
	gizmoDC    *gg.Context
	panelImage gfx.Overlay
	gizmoImage gfx.Overlay
	uploaded   bool
	minImages  int
	closed     bool
}

var _ Controls = &panel{}

// NewPanel creates the parameter panel and its overlays.
//
// Parameters:
//   - factory: creates the overlay images
//   - options: functional options to configure the panel
//
// Returns:
//   - Controls: the panel
//   - error: an error if the font or an overlay could not be created
func NewPanel(factory OverlayFactory, options ...PanelBuilderOption) (Controls, error) {
	p := &panel{
		mu:         &sync.Mutex{},
		factory:    factory,
		title:      "Grid Inspector",
		origin:     [2]int{10, 10},
		fontSize:   13,
		gizmo:      96,
		visible:    true,
		controls:   gridControls(),
		dragging:   -1,
		hovered:    -1,
		c2w:        mgl32.Ident4(),
		panelDirty: true,
		gizmoDirty: true,
	}
	for _, opt := range options {
		opt(p)
	}

	font, err := text.NewFontSource(goregular.TTF)
	if err != nil {
		return nil, errors.Wrap(err, "load panel font")
	}
	p.font = font
	p.face = font.Face(p.fontSize)

	if p.panelImage, err = factory.CreateOverlay(); err != nil {
		p.Shutdown()
		return nil, errors.Wrap(err, "create panel overlay")
	}
	if p.gizmoImage, err = factory.CreateOverlay(); err != nil {
		p.Shutdown()
		return nil, errors.Wrap(err, "create gizmo overlay")
	}
	p.panelDC = gg.NewContext(panelWidth, panelHeight(len(p.controls)))
	p.gizmoDC = gg.NewContext(p.gizmo, p.gizmo)
	return p, nil
}

func panelHeight(rows int) int {
	return panelPadding + titleHeight + rows*rowHeight + sectionGap + len(helpLines)*helpHeight + panelPadding
}

func (p *panel) KeyEvent(key int, pressed bool) {
	p.push(event{kind: eventKey, code: key, pressed: pressed})
}

func (p *panel) ButtonEvent(button int, pressed bool) {
	p.push(event{kind: eventButton, code: button, pressed: pressed})
}

func (p *panel) CursorEvent(x, y float64) {
	p.push(event{kind: eventCursor, x: x, y: y})
}

func (p *panel) ScrollEvent(dy float64) {
	p.push(event{kind: eventScroll, y: dy})
}

func (p *panel) push(e event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queue = append(p.queue, e)
}

func (p *panel) BeginFrame() {}

func (p *panel) Update(settings *scene.GridSettings) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	before := *settings
	for _, e := range p.queue {
		p.apply(settings, e)
	}
	p.queue = p.queue[:0]

	hovered := -1
	if p.visible {
		hovered = p.rowAt(p.cursorX, p.cursorY)
	}
	p.wantsMouse = p.visible && (p.inside(p.cursorX, p.cursorY) || p.dragging >= 0 || p.captured)
	p.wantsKeyboard = p.visible && p.focused

	if *settings != p.shown || hovered != p.hovered {
		p.panelDirty = true
	}
	p.shown = *settings
	p.hovered = hovered
	return settings.Extent != before.Extent
}

// apply handles one queued event. Caller must hold the mutex.
func (p *panel) apply(s *scene.GridSettings, e event) {
	switch e.kind {
	case eventCursor:
		p.cursorX, p.cursorY = e.x, e.y
		if p.dragging >= 0 {
			p.dragTo(s, p.dragging, e.x)
		}

	case eventButton:
		if e.code != common.MouseButtonLeft {
			if e.pressed && p.inside(p.cursorX, p.cursorY) {
				p.captured = true
			} else if !e.pressed {
				p.captured = false
			}
			return
		}
		if !e.pressed {
			p.dragging = -1
			p.captured = false
			return
		}
		if !p.visible || !p.inside(p.cursorX, p.cursorY) {
			return
		}
		p.captured = true
		row := p.rowAt(p.cursorX, p.cursorY)
		if row < 0 {
			return
		}
		p.selected = row
		c := &p.controls[row]
		if c.isCheckbox() {
			b := c.toggle(s)
			*b = !*b
			return
		}
		p.dragging = row
		p.dragTo(s, row, p.cursorX)

	case eventScroll:
		if !p.visible {
			return
		}
		row := p.rowAt(p.cursorX, p.cursorY)
		if row >= 0 && !p.controls[row].isCheckbox() {
			p.controls[row].nudge(s, float32(e.y))
		}

	case eventKey:
		if !e.pressed {
			return
		}
		if e.code == common.KeyH && !p.focused {
			p.visible = !p.visible
			p.dragging = -1
			return
		}
		if !p.visible {
			return
		}
		if e.code == common.KeyTab {
			p.focused = !p.focused
			p.panelDirty = true
			return
		}
		if !p.focused {
			return
		}
		p.panelDirty = true
		c := &p.controls[p.selected]
		switch e.code {
		case common.KeyEsc:
			p.focused = false
		case common.KeyUp:
			p.selected = (p.selected + len(p.controls) - 1) % len(p.controls)
		case common.KeyDown:
			p.selected = (p.selected + 1) % len(p.controls)
		case common.KeyLeft, common.KeyRight:
			dir := float32(1)
			if e.code == common.KeyLeft {
				dir = -1
			}
			if c.isCheckbox() {
				*c.toggle(s) = dir > 0
			} else {
				c.nudge(s, dir)
			}
		case common.KeyEnter, common.KeySpace:
			if c.isCheckbox() {
				b := c.toggle(s)
				*b = !*b
			}
		}
	}
}

// dragTo sets slider row from the pointer x position in window coordinates.
func (p *panel) dragTo(s *scene.GridSettings, row int, x float64) {
	local := x - float64(p.origin[0]) - trackX
	p.controls[row].setFraction(s, float32(local/trackWidth))
}

// inside reports whether a window position lies on the panel.
func (p *panel) inside(x, y float64) bool {
	lx, ly := x-float64(p.origin[0]), y-float64(p.origin[1])
	return lx >= 0 && ly >= 0 && lx < panelWidth && ly < float64(panelHeight(len(p.controls)))
}

// rowAt returns the control row under a window position, or -1.
func (p *panel) rowAt(x, y float64) int {
	if !p.inside(x, y) {
		return -1
	}
	ly := y - float64(p.origin[1]) - panelPadding - titleHeight
	if ly < 0 {
		return -1
	}
	row := int(ly / rowHeight)
	if row >= len(p.controls) {
		return -1
	}
	return row
}

func (p *panel) Gizmo(c2w mgl32.Mat4) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c2w != p.c2w {
		p.c2w = c2w
		p.gizmoDirty = true
	}
}

func (p *panel) EndFrame() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}

	if p.panelDirty {
		if err := p.drawPanel(); err != nil {
			common.Logger().Warn("panel raster failed", "err", err)
		} else if err := upload(p.panelImage, p.panelDC); err != nil {
			common.Logger().Warn("panel upload failed", "err", err)
		} else {
			p.panelDirty = false
		}
	}
	if p.gizmoDirty {
		if err := p.drawGizmo(); err != nil {
			common.Logger().Warn("gizmo raster failed", "err", err)
		} else if err := upload(p.gizmoImage, p.gizmoDC); err != nil {
			common.Logger().Warn("gizmo upload failed", "err", err)
		} else {
			p.gizmoDirty = false
		}
	}
	if !p.panelDirty && !p.gizmoDirty {
		p.uploaded = true
	}
}

func upload(o gfx.Overlay, dc *gg.Context) error {
	staging := common.StagingFromImage(dc.Image())
	return o.Update(staging.Pixels, staging.Width, staging.Height)
}

func (p *panel) Render(cmd gfx.CommandBuffer, extent gfx.Extent2D) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return errors.New("panel is shut down")
	}
	if !p.visible || !p.uploaded {
		return nil
	}
	cmd.DrawOverlay(p.panelImage, gfx.Rect{
		X:      int32(p.origin[0]),
		Y:      int32(p.origin[1]),
		Width:  panelWidth,
		Height: uint32(panelHeight(len(p.controls))),
	})
	if gx := int(extent.Width) - p.gizmo - p.origin[0]; gx > p.origin[0]+panelWidth {
		cmd.DrawOverlay(p.gizmoImage, gfx.Rect{
			X:      int32(gx),
			Y:      int32(p.origin[1]),
			Width:  uint32(p.gizmo),
			Height: uint32(p.gizmo),
		})
	}
	return nil
}

func (p *panel) Shutdown() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	if p.panelImage != nil {
		p.panelImage.Release()
	}
	if p.gizmoImage != nil {
		p.gizmoImage.Release()
	}
	if p.panelDC != nil {
		_ = p.panelDC.Close()
	}
	if p.gizmoDC != nil {
		_ = p.gizmoDC.Close()
	}
	if p.font != nil {
		_ = p.font.Close()
	}
}

func (p *panel) SetMinImageCount(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.minImages = n
	common.Logger().Debug("ui image count", "images", n)
}

func (p *panel) WantsMouse() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.wantsMouse
}

func (p *panel) WantsKeyboard() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.wantsKeyboard
}
