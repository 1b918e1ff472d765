package engine

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-inspect/common"
	"github.com/Carmen-Shannon/oxy-inspect/engine/camera"
	"github.com/Carmen-Shannon/oxy-inspect/engine/frame"
	"github.com/Carmen-Shannon/oxy-inspect/engine/gfx"
	"github.com/Carmen-Shannon/oxy-inspect/engine/input"
	"github.com/Carmen-Shannon/oxy-inspect/engine/profiler"
	"github.com/Carmen-Shannon/oxy-inspect/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-inspect/engine/scene"
	"github.com/Carmen-Shannon/oxy-inspect/engine/surface"
	"github.com/Carmen-Shannon/oxy-inspect/engine/ui"
	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/loov/hrtime"
)

// DefaultShaderPaths are the candidate locations of the grid shader, tried in order.
var DefaultShaderPaths = []string{
	"shaders/ground_grid.wgsl",
	"../shaders/ground_grid.wgsl",
	"assets/shaders/ground_grid.wgsl",
}

// Window is the part of the platform window the run loop drives. window.Window implements it.
type Window interface {
	surface.Window

	SetInputHandler(handler input.Handler)
	SetResizeCallback(callback func(width, height int))
	PollEvents()
	ShouldClose() bool
	RequestClose()
}

// Renderer is the GPU backend of the viewer. renderer.Renderer implements it.
type Renderer interface {
	gfx.Device
	gfx.Surface
	scene.Backend
	ui.OverlayFactory
}

// Config holds the viewer settings assembled by the builder options.
type Config struct {
	// FramesInFlight is the number of frame slots.
	FramesInFlight int
	// Grid is the initial grid settings.
	Grid scene.GridSettings
	// ShaderPaths are the grid shader candidates, used when no source is given.
	ShaderPaths []string
	// Profiling logs frame statistics every ProfileInterval.
	Profiling       bool
	ProfileInterval time.Duration
	// FrameLimit is the minimum duration of one iteration; 0 is uncapped.
	FrameLimit time.Duration
}

// DefaultConfig returns the configuration used when no options are given.
func DefaultConfig() Config {
	return Config{
		FramesInFlight:  frame.DefaultFramesInFlight,
		Grid:            scene.DefaultGridSettings(),
		ShaderPaths:     DefaultShaderPaths,
		ProfileInterval: time.Second,
	}
}

// Engine is the viewer run loop. It owns the frame system, the swapchain, the grid resources
// and the per-frame order of input, UI, camera, recording and presentation.
type Engine interface {
	// Run drives frames until the window closes, Quit is called or ctx is done. On exit it drains
	// the GPU, shuts the UI down and releases every resource it created. The window and the
	// renderer stay open.
	//
	// Parameters:
	//   - ctx: cancels the loop after the current iteration
	//
	// Returns:
	//   - error: a startup or fatal runtime error, nil on a normal shutdown
	Run(ctx context.Context) error

	// Quit asks the loop to stop after the current iteration. Safe to call from any goroutine.
	Quit()

	// Settings returns a copy of the current grid settings. Call it from the goroutine running
	// Run or after Run returns.
	//
	// Returns:
	//   - scene.GridSettings: the settings
	Settings() scene.GridSettings

	// Camera returns the camera driven by the loop.
	//
	// Returns:
	//   - camera.Camera: the camera
	Camera() camera.Camera
}

// engine implements the Engine interface.
type engine struct {
	cfg Config

	window   Window
	renderer Renderer
	ui       ui.Controls
	camera   camera.Camera
	input    input.Aggregator
	pass     scene.RenderPass
	profiler *profiler.Profiler
	clock    func() time.Duration

	shaderSource  []byte
	shaderOptions []shader.LoaderOption

	settings scene.GridSettings
	surface  surface.Manager
	frames   frame.System
	grid     scene.Grid

	// listenerErr is the first pipeline rebuild failure reported by a recreation listener.
	listenerErr error

	escDown, homeDown bool
	quit              atomic.Bool
	// resized is set by the window when the framebuffer size changes.
	resized atomic.Bool
}

var _ Engine = &engine{}

// NewEngine creates the viewer loop. Options are applied directly to the engine struct via
// the option-builder pattern; WithWindow and WithRenderer are required.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
//   - error: an error if a required collaborator is missing
func NewEngine(options ...EngineBuilderOption) (Engine, error) {
	e := &engine{
		cfg:   DefaultConfig(),
		input: input.NewAggregator(),
		pass:  scene.NewRenderPass(),
		clock: hrtime.Now,
	}
	for _, opt := range options {
		opt(e)
	}
	if e.window == nil {
		return nil, errors.New("engine requires a window")
	}
	if e.renderer == nil {
		return nil, errors.New("engine requires a renderer")
	}
	e.cfg.FramesInFlight = max(e.cfg.FramesInFlight, 1)
	e.settings = e.cfg.Grid
	e.settings.Sanitize()
	if e.camera == nil {
		e.camera = camera.NewCamera(camera.WithHomeOrbit(camera.OrbitState{
			Azimuth:   float32(math.Pi / 4),
			Elevation: float32(math.Pi / 6),
			Distance:  max(1, 1.15*e.settings.Extent),
		}))
	}
	e.profiler = profiler.NewProfiler(profiler.WithUpdateInterval(e.cfg.ProfileInterval))
	return e, nil
}

func (e *engine) Quit() {
	e.quit.Store(true)
}

func (e *engine) Settings() scene.GridSettings {
	return e.settings
}

func (e *engine) Camera() camera.Camera {
	return e.camera
}

func (e *engine) Run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf("render loop panic: %v", r)
			common.Logger().Error("render loop recovered from panic", "panic", r)
		}
		if terr := e.teardown(); terr != nil {
			err = errors.CombineErrors(err, terr)
		}
	}()

	if err := e.setup(ctx); err != nil {
		return err
	}
	common.Logger().Info("viewer running",
		"frames_in_flight", e.frames.FramesInFlight(),
		"images", e.surface.State().ImageCount(),
	)

	frameIndex := 0
	last := e.clock()
	for !e.window.ShouldClose() && !e.quit.Load() {
		if ctx.Err() != nil {
			break
		}
		start := e.clock()
		e.window.PollEvents()
		dt := float32((start - last).Seconds())
		last = start

		next, err := e.step(ctx, frameIndex, dt)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			common.Logger().Error("frame failed", "err", err)
			return err
		}
		frameIndex = next

		if e.cfg.FrameLimit > 0 {
			if remaining := e.cfg.FrameLimit - (e.clock() - start); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}
	return nil
}

// setup loads the shader and creates the grid, the UI, the swapchain and the frame slots.
func (e *engine) setup(ctx context.Context) error {
	source := e.shaderSource
	if source == nil {
		res, err := shader.Load(e.cfg.ShaderPaths, e.shaderOptions...)
		if err != nil {
			return errors.Wrap(err, "load grid shader")
		}
		common.Logger().Info("grid shader loaded", "path", res.Path)
		source = res.Source
	}

	e.grid = scene.NewGrid(e.renderer, source)
	if err := e.grid.Rebuild(e.settings.Extent); err != nil {
		return errors.Wrap(err, "build ground mesh")
	}

	if e.ui == nil {
		panel, err := ui.NewPanel(e.renderer)
		if err != nil {
			return errors.Wrap(err, "create parameter panel")
		}
		e.ui = panel
	}
	e.window.SetInputHandler(fanOut{e.input, e.ui})

	sm, err := surface.NewManager(ctx, e.renderer, e.renderer, e.window, surface.WithOnRecreated(e.onRecreated))
	if err != nil {
		return errors.Wrap(err, "create swapchain")
	}
	e.surface = sm
	if err := e.takeListenerErr(); err != nil {
		return err
	}
	e.window.SetResizeCallback(func(width, height int) {
		e.resized.Store(true)
	})

	frames, err := frame.NewSystem(e.renderer, e.surface, e.surface.State().ImageCount(),
		frame.WithFramesInFlight(e.cfg.FramesInFlight))
	if err != nil {
		return errors.Wrap(err, "create frame slots")
	}
	e.frames = frames
	return nil
}

// onRecreated runs after every swapchain recreation: layout trackers first, then the grid
// pipeline, then the UI.
func (e *engine) onRecreated(st surface.State) {
	if e.frames != nil {
		e.frames.OnSwapchainRecreated(st.ImageCount())
	}
	if err := e.grid.RebuildPipeline(st.ColorFormat, st.DepthFormat); err != nil && e.listenerErr == nil {
		e.listenerErr = errors.Wrap(err, "rebuild grid pipeline")
	}
	e.ui.SetMinImageCount(st.ImageCount())
}

func (e *engine) takeListenerErr() error {
	err := e.listenerErr
	e.listenerErr = nil
	return err
}

// step runs one iteration and returns the slot to use next.
func (e *engine) step(ctx context.Context, frameIndex int, dt float32) (int, error) {
	begin, err := e.frames.BeginFrame(ctx, frameIndex)
	if err != nil {
		return frameIndex, errors.Wrap(err, "begin frame")
	}
	if !begin.OK {
		if e.cfg.Profiling {
			e.profiler.FrameSkipped()
		}
		if begin.NeedRecreate {
			return frameIndex, e.recreate(ctx)
		}
		return frameIndex, nil
	}

	cmd, err := e.frames.BeginCommands(frameIndex)
	if err != nil {
		return frameIndex, errors.Wrap(err, "begin commands")
	}

	keyboardCaptured := e.ui.WantsKeyboard()
	e.ui.BeginFrame()
	if e.ui.Update(&e.settings) {
		rebuilt, err := e.grid.Sync(&e.settings)
		if err != nil {
			common.Logger().Warn("ground mesh rebuild failed, keeping previous mesh", "err", err)
		} else if rebuilt {
			common.Logger().Info("ground mesh rebuilt", "extent", e.grid.Extent())
		}
	}

	mode := camera.ModeOrbit
	if e.settings.FlyMode {
		mode = camera.ModeFly
	}
	e.camera.SetMode(mode)

	snap := e.input.ConsumeSnapshot()
	e.shortcuts(&snap, keyboardCaptured || e.ui.WantsKeyboard())

	st := e.surface.State()
	e.camera.Update(dt, st.Extent.Width, st.Extent.Height, snap.CameraInput(e.ui.WantsMouse(), e.ui.WantsKeyboard()))
	m := e.camera.Matrices()
	e.ui.Gizmo(m.C2W)
	e.ui.EndFrame()

	if err := e.pass.Record(cmd, e.target(st, begin.ImageIndex), e.grid, &e.settings, viewProj(m), e.ui); err != nil {
		common.Logger().Warn("overlay not drawn", "err", err)
	}

	needRecreate, err := e.frames.EndFrame(frameIndex, begin.ImageIndex)
	if err != nil {
		return frameIndex, errors.Wrap(err, "end frame")
	}
	if e.cfg.Profiling {
		e.profiler.Tick(e.clock())
	}
	// A window resize recreates even when present succeeded.
	if needRecreate || e.resized.Load() {
		if err := e.recreate(ctx); err != nil {
			return frameIndex, err
		}
	}
	return e.frames.Next(frameIndex), nil
}

// shortcuts handles the viewer keys on their press edge: Esc quits and F homes the camera.
func (e *engine) shortcuts(snap *input.Snapshot, captured bool) {
	esc, home := snap.Pressed(common.KeyEsc), snap.Pressed(common.KeyF)
	if esc && !e.escDown && !captured {
		common.Logger().Info("quit requested")
		e.window.RequestClose()
	}
	if home && !e.homeDown && !captured {
		e.camera.Home()
	}
	e.escDown, e.homeDown = esc, home
}

func (e *engine) recreate(ctx context.Context) error {
	e.resized.Store(false)
	if e.cfg.Profiling {
		e.profiler.SwapchainRecreated()
	}
	if err := e.surface.Recreate(ctx); err != nil {
		return errors.Wrap(err, "recreate swapchain")
	}
	return e.takeListenerErr()
}

func (e *engine) target(st surface.State, imageIndex uint32) scene.Target {
	return scene.Target{
		ImageIndex: imageIndex,
		Image:      st.Images[imageIndex],
		View:       st.Views[imageIndex],
		Depth:      st.Depth,
		DepthView:  st.DepthView,
		Extent:     st.Extent,
		Colors:     e.frames,
		Depths:     e.surface,
	}
}

// viewProj falls back to identity before the first matrix update with a non-empty viewport.
func viewProj(m camera.Matrices) mgl32.Mat4 {
	if m.ViewProj == (mgl32.Mat4{}) || !common.IsFiniteMat4(m.ViewProj) {
		return mgl32.Ident4()
	}
	return m.ViewProj
}

// teardown drains the GPU and releases what setup created, newest first.
func (e *engine) teardown() error {
	var err error
	if e.renderer != nil {
		if werr := e.renderer.WaitIdle(); werr != nil {
			common.Logger().Warn("drain before shutdown failed", "err", werr)
		}
	}
	if e.window != nil {
		e.window.SetResizeCallback(nil)
	}
	if e.ui != nil {
		e.ui.Shutdown()
	}
	if e.frames != nil {
		if ferr := e.frames.Close(); ferr != nil {
			err = errors.CombineErrors(err, errors.Wrap(ferr, "close frame slots"))
		}
		e.frames = nil
	}
	if e.grid != nil {
		e.grid.Release()
		e.grid = nil
	}
	if e.surface != nil {
		if serr := e.surface.Close(); serr != nil {
			err = errors.CombineErrors(err, errors.Wrap(serr, "close swapchain"))
		}
		e.surface = nil
	}
	return err
}

// fanOut delivers window input to the aggregator and the UI.
type fanOut []input.Handler

func (f fanOut) KeyEvent(key int, pressed bool) {
	for _, h := range f {
		h.KeyEvent(key, pressed)
	}
}

func (f fanOut) ButtonEvent(button int, pressed bool) {
	for _, h := range f {
		h.ButtonEvent(button, pressed)
	}
}

func (f fanOut) CursorEvent(x, y float64) {
	for _, h := range f {
		h.CursorEvent(x, y)
	}
}

func (f fanOut) ScrollEvent(dy float64) {
	for _, h := range f {
		h.ScrollEvent(dy)
	}
}
