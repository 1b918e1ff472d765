package surface

import (
	"context"
	"sync"

	"github.com/Carmen-Shannon/oxy-inspect/common"
	"github.com/Carmen-Shannon/oxy-inspect/engine/gfx"
	"github.com/cockroachdb/errors"
)

// Window is the part of the window the manager needs to size the swapchain.
type Window interface {
	// FramebufferSize returns the drawable size in pixels. Zero while minimized.
	FramebufferSize() (int, int)

	// WaitEvents blocks until window events arrive or a short timeout elapses.
	WaitEvents()
}

// Drainer blocks until the GPU has finished all submitted work.
type Drainer interface {
	WaitIdle() error
}

// State is one generation of swapchain resources.
type State struct {
	gfx.SwapchainImages
	// Generation starts at 1 for the first swapchain and increases by one per recreation.
	Generation uint64
}

// ImageCount returns the number of presentable images.
func (s State) ImageCount() int {
	return len(s.Images)
}

// Manager owns the swapchain and rebuilds it when the surface is invalidated.
type Manager interface {
	// State returns the current swapchain generation.
	//
	// Returns:
	//   - State: images, views, depth target, formats, extent and generation
	State() State

	// Generation returns the current generation counter.
	Generation() uint64

	// Recreate rebuilds the swapchain at the current framebuffer size. It blocks while the
	// framebuffer is zero sized, drains the GPU, destroys the previous resources, creates new
	// ones and notifies listeners in registration order.
	//
	// Parameters:
	//   - ctx: cancels the wait for a non-zero framebuffer
	//
	// Returns:
	//   - error: a fatal error marked with gfx.ErrSurfaceLost, or the context error
	Recreate(ctx context.Context) error

	// OnRecreated registers fn to run after every successful recreation.
	//
	// Parameters:
	//   - fn: the listener, called with the new state
	OnRecreated(fn func(State))

	// AcquireNextImage acquires an image of the current swapchain.
	AcquireNextImage(signal gfx.Semaphore) (uint32, gfx.Status, error)

	// Present presents an image of the current swapchain.
	Present(imageIndex uint32, wait gfx.Semaphore) (gfx.Status, error)

	// DepthLayout returns the tracked layout of the shared depth image.
	DepthLayout() gfx.ImageLayout

	// SetDepthLayout records the depth layout after a barrier.
	SetDepthLayout(layout gfx.ImageLayout)

	// Close drains the GPU and destroys the current swapchain.
	Close() error
}

// manager is the implementation of Manager.
type manager struct {
	mu *sync.Mutex

	device  Drainer
	surface gfx.Surface
	window  Window

	state       State
	hasImages   bool
	depthLayout gfx.ImageLayout
	listeners   []func(State)
}

var _ Manager = &manager{}

// NewManager creates the first swapchain for the window's current size.
//
// Parameters:
//   - ctx: cancels the wait for a non-zero framebuffer
//   - device: drained before resources are destroyed
//   - surface: creates and presents swapchain images
//   - window: supplies the framebuffer size
//   - options: functional options to configure the manager
//
// Returns:
//   - Manager: the surface manager holding generation 1
//   - error: an error if the first swapchain could not be created
func NewManager(ctx context.Context, device Drainer, surface gfx.Surface, window Window, options ...ManagerBuilderOption) (Manager, error) {
	m := &manager{
		mu:      &sync.Mutex{},
		device:  device,
		surface: surface,
		window:  window,
	}
	for _, opt := range options {
		opt(m)
	}
	if err := m.Recreate(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *manager) Generation() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Generation
}

func (m *manager) Recreate(ctx context.Context) error {
	extent, err := m.waitForExtent(ctx)
	if err != nil {
		return err
	}

	if err := m.device.WaitIdle(); err != nil {
		return errors.Mark(errors.Wrap(err, "drain gpu before swapchain recreation"), gfx.ErrSurfaceLost)
	}

	m.mu.Lock()
	if m.hasImages {
		m.surface.DestroySwapchain(m.state.SwapchainImages)
		m.state.SwapchainImages = gfx.SwapchainImages{}
		m.hasImages = false
	}
	images, err := m.surface.CreateSwapchain(extent)
	if err != nil {
		m.mu.Unlock()
		return errors.Mark(errors.Wrapf(err, "create swapchain %dx%d", extent.Width, extent.Height), gfx.ErrSurfaceLost)
	}
	m.state = State{SwapchainImages: images, Generation: m.state.Generation + 1}
	m.hasImages = true
	m.depthLayout = gfx.LayoutUndefined
	state := m.state
	listeners := append([]func(State){}, m.listeners...)
	m.mu.Unlock()

	common.Logger().Info("swapchain recreated",
		"generation", state.Generation,
		"width", extent.Width,
		"height", extent.Height,
		"images", state.ImageCount(),
	)
	for _, fn := range listeners {
		fn(state)
	}
	return nil
}

// waitForExtent blocks on window events until the framebuffer has a non-zero size.
func (m *manager) waitForExtent(ctx context.Context) (gfx.Extent2D, error) {
	for {
		w, h := m.window.FramebufferSize()
		if w > 0 && h > 0 {
			return gfx.Extent2D{Width: uint32(w), Height: uint32(h)}, nil
		}
		if err := ctx.Err(); err != nil {
			return gfx.Extent2D{}, errors.Wrap(err, "wait for non-zero framebuffer")
		}
		m.window.WaitEvents()
	}
}

func (m *manager) OnRecreated(fn func(State)) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

func (m *manager) AcquireNextImage(signal gfx.Semaphore) (uint32, gfx.Status, error) {
	m.mu.Lock()
	ok := m.hasImages
	m.mu.Unlock()
	if !ok {
		return 0, gfx.StatusOutOfDate, nil
	}
	return m.surface.AcquireNextImage(signal)
}

func (m *manager) Present(imageIndex uint32, wait gfx.Semaphore) (gfx.Status, error) {
	m.mu.Lock()
	ok := m.hasImages
	m.mu.Unlock()
	if !ok {
		return gfx.StatusOutOfDate, nil
	}
	return m.surface.Present(imageIndex, wait)
}

func (m *manager) DepthLayout() gfx.ImageLayout {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.depthLayout
}

func (m *manager) SetDepthLayout(layout gfx.ImageLayout) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.depthLayout = layout
}

func (m *manager) Close() error {
	err := m.device.WaitIdle()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hasImages {
		m.surface.DestroySwapchain(m.state.SwapchainImages)
		m.state.SwapchainImages = gfx.SwapchainImages{}
		m.hasImages = false
	}
	return errors.Wrap(err, "drain gpu before surface close")
}
