package renderer

import (
	"context"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-inspect/common"
	"github.com/Carmen-Shannon/oxy-inspect/engine/gfx"
	"github.com/Carmen-Shannon/oxy-inspect/engine/renderer/pipeline"
	"github.com/cockroachdb/errors"
	"github.com/cogentcore/webgpu/wgpu"
)

// Window is the part of the platform window the renderer needs.
type Window interface {
	// SurfaceDescriptor returns the platform surface descriptor, or nil if the window is gone.
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// FramebufferSize returns the drawable size in pixels.
	FramebufferSize() (width, height int)
}

// Renderer is the WebGPU implementation of the gfx contract for one window.
//
// It serves as the frame system's device, the surface manager's presentation engine, the grid's
// resource backend and the UI's overlay factory. WebGPU orders work on its queue itself, so
// semaphores carry no state and fences complete by polling the device.
type Renderer interface {
	gfx.Device
	gfx.Surface

	// UploadMesh copies the geometry into GPU vertex and index buffers.
	// Empty input yields a mesh with an index count of zero.
	//
	// Parameters:
	//   - vertices: the vertex data
	//   - indices: the triangle list indices into vertices
	//
	// Returns:
	//   - gfx.Mesh: the uploaded mesh
	//   - error: an error if a buffer could not be created
	UploadMesh(vertices []gfx.Vertex, indices []uint32) (gfx.Mesh, error)

	// CreatePipeline compiles desc with the given WGSL source for the attachment formats.
	// A push constant block declared by desc is bound as a uniform buffer at @group(0) @binding(0).
	//
	// Parameters:
	//   - desc: the fixed function description
	//   - source: WGSL source containing the entry points named by desc
	//   - colorFormat: the color attachment format
	//   - depthFormat: the depth attachment format
	//
	// Returns:
	//   - gfx.Pipeline: the compiled pipeline
	//   - error: an error if compilation fails
	CreatePipeline(desc pipeline.Pipeline, source []byte, colorFormat, depthFormat gfx.Format) (gfx.Pipeline, error)

	// CreateOverlay creates an empty screen space image. It draws nothing until its first Update.
	//
	// Returns:
	//   - gfx.Overlay: the overlay
	//   - error: an error if the overlay resources could not be created
	CreateOverlay() (gfx.Overlay, error)

	// SurfaceFormat returns the color format swapchain images are created with.
	//
	// Returns:
	//   - gfx.Format: the surface color format
	SurfaceFormat() gfx.Format

	// Close releases the device and surface. Resources created from the renderer must be released first.
	Close()
}

// fence is a submission marker. A pending fence is signaled once the device finishes its submission.
type fence struct {
	signaled bool
	pending  bool
	index    wgpu.SubmissionIndex
}

func (f *fence) Release() {}

// semaphore is stateless: the WebGPU queue already orders acquire, submit and present.
type semaphore struct{}

func (semaphore) Release() {}

var _ Renderer = &wgpuRenderer{}

// NewRenderer creates the WebGPU instance, surface, adapter and device for window.
// The calling goroutine is locked to its OS thread, which must be the thread the window was created on.
//
// Parameters:
//   - window: the window to present into
//   - options: functional options to configure the renderer
//
// Returns:
//   - Renderer: the renderer, with no swapchain until CreateSwapchain is called
//   - error: an error if any part of the graphics context could not be created
func NewRenderer(window Window, options ...RendererBuilderOption) (Renderer, error) {
	runtime.LockOSThread()

	r := &wgpuRenderer{
		mu:          &sync.Mutex{},
		window:      window,
		presentMode: PresentModeVSync,
		imageCount:  defaultImageCount,
	}
	for _, opt := range options {
		opt(r)
	}

	desc := window.SurfaceDescriptor()
	if desc == nil {
		return nil, errors.New("window has no surface descriptor")
	}
	r.instance = wgpu.CreateInstance(nil)
	r.surface = r.instance.CreateSurface(desc)

	adapter, err := r.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: r.forceFallbackAdapter,
		CompatibleSurface:    r.surface,
	})
	if err != nil {
		r.Close()
		return nil, errors.Wrap(err, "request adapter")
	}
	r.adapter = adapter

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "oxy-inspect device",
	})
	if err != nil {
		r.Close()
		return nil, errors.Wrap(err, "request device")
	}
	r.device = device
	r.queue = device.GetQueue()

	capabilities := r.surface.GetCapabilities(r.adapter)
	if len(capabilities.Formats) == 0 {
		r.Close()
		return nil, errors.New("surface reports no formats")
	}
	r.surfaceFormat = capabilities.Formats[0]

	if err := r.initOverlayPipeline(); err != nil {
		r.Close()
		return nil, err
	}

	common.Logger().Info("renderer ready",
		"format", uint32(r.surfaceFormat),
		"present_mode", r.presentMode.String(),
		"fallback_adapter", r.forceFallbackAdapter,
	)
	return r, nil
}

func (r *wgpuRenderer) SurfaceFormat() gfx.Format {
	return gfx.Format(r.surfaceFormat)
}

func (r *wgpuRenderer) CreateFence(signaled bool) (gfx.Fence, error) {
	return &fence{signaled: signaled}, nil
}

func (r *wgpuRenderer) CreateSemaphore() (gfx.Semaphore, error) {
	return semaphore{}, nil
}

func (r *wgpuRenderer) CreateCommandBuffer() (gfx.CommandBuffer, error) {
	return &commandBuffer{r: r}, nil
}

func (r *wgpuRenderer) WaitForFence(ctx context.Context, f gfx.Fence) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fc, ok := f.(*fence)
	if !ok {
		return errors.Newf("foreign fence %T", f)
	}
	if fc.signaled {
		return nil
	}
	if !fc.pending {
		return errors.New("wait on a fence with no pending submission")
	}
	r.device.Poll(true, &wgpu.WrappedSubmissionIndex{
		Queue:           r.queue,
		SubmissionIndex: fc.index,
	})
	fc.pending = false
	fc.signaled = true
	return nil
}

func (r *wgpuRenderer) ResetFence(f gfx.Fence) error {
	fc, ok := f.(*fence)
	if !ok {
		return errors.Newf("foreign fence %T", f)
	}
	fc.signaled = false
	return nil
}

func (r *wgpuRenderer) Submit(cmd gfx.CommandBuffer, wait, signal gfx.Semaphore, f gfx.Fence) error {
	cb, ok := cmd.(*commandBuffer)
	if !ok {
		return errors.Newf("foreign command buffer %T", cmd)
	}
	if cb.finished == nil {
		return errors.New("submit of a command buffer that was not ended")
	}

	for _, w := range cb.writes {
		if w.Valid() {
			r.queue.WriteBuffer(w.Provider.Buffer(w.Binding), w.Offset, w.Data)
		}
	}
	cb.writes = cb.writes[:0]

	index := r.queue.Submit(cb.finished)
	cb.finished.Release()
	cb.finished = nil

	if fc, ok := f.(*fence); ok {
		fc.signaled = false
		fc.pending = true
		fc.index = index
	}
	return nil
}

func (r *wgpuRenderer) WaitIdle() error {
	r.mu.Lock()
	closed := r.device == nil
	r.mu.Unlock()
	if closed {
		return errors.Mark(errors.New("renderer is closed"), gfx.ErrDeviceLost)
	}
	r.device.Poll(true, nil)
	return nil
}

func (r *wgpuRenderer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.releaseFrame()
	if r.overlayPipeline != nil {
		r.overlayPipeline.Release()
		r.overlayPipeline = nil
	}
	if r.queue != nil {
		r.queue.Release()
		r.queue = nil
	}
	if r.device != nil {
		r.device.Release()
		r.device = nil
	}
	if r.adapter != nil {
		r.adapter.Release()
		r.adapter = nil
	}
	if r.surface != nil {
		r.surface.Release()
		r.surface = nil
	}
	if r.instance != nil {
		r.instance.Release()
		r.instance = nil
	}
}
