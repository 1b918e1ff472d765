// Package window opens the viewer window and delivers its input events.
package window

import (
	"github.com/Carmen-Shannon/oxy-inspect/engine/input"
	"github.com/cockroachdb/errors"
	"github.com/cogentcore/webgpu/wgpu"
)

// Window provides platform windowing and input event delivery.
// Events are dispatched from PollEvents and WaitEvents on the thread that created the window.
type Window interface {
	// SetInputHandler sets the receiver of key, button, cursor and scroll events.
	//
	// Parameters:
	//   - handler: the receiver (or nil to drop input)
	SetInputHandler(handler input.Handler)

	// SetResizeCallback sets the function called when the framebuffer is resized.
	//
	// Parameters:
	//   - callback: function receiving new width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// PollEvents dispatches pending events without blocking.
	PollEvents()

	// WaitEvents blocks until events arrive or a short timeout elapses, then dispatches them.
	WaitEvents()

	// ShouldClose reports whether the user asked to close the window.
	//
	// Returns:
	//   - bool: true once the window was closed or RequestClose was called
	ShouldClose() bool

	// RequestClose flags the window for closing. The run loop observes it through ShouldClose.
	RequestClose()

	// FramebufferSize returns the drawable size in pixels. It is zero while the window is minimized.
	//
	// Returns:
	//   - int: width in pixels
	//   - int: height in pixels
	FramebufferSize() (int, int)

	// SurfaceDescriptor returns a wgpu.SurfaceDescriptor suitable for creating a WebGPU surface.
	// The descriptor is created by the wgpuglfw bridge from the underlying GLFW window.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the platform surface descriptor, or nil if the window is closed
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// Close destroys the window and releases platform resources.
	//
	// Returns:
	//   - error: error if the window was already closed
	Close() error
}

// engineWindow is the implementation of the Window interface.
// Holds window configuration, GLFW state, and event receivers.
type engineWindow struct {
	// title is the window title displayed in the title bar.
	title string

	// minWidth and minHeight bound interactive resizing. Zero leaves the axis unbounded.
	minWidth  int
	minHeight int

	// width and height are the requested client size in screen coordinates.
	width  int
	height int

	// resizable allows the user to resize the window.
	resizable bool

	// internalWindow holds the platform window data (glfwWindow).
	internalWindow *glfwWindow

	// handler receives input events.
	handler input.Handler

	// onResize is called when the framebuffer is resized.
	onResize func(width, height int)
}

var _ Window = &engineWindow{}

// NewWindow creates and shows a window. Applies default values first, then each option in order.
// The calling goroutine is locked to its OS thread; every later call must come from it.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the open window
//   - error: an error if GLFW could not be initialized or the window could not be created
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := &engineWindow{
		title:     "oxy-inspect",
		minWidth:  320,
		minHeight: 240,
		width:     1280,
		height:    720,
		resizable: true,
	}
	for _, opt := range options {
		opt(w)
	}
	if w.width <= 0 || w.height <= 0 {
		return nil, errors.Newf("invalid window size %dx%d", w.width, w.height)
	}
	if err := newPlatformWindow(w); err != nil {
		return nil, errors.Wrap(err, "create platform window")
	}
	return w, nil
}

func (w *engineWindow) SetInputHandler(handler input.Handler) {
	w.handler = handler
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) PollEvents() {
	platformPollEvents(w)
}

func (w *engineWindow) WaitEvents() {
	platformWaitEvents(w)
}

func (w *engineWindow) ShouldClose() bool {
	return !platformIsRunningCheck(w)
}

func (w *engineWindow) RequestClose() {
	platformRequestClose(w)
}

func (w *engineWindow) FramebufferSize() (int, int) {
	return platformFramebufferSize(w)
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformGetSurfaceDescriptor(w)
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *engineWindow) key(key int, pressed bool) {
	if w.handler != nil {
		w.handler.KeyEvent(key, pressed)
	}
}

func (w *engineWindow) button(button int, pressed bool) {
	if w.handler != nil {
		w.handler.ButtonEvent(button, pressed)
	}
}

func (w *engineWindow) cursor(x, y float64) {
	if w.handler != nil {
		w.handler.CursorEvent(x, y)
	}
}

func (w *engineWindow) scroll(dy float64) {
	if w.handler != nil {
		w.handler.ScrollEvent(dy)
	}
}

func (w *engineWindow) resized(width, height int) {
	if w.onResize != nil {
		w.onResize(width, height)
	}
}
