// Package ui provides the on-screen parameter panel and the contract the run loop uses to drive it.
package ui

import (
	"github.com/Carmen-Shannon/oxy-inspect/engine/gfx"
	"github.com/Carmen-Shannon/oxy-inspect/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// Backend is the per-frame UI contract. Calls happen on the render thread in the order
// BeginFrame, EndFrame, Render.
type Backend interface {
	// BeginFrame starts collecting widgets for a new frame.
	BeginFrame()

	// EndFrame finishes the frame and uploads whatever changed.
	EndFrame()

	// Render draws the UI into the open rendering scope of cmd.
	//
	// Parameters:
	//   - cmd: the frame command buffer, inside BeginRendering
	//   - extent: the size of the render target
	//
	// Returns:
	//   - error: an error if the UI could not be drawn
	Render(cmd gfx.CommandBuffer, extent gfx.Extent2D) error

	// Shutdown releases every GPU resource. Safe to call more than once.
	Shutdown()

	// SetMinImageCount informs the backend of the swapchain image count after a recreation.
	SetMinImageCount(n int)

	// WantsMouse reports whether pointer input belongs to the UI this frame.
	WantsMouse() bool

	// WantsKeyboard reports whether keyboard input belongs to the UI this frame.
	WantsKeyboard() bool
}

// Controls is a Backend that edits grid settings and shows the camera orientation.
type Controls interface {
	Backend

	// KeyEvent, ButtonEvent, CursorEvent and ScrollEvent queue window events. They are applied
	// by the next Update.
	KeyEvent(key int, pressed bool)
	ButtonEvent(button int, pressed bool)
	CursorEvent(x, y float64)
	ScrollEvent(dy float64)

	// Update applies the queued events to settings. Call between BeginFrame and EndFrame.
	//
	// Parameters:
	//   - settings: the settings edited in place
	//
	// Returns:
	//   - bool: true if Extent changed and the ground mesh must be rebuilt
	Update(settings *scene.GridSettings) bool

	// Gizmo sets the camera orientation drawn by the mini axis gizmo.
	//
	// Parameters:
	//   - c2w: the camera to world matrix
	Gizmo(c2w mgl32.Mat4)
}

// OverlayFactory creates the GPU images the panel is drawn into.
type OverlayFactory interface {
	CreateOverlay() (gfx.Overlay, error)
}
