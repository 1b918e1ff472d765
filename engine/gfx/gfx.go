// Package gfx defines the narrow GPU contract the frame orchestration is written against.
// The wgpu renderer implements it for real windows; tests implement it with fakes.
package gfx

import "github.com/cockroachdb/errors"

// ImageLayout is the tracked usage state of an image. Barriers move an image from its tracked
// layout to the layout the next operation needs.
type ImageLayout int

const (
	LayoutUndefined ImageLayout = iota
	LayoutColorAttachment
	LayoutDepthAttachment
	LayoutPresentSrc
)

func (l ImageLayout) String() string {
	switch l {
	case LayoutUndefined:
		return "Undefined"
	case LayoutColorAttachment:
		return "ColorAttachment"
	case LayoutDepthAttachment:
		return "DepthAttachment"
	case LayoutPresentSrc:
		return "PresentSrc"
	default:
		return "Unknown"
	}
}

// Status classifies the outcome of an acquire or present.
type Status int

const (
	StatusSuccess Status = iota
	// StatusSuboptimal means the operation worked but the swapchain no longer matches the surface.
	StatusSuboptimal
	// StatusOutOfDate means the swapchain can no longer be used and must be recreated.
	StatusOutOfDate
)

// NeedsRecreate reports whether the status calls for swapchain recreation.
func (s Status) NeedsRecreate() bool {
	return s == StatusSuboptimal || s == StatusOutOfDate
}

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "Success"
	case StatusSuboptimal:
		return "Suboptimal"
	case StatusOutOfDate:
		return "OutOfDate"
	default:
		return "Unknown"
	}
}

// Format is an opaque texture format identifier owned by the backend.
type Format uint32

// ShaderStage is a bit set of programmable stages.
type ShaderStage uint32

const (
	StageVertex ShaderStage = 1 << iota
	StageFragment
)

// Extent2D is a size in pixels.
type Extent2D struct {
	Width  uint32
	Height uint32
}

// IsZero reports whether either dimension is zero, which is the case for minimized windows.
func (e Extent2D) IsZero() bool {
	return e.Width == 0 || e.Height == 0
}

// Viewport maps normalized device coordinates onto the render target.
type Viewport struct {
	X, Y, Width, Height float32
	MinDepth, MaxDepth  float32
}

// Rect is an integer pixel rectangle.
type Rect struct {
	X, Y          int32
	Width, Height uint32
}

// VertexStride is the size of Vertex in bytes.
const VertexStride = 28

// Vertex is the layout of the ground plane mesh: position followed by RGBA color.
type Vertex struct {
	Position [3]float32
	Color    [4]float32
}

// Errors shared by every backend. Backends wrap them with context; callers classify with errors.Is.
var (
	// ErrOutOfDate marks a transient surface invalidation.
	ErrOutOfDate = errors.New("swapchain out of date")
	// ErrSurfaceLost marks a surface that could not be recreated.
	ErrSurfaceLost = errors.New("surface lost")
	// ErrDeviceLost marks a failed submission or present that recreation cannot fix.
	ErrDeviceLost = errors.New("device lost")
)
