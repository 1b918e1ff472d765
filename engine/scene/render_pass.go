package scene

import (
	"github.com/Carmen-Shannon/oxy-inspect/engine/gfx"
	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
)

// ColorLayouts tracks the layout of every swapchain color image. The frame system implements it.
type ColorLayouts interface {
	ImageLayout(i uint32) gfx.ImageLayout
	SetImageLayout(i uint32, layout gfx.ImageLayout)
}

// DepthLayout tracks the layout of the shared depth image. The surface manager implements it.
type DepthLayout interface {
	DepthLayout() gfx.ImageLayout
	SetDepthLayout(layout gfx.ImageLayout)
}

// OverlayRenderer draws screen space content on top of the scene inside the open rendering scope.
type OverlayRenderer interface {
	Render(cmd gfx.CommandBuffer, extent gfx.Extent2D) error
}

// Target is the swapchain image a frame renders into.
type Target struct {
	ImageIndex uint32
	Image      gfx.Image
	View       gfx.ImageView
	Depth      gfx.Image
	DepthView  gfx.ImageView
	Extent     gfx.Extent2D

	Colors ColorLayouts
	Depths DepthLayout
}

// RenderPass records the commands of one frame: layout transitions, clear, the grid draw and
// the overlay.
type RenderPass interface {
	// Record writes the frame into cmd, which must be recording. The color image ends in
	// PresentSrc layout even when the overlay fails.
	//
	// Parameters:
	//   - cmd: the slot command buffer
	//   - target: the acquired image, its depth target and their layout trackers
	//   - grid: the grid resource, drawn when it has indices and a layer is visible
	//   - settings: the current grid settings
	//   - viewProj: the camera view-projection matrix
	//   - overlay: drawn after the grid, may be nil
	//
	// Returns:
	//   - error: the overlay error, if any
	Record(cmd gfx.CommandBuffer, target Target, grid Grid, settings *GridSettings, viewProj mgl32.Mat4, overlay OverlayRenderer) error
}

// renderPass is the implementation of RenderPass.
type renderPass struct {
	clearColor [4]float32
	clearDepth float32
}

var _ RenderPass = &renderPass{}

// NewRenderPass creates a render pass that clears to black and depth 1.
//
// Parameters:
//   - options: functional options to configure the pass
//
// Returns:
//   - RenderPass: the render pass
func NewRenderPass(options ...RenderPassBuilderOption) RenderPass {
	p := &renderPass{
		clearColor: [4]float32{0, 0, 0, 1},
		clearDepth: 1,
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *renderPass) Record(cmd gfx.CommandBuffer, target Target, grid Grid, settings *GridSettings, viewProj mgl32.Mat4, overlay OverlayRenderer) error {
	idx := target.ImageIndex

	cmd.ImageBarrier(target.Image, target.Colors.ImageLayout(idx), gfx.LayoutColorAttachment)
	target.Colors.SetImageLayout(idx, gfx.LayoutColorAttachment)

	if old := target.Depths.DepthLayout(); old != gfx.LayoutDepthAttachment {
		cmd.ImageBarrier(target.Depth, old, gfx.LayoutDepthAttachment)
		target.Depths.SetDepthLayout(gfx.LayoutDepthAttachment)
	}

	cmd.BeginRendering(gfx.RenderingInfo{
		ColorView:  target.View,
		DepthView:  target.DepthView,
		Extent:     target.Extent,
		ClearColor: p.clearColor,
		ClearDepth: p.clearDepth,
	})
	cmd.SetViewport(gfx.Viewport{
		Width:    float32(target.Extent.Width),
		Height:   float32(target.Extent.Height),
		MaxDepth: 1,
	})
	cmd.SetScissor(gfx.Rect{Width: target.Extent.Width, Height: target.Extent.Height})

	if grid != nil && settings.AnyVisible() {
		mesh, pipe := grid.Mesh(), grid.Pipeline()
		if mesh != nil && pipe != nil && mesh.IndexCount() > 0 {
			push := MakeGridPush(settings, viewProj)
			cmd.BindPipeline(pipe)
			cmd.PushConstants(pipe, gfx.StageVertex|gfx.StageFragment, 0, push.Marshal())
			cmd.BindMesh(mesh)
			cmd.DrawIndexed(uint32(mesh.IndexCount()), 1)
		}
	}

	var overlayErr error
	if overlay != nil {
		if err := overlay.Render(cmd, target.Extent); err != nil {
			overlayErr = errors.Wrap(err, "render overlay")
		}
	}

	cmd.EndRendering()

	cmd.ImageBarrier(target.Image, gfx.LayoutColorAttachment, gfx.LayoutPresentSrc)
	target.Colors.SetImageLayout(idx, gfx.LayoutPresentSrc)
	return overlayErr
}
