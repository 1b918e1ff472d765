package renderer

import (
	"github.com/Carmen-Shannon/oxy-inspect/common"
	"github.com/Carmen-Shannon/oxy-inspect/engine/gfx"
	"github.com/Carmen-Shannon/oxy-inspect/engine/renderer/bind_group_provider"
	"github.com/cockroachdb/errors"
	"github.com/cogentcore/webgpu/wgpu"
)

// commandBuffer records one frame into a WebGPU command encoder.
// Push constant data is queued as buffer writes that Submit flushes before the commands run.
type commandBuffer struct {
	r *wgpuRenderer

	encoder  *wgpu.CommandEncoder
	pass     *wgpu.RenderPassEncoder
	finished *wgpu.CommandBuffer
	extent   gfx.Extent2D
	writes   []bind_group_provider.BufferWrite
}

var _ gfx.CommandBuffer = &commandBuffer{}

func (c *commandBuffer) Begin() error {
	if c.encoder != nil {
		return errors.New("command buffer is already recording")
	}
	if c.finished != nil {
		c.finished.Release()
		c.finished = nil
	}
	encoder, err := c.r.device.CreateCommandEncoder(nil)
	if err != nil {
		return errors.Wrap(err, "create command encoder")
	}
	c.encoder = encoder
	c.writes = c.writes[:0]
	return nil
}

func (c *commandBuffer) End() error {
	if c.encoder == nil {
		return errors.New("command buffer is not recording")
	}
	c.endPass()
	finished, err := c.encoder.Finish(nil)
	c.encoder.Release()
	c.encoder = nil
	if err != nil {
		return errors.Wrap(err, "finish command encoder")
	}
	c.finished = finished
	return nil
}

// ImageBarrier is a no-op: WebGPU inserts the transitions itself from attachment usage.
func (c *commandBuffer) ImageBarrier(image gfx.Image, oldLayout, newLayout gfx.ImageLayout) {}

func (c *commandBuffer) BeginRendering(info gfx.RenderingInfo) {
	if c.encoder == nil || c.pass != nil {
		return
	}
	color := c.r.resolveView(info.ColorView)
	if color == nil {
		common.Logger().Warn("rendering skipped, no acquired surface texture")
		return
	}
	desc := &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:    color,
			LoadOp:  wgpu.LoadOpClear,
			StoreOp: wgpu.StoreOpStore,
			ClearValue: wgpu.Color{
				R: float64(info.ClearColor[0]),
				G: float64(info.ClearColor[1]),
				B: float64(info.ClearColor[2]),
				A: float64(info.ClearColor[3]),
			},
		}},
	}
	if depth := c.r.resolveView(info.DepthView); depth != nil {
		desc.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:            depth,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: info.ClearDepth,
		}
	}
	c.pass = c.encoder.BeginRenderPass(desc)
	c.extent = info.Extent
}

func (c *commandBuffer) EndRendering() {
	c.endPass()
}

func (c *commandBuffer) endPass() {
	if c.pass == nil {
		return
	}
	c.pass.End()
	c.pass.Release()
	c.pass = nil
}

func (c *commandBuffer) SetViewport(v gfx.Viewport) {
	if c.pass == nil {
		return
	}
	c.pass.SetViewport(v.X, v.Y, v.Width, v.Height, v.MinDepth, v.MaxDepth)
}

func (c *commandBuffer) SetScissor(r gfx.Rect) {
	if c.pass == nil {
		return
	}
	c.pass.SetScissorRect(uint32(max(r.X, 0)), uint32(max(r.Y, 0)), r.Width, r.Height)
}

func (c *commandBuffer) BindPipeline(p gfx.Pipeline) {
	rp, ok := p.(*renderPipeline)
	if c.pass == nil || !ok || rp.pipeline == nil {
		return
	}
	c.pass.SetPipeline(rp.pipeline)
	if rp.uniforms != nil && rp.uniforms.BindGroup() != nil {
		c.pass.SetBindGroup(0, rp.uniforms.BindGroup(), nil)
	}
}

func (c *commandBuffer) PushConstants(p gfx.Pipeline, stages gfx.ShaderStage, offset uint32, data []byte) {
	rp, ok := p.(*renderPipeline)
	if !ok || rp.uniforms == nil {
		return
	}
	c.writes = append(c.writes, bind_group_provider.BufferWrite{
		Provider: rp.uniforms,
		Binding:  0,
		Offset:   uint64(offset),
		Data:     append([]byte(nil), data...),
	})
}

func (c *commandBuffer) BindMesh(m gfx.Mesh) {
	mesh, ok := m.(bind_group_provider.BindGroupProvider)
	if c.pass == nil || !ok || mesh.VertexBuffer() == nil || mesh.IndexBuffer() == nil {
		return
	}
	c.pass.SetVertexBuffer(0, mesh.VertexBuffer(), 0, wgpu.WholeSize)
	c.pass.SetIndexBuffer(mesh.IndexBuffer(), wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
}

func (c *commandBuffer) DrawIndexed(indexCount, instanceCount uint32) {
	if c.pass == nil || indexCount == 0 {
		return
	}
	c.pass.DrawIndexed(indexCount, instanceCount, 0, 0, 0)
}

func (c *commandBuffer) DrawOverlay(o gfx.Overlay, dst gfx.Rect) {
	ov, ok := o.(*overlay)
	if c.pass == nil || !ok || ov.provider.BindGroup() == nil || c.r.overlayPipeline == nil {
		return
	}
	c.writes = append(c.writes, bind_group_provider.BufferWrite{
		Provider: ov.provider,
		Binding:  overlayRectBinding,
		Data:     ndcRect(dst, c.extent),
	})
	c.pass.SetPipeline(c.r.overlayPipeline.pipeline)
	c.pass.SetBindGroup(0, ov.provider.BindGroup(), nil)
	c.pass.Draw(4, 1, 0, 0)
}

func (c *commandBuffer) Release() {
	c.endPass()
	if c.encoder != nil {
		c.encoder.Release()
		c.encoder = nil
	}
	if c.finished != nil {
		c.finished.Release()
		c.finished = nil
	}
	c.writes = nil
}

// resolveView maps a gfx view handle onto a WebGPU view.
func (r *wgpuRenderer) resolveView(v gfx.ImageView) *wgpu.TextureView {
	switch view := v.(type) {
	case *swapchainView:
		return r.currentView()
	case *textureView:
		return view.view
	default:
		return nil
	}
}
