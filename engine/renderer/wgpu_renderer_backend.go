package renderer

import (
	"encoding/binary"
	"math"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-inspect/common"
	"github.com/Carmen-Shannon/oxy-inspect/engine/gfx"
	"github.com/Carmen-Shannon/oxy-inspect/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-inspect/engine/renderer/pipeline"
	"github.com/cockroachdb/errors"
	"github.com/cogentcore/webgpu/wgpu"
)

type wgpuRenderer struct {
	mu     *sync.Mutex
	window Window

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface

	surfaceFormat        wgpu.TextureFormat
	presentMode          PresentMode
	imageCount           int
	forceFallbackAdapter bool

	// configured is the extent of the live swapchain, zero when there is none.
	configured gfx.Extent2D
	nextImage  uint32
	// acquireFailures counts consecutive GetCurrentTexture errors.
	acquireFailures int

	// The surface texture acquired for the frame being recorded.
	frameTexture *wgpu.Texture
	frameView    *wgpu.TextureView

	overlayPipeline *renderPipeline
}

// swapchainImage names one presentable image slot. WebGPU hands out the texture behind it at acquire time.
type swapchainImage struct {
	index int
}

func (*swapchainImage) Release() {}

// swapchainView resolves to the view of the currently acquired surface texture.
type swapchainView struct {
	index int
}

func (*swapchainView) Release() {}

type depthImage struct {
	texture *wgpu.Texture
}

func (d *depthImage) Release() {
	if d.texture != nil {
		d.texture.Release()
		d.texture = nil
	}
}

type textureView struct {
	view *wgpu.TextureView
}

func (v *textureView) Release() {
	if v.view != nil {
		v.view.Release()
		v.view = nil
	}
}

// renderPipeline is a compiled pipeline. uniforms holds the push constant block, nil when none is declared.
type renderPipeline struct {
	label           string
	module          *wgpu.ShaderModule
	bindGroupLayout *wgpu.BindGroupLayout
	layout          *wgpu.PipelineLayout
	pipeline        *wgpu.RenderPipeline
	uniforms        bind_group_provider.BindGroupProvider
}

func (p *renderPipeline) Release() {
	if p.uniforms != nil {
		p.uniforms.Release()
		p.uniforms = nil
	}
	if p.pipeline != nil {
		p.pipeline.Release()
		p.pipeline = nil
	}
	if p.layout != nil {
		p.layout.Release()
		p.layout = nil
	}
	if p.bindGroupLayout != nil {
		p.bindGroupLayout.Release()
		p.bindGroupLayout = nil
	}
	if p.module != nil {
		p.module.Release()
		p.module = nil
	}
}

func (p *renderPipeline) String() string {
	return p.label
}

func (r *wgpuRenderer) CreateSwapchain(extent gfx.Extent2D) (gfx.SwapchainImages, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if extent.IsZero() {
		return gfx.SwapchainImages{}, errors.Newf("swapchain extent %dx%d", extent.Width, extent.Height)
	}
	r.releaseFrame()

	capabilities := r.surface.GetCapabilities(r.adapter)
	mode := r.presentMode.wgpuMode()
	if !slices.Contains(capabilities.PresentModes, mode) {
		common.Logger().Warn("present mode unsupported, using vsync", "present_mode", r.presentMode.String())
		mode = wgpu.PresentModeFifo
	}
	r.surface.Configure(r.adapter, r.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      r.surfaceFormat,
		Width:       extent.Width,
		Height:      extent.Height,
		PresentMode: mode,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	depthTexture, err := r.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Depth Texture",
		Size: wgpu.Extent3D{
			Width:              extent.Width,
			Height:             extent.Height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        depthFormat,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return gfx.SwapchainImages{}, errors.Wrap(err, "create depth texture")
	}
	depthView, err := depthTexture.CreateView(nil)
	if err != nil {
		depthTexture.Release()
		return gfx.SwapchainImages{}, errors.Wrap(err, "create depth view")
	}

	out := gfx.SwapchainImages{
		Depth:       &depthImage{texture: depthTexture},
		DepthView:   &textureView{view: depthView},
		ColorFormat: gfx.Format(r.surfaceFormat),
		DepthFormat: gfx.Format(depthFormat),
		Extent:      extent,
	}
	for i := 0; i < r.imageCount; i++ {
		out.Images = append(out.Images, &swapchainImage{index: i})
		out.Views = append(out.Views, &swapchainView{index: i})
	}
	r.configured = extent
	r.nextImage = 0
	r.acquireFailures = 0
	return out, nil
}

func (r *wgpuRenderer) DestroySwapchain(images gfx.SwapchainImages) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.releaseFrame()
	if images.DepthView != nil {
		images.DepthView.Release()
	}
	if images.Depth != nil {
		images.Depth.Release()
	}
	r.configured = gfx.Extent2D{}
}

func (r *wgpuRenderer) AcquireNextImage(signal gfx.Semaphore) (uint32, gfx.Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.configured.IsZero() {
		return 0, gfx.StatusOutOfDate, nil
	}
	// A frame abandoned before present still holds its texture.
	r.releaseFrame()

	if r.sizeChanged() {
		return 0, gfx.StatusOutOfDate, nil
	}

	texture, err := r.surface.GetCurrentTexture()
	if err != nil {
		r.acquireFailures++
		if r.acquireFailures > maxAcquireFailures {
			return 0, gfx.StatusSuccess, errors.Wrapf(err, "acquire surface texture after %d attempts", r.acquireFailures)
		}
		common.Logger().Debug("surface texture unavailable", "err", err, "attempt", r.acquireFailures)
		return 0, gfx.StatusOutOfDate, nil
	}
	view, err := texture.CreateView(nil)
	if err != nil {
		texture.Release()
		return 0, gfx.StatusSuccess, errors.Wrap(err, "create surface view")
	}
	r.acquireFailures = 0
	r.frameTexture = texture
	r.frameView = view

	index := r.nextImage
	r.nextImage = (r.nextImage + 1) % uint32(r.imageCount)
	return index, gfx.StatusSuccess, nil
}

func (r *wgpuRenderer) Present(imageIndex uint32, wait gfx.Semaphore) (gfx.Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frameTexture == nil {
		return gfx.StatusOutOfDate, nil
	}
	r.surface.Present()
	r.releaseFrame()

	if r.sizeChanged() {
		return gfx.StatusSuboptimal, nil
	}
	return gfx.StatusSuccess, nil
}

// sizeChanged reports whether the window no longer matches the swapchain. Caller must hold the mutex.
func (r *wgpuRenderer) sizeChanged() bool {
	w, h := r.window.FramebufferSize()
	return uint32(max(w, 0)) != r.configured.Width || uint32(max(h, 0)) != r.configured.Height
}

// releaseFrame drops the acquired surface texture. Caller must hold the mutex.
func (r *wgpuRenderer) releaseFrame() {
	if r.frameView != nil {
		r.frameView.Release()
		r.frameView = nil
	}
	if r.frameTexture != nil {
		r.frameTexture.Release()
		r.frameTexture = nil
	}
}

// currentView returns the view of the acquired surface texture, or nil.
func (r *wgpuRenderer) currentView() *wgpu.TextureView {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frameView
}

func (r *wgpuRenderer) UploadMesh(vertices []gfx.Vertex, indices []uint32) (gfx.Mesh, error) {
	mesh := bind_group_provider.NewBindGroupProvider("ground mesh")
	if len(vertices) == 0 || len(indices) == 0 {
		return mesh, nil
	}

	vertexData := vertexBytes(vertices)
	vb, err := r.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: mesh.Label() + " Vertex Buffer",
		Size:  uint64(len(vertexData)),
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create vertex buffer")
	}
	indexData := indexBytes(indices)
	ib, err := r.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: mesh.Label() + " Index Buffer",
		Size:  uint64(len(indexData)),
		Usage: wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		vb.Release()
		return nil, errors.Wrap(err, "create index buffer")
	}
	r.queue.WriteBuffer(vb, 0, vertexData)
	r.queue.WriteBuffer(ib, 0, indexData)
	mesh.SetMesh(vb, ib, len(indices))
	return mesh, nil
}

func (r *wgpuRenderer) CreatePipeline(desc pipeline.Pipeline, source []byte, colorFormat, depthFormat gfx.Format) (gfx.Pipeline, error) {
	pc := desc.PushConstants()
	var entries []wgpu.BindGroupLayoutEntry
	if pc.Size > 0 {
		entries = append(entries, uniformEntry(0, pc.Stages))
	}

	p, err := r.createPipeline(desc, source, wgpu.TextureFormat(colorFormat), wgpu.TextureFormat(depthFormat), entries)
	if err != nil {
		return nil, err
	}
	if pc.Size == 0 {
		return p, nil
	}

	p.uniforms = bind_group_provider.NewBindGroupProvider(desc.PipelineKey() + " uniforms")
	buf, err := r.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: p.uniforms.Label(),
		Size:  alignUniform(pc.Size),
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		p.Release()
		return nil, errors.Wrapf(err, "create %s uniform buffer", desc.PipelineKey())
	}
	p.uniforms.SetBuffer(0, buf)

	bg, err := r.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  p.uniforms.Label(),
		Layout: p.bindGroupLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: buf, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		p.Release()
		return nil, errors.Wrapf(err, "create %s bind group", desc.PipelineKey())
	}
	p.uniforms.SetBindGroup(bg)
	return p, nil
}

// createPipeline compiles desc with one bind group made of entries.
func (r *wgpuRenderer) createPipeline(
	desc pipeline.Pipeline,
	source []byte,
	colorFormat, depthFormat wgpu.TextureFormat,
	entries []wgpu.BindGroupLayoutEntry,
) (*renderPipeline, error) {
	key := desc.PipelineKey()
	if len(source) == 0 {
		return nil, errors.Newf("pipeline %s has no shader source", key)
	}
	p := &renderPipeline{label: key}

	module, err := r.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: key,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: string(source),
		},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "compile %s shader", key)
	}
	p.module = module

	var groups []*wgpu.BindGroupLayout
	if len(entries) > 0 {
		bgl, err := r.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
			Label:   key,
			Entries: entries,
		})
		if err != nil {
			p.Release()
			return nil, errors.Wrapf(err, "create %s bind group layout", key)
		}
		p.bindGroupLayout = bgl
		groups = append(groups, bgl)
	}

	layout, err := r.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            key,
		BindGroupLayouts: groups,
	})
	if err != nil {
		p.Release()
		return nil, errors.Wrapf(err, "create %s pipeline layout", key)
	}
	p.layout = layout

	depthCompare := wgpu.CompareFunctionLess
	if !desc.DepthTestEnabled() {
		depthCompare = wgpu.CompareFunctionAlways
	}
	created, err := r.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  key + " Render Pipeline",
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: desc.VertexEntryPoint(),
			Buffers:    vertexLayouts(desc.VertexStride()),
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: desc.FragmentEntryPoint(),
			Targets: []wgpu.ColorTargetState{{
				Format:    colorFormat,
				Blend:     blendState(desc),
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  topology(desc.Topology()),
			FrontFace: frontFace(desc.FrontFace()),
			CullMode:  cullMode(desc.CullMode()),
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            depthFormat,
			DepthWriteEnabled: desc.DepthWriteEnabled(),
			DepthCompare:      depthCompare,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
	})
	if err != nil {
		p.Release()
		return nil, errors.Wrapf(err, "create %s render pipeline", key)
	}
	p.pipeline = created
	common.Logger().Debug("pipeline created", "pipeline", key, "format", uint32(colorFormat))
	return p, nil
}

// depthFormat is the format of the shared depth target.
const depthFormat = wgpu.TextureFormatDepth24Plus

func uniformEntry(binding uint32, stages gfx.ShaderStage) wgpu.BindGroupLayoutEntry {
	return wgpu.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: visibility(stages),
		Buffer: wgpu.BufferBindingLayout{
			Type: wgpu.BufferBindingTypeUniform,
		},
	}
}

// alignUniform rounds a uniform block size up to 16 bytes.
func alignUniform(size uint32) uint64 {
	return uint64((size + 15) &^ 15)
}

func visibility(stages gfx.ShaderStage) wgpu.ShaderStage {
	var out wgpu.ShaderStage
	if stages&gfx.StageVertex != 0 {
		out |= wgpu.ShaderStageVertex
	}
	if stages&gfx.StageFragment != 0 {
		out |= wgpu.ShaderStageFragment
	}
	return out
}

// vertexLayouts describes the gfx.Vertex buffer, or nothing when the shader generates its vertices.
func vertexLayouts(stride uint32) []wgpu.VertexBufferLayout {
	if stride == 0 {
		return nil
	}
	return []wgpu.VertexBufferLayout{{
		ArrayStride: uint64(stride),
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
			{Format: wgpu.VertexFormatFloat32x4, Offset: 12, ShaderLocation: 1},
		},
	}}
}

func blendState(desc pipeline.Pipeline) *wgpu.BlendState {
	if !desc.BlendEnabled() {
		return nil
	}
	src := wgpu.BlendFactorSrcAlpha
	if desc.PremultipliedAlpha() {
		src = wgpu.BlendFactorOne
	}
	return &wgpu.BlendState{
		Color: wgpu.BlendComponent{
			Operation: wgpu.BlendOperationAdd,
			SrcFactor: src,
			DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
		},
		Alpha: wgpu.BlendComponent{
			Operation: wgpu.BlendOperationAdd,
			SrcFactor: wgpu.BlendFactorOne,
			DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
		},
	}
}

func topology(t pipeline.Topology) wgpu.PrimitiveTopology {
	switch t {
	case pipeline.TopologyTriangleStrip:
		return wgpu.PrimitiveTopologyTriangleStrip
	case pipeline.TopologyLineList:
		return wgpu.PrimitiveTopologyLineList
	case pipeline.TopologyPointList:
		return wgpu.PrimitiveTopologyPointList
	default:
		return wgpu.PrimitiveTopologyTriangleList
	}
}

func frontFace(f pipeline.FrontFace) wgpu.FrontFace {
	if f == pipeline.FrontFaceCW {
		return wgpu.FrontFaceCW
	}
	return wgpu.FrontFaceCCW
}

func cullMode(c pipeline.CullMode) wgpu.CullMode {
	switch c {
	case pipeline.CullModeFront:
		return wgpu.CullModeFront
	case pipeline.CullModeBack:
		return wgpu.CullModeBack
	default:
		return wgpu.CullModeNone
	}
}

// vertexBytes packs vertices into the little endian layout described by vertexLayouts.
func vertexBytes(vertices []gfx.Vertex) []byte {
	out := make([]byte, 0, len(vertices)*gfx.VertexStride)
	for _, v := range vertices {
		for _, f := range v.Position {
			out = binary.LittleEndian.AppendUint32(out, math.Float32bits(f))
		}
		for _, f := range v.Color {
			out = binary.LittleEndian.AppendUint32(out, math.Float32bits(f))
		}
	}
	return out
}

func indexBytes(indices []uint32) []byte {
	out := make([]byte, 0, len(indices)*4)
	for _, i := range indices {
		out = binary.LittleEndian.AppendUint32(out, i)
	}
	return out
}
