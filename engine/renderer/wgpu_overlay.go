package renderer

import (
	_ "embed"
	"encoding/binary"
	"math"

	"github.com/Carmen-Shannon/oxy-inspect/engine/gfx"
	"github.com/Carmen-Shannon/oxy-inspect/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-inspect/engine/renderer/pipeline"
	"github.com/cockroachdb/errors"
	"github.com/cogentcore/webgpu/wgpu"
)

//go:embed overlay.wgsl
var overlaySource []byte

// Overlay bind group layout.
const (
	overlayRectBinding    = 0
	overlayTextureBinding = 1
	overlaySamplerBinding = 2

	// overlayRectSize is the vec4 destination rectangle in normalized device coordinates.
	overlayRectSize = 16
)

// overlay is a screen space texture drawn as a quad on top of the scene.
type overlay struct {
	r             *wgpuRenderer
	provider      bind_group_provider.BindGroupProvider
	width, height uint32
}

var _ gfx.Overlay = &overlay{}

func overlayPipelineDesc() pipeline.Pipeline {
	return pipeline.NewPipeline("overlay",
		pipeline.WithPremultipliedAlpha(),
		pipeline.WithDepthTestEnabled(false),
		pipeline.WithDepthWriteEnabled(false),
		pipeline.WithTopology(pipeline.TopologyTriangleStrip),
		pipeline.WithPushConstants(gfx.StageVertex, overlayRectSize),
	)
}

func (r *wgpuRenderer) initOverlayPipeline() error {
	entries := []wgpu.BindGroupLayoutEntry{
		uniformEntry(overlayRectBinding, gfx.StageVertex),
		{
			Binding:    overlayTextureBinding,
			Visibility: wgpu.ShaderStageFragment,
			Texture: wgpu.TextureBindingLayout{
				SampleType:    wgpu.TextureSampleTypeFloat,
				ViewDimension: wgpu.TextureViewDimension2D,
			},
		},
		{
			Binding:    overlaySamplerBinding,
			Visibility: wgpu.ShaderStageFragment,
			Sampler: wgpu.SamplerBindingLayout{
				Type: wgpu.SamplerBindingTypeFiltering,
			},
		},
	}
	p, err := r.createPipeline(overlayPipelineDesc(), overlaySource, r.surfaceFormat, depthFormat, entries)
	if err != nil {
		return errors.Wrap(err, "create overlay pipeline")
	}
	r.overlayPipeline = p
	return nil
}

func (r *wgpuRenderer) CreateOverlay() (gfx.Overlay, error) {
	provider := bind_group_provider.NewBindGroupProvider("overlay")

	buf, err := r.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "overlay rect",
		Size:  overlayRectSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create overlay rect buffer")
	}
	provider.SetBuffer(overlayRectBinding, buf)

	sampler, err := r.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "overlay sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	})
	if err != nil {
		provider.Release()
		return nil, errors.Wrap(err, "create overlay sampler")
	}
	provider.SetSampler(overlaySamplerBinding, sampler)

	return &overlay{r: r, provider: provider}, nil
}

func (o *overlay) Update(pixels []byte, width, height uint32) error {
	if width == 0 || height == 0 {
		return errors.Newf("overlay size %dx%d", width, height)
	}
	if uint64(len(pixels)) != uint64(width)*uint64(height)*4 {
		return errors.Newf("overlay pixels: got %d bytes for %dx%d", len(pixels), width, height)
	}
	if width != o.width || height != o.height || o.provider.Texture(overlayTextureBinding) == nil {
		if err := o.resize(width, height); err != nil {
			return err
		}
	}

	o.r.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  o.provider.Texture(overlayTextureBinding),
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  width * 4,
			RowsPerImage: height,
		},
		&wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
	)
	return nil
}

// resize replaces the texture and rebuilds the bind group that references it.
func (o *overlay) resize(width, height uint32) error {
	tex, err := o.r.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     "overlay texture",
		Usage:     wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
		Format:        overlayFormat(o.r.surfaceFormat),
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return errors.Wrap(err, "create overlay texture")
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return errors.Wrap(err, "create overlay view")
	}

	bg, err := o.r.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "overlay",
		Layout: o.r.overlayPipeline.bindGroupLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: overlayRectBinding, Buffer: o.provider.Buffer(overlayRectBinding), Size: wgpu.WholeSize},
			{Binding: overlayTextureBinding, TextureView: view},
			{Binding: overlaySamplerBinding, Sampler: o.provider.Sampler(overlaySamplerBinding)},
		},
	})
	if err != nil {
		view.Release()
		tex.Release()
		return errors.Wrap(err, "create overlay bind group")
	}

	o.provider.SetBindGroup(bg)
	o.provider.SetTexture(overlayTextureBinding, tex, view)
	o.width, o.height = width, height
	return nil
}

func (o *overlay) Release() {
	o.provider.Release()
	o.width, o.height = 0, 0
}

// overlayFormat matches the overlay texture encoding to the surface so sRGB pixels pass through unchanged.
func overlayFormat(surface wgpu.TextureFormat) wgpu.TextureFormat {
	switch surface {
	case wgpu.TextureFormatBGRA8UnormSrgb, wgpu.TextureFormatRGBA8UnormSrgb:
		return wgpu.TextureFormatRGBA8UnormSrgb
	default:
		return wgpu.TextureFormatRGBA8Unorm
	}
}

// ndcRect encodes dst as (left, top, right, bottom) in normalized device coordinates of a target of size extent.
func ndcRect(dst gfx.Rect, extent gfx.Extent2D) []byte {
	w, h := float32(max(extent.Width, 1)), float32(max(extent.Height, 1))
	x0 := float32(dst.X)/w*2 - 1
	y0 := 1 - float32(dst.Y)/h*2
	x1 := float32(dst.X+int32(dst.Width))/w*2 - 1
	y1 := 1 - float32(dst.Y+int32(dst.Height))/h*2

	out := make([]byte, 0, overlayRectSize)
	for _, f := range []float32{x0, y0, x1, y1} {
		out = binary.LittleEndian.AppendUint32(out, math.Float32bits(f))
	}
	return out
}
