package pipeline

import "github.com/Carmen-Shannon/oxy-inspect/engine/gfx"

// CullMode selects which triangle faces are discarded.
type CullMode int

const (
	CullModeNone CullMode = iota
	CullModeFront
	CullModeBack
)

// Topology selects how vertices are assembled into primitives.
type Topology int

const (
	TopologyTriangleList Topology = iota
	TopologyTriangleStrip
	TopologyLineList
	TopologyPointList
)

// FrontFace selects the winding order treated as front facing.
type FrontFace int

const (
	FrontFaceCCW FrontFace = iota
	FrontFaceCW
)

// PushConstantRange is a block of per-draw data visible to a set of shader stages.
type PushConstantRange struct {
	Stages gfx.ShaderStage
	Size   uint32
}

// pipeline is the implementation of the Pipeline interface.
// It holds the fixed-function state a backend needs to compile a graphics pipeline.
type pipeline struct {
	// pipelineKey is the unique identifier for this pipeline, used for labels and logs
	pipelineKey string

	vertexEntryPoint   string
	fragmentEntryPoint string

	depthTestEnabled  bool
	depthWriteEnabled bool
	blendEnabled      bool
	premultiplied     bool
	cullMode          CullMode
	topology          Topology
	frontFace         FrontFace
	pushConstants     PushConstantRange
	vertexStride      uint32
}

// Pipeline describes a graphics pipeline independently of the GPU API that compiles it.
// Backends read the description when the pipeline is first created and again every time it is
// rebuilt after the swapchain format changes.
type Pipeline interface {
	// PipelineKey returns the unique key associated with this pipeline, used for labels and logs.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	PipelineKey() string

	// VertexEntryPoint returns the name of the vertex stage entry point.
	//
	// Returns:
	//   - string: the entry point name
	VertexEntryPoint() string

	// FragmentEntryPoint returns the name of the fragment stage entry point.
	//
	// Returns:
	//   - string: the entry point name
	FragmentEntryPoint() string

	// DepthTestEnabled returns whether depth testing is enabled for this pipeline.
	//
	// Returns:
	//   - bool: true if depth testing is enabled, false otherwise
	DepthTestEnabled() bool

	// DepthWriteEnabled returns whether depth writing is enabled for this pipeline.
	//
	// Returns:
	//   - bool: true if depth writing is enabled, false otherwise
	DepthWriteEnabled() bool

	// BlendEnabled returns whether alpha blending is enabled for this pipeline.
	//
	// Returns:
	//   - bool: true if blending is enabled, false otherwise
	BlendEnabled() bool

	// PremultipliedAlpha returns whether blending treats source colors as already multiplied by alpha.
	//
	// Returns:
	//   - bool: true for premultiplied blending, false for straight alpha
	PremultipliedAlpha() bool

	// CullMode returns the cull mode configured for this pipeline.
	//
	// Returns:
	//   - CullMode: the cull mode for this pipeline
	CullMode() CullMode

	// Topology returns the primitive topology configured for this pipeline.
	//
	// Returns:
	//   - Topology: the primitive topology for this pipeline
	Topology() Topology

	// FrontFace returns the front face winding order configured for this pipeline.
	//
	// Returns:
	//   - FrontFace: the front face winding order for this pipeline
	FrontFace() FrontFace

	// PushConstants returns the per-draw data block declared by this pipeline.
	//
	// Returns:
	//   - PushConstantRange: the stages and byte size of the block, zero size when unused
	PushConstants() PushConstantRange

	// VertexStride returns the byte stride of the single vertex buffer, or zero when the
	// pipeline generates its vertices in the shader.
	//
	// Returns:
	//   - uint32: the vertex stride in bytes
	VertexStride() uint32
}

var _ Pipeline = &pipeline{}

// NewPipeline creates a new Pipeline description with the defaults of an opaque triangle pipeline.
//
// Parameters:
//   - pipelineKey: the unique key for this pipeline
//   - opts: a variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: a new Pipeline instance with the specified configuration
func NewPipeline(pipelineKey string, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineKey:        pipelineKey,
		vertexEntryPoint:   "vs_main",
		fragmentEntryPoint: "fs_main",
		depthTestEnabled:   true,
		depthWriteEnabled:  true,
		blendEnabled:       false,
		cullMode:           CullModeNone,
		topology:           TopologyTriangleList,
		frontFace:          FrontFaceCCW,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) VertexEntryPoint() string {
	return p.vertexEntryPoint
}

func (p *pipeline) FragmentEntryPoint() string {
	return p.fragmentEntryPoint
}

func (p *pipeline) DepthTestEnabled() bool {
	return p.depthTestEnabled
}

func (p *pipeline) DepthWriteEnabled() bool {
	return p.depthWriteEnabled
}

func (p *pipeline) BlendEnabled() bool {
	return p.blendEnabled
}

func (p *pipeline) PremultipliedAlpha() bool {
	return p.premultiplied
}

func (p *pipeline) CullMode() CullMode {
	return p.cullMode
}

func (p *pipeline) Topology() Topology {
	return p.topology
}

func (p *pipeline) FrontFace() FrontFace {
	return p.frontFace
}

func (p *pipeline) PushConstants() PushConstantRange {
	return p.pushConstants
}

func (p *pipeline) VertexStride() uint32 {
	return p.vertexStride
}
