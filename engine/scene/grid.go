package scene

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-inspect/common"
	"github.com/Carmen-Shannon/oxy-inspect/engine/gfx"
	"github.com/Carmen-Shannon/oxy-inspect/engine/renderer/pipeline"
	"github.com/cockroachdb/errors"
)

// Backend creates the GPU resources of the grid.
type Backend interface {
	// WaitIdle drains every in-flight frame.
	WaitIdle() error

	// UploadMesh uploads geometry. Empty input yields a mesh with IndexCount 0.
	UploadMesh(vertices []gfx.Vertex, indices []uint32) (gfx.Mesh, error)

	// CreatePipeline compiles desc from shader source for the given attachment formats.
	CreatePipeline(desc pipeline.Pipeline, source []byte, colorFormat, depthFormat gfx.Format) (gfx.Pipeline, error)
}

// GridPipeline returns the pipeline description of the ground grid: alpha blended, depth
// tested, no culling, with the push block visible to both stages.
func GridPipeline() pipeline.Pipeline {
	return pipeline.NewPipeline("ground_grid",
		pipeline.WithBlendEnabled(true),
		pipeline.WithDepthTestEnabled(true),
		pipeline.WithDepthWriteEnabled(true),
		pipeline.WithCullMode(pipeline.CullModeNone),
		pipeline.WithFrontFace(pipeline.FrontFaceCCW),
		pipeline.WithTopology(pipeline.TopologyTriangleList),
		pipeline.WithPushConstants(gfx.StageVertex|gfx.StageFragment, GridPushSize),
		pipeline.WithVertexStride(gfx.VertexStride),
	)
}

// Grid owns the ground quad mesh and the grid pipeline.
type Grid interface {
	// Sync rebuilds the mesh when settings.Extent, raised to MinExtent, differs from the built extent.
	//
	// Parameters:
	//   - settings: the current grid settings
	//
	// Returns:
	//   - bool: true if the mesh was rebuilt
	//   - error: an error if the rebuild failed
	Sync(settings *GridSettings) (bool, error)

	// Rebuild drains the GPU, then replaces the mesh with a quad of the given extent.
	//
	// Parameters:
	//   - extent: the half size of the quad
	//
	// Returns:
	//   - error: an error if the drain or the upload failed; the previous mesh is kept on failure
	Rebuild(extent float32) error

	// RebuildPipeline compiles the pipeline for new attachment formats. It is called after the
	// surface has been drained by a swapchain recreation.
	//
	// Parameters:
	//   - colorFormat: the swapchain color format
	//   - depthFormat: the depth target format
	//
	// Returns:
	//   - error: an error if compilation failed; the previous pipeline is kept on failure
	RebuildPipeline(colorFormat, depthFormat gfx.Format) error

	// Mesh returns the current mesh, or nil before the first Rebuild.
	Mesh() gfx.Mesh

	// Pipeline returns the current pipeline, or nil before the first RebuildPipeline.
	Pipeline() gfx.Pipeline

	// Extent returns the extent the current mesh was built with.
	Extent() float32

	// Release destroys the mesh and the pipeline.
	Release()
}

// grid is the implementation of Grid.
type grid struct {
	mu *sync.Mutex

	backend Backend
	source  []byte
	desc    pipeline.Pipeline

	mesh     gfx.Mesh
	pipe     gfx.Pipeline
	extent   float32
	hasBuilt bool
}

var _ Grid = &grid{}

// NewGrid creates an empty grid resource. Call Rebuild and RebuildPipeline before drawing.
//
// Parameters:
//   - backend: creates meshes and pipelines
//   - source: the grid shader source
//   - options: functional options to configure the grid
//
// Returns:
//   - Grid: the grid resource
func NewGrid(backend Backend, source []byte, options ...GridBuilderOption) Grid {
	g := &grid{
		mu:      &sync.Mutex{},
		backend: backend,
		source:  source,
		desc:    GridPipeline(),
	}
	for _, opt := range options {
		opt(g)
	}
	return g
}

func (g *grid) Sync(settings *GridSettings) (bool, error) {
	extent := common.AtLeast(settings.Extent, MinExtent)
	g.mu.Lock()
	same := g.hasBuilt && g.extent == extent
	g.mu.Unlock()
	if same {
		return false, nil
	}
	if err := g.Rebuild(extent); err != nil {
		return false, err
	}
	return true, nil
}

func (g *grid) Rebuild(extent float32) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	// Buffers may still be read by frames in flight.
	if err := g.backend.WaitIdle(); err != nil {
		return errors.Wrap(err, "drain gpu before grid rebuild")
	}
	vertices, indices := BuildGroundPlane(extent)
	mesh, err := g.backend.UploadMesh(vertices, indices)
	if err != nil {
		return errors.Wrapf(err, "upload ground plane with extent %g", extent)
	}
	if g.mesh != nil {
		g.mesh.Release()
	}
	g.mesh = mesh
	g.extent = common.AtLeast(extent, MinExtent)
	g.hasBuilt = true
	common.Logger().Debug("grid mesh rebuilt", "extent", extent, "indices", mesh.IndexCount())
	return nil
}

func (g *grid) RebuildPipeline(colorFormat, depthFormat gfx.Format) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, err := g.backend.CreatePipeline(g.desc, g.source, colorFormat, depthFormat)
	if err != nil {
		return errors.Wrapf(err, "create pipeline %q", g.desc.PipelineKey())
	}
	if g.pipe != nil {
		g.pipe.Release()
	}
	g.pipe = p
	common.Logger().Debug("grid pipeline rebuilt", "key", g.desc.PipelineKey())
	return nil
}

func (g *grid) Mesh() gfx.Mesh {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.mesh
}

func (g *grid) Pipeline() gfx.Pipeline {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pipe
}

func (g *grid) Extent() float32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.extent
}

func (g *grid) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.mesh != nil {
		g.mesh.Release()
		g.mesh = nil
	}
	if g.pipe != nil {
		g.pipe.Release()
		g.pipe = nil
	}
	g.hasBuilt = false
}
