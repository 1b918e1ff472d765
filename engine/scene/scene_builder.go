package scene

import "github.com/Carmen-Shannon/oxy-inspect/engine/renderer/pipeline"

// GridBuilderOption is a functional option for configuring a Grid.
type GridBuilderOption func(g *grid)

// WithGridPipeline replaces the default grid pipeline description.
//
// Parameters:
//   - desc: the pipeline description
//
// Returns:
//   - GridBuilderOption: option function to apply
func WithGridPipeline(desc pipeline.Pipeline) GridBuilderOption {
	return func(g *grid) {
		if desc != nil {
			g.desc = desc
		}
	}
}

// RenderPassBuilderOption is a functional option for configuring a RenderPass.
type RenderPassBuilderOption func(p *renderPass)

// WithClearColor sets the color the target is cleared to. The default is opaque black.
//
// Parameters:
//   - r, g, b, a: the clear color components in [0, 1]
//
// Returns:
//   - RenderPassBuilderOption: option function to apply
func WithClearColor(r, g, b, a float32) RenderPassBuilderOption {
	return func(p *renderPass) {
		p.clearColor = [4]float32{r, g, b, a}
	}
}
