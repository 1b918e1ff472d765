package pipeline

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-inspect/engine/gfx"
)

func TestNewPipelineDefaults(t *testing.T) {
	p := NewPipeline("grid")

	if p.PipelineKey() != "grid" {
		t.Errorf("PipelineKey() = %q", p.PipelineKey())
	}
	if p.VertexEntryPoint() != "vs_main" || p.FragmentEntryPoint() != "fs_main" {
		t.Errorf("entry points = %q/%q", p.VertexEntryPoint(), p.FragmentEntryPoint())
	}
	if !p.DepthTestEnabled() || !p.DepthWriteEnabled() {
		t.Error("depth test and write should default to enabled")
	}
	if p.BlendEnabled() {
		t.Error("blend should default to disabled")
	}
	if p.CullMode() != CullModeNone || p.Topology() != TopologyTriangleList || p.FrontFace() != FrontFaceCCW {
		t.Errorf("fixed function defaults = %v %v %v", p.CullMode(), p.Topology(), p.FrontFace())
	}
	if p.PushConstants().Size != 0 {
		t.Errorf("PushConstants().Size = %d, want 0", p.PushConstants().Size)
	}
}

func TestPipelineOptions(t *testing.T) {
	p := NewPipeline("overlay",
		WithEntryPoints("vert", "frag"),
		WithDepthTestEnabled(false),
		WithDepthWriteEnabled(false),
		WithBlendEnabled(true),
		WithCullMode(CullModeBack),
		WithTopology(TopologyTriangleStrip),
		WithFrontFace(FrontFaceCW),
		WithPushConstants(gfx.StageVertex|gfx.StageFragment, 96),
		WithVertexStride(28),
	)

	if p.VertexEntryPoint() != "vert" || p.FragmentEntryPoint() != "frag" {
		t.Errorf("entry points = %q/%q", p.VertexEntryPoint(), p.FragmentEntryPoint())
	}
	if p.DepthTestEnabled() || p.DepthWriteEnabled() {
		t.Error("depth should be disabled")
	}
	if !p.BlendEnabled() {
		t.Error("blend should be enabled")
	}
	if p.CullMode() != CullModeBack || p.Topology() != TopologyTriangleStrip || p.FrontFace() != FrontFaceCW {
		t.Errorf("fixed function state = %v %v %v", p.CullMode(), p.Topology(), p.FrontFace())
	}
	want := PushConstantRange{Stages: gfx.StageVertex | gfx.StageFragment, Size: 96}
	if p.PushConstants() != want {
		t.Errorf("PushConstants() = %+v, want %+v", p.PushConstants(), want)
	}
	if p.VertexStride() != 28 {
		t.Errorf("VertexStride() = %d", p.VertexStride())
	}
}

func TestPremultipliedAlphaEnablesBlend(t *testing.T) {
	p := NewPipeline("overlay", WithPremultipliedAlpha())
	if !p.BlendEnabled() || !p.PremultipliedAlpha() {
		t.Errorf("blend %v premultiplied %v, want both", p.BlendEnabled(), p.PremultipliedAlpha())
	}
	if NewPipeline("grid", WithBlendEnabled(true)).PremultipliedAlpha() {
		t.Error("straight alpha pipeline reports premultiplied")
	}
}
