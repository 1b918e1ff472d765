package bind_group_provider

import "testing"

func TestNewBindGroupProviderIsEmpty(t *testing.T) {
	p := NewBindGroupProvider("ground_grid mesh")
	if p.Label() != "ground_grid mesh" {
		t.Errorf("Label() = %q", p.Label())
	}
	if p.BindGroup() != nil || p.Buffer(0) != nil || p.TextureView(1) != nil || p.Texture(1) != nil || p.Sampler(2) != nil {
		t.Error("new provider holds resources")
	}
	if p.VertexBuffer() != nil || p.IndexBuffer() != nil || p.IndexCount() != 0 {
		t.Error("new provider holds a mesh")
	}
}

func TestSetMeshWithoutBuffers(t *testing.T) {
	p := NewBindGroupProvider("empty")
	p.SetMesh(nil, nil, -3)
	if p.IndexCount() != 0 {
		t.Errorf("IndexCount() = %d, want 0", p.IndexCount())
	}
	p.Release()
	p.Release()
}

func TestBufferWriteValid(t *testing.T) {
	p := NewBindGroupProvider("uniforms")
	cases := []struct {
		name  string
		write BufferWrite
	}{
		{"no provider", BufferWrite{Data: []byte{1}}},
		{"no data", BufferWrite{Provider: p}},
		{"no buffer at binding", BufferWrite{Provider: p, Binding: 3, Data: []byte{1}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.write.Valid() {
				t.Error("Valid() = true")
			}
		})
	}
}
