package bind_group_provider

// BufferWrite is a pending write of Data into the buffer at Binding on Provider, starting at Offset.
// Command buffers queue writes while recording and the renderer flushes them right before submission.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  int
	Offset   uint64
	Data     []byte
}

// Valid reports whether the write has data and a buffer to land in.
func (w BufferWrite) Valid() bool {
	return w.Provider != nil && len(w.Data) > 0 && w.Provider.Buffer(w.Binding) != nil
}
