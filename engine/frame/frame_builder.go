package frame

// SystemBuilderOption is a functional option for configuring a frame System.
type SystemBuilderOption func(s *system)

// WithFramesInFlight sets how many frames the CPU may record ahead of the GPU.
// Values below 1 are raised to 1.
//
// Parameters:
//   - n: the number of frame slots
//
// Returns:
//   - SystemBuilderOption: option function to apply
func WithFramesInFlight(n int) SystemBuilderOption {
	return func(s *system) {
		s.framesInFlight = n
	}
}
