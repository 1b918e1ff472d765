package surface

// ManagerBuilderOption is a functional option for configuring a surface Manager.
type ManagerBuilderOption func(m *manager)

// WithOnRecreated registers a listener before the first swapchain is built, so it also sees
// generation 1.
//
// Parameters:
//   - fn: the listener, called with the new state
//
// Returns:
//   - ManagerBuilderOption: option function to apply
func WithOnRecreated(fn func(State)) ManagerBuilderOption {
	return func(m *manager) {
		if fn != nil {
			m.listeners = append(m.listeners, fn)
		}
	}
}
