package camera

// CameraBuilderOption is a functional option for configuring a camera.
type CameraBuilderOption func(c *camera)

// WithConfig replaces the whole tuning block.
//
// Parameters:
//   - cfg: the camera configuration
//
// Returns:
//   - CameraBuilderOption: option function to apply
func WithConfig(cfg Config) CameraBuilderOption {
	return func(c *camera) {
		c.cfg = cfg
	}
}

// WithProjection sets the vertical field of view and the clip planes.
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - near: near plane distance
//   - far: far plane distance
//
// Returns:
//   - CameraBuilderOption: option function to apply
func WithProjection(fovY, near, far float32) CameraBuilderOption {
	return func(c *camera) {
		c.cfg.FovY = fovY
		c.cfg.Near = near
		c.cfg.Far = far
	}
}

// WithMode sets the starting mode.
//
// Parameters:
//   - mode: ModeOrbit or ModeFly
//
// Returns:
//   - CameraBuilderOption: option function to apply
func WithMode(mode Mode) CameraBuilderOption {
	return func(c *camera) {
		c.mode = mode
	}
}

// WithHomeOrbit sets the orbit parameters restored by Home and used at startup.
//
// Parameters:
//   - o: the home orbit parameters
//
// Returns:
//   - CameraBuilderOption: option function to apply
func WithHomeOrbit(o OrbitState) CameraBuilderOption {
	return func(c *camera) {
		c.homeOrbit = o
	}
}

// WithHomeFly sets the fly parameters restored by Home and used at startup.
//
// Parameters:
//   - f: the home fly parameters
//
// Returns:
//   - CameraBuilderOption: option function to apply
func WithHomeFly(f FlyState) CameraBuilderOption {
	return func(c *camera) {
		c.homeFly = f
	}
}
