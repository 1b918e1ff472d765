package camera

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-inspect/common"
	"github.com/go-gl/mathgl/mgl32"
)

// Mode selects the active camera behavior.
type Mode int

const (
	// ModeOrbit rotates around a pivot at a distance.
	ModeOrbit Mode = iota
	// ModeFly moves a free eye with yaw and pitch.
	ModeFly
)

func (m Mode) String() string {
	if m == ModeFly {
		return "Fly"
	}
	return "Orbit"
}

// Default timestep used when the measured frame delta is unusable, and the largest step
// integrated in one update.
const (
	DefaultDeltaTime float32 = 1.0 / 60.0
	MaxDeltaTime     float32 = 0.05
)

// Config holds projection and control tuning.
type Config struct {
	// FovY is the vertical field of view in radians.
	FovY float32
	Near float32
	Far  float32

	// RotateSpeed is the orbit rotation in radians per pixel of pointer motion.
	RotateSpeed float32
	// PanSpeed is the pivot motion per pixel, scaled by the orbit distance.
	PanSpeed float32
	// ZoomRate is the exponent applied per scroll unit.
	ZoomRate    float32
	MinDistance float32
	MaxDistance float32

	// LookSpeed is the fly look rotation in radians per pixel of pointer motion.
	LookSpeed float32
	// MoveSpeed is the fly translation in world units per second.
	MoveSpeed float32
	// FastMultiplier scales MoveSpeed while shift is held.
	FastMultiplier float32

	// PitchMargin keeps elevation and pitch this far inside plus or minus Pi/2.
	PitchMargin float32
}

// DefaultConfig returns the tuning used when no options are given.
func DefaultConfig() Config {
	return Config{
		FovY:           mgl32.DegToRad(60),
		Near:           0.05,
		Far:            1000,
		RotateSpeed:    0.005,
		PanSpeed:       0.0015,
		ZoomRate:       0.1,
		MinDistance:    1.0,
		MaxDistance:    5000,
		LookSpeed:      0.003,
		MoveSpeed:      5,
		FastMultiplier: 4,
		PitchMargin:    0.01,
	}
}

// OrbitState is the orbit parameter set.
type OrbitState struct {
	Azimuth   float32
	Elevation float32
	Distance  float32
	Pivot     mgl32.Vec3
}

// FlyState is the fly parameter set.
type FlyState struct {
	Eye   mgl32.Vec3
	Yaw   float32
	Pitch float32
}

// State is the full camera parameter set.
type State struct {
	Mode  Mode
	Orbit OrbitState
	Fly   FlyState
}

// Matrices are derived from State on every update with a non-empty viewport.
type Matrices struct {
	View     mgl32.Mat4
	Proj     mgl32.Mat4
	ViewProj mgl32.Mat4
	// C2W is the camera to world transform, the inverse of View.
	C2W mgl32.Mat4
	Eye mgl32.Vec3
}

// Input is the per-frame control input after UI capture has been applied.
type Input struct {
	LMB, MMB, RMB bool

	DX, DY float32
	Scroll float32

	Shift, Ctrl, Alt, Space bool

	Forward, Backward bool
	Left, Right       bool
	Up, Down          bool
}

// Camera is the orbit/fly camera state machine.
type Camera interface {
	// SetMode requests a mode. The switch takes effect at the start of the next Update.
	//
	// Parameters:
	//   - mode: the requested mode
	SetMode(mode Mode)

	// Mode returns the active mode.
	//
	// Returns:
	//   - Mode: the mode applied by the last Update
	Mode() Mode

	// Update integrates one frame of input and recomputes the matrices. A zero width or height
	// keeps the previous matrices.
	//
	// Parameters:
	//   - dt: the frame time in seconds; unusable values fall back to DefaultDeltaTime
	//   - width: the viewport width in pixels
	//   - height: the viewport height in pixels
	//   - in: the control input for this frame
	Update(dt float32, width, height uint32, in Input)

	// Home resets both parameter sets to their home values without changing the mode.
	Home()

	// Matrices returns the matrices computed by the last Update.
	//
	// Returns:
	//   - Matrices: view, projection, view-projection and camera-to-world
	Matrices() Matrices

	// State returns a copy of the current parameters.
	//
	// Returns:
	//   - State: the camera parameters
	State() State

	// SetState replaces the parameters. Out of range values are clamped and non-finite values
	// are replaced with home values. The mode in s becomes the active mode.
	//
	// Parameters:
	//   - s: the new parameters
	SetState(s State)

	// Config returns the current tuning.
	//
	// Returns:
	//   - Config: the camera configuration
	Config() Config

	// SetConfig replaces the tuning. Non-finite fields fall back to DefaultConfig and the
	// distance, clip plane and field of view limits are kept in a usable range.
	//
	// Parameters:
	//   - cfg: the new configuration
	SetConfig(cfg Config)
}

// camera is the implementation of Camera.
type camera struct {
	mu *sync.Mutex

	cfg Config

	mode        Mode
	pendingMode Mode

	orbit OrbitState
	fly   FlyState

	homeOrbit OrbitState
	homeFly   FlyState

	aspect   float32
	matrices Matrices
}

var _ Camera = &camera{}

// NewCamera creates a camera in orbit mode at its home position.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &camera{
		mu:  &sync.Mutex{},
		cfg: DefaultConfig(),
		homeOrbit: OrbitState{
			Azimuth:   float32(math.Pi / 4),
			Elevation: float32(math.Pi / 6),
			Distance:  10,
		},
		homeFly: FlyState{
			Eye:   mgl32.Vec3{0, 2, 8},
			Pitch: -0.2,
		},
		aspect: 1,
	}
	for _, opt := range options {
		opt(c)
	}
	c.cfg = sanitizeConfig(c.cfg)
	c.orbit = c.homeOrbit
	c.fly = c.homeFly
	c.pendingMode = c.mode
	c.sanitize()
	c.updateMatrices()
	return c
}

func (c *camera) SetMode(mode Mode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingMode = mode
}

func (c *camera) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

func (c *camera) Update(dt float32, width, height uint32, in Input) {
	c.mu.Lock()
	defer c.mu.Unlock()

	dt = clampDeltaTime(dt)
	in = sanitizeInput(in)

	if c.pendingMode != c.mode {
		c.switchMode(c.pendingMode)
	}

	switch c.mode {
	case ModeFly:
		c.updateFly(dt, in)
	default:
		c.updateOrbit(in)
	}

	if width == 0 || height == 0 {
		return
	}
	c.aspect = float32(width) / float32(height)
	c.updateMatrices()
}

func (c *camera) Home() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orbit = c.homeOrbit
	c.fly = c.homeFly
	c.sanitize()
	c.updateMatrices()
}

func (c *camera) Matrices() Matrices {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.matrices
}

func (c *camera) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{Mode: c.mode, Orbit: c.orbit, Fly: c.fly}
}

func (c *camera) SetState(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode = s.Mode
	c.pendingMode = s.Mode
	c.orbit = s.Orbit
	c.fly = s.Fly
	c.sanitize()
	c.updateMatrices()
}

func (c *camera) Config() Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg
}

func (c *camera) SetConfig(cfg Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg = sanitizeConfig(cfg)
	c.sanitize()
	c.updateMatrices()
}

// Smallest tuning values accepted by the camera.
const (
	minOrbitDistance float32 = 1e-3
	minNear          float32 = 1e-4
	minPitchMargin   float32 = 1e-4
)

// sanitizeConfig replaces non-finite fields with their defaults and keeps the orbit distance, the
// clip planes and the field of view in a range that yields invertible matrices.
func sanitizeConfig(cfg Config) Config {
	def := DefaultConfig()

	if fov := cfg.FovY; !(fov > 0 && fov < math.Pi) {
		cfg.FovY = def.FovY
	}
	cfg.Near = common.AtLeast(common.FiniteOr(cfg.Near, def.Near), minNear)
	if far := cfg.Far; !common.IsFinite(far) || far <= cfg.Near {
		cfg.Far = max(def.Far, cfg.Near*2)
	}

	cfg.RotateSpeed = common.FiniteOr(cfg.RotateSpeed, def.RotateSpeed)
	cfg.PanSpeed = common.FiniteOr(cfg.PanSpeed, def.PanSpeed)
	cfg.ZoomRate = common.FiniteOr(cfg.ZoomRate, def.ZoomRate)
	cfg.LookSpeed = common.FiniteOr(cfg.LookSpeed, def.LookSpeed)
	cfg.MoveSpeed = common.FiniteOr(cfg.MoveSpeed, def.MoveSpeed)
	cfg.FastMultiplier = common.FiniteOr(cfg.FastMultiplier, def.FastMultiplier)

	cfg.MinDistance = common.AtLeast(common.FiniteOr(cfg.MinDistance, def.MinDistance), minOrbitDistance)
	cfg.MaxDistance = common.AtLeast(common.FiniteOr(cfg.MaxDistance, def.MaxDistance), cfg.MinDistance)
	cfg.PitchMargin = common.Clamp(common.FiniteOr(cfg.PitchMargin, def.PitchMargin), minPitchMargin, float32(math.Pi/4))
	return cfg
}

// clampDeltaTime replaces non-positive or non-finite steps and caps long frames.
func clampDeltaTime(dt float32) float32 {
	if !(dt > 0) || !common.IsFinite(dt) {
		return DefaultDeltaTime
	}
	return min(dt, MaxDeltaTime)
}

func sanitizeInput(in Input) Input {
	if !common.IsFinite(in.DX) {
		in.DX = 0
	}
	if !common.IsFinite(in.DY) {
		in.DY = 0
	}
	if !common.IsFinite(in.Scroll) {
		in.Scroll = 0
	}
	return in
}

// pitchLimit is the largest allowed absolute elevation or pitch.
func (c *camera) pitchLimit() float32 {
	return float32(math.Pi/2) - c.cfg.PitchMargin
}

// sanitize restores the parameter invariants after external writes. Caller must hold the mutex.
func (c *camera) sanitize() {
	lim := c.pitchLimit()

	if !common.IsFinite(c.orbit.Azimuth) {
		c.orbit.Azimuth = c.homeOrbit.Azimuth
	}
	if !common.IsFinite(c.orbit.Elevation) {
		c.orbit.Elevation = c.homeOrbit.Elevation
	}
	if !common.IsFinite(c.orbit.Distance) {
		c.orbit.Distance = c.homeOrbit.Distance
	}
	if !common.IsFiniteVec3(c.orbit.Pivot) {
		c.orbit.Pivot = c.homeOrbit.Pivot
	}
	c.orbit.Azimuth = common.WrapAngle(c.orbit.Azimuth)
	c.orbit.Elevation = common.Clamp(c.orbit.Elevation, -lim, lim)
	c.orbit.Distance = common.Clamp(c.orbit.Distance, c.cfg.MinDistance, c.cfg.MaxDistance)

	if !common.IsFiniteVec3(c.fly.Eye) {
		c.fly.Eye = c.homeFly.Eye
	}
	if !common.IsFinite(c.fly.Yaw) {
		c.fly.Yaw = c.homeFly.Yaw
	}
	if !common.IsFinite(c.fly.Pitch) {
		c.fly.Pitch = c.homeFly.Pitch
	}
	c.fly.Yaw = common.WrapAngle(c.fly.Yaw)
	c.fly.Pitch = common.Clamp(c.fly.Pitch, -lim, lim)
}

// updateMatrices derives the matrices from the active parameter set. Caller must hold the mutex.
func (c *camera) updateMatrices() {
	var eye, center mgl32.Vec3
	switch c.mode {
	case ModeFly:
		eye = c.fly.Eye
		center = eye.Add(flyForward(c.fly.Yaw, c.fly.Pitch))
	default:
		eye = orbitEye(c.orbit)
		center = c.orbit.Pivot
	}

	view := mgl32.LookAtV(eye, center, common.WorldUp)
	proj := common.PerspectiveZO(c.cfg.FovY, c.aspect, c.cfg.Near, c.cfg.Far)
	m := Matrices{
		View:     view,
		Proj:     proj,
		ViewProj: proj.Mul4(view),
		C2W:      view.Inv(),
		Eye:      eye,
	}
	if !common.IsFiniteMat4(m.ViewProj) || !common.IsFiniteMat4(m.C2W) {
		return
	}
	c.matrices = m
}

// switchMode hands the current view over to the other parameter set so the image does not jump.
// Caller must hold the mutex.
func (c *camera) switchMode(to Mode) {
	switch to {
	case ModeFly:
		eye := orbitEye(c.orbit)
		f := c.orbit.Pivot.Sub(eye).Normalize()
		c.fly.Eye = eye
		c.fly.Yaw = float32(math.Atan2(float64(f[0]), float64(-f[2])))
		c.fly.Pitch = float32(math.Asin(float64(common.Clamp(f[1], -1, 1))))
	default:
		f := flyForward(c.fly.Yaw, c.fly.Pitch)
		c.orbit.Pivot = c.fly.Eye.Add(f.Mul(c.orbit.Distance))
		c.orbit.Azimuth = float32(math.Atan2(float64(-f[0]), float64(-f[2])))
		c.orbit.Elevation = float32(math.Asin(float64(common.Clamp(-f[1], -1, 1))))
	}
	c.mode = to
	c.sanitize()
}
