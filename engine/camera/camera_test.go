package camera

import (
	"math"
	"math/rand"
	"testing"

	"github.com/Carmen-Shannon/oxy-inspect/common"
	"github.com/go-gl/mathgl/mgl32"
)

func approx(a, b, eps float32) bool {
	return float32(math.Abs(float64(a-b))) <= eps
}

func matApprox(a, b mgl32.Mat4, eps float32) bool {
	for i := range a {
		if !approx(a[i], b[i], eps) {
			return false
		}
	}
	return true
}

func TestNewCameraStartsFiniteInOrbit(t *testing.T) {
	c := NewCamera()
	if c.Mode() != ModeOrbit {
		t.Fatalf("Mode() = %v, want Orbit", c.Mode())
	}
	m := c.Matrices()
	if !common.IsFiniteMat4(m.ViewProj) || !common.IsFiniteMat4(m.C2W) {
		t.Fatalf("initial matrices not finite: %+v", m)
	}
}

func TestOrbitElevationStaysInsideHalfPi(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	c := NewCamera()
	for i := 0; i < 2000; i++ {
		in := Input{
			LMB:   true,
			Alt:   rng.Intn(2) == 0,
			Space: rng.Intn(2) == 0,
			DX:    (rng.Float32() - 0.5) * 4000,
			DY:    (rng.Float32() - 0.5) * 4000,
		}
		c.Update(1.0/60, 800, 600, in)
		el := c.State().Orbit.Elevation
		if !(el > -math.Pi/2 && el < math.Pi/2) {
			t.Fatalf("step %d: elevation %v escaped (-Pi/2, Pi/2)", i, el)
		}
		m := c.Matrices()
		if !common.IsFiniteMat4(m.View) || !common.IsFiniteMat4(m.ViewProj) || !common.IsFiniteMat4(m.C2W) {
			t.Fatalf("step %d: non-finite matrices", i)
		}
	}
}

func TestFlyPitchStaysInsideHalfPi(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	c := NewCamera(WithMode(ModeFly))
	for i := 0; i < 2000; i++ {
		c.Update(1.0/60, 800, 600, Input{
			RMB: true,
			DX:  (rng.Float32() - 0.5) * 5000,
			DY:  (rng.Float32() - 0.5) * 5000,
		})
		p := c.State().Fly.Pitch
		if !(p > -math.Pi/2 && p < math.Pi/2) {
			t.Fatalf("step %d: pitch %v escaped (-Pi/2, Pi/2)", i, p)
		}
		if !common.IsFiniteMat4(c.Matrices().ViewProj) {
			t.Fatalf("step %d: non-finite view-projection", i)
		}
	}
}

func TestOrbitDistanceNeverBelowMinimum(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	c := NewCamera()
	minDist := c.Config().MinDistance
	for i := 0; i < 1000; i++ {
		c.Update(1.0/60, 640, 480, Input{Scroll: (rng.Float32() - 0.3) * 200})
		if d := c.State().Orbit.Distance; d < minDist {
			t.Fatalf("step %d: distance %v < %v", i, d, minDist)
		}
	}
	for i := 0; i < 200; i++ {
		c.Update(1.0/60, 640, 480, Input{Scroll: 50})
	}
	if d := c.State().Orbit.Distance; d != minDist {
		t.Errorf("distance after sustained zoom in = %v, want %v", d, minDist)
	}
}

func TestOrbitRotateRequiresModifier(t *testing.T) {
	c := NewCamera()
	before := c.State().Orbit

	c.Update(1.0/60, 800, 600, Input{LMB: true, DX: 50, DY: 20})
	if got := c.State().Orbit; got != before {
		t.Fatalf("plain LMB drag rotated the orbit: %+v -> %+v", before, got)
	}

	c.Update(1.0/60, 800, 600, Input{LMB: true, Space: true, DX: 50})
	if got := c.State().Orbit; approx(got.Azimuth, before.Azimuth, 1e-6) {
		t.Fatal("LMB+Space drag did not rotate")
	}
}

func TestOrbitPanScalesWithDistance(t *testing.T) {
	pan := func(distance float32) float32 {
		c := NewCamera(WithHomeOrbit(OrbitState{Elevation: 0.3, Distance: distance}))
		c.Update(1.0/60, 800, 600, Input{MMB: true, DX: 10})
		return c.State().Orbit.Pivot.Len()
	}
	near, far := pan(2), pan(20)
	if near <= 0 {
		t.Fatal("middle drag did not move the pivot")
	}
	if !approx(far/near, 10, 1e-3) {
		t.Errorf("pan ratio = %v, want 10", far/near)
	}
}

func TestZeroViewportKeepsMatricesButIntegrates(t *testing.T) {
	c := NewCamera(WithMode(ModeFly))
	c.Update(1.0/60, 800, 600, Input{})
	before := c.Matrices()
	eye := c.State().Fly.Eye

	c.Update(0.05, 0, 600, Input{Forward: true})
	c.Update(0.05, 800, 0, Input{Forward: true})

	if c.Matrices() != before {
		t.Error("matrices changed for an empty viewport")
	}
	if c.State().Fly.Eye == eye {
		t.Error("parameters did not integrate while the viewport was empty")
	}
	if !common.IsFiniteMat4(c.Matrices().ViewProj) {
		t.Error("matrices not finite")
	}
}

func TestDeltaTimeClamp(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		name string
		dt   float32
		want float32
	}{
		{"normal", 0.02, 0.02},
		{"long frame capped", 3, MaxDeltaTime},
		{"zero", 0, DefaultDeltaTime},
		{"negative", -1, DefaultDeltaTime},
		{"nan", float32(math.NaN()), DefaultDeltaTime},
		{"inf", float32(math.Inf(1)), DefaultDeltaTime},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCamera(WithMode(ModeFly), WithHomeFly(FlyState{}))
			c.Update(tt.dt, 800, 600, Input{Forward: true})
			moved := c.State().Fly.Eye.Len()
			want := cfg.MoveSpeed * tt.want
			if !approx(moved, want, 1e-5) {
				t.Errorf("moved %v, want %v", moved, want)
			}
		})
	}
}

func TestFlyMovement(t *testing.T) {
	c := NewCamera(WithMode(ModeFly), WithHomeFly(FlyState{}))

	c.Update(0.05, 800, 600, Input{Up: true})
	if eye := c.State().Fly.Eye; !approx(eye[1], 0.25, 1e-5) || eye[0] != 0 || eye[2] != 0 {
		t.Fatalf("E moved eye to %v, want straight up", eye)
	}

	c.Update(0.05, 800, 600, Input{Down: true, Shift: true})
	if eye := c.State().Fly.Eye; !approx(eye[1], 0.25-1.0, 1e-5) {
		t.Fatalf("shift+Q moved eye to %v", eye)
	}

	c.Home()
	c.Update(0.05, 800, 600, Input{Forward: true})
	if eye := c.State().Fly.Eye; !approx(eye[2], -0.25, 1e-5) {
		t.Fatalf("W at yaw 0 moved eye to %v, want -Z", eye)
	}

	c.Home()
	c.Update(0.05, 800, 600, Input{Right: true})
	if eye := c.State().Fly.Eye; !approx(eye[0], 0.25, 1e-5) {
		t.Fatalf("D at yaw 0 moved eye to %v, want +X", eye)
	}
}

func TestFlyLookNeedsSecondaryButton(t *testing.T) {
	c := NewCamera(WithMode(ModeFly))
	before := c.State().Fly
	c.Update(1.0/60, 800, 600, Input{DX: 100, DY: 100})
	if c.State().Fly != before {
		t.Fatal("pointer motion without RMB changed the fly state")
	}
	c.Update(1.0/60, 800, 600, Input{RMB: true, DX: 100})
	if c.State().Fly.Yaw == before.Yaw {
		t.Fatal("RMB drag did not change yaw")
	}
}

func TestSetModeAppliesOnNextUpdate(t *testing.T) {
	c := NewCamera()
	c.Update(1.0/60, 800, 600, Input{})
	view := c.Matrices().View

	c.SetMode(ModeFly)
	if c.Mode() != ModeOrbit {
		t.Fatal("mode switched before Update")
	}
	c.Update(1.0/60, 800, 600, Input{})
	if c.Mode() != ModeFly {
		t.Fatal("mode did not switch on Update")
	}
	if !matApprox(c.Matrices().View, view, 1e-3) {
		t.Errorf("view jumped on orbit->fly switch\n got %v\nwant %v", c.Matrices().View, view)
	}

	c.Update(1.0/60, 800, 600, Input{RMB: true, DX: 40, DY: -30})
	view = c.Matrices().View
	c.SetMode(ModeOrbit)
	c.Update(1.0/60, 800, 600, Input{})
	if !matApprox(c.Matrices().View, view, 1e-3) {
		t.Errorf("view jumped on fly->orbit switch\n got %v\nwant %v", c.Matrices().View, view)
	}
}

// rigidError describes how m departs from an orthonormal basis plus translation, or is empty.
// The bottom row tolerance grows with the translation, which float32 inversion scales into it.
func rigidError(m mgl32.Mat4, eps float32) string {
	rowEps := eps * max(1, m.Col(3).Vec3().Len())
	if !approx(m[3], 0, rowEps) || !approx(m[7], 0, rowEps) || !approx(m[11], 0, rowEps) || !approx(m[15], 1, rowEps) {
		return "bottom row is not (0, 0, 0, 1)"
	}
	axes := [3]mgl32.Vec3{m.Col(0).Vec3(), m.Col(1).Vec3(), m.Col(2).Vec3()}
	for i, a := range axes {
		if !approx(a.Len(), 1, eps) {
			return "basis column is not unit length"
		}
		for _, b := range axes[i+1:] {
			if !approx(a.Dot(b), 0, eps) {
				return "basis columns are not orthogonal"
			}
		}
	}
	return ""
}

func TestRapidModeToggleKeepsRigidCameraToWorld(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	c := NewCamera()
	for i := 0; i < 500; i++ {
		c.SetMode(Mode(rng.Intn(2)))
		c.Update(rng.Float32()*0.1, uint32(rng.Intn(3))*400, 600, Input{
			LMB: true, Alt: true, RMB: true, MMB: rng.Intn(2) == 0,
			DX: (rng.Float32() - 0.5) * 300, DY: (rng.Float32() - 0.5) * 300,
			Scroll: (rng.Float32() - 0.5) * 10,
		})
		m := c.Matrices()
		if !common.IsFiniteMat4(m.ViewProj) || !common.IsFiniteMat4(m.C2W) {
			t.Fatalf("step %d: non-finite matrices", i)
		}
		if msg := rigidError(m.C2W, 1e-3); msg != "" {
			t.Fatalf("step %d: camera to world %s: %v", i, msg, m.C2W)
		}
		if pos := m.C2W.Col(3).Vec3(); pos.Sub(m.Eye).Len() > 1e-3*max(1, m.Eye.Len()) {
			t.Fatalf("step %d: translation %v, eye %v", i, pos, m.Eye)
		}
	}
}

func TestZeroMinDistanceKeepsOrbitUsable(t *testing.T) {
	c := NewCamera()
	cfg := c.Config()
	cfg.MinDistance = 0
	c.SetConfig(cfg)

	before := c.Matrices()
	c.Update(1.0/60, 800, 600, Input{Scroll: 1e6})
	s := c.State()
	if !(s.Orbit.Distance > 0) {
		t.Fatalf("distance = %v, want positive", s.Orbit.Distance)
	}
	after := c.Matrices()
	if after == before || !common.IsFiniteMat4(after.ViewProj) {
		t.Fatal("matrices not updated after zooming to the minimum distance")
	}

	c.Update(1.0/60, 800, 600, Input{Scroll: -10})
	if c.State().Orbit.Distance <= s.Orbit.Distance {
		t.Errorf("zoom out from %v stuck at %v", s.Orbit.Distance, c.State().Orbit.Distance)
	}
}

func TestConfigSanitized(t *testing.T) {
	nan := float32(math.NaN())
	def := DefaultConfig()
	bad := Config{
		FovY: 4, Near: -1, Far: nan,
		RotateSpeed: nan, PanSpeed: float32(math.Inf(1)), ZoomRate: nan,
		MinDistance: -5, MaxDistance: nan,
		LookSpeed: nan, MoveSpeed: nan, FastMultiplier: nan,
		PitchMargin: 0,
	}
	for name, c := range map[string]Camera{
		"option":    NewCamera(WithConfig(bad)),
		"SetConfig": NewCamera(),
	} {
		if name == "SetConfig" {
			c.SetConfig(bad)
		}
		got := c.Config()
		if got.FovY != def.FovY || got.Near <= 0 || got.Far <= got.Near {
			t.Errorf("%s: projection = %v %v %v", name, got.FovY, got.Near, got.Far)
		}
		if got.RotateSpeed != def.RotateSpeed || got.PanSpeed != def.PanSpeed || got.ZoomRate != def.ZoomRate {
			t.Errorf("%s: orbit speeds = %+v", name, got)
		}
		if got.LookSpeed != def.LookSpeed || got.MoveSpeed != def.MoveSpeed || got.FastMultiplier != def.FastMultiplier {
			t.Errorf("%s: fly speeds = %+v", name, got)
		}
		if !(got.MinDistance > 0) || got.MaxDistance != def.MaxDistance {
			t.Errorf("%s: distance range = [%v, %v]", name, got.MinDistance, got.MaxDistance)
		}
		if !(got.PitchMargin > 0) {
			t.Errorf("%s: pitch margin = %v", name, got.PitchMargin)
		}
		if !common.IsFiniteMat4(c.Matrices().ViewProj) {
			t.Errorf("%s: matrices not finite", name)
		}
	}

	valid := def
	valid.MinDistance, valid.Far = 2, 50
	c := NewCamera(WithConfig(valid))
	if c.Config() != valid {
		t.Errorf("valid config changed: %+v", c.Config())
	}
}

func TestSetStateSanitizes(t *testing.T) {
	c := NewCamera()
	nan := float32(math.NaN())
	c.SetState(State{
		Mode:  ModeOrbit,
		Orbit: OrbitState{Azimuth: nan, Elevation: 10, Distance: 0.01},
		Fly:   FlyState{Eye: mgl32.Vec3{nan, 0, 0}, Pitch: -9},
	})
	s := c.State()
	if !common.IsFinite(s.Orbit.Azimuth) {
		t.Error("NaN azimuth kept")
	}
	if s.Orbit.Elevation >= math.Pi/2 {
		t.Errorf("elevation %v not clamped", s.Orbit.Elevation)
	}
	if s.Orbit.Distance != c.Config().MinDistance {
		t.Errorf("distance %v not clamped to minimum", s.Orbit.Distance)
	}
	if !common.IsFiniteVec3(s.Fly.Eye) || s.Fly.Pitch <= -math.Pi/2 {
		t.Errorf("fly state not sanitized: %+v", s.Fly)
	}
}

func TestHomeRestoresStartupState(t *testing.T) {
	c := NewCamera(WithHomeOrbit(OrbitState{Azimuth: 0.5, Elevation: 0.4, Distance: 12}))
	home := c.State()
	c.Update(1.0/60, 800, 600, Input{LMB: true, Alt: true, DX: 100, Scroll: 3})
	if c.State() == home {
		t.Fatal("input did not change the state")
	}
	c.Home()
	if c.State() != home {
		t.Errorf("Home() = %+v, want %+v", c.State(), home)
	}
}

func TestC2WInvertsView(t *testing.T) {
	c := NewCamera()
	c.Update(1.0/60, 1280, 720, Input{})
	m := c.Matrices()
	if !matApprox(m.View.Mul4(m.C2W), mgl32.Ident4(), 1e-4) {
		t.Errorf("View*C2W = %v, want identity", m.View.Mul4(m.C2W))
	}
	eye := m.C2W.Col(3).Vec3()
	if !eye.ApproxEqualThreshold(m.Eye, 1e-3) {
		t.Errorf("C2W translation %v, want eye %v", eye, m.Eye)
	}
}
