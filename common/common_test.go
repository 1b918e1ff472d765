package common

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestWrapAngle(t *testing.T) {
	for _, in := range []float32{0, 1, -1, math.Pi, -math.Pi, 2 * math.Pi, math.Pi + 0.5, -7.5, 123.25} {
		got := WrapAngle(in)
		if got < -math.Pi-1e-5 || got > math.Pi+1e-5 {
			t.Errorf("WrapAngle(%v) = %v, outside (-Pi, Pi]", in, got)
		}
		ds := math.Sin(float64(got)) - math.Sin(float64(in))
		dc := math.Cos(float64(got)) - math.Cos(float64(in))
		if math.Abs(ds) > 1e-4 || math.Abs(dc) > 1e-4 {
			t.Errorf("WrapAngle(%v) = %v, not the same direction", in, got)
		}
	}
	if got := WrapAngle(0.25); got != 0.25 {
		t.Errorf("WrapAngle(0.25) = %v, want unchanged", got)
	}
}

func TestPerspectiveZOMapsNearAndFar(t *testing.T) {
	p := PerspectiveZO(mgl32.DegToRad(60), 16.0/9.0, 0.1, 100)
	if !IsFiniteMat4(p) {
		t.Fatalf("projection has non-finite entries: %v", p)
	}
	for _, tc := range []struct {
		z    float32
		want float32
	}{{-0.1, 0}, {-100, 1}} {
		clip := p.Mul4x1(mgl32.Vec4{0, 0, tc.z, 1})
		ndc := clip[2] / clip[3]
		if math.Abs(float64(ndc-tc.want)) > 1e-4 {
			t.Errorf("depth at z=%v = %v, want %v", tc.z, ndc, tc.want)
		}
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp(5, 1, 3); got != 3 {
		t.Errorf("Clamp(5,1,3) = %d", got)
	}
	if got := Clamp(-1.5, 0.0, 1.0); got != 0 {
		t.Errorf("Clamp(-1.5,0,1) = %v", got)
	}
	if got := Clamp(float32(0.5), 0, 1); got != 0.5 {
		t.Errorf("Clamp(0.5,0,1) = %v", got)
	}
}

func TestAtLeast(t *testing.T) {
	nan := float32(math.NaN())
	inf := float32(math.Inf(1))
	tests := []struct {
		v, lo, want float32
	}{
		{2, 1, 2},
		{1, 1, 1},
		{0.5, 1, 1},
		{-3, 0.1, 0.1},
		{nan, 0.001, 0.001},
		{inf, 0.1, 0.1},
		{-inf, 0.1, 0.1},
	}
	for _, tt := range tests {
		if got := AtLeast(tt.v, tt.lo); got != tt.want {
			t.Errorf("AtLeast(%v, %v) = %v, want %v", tt.v, tt.lo, got, tt.want)
		}
	}
	if got := FiniteOr(nan, 3); got != 3 {
		t.Errorf("FiniteOr(NaN, 3) = %v", got)
	}
	if got := FiniteOr(-2, 3); got != -2 {
		t.Errorf("FiniteOr(-2, 3) = %v", got)
	}
}

func TestIsFiniteMat4(t *testing.T) {
	m := mgl32.Ident4()
	if !IsFiniteMat4(m) {
		t.Fatal("identity reported non-finite")
	}
	m[7] = float32(math.NaN())
	if IsFiniteMat4(m) {
		t.Fatal("NaN matrix reported finite")
	}
	m[7] = float32(math.Inf(1))
	if IsFiniteMat4(m) {
		t.Fatal("Inf matrix reported finite")
	}
}

func TestStagingFromImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.Set(2, 1, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	got := StagingFromImage(img)
	if got.Width != 3 || got.Height != 2 {
		t.Fatalf("size = %dx%d, want 3x2", got.Width, got.Height)
	}
	i := (1*3 + 2) * 4
	if got.Pixels[i] != 10 || got.Pixels[i+1] != 20 || got.Pixels[i+2] != 30 || got.Pixels[i+3] != 255 {
		t.Errorf("pixel (2,1) = %v", got.Pixels[i:i+4])
	}

	sub := img.SubImage(image.Rect(1, 1, 3, 2))
	part := StagingFromImage(sub)
	if part.Width != 2 || part.Height != 1 {
		t.Fatalf("sub size = %dx%d, want 2x1", part.Width, part.Height)
	}
	if part.Pixels[4] != 10 {
		t.Errorf("sub pixel = %v, want R=10", part.Pixels[4:8])
	}
}

func TestSetLoggerNilRestoresSilent(t *testing.T) {
	t.Cleanup(func() { SetLogger(nil) })
	SetLogger(nil)
	if Logger() == nil {
		t.Fatal("Logger() returned nil")
	}
	if Logger().Enabled(t.Context(), 0) {
		t.Error("default logger should be disabled")
	}
}
