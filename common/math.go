package common

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// WorldUp is the world space up axis shared by the camera and the grid.
var WorldUp = mgl32.Vec3{0, 1, 0}

// PerspectiveZO creates a right handed perspective projection matrix that maps view space depth
// into the [0, 1] clip range used by WebGPU and Vulkan.
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - aspect: viewport aspect ratio (width/height)
//   - near: near clipping plane distance (must be > 0)
//   - far: far clipping plane distance (must be > near)
//
// Returns:
//   - mgl32.Mat4: the column-major projection matrix
func PerspectiveZO(fovY, aspect, near, far float32) mgl32.Mat4 {
	f := 1.0 / float32(math.Tan(float64(fovY)/2.0))

	var out mgl32.Mat4
	out[0] = f / aspect
	out[5] = f
	out[10] = far / (near - far)
	out[11] = -1.0
	out[14] = (near * far) / (near - far)
	return out
}

// WrapAngle maps an angle in radians into the half open range (-Pi, Pi].
//
// Parameters:
//   - a: the angle in radians
//
// Returns:
//   - float32: the equivalent angle inside (-Pi, Pi]
func WrapAngle(a float32) float32 {
	w := math.Remainder(float64(a), 2*math.Pi)
	if w <= -math.Pi {
		w += 2 * math.Pi
	}
	return float32(w)
}

// IsFinite reports whether f is neither NaN nor infinite.
func IsFinite(f float32) bool {
	return !math.IsNaN(float64(f)) && !math.IsInf(float64(f), 0)
}

// IsFiniteMat4 reports whether every element of m is finite.
func IsFiniteMat4(m mgl32.Mat4) bool {
	for _, v := range m {
		if !IsFinite(v) {
			return false
		}
	}
	return true
}

// IsFiniteVec3 reports whether every component of v is finite.
func IsFiniteVec3(v mgl32.Vec3) bool {
	return IsFinite(v[0]) && IsFinite(v[1]) && IsFinite(v[2])
}
