package camera

import (
	"math"

	"github.com/Carmen-Shannon/oxy-inspect/common"
	"github.com/go-gl/mathgl/mgl32"
)

// orbitEye returns the eye position for an orbit parameter set.
func orbitEye(o OrbitState) mgl32.Vec3 {
	cosElev := float32(math.Cos(float64(o.Elevation)))
	sinElev := float32(math.Sin(float64(o.Elevation)))
	cosAzim := float32(math.Cos(float64(o.Azimuth)))
	sinAzim := float32(math.Sin(float64(o.Azimuth)))
	return o.Pivot.Add(mgl32.Vec3{
		o.Distance * cosElev * sinAzim,
		o.Distance * sinElev,
		o.Distance * cosElev * cosAzim,
	})
}

// orbitAxes returns the camera right and up vectors for an orbit parameter set.
func orbitAxes(o OrbitState) (right, up mgl32.Vec3) {
	forward := o.Pivot.Sub(orbitEye(o)).Normalize()
	right = forward.Cross(common.WorldUp).Normalize()
	up = right.Cross(forward)
	return right, up
}

// updateOrbit applies rotate, pan and zoom. Rotation needs the primary button together with
// alt or space so a plain click stays free for picking. Caller must hold the mutex.
func (c *camera) updateOrbit(in Input) {
	if in.LMB && (in.Alt || in.Space) {
		c.orbit.Azimuth = common.WrapAngle(c.orbit.Azimuth - in.DX*c.cfg.RotateSpeed)
		lim := c.pitchLimit()
		c.orbit.Elevation = common.Clamp(c.orbit.Elevation+in.DY*c.cfg.RotateSpeed, -lim, lim)
	}

	if in.MMB && (in.DX != 0 || in.DY != 0) {
		right, up := orbitAxes(c.orbit)
		scale := c.cfg.PanSpeed * c.orbit.Distance
		delta := right.Mul(-in.DX * scale).Add(up.Mul(in.DY * scale))
		if common.IsFiniteVec3(delta) {
			c.orbit.Pivot = c.orbit.Pivot.Add(delta)
		}
	}

	if in.Scroll != 0 {
		d := c.orbit.Distance * float32(math.Exp(float64(-in.Scroll*c.cfg.ZoomRate)))
		c.orbit.Distance = common.Clamp(d, c.cfg.MinDistance, c.cfg.MaxDistance)
	}
}
