package camera

import (
	"math"

	"github.com/Carmen-Shannon/oxy-inspect/common"
	"github.com/go-gl/mathgl/mgl32"
)

// flyForward returns the unit view direction for a yaw and pitch. Yaw 0 looks down -Z.
func flyForward(yaw, pitch float32) mgl32.Vec3 {
	cp := float32(math.Cos(float64(pitch)))
	return mgl32.Vec3{
		float32(math.Sin(float64(yaw))) * cp,
		float32(math.Sin(float64(pitch))),
		-float32(math.Cos(float64(yaw))) * cp,
	}
}

// updateFly applies mouse look while the secondary button is held and moves the eye with
// WASD on the ground plane and Q/E along the world up axis. Caller must hold the mutex.
func (c *camera) updateFly(dt float32, in Input) {
	if in.RMB {
		lim := c.pitchLimit()
		c.fly.Yaw = common.WrapAngle(c.fly.Yaw + in.DX*c.cfg.LookSpeed)
		c.fly.Pitch = common.Clamp(c.fly.Pitch-in.DY*c.cfg.LookSpeed, -lim, lim)
	}

	sy := float32(math.Sin(float64(c.fly.Yaw)))
	cy := float32(math.Cos(float64(c.fly.Yaw)))
	forward := mgl32.Vec3{sy, 0, -cy}
	right := mgl32.Vec3{cy, 0, sy}

	var move mgl32.Vec3
	if in.Forward {
		move = move.Add(forward)
	}
	if in.Backward {
		move = move.Sub(forward)
	}
	if in.Right {
		move = move.Add(right)
	}
	if in.Left {
		move = move.Sub(right)
	}
	if in.Up {
		move = move.Add(common.WorldUp)
	}
	if in.Down {
		move = move.Sub(common.WorldUp)
	}
	if move.Len() == 0 {
		return
	}

	speed := c.cfg.MoveSpeed
	if in.Shift {
		speed *= c.cfg.FastMultiplier
	}
	c.fly.Eye = c.fly.Eye.Add(move.Normalize().Mul(speed * dt))
}
