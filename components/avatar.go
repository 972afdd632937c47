// Package components defines ECS components for the simulation.
package components

import "github.com/pthm-cable/flappy/config"

// Avatar is the bird: a fixed-x body under gravity that a controller can make jump.
type Avatar struct {
	X      int
	Y      float64
	Tilt   float64 // degrees, nose-up positive
	Vel    float64 // velocity set by the last jump
	Ticks  int     // ticks since the last jump
	Height float64 // y at the last jump

	Frame      int // wing frame index used for drawing and collision
	frameTicks int
}

// NewAvatar places an avatar at its starting position.
func NewAvatar(x int, y float64) Avatar {
	return Avatar{X: x, Y: y, Height: y}
}

// Jump applies the jump impulse and restarts the displacement clock.
func (a *Avatar) Jump(law *config.AvatarConfig) {
	a.Vel = law.JumpVelocity
	a.Ticks = 0
	a.Height = a.Y
}

// Advance moves the avatar by one tick and returns the applied displacement.
//
// Displacement follows d = v·t + g·t² with t counted from the last jump,
// capped at the terminal fall speed and pushed a little further while rising.
func (a *Avatar) Advance(law *config.AvatarConfig) float64 {
	a.Ticks++
	t := float64(a.Ticks)

	d := a.Vel*t + law.Gravity*t*t
	if d >= law.MaxFall {
		d = law.MaxFall
	}
	if d < 0 {
		d -= law.RiseBoost
	}

	a.Y += d

	if d < 0 || a.Y < a.Height+law.TiltHold {
		if a.Tilt < law.MaxTilt {
			a.Tilt = law.MaxTilt
		}
	} else if a.Tilt > law.MinTilt {
		a.Tilt -= law.TiltDecay
		if a.Tilt < law.MinTilt {
			a.Tilt = law.MinTilt
		}
	}

	return d
}

// Animate advances the wing cycle 0,1,2,1 at one step per AnimationTime ticks.
// A diving avatar holds its wings level.
func (a *Avatar) Animate(law *config.AvatarConfig) {
	step := law.AnimationTime
	a.frameTicks++

	switch {
	case a.frameTicks < step:
		a.Frame = 0
	case a.frameTicks < step*2:
		a.Frame = 1
	case a.frameTicks < step*3:
		a.Frame = 2
	case a.frameTicks < step*4:
		a.Frame = 1
	case a.frameTicks == step*4+1:
		a.Frame = 0
		a.frameTicks = 0
	}

	if a.Tilt <= -80 {
		a.Frame = 1
		a.frameTicks = step * 2
	}
}
