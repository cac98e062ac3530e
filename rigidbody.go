package helio

import "math"

const (
	// maxAngVel caps spin before integration blows up the attitude loop.
	maxAngVel = 2.0 // rad/s
	// uprightTorqueRate is how fast ground contact rights a craft.
	uprightTorqueRate = 0.8 // rad/s² per rad of lean
	// groundSpinDamp bleeds spin while grounded so righting settles.
	groundSpinDamp = 1.5 // per second
)

// RigidBody is the dynamic state of a vehicle moving near a surface: local
// position and velocity, orientation, and spin.
type RigidBody struct {
	PV       PV
	Angle    float64 // radians, [0, 2π), π/2 is nose-up
	AngVel   float64 // rad/s
	OnGround bool
}

// Heading returns the unit vector the nose points along.
func (rb RigidBody) Heading() Vec2 {
	return VecFromAngle(rb.Angle)
}

// Integrate advances one fixed tick with the given body-frame acceleration
// and ambient gravity, semi-implicit Euler.
func (rb *RigidBody) Integrate(dt float64, accel BodyFrameAccel, gravity Vec2) {
	world := accel.Linear.Rotate(rb.Angle).Add(gravity)
	rb.PV.V = rb.PV.V.Add(world.Scale(dt))
	rb.PV.R = rb.PV.R.Add(rb.PV.V.Scale(dt))

	rb.AngVel += accel.Angular * dt
	rb.AngVel = clamp(rb.AngVel, -maxAngVel, maxAngVel)
	rb.Angle = Wrap2Pi(rb.Angle + rb.AngVel*dt)
}

// ContactGround resolves collision with terrain at the given elevation. The
// body is snapped to the surface, vertical motion is cancelled, and while
// grounded the craft bleeds horizontal speed and slowly rights itself.
func (rb *RigidBody) ContactGround(dt float64, elevation float64) {
	if rb.PV.R.Y > elevation {
		rb.OnGround = false
		return
	}
	rb.PV.R.Y = elevation
	if rb.PV.V.Y < 0 {
		rb.PV.V.Y = 0
	}
	if rb.OnGround {
		rb.PV.V.X = 0
	}
	rb.OnGround = true

	lean := WrapPi(math.Pi/2 - rb.Angle)
	rb.AngVel *= 1 - clamp(groundSpinDamp*dt, 0, 1)
	rb.AngVel = clamp(rb.AngVel+uprightTorqueRate*lean*dt, -maxAngVel, maxAngVel)
}
