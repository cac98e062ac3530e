package helio

import "math"

// PDGains tunes the proportional-derivative loops of a craft.
type PDGains struct {
	AttKp float64
	AttKd float64
	PosKp float64
	PosKd float64
	VelKp float64
	VelKd float64
}

// DefaultGains work for small craft with balanced RCS.
func DefaultGains() PDGains {
	return PDGains{
		AttKp: 2.5,
		AttKd: 3.0,
		PosKp: 0.12,
		PosKd: 0.55,
		VelKp: 0.4,
		VelKd: 0.1,
	}
}

// Pose is a position and heading target in the local surface frame.
type Pose struct {
	Pos   Vec2
	Angle float64
}

// ControlContext is everything a policy may read when producing a command.
type ControlContext struct {
	Stamp   Stamp
	Body    RigidBody
	Craft   *Vehicle
	Gravity Vec2
}

// ControlPolicy produces one VehicleControl per tick.
type ControlPolicy interface {
	Control(ctx ControlContext) VehicleControl
}

const (
	maxHoverTilt     = math.Pi / 6
	maxAttErrForBurn = 0.7 // rad; gate main engine until roughly aligned

	holdFinalDist    = 20.0  // m; switch to RCS-only docking PD
	holdApproachDist = 100.0 // m
	holdApproachVel  = 5.0   // m/s
	holdBrakeVel     = 3.0   // m/s

	missionPosTol = 2.0 // m
	missionVelTol = 5.0 // m/s
	missionAngTol = 0.1 // rad

	launchVerticalCeil = 15.0 // km; fly straight up below this
	launchPitchCeil    = 40.0 // km; 45° off vertical up to this
)

// attitudePD is the shared heading loop.
func attitudePD(g PDGains, target, angle, angVel float64) float64 {
	return clamp(g.AttKp*WrapPi(target-angle)-g.AttKd*angVel, -1, 1)
}

// forwardBurn fires the main engines along the nose.
func forwardBurn(ctrl *VehicleControl, throttle float64) {
	ctrl.Axes[West] = ThrustAxisControl{Throttle: clamp(throttle, 0, 1)}
}

// rcsBody maps a desired body-frame force direction to the four RCS axes.
func rcsBody(ctrl *VehicleControl, force Vec2) {
	set := func(axis Rotation, mag float64) {
		if mag > 0 {
			ctrl.Axes[axis] = ThrustAxisControl{UseRCS: true, Throttle: clamp(mag, 0, 1)}
		}
	}
	set(West, force.X)
	set(East, -force.X)
	set(South, force.Y)
	set(North, -force.Y)
}

// IdlePolicy commands nothing.
type IdlePolicy struct{}

func (IdlePolicy) Control(ControlContext) VehicleControl { return VehicleControl{} }

// ExternalPolicy passes player input straight through.
type ExternalPolicy struct {
	Cmd VehicleControl
}

func (p *ExternalPolicy) Control(ControlContext) VehicleControl { return p.Cmd }

// VelocityPolicy flies toward a target velocity vector.
type VelocityPolicy struct {
	Target Vec2
}

func (p *VelocityPolicy) Control(ctx ControlContext) VehicleControl {
	var ctrl VehicleControl
	need := p.Target.Sub(ctx.Body.PV.V).Sub(ctx.Gravity)
	targetAngle := need.Angle()
	ctrl.Attitude = attitudePD(ctx.Craft.Gains, targetAngle, ctx.Body.Angle, ctx.Body.AngVel)
	if math.Abs(WrapPi(targetAngle-ctx.Body.Angle)) < maxAttErrForBurn {
		comp := 0.0
		if a := ctx.Craft.MaxLinearAccel(); a > 0 {
			comp = ctx.Gravity.Norm() / a
		}
		g := ctx.Craft.Gains
		speedErr := p.Target.Norm() - ctx.Body.PV.V.Norm()
		forwardBurn(&ctrl, comp+g.VelKp*speedErr)
	}
	return ctrl
}

// PositionHoldPolicy drives through a FIFO of target poses. With gravity it
// hovers; in free fall it runs a phased rendezvous to each pose.
type PositionHoldPolicy struct {
	queue []Pose
	last  Pose
}

// NewPositionHold starts a hold at the given pose.
func NewPositionHold(at Pose) *PositionHoldPolicy {
	return &PositionHoldPolicy{last: at}
}

// Push appends a waypoint.
func (p *PositionHoldPolicy) Push(target Pose) {
	p.queue = append(p.queue, target)
}

// Pending returns the number of queued waypoints.
func (p *PositionHoldPolicy) Pending() int { return len(p.queue) }

// Target returns the pose currently being flown.
func (p *PositionHoldPolicy) Target() Pose {
	if len(p.queue) > 0 {
		return p.queue[0]
	}
	return p.last
}

func (p *PositionHoldPolicy) Control(ctx ControlContext) VehicleControl {
	target := p.Target()
	if len(p.queue) > 0 && p.arrived(ctx, target) {
		p.last = p.queue[0]
		p.queue = p.queue[1:]
		target = p.Target()
	}
	if ctx.Gravity.Norm() > 1e-9 {
		return hoverControl(ctx, target)
	}
	return p.zeroGControl(ctx, target)
}

func (p *PositionHoldPolicy) arrived(ctx ControlContext, target Pose) bool {
	return target.Pos.Sub(ctx.Body.PV.R).Norm() < missionPosTol &&
		ctx.Body.PV.V.Norm() < missionVelTol &&
		math.Abs(WrapPi(target.Angle-ctx.Body.Angle)) < missionAngTol
}

// hoverControl balances the craft on its main engines against gravity while
// a gentle tilt walks it toward the target.
func hoverControl(ctx ControlContext, target Pose) VehicleControl {
	var ctrl VehicleControl
	g := ctx.Craft.Gains
	upright := ctx.Gravity.Scale(-1).Angle()

	// Horizontal station keeping by leaning into the error.
	dx := target.Pos.X - ctx.Body.PV.R.X
	tilt := clamp(g.PosKp*dx-g.PosKd*ctx.Body.PV.V.X, -maxHoverTilt, maxHoverTilt)
	targetAngle := upright - tilt

	ctrl.Attitude = attitudePD(g, targetAngle, ctx.Body.Angle, ctx.Body.AngVel)
	if math.Abs(WrapPi(targetAngle-ctx.Body.Angle)) < maxAttErrForBurn {
		comp := 0.0
		if a := ctx.Craft.MaxLinearAccel(); a > 0 {
			comp = ctx.Gravity.Norm() / a
		}
		dy := target.Pos.Y - ctx.Body.PV.R.Y
		forwardBurn(&ctrl, comp+g.PosKp*dy-g.PosKd*ctx.Body.PV.V.Y)
	}
	return ctrl
}

// zeroGControl runs the phased free-fall rendezvous: turn-and-burn from far
// out, kill cross-track velocity on approach, brake retrograde, then dock
// the last stretch on RCS alone.
func (p *PositionHoldPolicy) zeroGControl(ctx ControlContext, target Pose) VehicleControl {
	var ctrl VehicleControl
	g := ctx.Craft.Gains
	rel := target.Pos.Sub(ctx.Body.PV.R)
	dist := rel.Norm()
	vel := ctx.Body.PV.V
	speed := vel.Norm()

	switch {
	case dist < holdFinalDist:
		// Docking: body-frame PD on both axes, RCS only.
		errB := rel.Rotate(-ctx.Body.Angle)
		velB := vel.Rotate(-ctx.Body.Angle)
		rcsBody(&ctrl, Vec2{
			X: g.PosKp*errB.X - g.PosKd*velB.X,
			Y: g.PosKp*errB.Y - g.PosKd*velB.Y,
		})
		ctrl.Attitude = attitudePD(g, target.Angle, ctx.Body.Angle, ctx.Body.AngVel)

	case dist < holdApproachDist && speed > holdApproachVel:
		// Cross-track cleanup: thrust against the velocity component that
		// does not point at the target.
		along := rel.Unit().Scale(vel.Dot(rel.Unit()))
		bad := vel.Sub(along)
		targetAngle := bad.Scale(-1).Angle()
		ctrl.Attitude = attitudePD(g, targetAngle, ctx.Body.Angle, ctx.Body.AngVel)
		if math.Abs(WrapPi(targetAngle-ctx.Body.Angle)) < maxAttErrForBurn {
			forwardBurn(&ctrl, clamp(g.PosKd*bad.Norm(), 0, 1))
		}

	case speed > holdBrakeVel && p.shouldBrake(ctx, dist, speed):
		retro := vel.Scale(-1).Angle()
		if reverse := ctx.Craft.MaxThrustAlongAxis(East); reverse >= ctx.Craft.MaxThrustAlongAxis(West) {
			// Enough reverse thrust to brake without flipping.
			prograde := vel.Angle()
			ctrl.Attitude = attitudePD(g, prograde, ctx.Body.Angle, ctx.Body.AngVel)
			if math.Abs(WrapPi(prograde-ctx.Body.Angle)) < maxAttErrForBurn {
				ctrl.Axes[East] = ThrustAxisControl{Throttle: 1}
			}
		} else {
			ctrl.Attitude = attitudePD(g, retro, ctx.Body.Angle, ctx.Body.AngVel)
			if math.Abs(WrapPi(retro-ctx.Body.Angle)) < maxAttErrForBurn {
				forwardBurn(&ctrl, 1)
			}
		}

	default:
		// Turn and burn at the target.
		targetAngle := rel.Angle()
		ctrl.Attitude = attitudePD(g, targetAngle, ctx.Body.Angle, ctx.Body.AngVel)
		if math.Abs(WrapPi(targetAngle-ctx.Body.Angle)) < maxAttErrForBurn {
			forwardBurn(&ctrl, clamp(g.PosKp*dist, 0, 1))
		}
		// Lateral RCS keeps the approach line clean.
		along := rel.Unit().Scale(vel.Dot(rel.Unit()))
		badB := vel.Sub(along).Scale(-g.PosKd).Rotate(-ctx.Body.Angle)
		rcsBody(&ctrl, Vec2{Y: badB.Y})
	}
	return ctrl
}

// shouldBrake compares remaining distance to the stopping distance at full
// thrust.
func (p *PositionHoldPolicy) shouldBrake(ctx ControlContext, dist, speed float64) bool {
	a := ctx.Craft.MaxLinearAccel()
	if a <= 0 {
		return false
	}
	return dist < speed*speed/a
}

// LaunchPolicy flies a gravity-turn ascent: straight up, then pitched over,
// then horizontal, at full throttle throughout.
type LaunchPolicy struct{}

func (LaunchPolicy) Control(ctx ControlContext) VehicleControl {
	var ctrl VehicleControl
	upright := ctx.Gravity.Scale(-1).Angle()
	altKm := ctx.Body.PV.R.Y / 1000

	var targetAngle float64
	switch {
	case altKm < launchVerticalCeil:
		targetAngle = upright
	case altKm < launchPitchCeil:
		targetAngle = upright - math.Pi/4
	default:
		targetAngle = upright - math.Pi/2
	}
	ctrl.Attitude = attitudePD(ctx.Craft.Gains, targetAngle, ctx.Body.Angle, ctx.Body.AngVel)
	forwardBurn(&ctrl, 1)
	return ctrl
}

// ManeuverPolicy executes a planned series of impulsive burns. On-rails
// craft do not steer between nodes, so the per-tick control is idle; the
// scenario loop drains due nodes and applies them as propagator impulses.
type ManeuverPolicy struct {
	Plan ManeuverPlan
	next int
}

func (m *ManeuverPolicy) Control(ControlContext) VehicleControl { return VehicleControl{} }

// Due pops the next node once its stamp has passed.
func (m *ManeuverPolicy) Due(stamp Stamp) (ManeuverNode, bool) {
	if m.next >= len(m.Plan.Nodes) {
		return ManeuverNode{}, false
	}
	node := m.Plan.Nodes[m.next]
	if node.Stamp > stamp {
		return ManeuverNode{}, false
	}
	m.next++
	return node, true
}

// Done reports whether every node has been issued.
func (m *ManeuverPolicy) Done() bool { return m.next >= len(m.Plan.Nodes) }
