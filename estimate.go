package helio

import (
	"math"

	"github.com/ChristopherRabotin/ode"
	kitlog "github.com/go-kit/kit/log"
)

// TwoBodyProp numerically integrates a point mass around a primary. It is an
// ode.Integrable, used to cross-check the analytical propagation and to fly
// continuous-thrust arcs the conic solver cannot represent.
type TwoBodyProp struct {
	Primary Body
	PV      PV
	// Thrust is an optional constant body-frame force in newtons, divided
	// by Mass during integration. Zero means ballistic.
	Thrust Vec2
	Mass   float64

	Until  Stamp
	at     Stamp
	step   Stamp
	logger kitlog.Logger
}

// NewTwoBodyProp returns a ballistic integrator from an initial state.
func NewTwoBodyProp(primary Body, pv PV, until Stamp, logger kitlog.Logger) *TwoBodyProp {
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	return &TwoBodyProp{
		Primary: primary,
		PV:      pv,
		Until:   until,
		step:    StampFromSecs(1),
		logger:  logger,
	}
}

// GetState gets the state.
func (e *TwoBodyProp) GetState() []float64 {
	return []float64{e.PV.R.X, e.PV.R.Y, e.PV.V.X, e.PV.V.Y}
}

// SetState sets the next state at time t.
func (e *TwoBodyProp) SetState(t float64, s []float64) {
	e.PV = PV{R: Vec2{s[0], s[1]}, V: Vec2{s[2], s[3]}}
	e.at = e.at.AddStamp(e.step)
}

// Stop returns whether we should stop the integration.
func (e *TwoBodyProp) Stop(t float64) bool {
	return e.at >= e.Until
}

// Func does the math. Returns the state derivative.
func (e *TwoBodyProp) Func(t float64, f []float64) []float64 {
	r := Vec2{f[0], f[1]}
	rNorm := r.Norm()
	bodyAcc := -e.Primary.Mu() / math.Pow(rNorm, 3)
	fDot := []float64{
		f[2],
		f[3],
		bodyAcc * f[0],
		bodyAcc * f[1],
	}
	if e.Mass > 0 && (e.Thrust.X != 0 || e.Thrust.Y != 0) {
		fDot[2] += e.Thrust.X / e.Mass
		fDot[3] += e.Thrust.Y / e.Mass
	}
	return fDot
}

// Propagate runs the integration to the stop stamp. Blocking.
func (e *TwoBodyProp) Propagate() {
	ode.NewRK4(0, e.step.Secs(), e).Solve() // Blocking.
	e.logger.Log("level", "info", "subsys", "verif", "message", "integration done", "at(s)", e.at.Secs(), "r(m)", e.PV.R.Norm())
}

// VerifyAgainst propagates alongside an orbit's analytical solution and
// returns the largest position divergence over the window.
func (e *TwoBodyProp) VerifyAgainst(o SparseOrbit, from Stamp) (float64, error) {
	worst := 0.0
	for e.at < e.Until {
		prev := e.Until
		e.Until = e.at.AddStamp(e.step)
		ode.NewRK4(0, e.step.Secs(), e).Solve()
		e.Until = prev

		pv, err := o.PVAt(from.AddStamp(e.at))
		if err != nil {
			return worst, err
		}
		if d := pv.R.Sub(e.PV.R).Norm(); d > worst {
			worst = d
		}
	}
	return worst, nil
}
