package helio

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/gonum/floats"
)

const (
	eccentricityε = 1e-12 // parabolic band
	circularε     = 1e-4
	nearCircularε = 0.1
	ellipticalε   = 0.9
	// roundTripPosTol is the allowed reconstruction error of pv(epoch).
	roundTripPosTol = 1e-3 // m
	roundTripVelTol = 1e-3 // m/s
	// periapsisStampε limits stored time-at-periapsis to sane eccentricities.
	periapsisStampε = 0.95
)

// OrbitClass partitions conics by eccentricity and periapsis against the
// primary's radius.
type OrbitClass uint8

const (
	// Circular is e ≈ 0.
	Circular OrbitClass = iota + 1
	// NearCircular is e below 0.1.
	NearCircular
	// Elliptical is e below 0.9.
	Elliptical
	// HighlyElliptical is e below 1.
	HighlyElliptical
	// VeryThin is a bound orbit whose periapsis dips below the surface.
	VeryThin
	// Parabolic is e = 1.
	Parabolic
	// Hyperbolic is e above 1.
	Hyperbolic
)

func (c OrbitClass) String() string {
	switch c {
	case Circular:
		return "circular"
	case NearCircular:
		return "near-circular"
	case Elliptical:
		return "elliptical"
	case HighlyElliptical:
		return "highly-elliptical"
	case VeryThin:
		return "very-thin"
	case Parabolic:
		return "parabolic"
	case Hyperbolic:
		return "hyperbolic"
	}
	panic("cannot stringify unknown orbit class")
}

// IsBound returns whether orbits of this class have a period.
func (c OrbitClass) IsBound() bool {
	return c != Parabolic && c != Hyperbolic
}

func classify(e, periapsisR float64, primary Body) OrbitClass {
	switch {
	case e > 1+eccentricityε:
		return Hyperbolic
	case e >= 1-eccentricityε:
		return Parabolic
	case e < circularε:
		return Circular
	case e < nearCircularε:
		return NearCircular
	case periapsisR < primary.Radius:
		return VeryThin
	case e < ellipticalε:
		return Elliptical
	default:
		return HighlyElliptical
	}
}

// ErrBadOrbit is returned when an orbit cannot be constructed from a state.
var ErrBadOrbit = errors.New("degenerate state vector for orbit")

// SparseOrbit is a conic section relative to its primary body. It stores the
// defining state and elements; position queries propagate lazily from the
// initial state via the universal variable solver.
type SparseOrbit struct {
	Ecc             float64
	SemiMajor       float64 // signed: negative for hyperbolic
	ArgPeriapsis    float64
	Retrograde      bool
	Primary         Body
	Initial         PV
	Epoch           Stamp
	TimeAtPeriapsis *Stamp // populated for e < 0.95
	Class           OrbitClass
}

// NewOrbitFromPV computes the orbit defined by a state vector at an epoch.
// Non-finite inputs, NaN-producing geometries and states that do not survive
// a round trip are rejected.
func NewOrbitFromPV(pv PV, primary Body, epoch Stamp) (SparseOrbit, error) {
	if !pv.IsFinite() {
		return SparseOrbit{}, ErrBadOrbit
	}
	μ := primary.Mu()
	r := pv.R.Norm()
	v := pv.V.Norm()
	if r == 0 || μ <= 0 {
		return SparseOrbit{}, ErrBadOrbit
	}
	h := pv.R.Cross(pv.V) // signed scalar, implied z
	// Eccentricity vector, planar form of Vallado's RV2COE.
	eVec := pv.R.Scale(v*v/μ - 1/r).Sub(pv.V.Scale(pv.R.Dot(pv.V) / μ))
	e := eVec.Norm()
	a := (h * h / μ) / (1 - e*e)
	if math.IsInf(a, 0) || math.IsNaN(a) || math.IsNaN(e) || math.IsNaN(h) {
		return SparseOrbit{}, ErrBadOrbit
	}
	ω := 0.0
	if e > circularε {
		ω = eVec.Angle()
	}
	o := SparseOrbit{
		Ecc:          e,
		SemiMajor:    a,
		ArgPeriapsis: Wrap2Pi(ω),
		Retrograde:   h < 0,
		Primary:      primary,
		Initial:      pv,
		Epoch:        epoch,
		Class:        classify(e, math.Abs(a)*math.Abs(1-e), primary),
	}
	if e < periapsisStampε {
		if tp, ok := o.computeTimeAtPeriapsis(); ok {
			o.TimeAtPeriapsis = &tp
		}
	}
	// Round-trip guard: the state must reconstruct at the epoch and stay
	// finite one second later.
	back, err := o.PVAt(epoch)
	if err != nil {
		return SparseOrbit{}, ErrBadOrbit
	}
	if back.R.Sub(pv.R).Norm() > roundTripPosTol || back.V.Sub(pv.V).Norm() > roundTripVelTol {
		return SparseOrbit{}, ErrBadOrbit
	}
	if next, err := o.PVAt(epoch.Add(time.Second)); err != nil || !next.IsFinite() {
		return SparseOrbit{}, ErrBadOrbit
	}
	return o, nil
}

// dir returns +1 for prograde and -1 for retrograde motion.
func (o SparseOrbit) dir() float64 {
	if o.Retrograde {
		return -1
	}
	return 1
}

// SemiParameter returns the semi-latus rectum.
func (o SparseOrbit) SemiParameter() float64 {
	if o.Class == Parabolic {
		// a is unusable there; h²/μ from the initial state instead.
		h := o.Initial.R.Cross(o.Initial.V)
		return h * h / o.Primary.Mu()
	}
	return o.SemiMajor * (1 - o.Ecc*o.Ecc)
}

// Period returns the orbital period, which exists iff the orbit is bound.
func (o SparseOrbit) Period() (Stamp, bool) {
	if !o.Class.IsBound() {
		return 0, false
	}
	secs := 2 * math.Pi * math.Sqrt(math.Pow(o.SemiMajor, 3)/o.Primary.Mu())
	if math.IsNaN(secs) || secs <= 0 {
		return 0, false
	}
	return StampFromSecs(secs), true
}

// meanMotion returns the mean motion in rad/s; valid for non-parabolic.
func (o SparseOrbit) meanMotion() float64 {
	return math.Sqrt(o.Primary.Mu() / math.Pow(math.Abs(o.SemiMajor), 3))
}

// trueAnomalyOf returns the true anomaly of a position, sign-adjusted for
// retrograde motion.
func (o SparseOrbit) trueAnomalyOf(pos Vec2) float64 {
	return WrapPi(o.dir() * (pos.Angle() - o.ArgPeriapsis))
}

func (o SparseOrbit) computeTimeAtPeriapsis() (Stamp, bool) {
	ν := o.trueAnomalyOf(o.Initial.R)
	M := EccToMean(TrueToEcc(ν, o.Ecc), o.Ecc)
	n := o.meanMotion()
	if math.IsNaN(M) || math.IsNaN(n) || n == 0 {
		return 0, false
	}
	return o.Epoch.AddStamp(StampFromSecs(-M / n)), true
}

// NextPeriapsis returns the first periapsis passage at or after the stamp.
func (o SparseOrbit) NextPeriapsis(stamp Stamp) (Stamp, bool) {
	var tp Stamp
	if o.TimeAtPeriapsis != nil {
		tp = *o.TimeAtPeriapsis
	} else {
		computed, ok := o.computeTimeAtPeriapsis()
		if !ok {
			return 0, false
		}
		tp = computed
	}
	period, bound := o.Period()
	if !bound {
		if tp < stamp {
			return 0, false // already past the single passage
		}
		return tp, true
	}
	if period <= 0 {
		return 0, false
	}
	if tp >= stamp {
		tp -= ((tp - stamp) / period) * period
		return tp, true
	}
	k := (stamp-tp)/period + 1
	return tp.AddStamp(k * period), true
}

// PrevPeriapsis returns the last periapsis passage strictly before the stamp.
func (o SparseOrbit) PrevPeriapsis(stamp Stamp) (Stamp, bool) {
	next, ok := o.NextPeriapsis(stamp)
	if !ok {
		return 0, false
	}
	period, bound := o.Period()
	if !bound {
		return 0, false
	}
	return next - period, true
}

// NextApoapsis returns the first apoapsis passage at or after the stamp.
func (o SparseOrbit) NextApoapsis(stamp Stamp) (Stamp, bool) {
	period, bound := o.Period()
	if !bound {
		return 0, false
	}
	half := period / 2
	next, ok := o.NextPeriapsis(stamp)
	if !ok {
		return 0, false
	}
	apo := next - half
	if apo < stamp {
		apo += period
	}
	return apo, true
}

// PVAt propagates the initial state to the given stamp.
func (o SparseOrbit) PVAt(stamp Stamp) (PV, error) {
	τ := stamp.Sub(o.Epoch)
	if period, ok := o.Period(); ok && period > 0 {
		τ = τ.Mod(period)
	}
	return UniversalKepler(o.Initial, τ.Secs(), o.Primary.Mu())
}

// RadiusAtTrue returns the orbit radius at a true anomaly.
func (o SparseOrbit) RadiusAtTrue(ν float64) float64 {
	return o.SemiParameter() / (1 + o.Ecc*math.Cos(ν))
}

// RadiusAtAngle returns the orbit radius at a world-frame angle, accounting
// for the argument of periapsis and the direction of motion.
func (o SparseOrbit) RadiusAtAngle(θ float64) float64 {
	return o.RadiusAtTrue(o.dir() * (θ - o.ArgPeriapsis))
}

// PositionAtTrue returns the world-frame position at a true anomaly.
func (o SparseOrbit) PositionAtTrue(ν float64) Vec2 {
	θ := o.ArgPeriapsis + o.dir()*ν
	return VecFromAngle(θ).Scale(o.RadiusAtTrue(ν))
}

// Trace samples n positions over one revolution of a bound orbit, spaced
// uniformly in mean anomaly. The table-accelerated conversion serves the
// common eccentricities; above its range the iterative solver takes over.
// Unbound orbits trace nothing.
func (o SparseOrbit) Trace(n int) []Vec2 {
	if !o.Class.IsBound() || n <= 0 {
		return nil
	}
	pts := make([]Vec2, 0, n)
	for j := 0; j < n; j++ {
		M := 2 * math.Pi * float64(j) / float64(n)
		ν, ok := MeanToTrueLUT(M, o.Ecc)
		if !ok {
			ν, ok = MeanToTrue(M, o.Ecc)
		}
		if !ok {
			continue
		}
		pts = append(pts, o.PositionAtTrue(ν))
	}
	return pts
}

// VelocityAtTrue returns the world-frame velocity at a true anomaly.
func (o SparseOrbit) VelocityAtTrue(ν float64) Vec2 {
	p := o.SemiParameter()
	if p <= 0 {
		return Vec2{}
	}
	c := math.Sqrt(o.Primary.Mu() / p)
	vr := c * o.Ecc * math.Sin(ν)
	vt := c * (1 + o.Ecc*math.Cos(ν))
	θ := o.ArgPeriapsis + o.dir()*ν
	radial := VecFromAngle(θ)
	transverse := Vec2{-radial.Y, radial.X}.Scale(o.dir())
	return radial.Scale(vr).Add(transverse.Scale(vt))
}

// PeriapsisR returns the periapsis radius.
func (o SparseOrbit) PeriapsisR() float64 {
	if o.Class == Parabolic {
		return o.SemiParameter() / 2
	}
	return o.SemiMajor * (1 - o.Ecc)
}

// ApoapsisR returns the apoapsis radius. For open orbits this is negative,
// which doubles as the "no apoapsis" sentinel.
func (o SparseOrbit) ApoapsisR() float64 {
	if o.Class == Parabolic {
		return math.Inf(-1)
	}
	return o.SemiMajor * (1 + o.Ecc)
}

// Periapsis returns the world-frame periapsis position.
func (o SparseOrbit) Periapsis() Vec2 {
	return VecFromAngle(o.ArgPeriapsis).Scale(o.PeriapsisR())
}

// Apoapsis returns the world-frame apoapsis position; only meaningful for
// bound orbits.
func (o SparseOrbit) Apoapsis() Vec2 {
	return VecFromAngle(o.ArgPeriapsis + math.Pi).Scale(math.Abs(o.ApoapsisR()))
}

// SemiMinor returns the semi-minor axis of a bound orbit.
func (o SparseOrbit) SemiMinor() float64 {
	if !o.Class.IsBound() {
		return math.NaN()
	}
	return o.SemiMajor * math.Sqrt(1-o.Ecc*o.Ecc)
}

// HNorm returns the magnitude of the specific angular momentum.
func (o SparseOrbit) HNorm() float64 {
	return math.Abs(o.Initial.R.Cross(o.Initial.V))
}

// Asymptotes returns the outgoing and incoming asymptote directions of a
// hyperbolic orbit.
func (o SparseOrbit) Asymptotes() ([2]Vec2, bool) {
	if o.Class != Hyperbolic {
		return [2]Vec2{}, false
	}
	νInf := math.Acos(-1 / o.Ecc)
	out := VecFromAngle(o.ArgPeriapsis + o.dir()*νInf)
	in := VecFromAngle(o.ArgPeriapsis - o.dir()*νInf)
	return [2]Vec2{out, in}, true
}

// NearestPointTo projects a world position onto the orbit by fixed-iteration
// along-track refinement.
func (o SparseOrbit) NearestPointTo(pos Vec2) Vec2 {
	ν := o.trueAnomalyOf(pos)
	best := o.PositionAtTrue(ν)
	step := 0.1
	for i := 0; i < 16; i++ {
		fwd := o.PositionAtTrue(ν + step)
		bck := o.PositionAtTrue(ν - step)
		dBest := best.Sub(pos).Norm()
		switch {
		case fwd.Sub(pos).Norm() < dBest:
			ν += step
			best = fwd
		case bck.Sub(pos).Norm() < dBest:
			ν -= step
			best = bck
		default:
			step /= 2
		}
	}
	return best
}

// IsSuborbital returns whether the orbit dips below the primary's surface.
func (o SparseOrbit) IsSuborbital() bool {
	return o.PeriapsisR() < o.Primary.Radius
}

// WillEscape returns whether the orbit leaves the primary's SOI.
func (o SparseOrbit) WillEscape() bool {
	if !o.Class.IsBound() {
		return true
	}
	return o.ApoapsisR() > o.Primary.SOI
}

func (o SparseOrbit) String() string {
	dirStr := "prograde"
	if o.Retrograde {
		dirStr = "retrograde"
	}
	return fmt.Sprintf("%s e=%.4f a=%.1f ω=%.3f %s", o.Class, o.Ecc, o.SemiMajor, Rad2deg(o.ArgPeriapsis), dirStr)
}

// Equals returns whether two orbits share the same elements, with free
// position along track.
func (o SparseOrbit) Equals(o1 SparseOrbit) bool {
	return o.Primary.Equals(o1.Primary) &&
		floats.EqualWithinAbs(o.Ecc, o1.Ecc, 1e-6) &&
		floats.EqualWithinAbs(o.SemiMajor, o1.SemiMajor, 1e-3) &&
		floats.EqualWithinAbs(WrapPi(o.ArgPeriapsis-o1.ArgPeriapsis), 0, 1e-6) &&
		o.Retrograde == o1.Retrograde
}
