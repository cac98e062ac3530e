package helio

import (
	"math"
	"testing"
	"time"

	"github.com/gonum/floats"
)

var testBody = Body{Radius: 63, Mass: 1000, SOI: 15000}

// periapsisPV builds a state at periapsis radius rp with the velocity that
// yields eccentricity e.
func periapsisPV(rp, e float64, body Body) PV {
	v := math.Sqrt((1 + e) * body.Mu() / rp)
	return PV{R: Vec2{X: rp}, V: Vec2{Y: v}}
}

func circularOrbit(t *testing.T, r float64, body Body) SparseOrbit {
	t.Helper()
	o, err := NewOrbitFromPV(periapsisPV(r, 0, body), body, 0)
	if err != nil {
		t.Fatalf("circular orbit at %f: %v", r, err)
	}
	return o
}

func TestOrbitClassBoundaries(t *testing.T) {
	cases := []struct {
		e    float64
		rp   float64
		want OrbitClass
	}{
		{0, 1000, Circular},
		{0.05, 1000, NearCircular},
		{0.5, 1000, Elliptical},
		{1 - 1e-6, 1000, HighlyElliptical},
		{1.001, 1000, Hyperbolic},
		{0.5, 40, VeryThin},
	}
	for _, tc := range cases {
		o, err := NewOrbitFromPV(periapsisPV(tc.rp, tc.e, testBody), testBody, 0)
		if err != nil {
			t.Fatalf("e=%f rp=%f: %v", tc.e, tc.rp, err)
		}
		if o.Class != tc.want {
			t.Errorf("e=%f rp=%f: classified %s, want %s", tc.e, tc.rp, o.Class, tc.want)
		}
	}
}

func TestOrbitRoundTripAtEpoch(t *testing.T) {
	pvs := []PV{
		{R: Vec2{669.058, -1918.289}, V: Vec2{74.723, 60.678}},
		periapsisPV(2000, 0.3, testBody),
		periapsisPV(500, 1.4, testBody),
	}
	for _, pv := range pvs {
		o, err := NewOrbitFromPV(pv, testBody, 12345)
		if err != nil {
			t.Fatalf("from %v: %v", pv, err)
		}
		back, err := o.PVAt(12345)
		if err != nil {
			t.Fatalf("pv at epoch: %v", err)
		}
		if back.R.Sub(pv.R).Norm() > 1e-4 {
			t.Errorf("epoch position off by %g m", back.R.Sub(pv.R).Norm())
		}
		if back.V.Sub(pv.V).Norm() > 1e-4 {
			t.Errorf("epoch velocity off by %g m/s", back.V.Sub(pv.V).Norm())
		}
	}
}

func TestOrbitPeriodicity(t *testing.T) {
	o, err := NewOrbitFromPV(PV{R: Vec2{669.058, -1918.289}, V: Vec2{74.723, 60.678}}, testBody, 0)
	if err != nil {
		t.Fatal(err)
	}
	period, ok := o.Period()
	if !ok {
		t.Fatal("bound orbit has no period")
	}
	at := StampFromSecs(321.5)
	pv0, err := o.PVAt(at)
	if err != nil {
		t.Fatal(err)
	}
	for k := Stamp(1); k <= 3; k++ {
		pvk, err := o.PVAt(at.AddStamp(k * period))
		if err != nil {
			t.Fatal(err)
		}
		if pvk.R.Sub(pv0.R).Norm() > 1e-2 {
			t.Errorf("after %d periods position drifted %g m", k, pvk.R.Sub(pv0.R).Norm())
		}
	}
}

func TestOrbitVisViva(t *testing.T) {
	o, err := NewOrbitFromPV(PV{R: Vec2{669.058, -1918.289}, V: Vec2{74.723, 60.678}}, testBody, 0)
	if err != nil {
		t.Fatal(err)
	}
	if o.Ecc < 0 {
		t.Fatalf("negative eccentricity %f", o.Ecc)
	}
	if o.PeriapsisR() > o.ApoapsisR() {
		t.Fatalf("rp=%f above ra=%f", o.PeriapsisR(), o.ApoapsisR())
	}
	h := o.HNorm()
	lhs := h * h / o.Primary.Mu()
	rhs := o.SemiMajor * (1 - o.Ecc*o.Ecc)
	if !floats.EqualWithinRel(lhs, rhs, 1e-3) {
		t.Errorf("h²/μ=%f but a(1-e²)=%f", lhs, rhs)
	}
}

func TestEllipticalCapture(t *testing.T) {
	pv := PV{R: Vec2{669.058, -1918.289}, V: Vec2{74.723, 60.678}}
	o, err := NewOrbitFromPV(pv, testBody, 0)
	if err != nil {
		t.Fatal(err)
	}
	if o.Class != Elliptical {
		t.Fatalf("classified %s, want elliptical", o.Class)
	}
	later, err := o.PVAt(StampFromDur(100 * time.Second))
	if err != nil {
		t.Fatal(err)
	}
	if !later.IsFinite() {
		t.Fatalf("state at +100s not finite: %v", later)
	}
}

func TestHyperbolicFlyby(t *testing.T) {
	pv := PV{R: Vec2{0, -222.776}, V: Vec2{333.258, 0}}
	o, err := NewOrbitFromPV(pv, testBody, 0)
	if err != nil {
		t.Fatal(err)
	}
	if o.Class != Hyperbolic {
		t.Fatalf("classified %s, want hyperbolic", o.Class)
	}
	if o.ApoapsisR() >= 0 {
		t.Fatalf("open orbit apoapsis should be the negative sentinel, got %f", o.ApoapsisR())
	}
	if _, ok := o.NextPeriapsis(0); !ok {
		t.Fatal("no periapsis passage for incoming hyperbolic state")
	}
	if _, ok := o.Period(); ok {
		t.Fatal("hyperbolic orbit reported a period")
	}
	if _, ok := o.Asymptotes(); !ok {
		t.Fatal("hyperbolic orbit has no asymptotes")
	}
}

func TestOrbitRejectsGarbage(t *testing.T) {
	bad := []PV{
		{R: Vec2{math.NaN(), 0}, V: Vec2{1, 1}},
		{R: Vec2{}, V: Vec2{1, 1}},
		{R: Vec2{1000, 0}, V: Vec2{math.Inf(1), 0}},
	}
	for _, pv := range bad {
		if _, err := NewOrbitFromPV(pv, testBody, 0); err == nil {
			t.Errorf("orbit accepted %v", pv)
		}
	}
}

func TestOrbitGeometry(t *testing.T) {
	o, err := NewOrbitFromPV(periapsisPV(1000, 0.5, testBody), testBody, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !floats.EqualWithinRel(o.RadiusAtTrue(0), 1000, 1e-6) {
		t.Errorf("radius at periapsis %f", o.RadiusAtTrue(0))
	}
	if !floats.EqualWithinRel(o.RadiusAtTrue(math.Pi), 3000, 1e-6) {
		t.Errorf("radius at apoapsis %f", o.RadiusAtTrue(math.Pi))
	}
	if !vecsEqual(o.Periapsis(), Vec2{X: 1000}) {
		t.Errorf("periapsis position %v", o.Periapsis())
	}
	b := o.SemiMinor()
	if !floats.EqualWithinRel(b, o.SemiMajor*math.Sqrt(1-o.Ecc*o.Ecc), 1e-9) {
		t.Errorf("semi-minor %f", b)
	}
	// The nearest point to a spot on the orbit is that spot.
	on := o.PositionAtTrue(1.0)
	if d := o.NearestPointTo(on).Sub(on).Norm(); d > 1 {
		t.Errorf("nearest point to on-orbit position off by %f m", d)
	}
}

func TestNextAndPrevPeriapsis(t *testing.T) {
	o := circularOrbit(t, 2000, testBody)
	period, _ := o.Period()
	next, ok := o.NextPeriapsis(StampFromSecs(10))
	if !ok {
		t.Fatal("no next periapsis on a bound orbit")
	}
	if next < StampFromSecs(10) || next > StampFromSecs(10).AddStamp(period) {
		t.Fatalf("next periapsis %v outside one period window", next)
	}
	prev, ok := o.PrevPeriapsis(StampFromSecs(10))
	if !ok {
		t.Fatal("no previous periapsis")
	}
	if prev != next-period {
		t.Fatalf("prev %v is not next minus period", prev)
	}
	apo, ok := o.NextApoapsis(0)
	if !ok || apo < 0 {
		t.Fatalf("bad next apoapsis %v", apo)
	}
}

func TestSuborbitalAndEscapeFlags(t *testing.T) {
	sub, err := NewOrbitFromPV(periapsisPV(40, 0.5, testBody), testBody, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !sub.IsSuborbital() {
		t.Error("periapsis below surface not flagged suborbital")
	}
	esc, err := NewOrbitFromPV(periapsisPV(500, 1.2, testBody), testBody, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !esc.WillEscape() {
		t.Error("hyperbolic orbit not flagged escaping")
	}
	if circ := circularOrbit(t, 2000, testBody); circ.WillEscape() || circ.IsSuborbital() {
		t.Error("small circular orbit misflagged")
	}
}

func TestOrbitTrace(t *testing.T) {
	o, err := NewOrbitFromPV(periapsisPV(1000, 0.5, testBody), testBody, 0)
	if err != nil {
		t.Fatal(err)
	}
	pts := o.Trace(64)
	if len(pts) != 64 {
		t.Fatalf("traced %d points, want 64", len(pts))
	}
	// Sampling starts at periapsis and every radius stays on the conic.
	if !vecsEqual(pts[0], o.Periapsis()) {
		t.Errorf("trace starts at %s, want periapsis %s", pts[0], o.Periapsis())
	}
	rp, ra := o.PeriapsisR(), o.ApoapsisR()
	for i, pt := range pts {
		r := pt.Norm()
		if r < rp-1e-6 || r > ra+1e-6 {
			t.Fatalf("point %d at radius %f outside [%f, %f]", i, r, rp, ra)
		}
	}
	// Above the table's eccentricity range the iterative solver takes over.
	high, err := NewOrbitFromPV(periapsisPV(1000, 0.98, testBody), testBody, 0)
	if err != nil {
		t.Fatal(err)
	}
	if pts := high.Trace(32); len(pts) != 32 {
		t.Fatalf("high-eccentricity trace returned %d points", len(pts))
	}
	// Unbound orbits trace nothing.
	hyper, err := NewOrbitFromPV(periapsisPV(1000, 1.5, testBody), testBody, 0)
	if err != nil {
		t.Fatal(err)
	}
	if pts := hyper.Trace(32); pts != nil {
		t.Fatalf("hyperbolic trace returned %d points", len(pts))
	}
}

func TestOrbitClassStringPanics(t *testing.T) {
	assertPanic(t, func() {
		_ = OrbitClass(200).String()
	})
}
