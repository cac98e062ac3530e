package helio

import (
	"math"
	"testing"
)

// loneSystem has no children, isolating escape and collision behavior.
func loneSystem() *PlanetarySystem {
	return &PlanetarySystem{
		ID:      EntityID{KindPlanet, 1},
		Name:    "lone",
		Primary: testBody,
	}
}

func TestPropagatorIndefinite(t *testing.T) {
	sys := testSystem()
	o := circularOrbit(t, 2000, testBody)
	p := NewPropagator(GlobalOrbit{Parent: sys.ID, Orbit: o}, 0)
	if err := p.FinishOrComputeUntil(sys, StampFromSecs(1e6)); err != nil {
		t.Fatal(err)
	}
	if p.Horizon.Kind != HorizonIndefinite {
		t.Fatalf("settled circular orbit decided as %s", p.Horizon)
	}
	if !p.Covers(StampMax) {
		t.Fatal("indefinite horizon must cover all future stamps")
	}
}

func TestPropagatorEscapeWithinOnePeriod(t *testing.T) {
	sys := loneSystem()
	// Bound orbit whose apoapsis pokes out of the SOI.
	o, err := NewOrbitFromPV(periapsisPV(2000, 0.777, testBody), testBody, 0)
	if err != nil {
		t.Fatal(err)
	}
	if o.ApoapsisR() <= testBody.SOI {
		t.Fatalf("test orbit apoapsis %f inside SOI", o.ApoapsisR())
	}
	period, _ := o.Period()
	p := NewPropagator(GlobalOrbit{Parent: sys.ID, Orbit: o}, 0)
	if err := p.FinishOrComputeUntil(sys, period); err != nil {
		t.Fatal(err)
	}
	if p.Horizon.Kind != HorizonTransition || p.Horizon.Event.Kind != EventEscape {
		t.Fatalf("expected escape transition, got %s", p.Horizon)
	}
	if p.Horizon.End > period {
		t.Fatalf("escape at %v, after one period %v", p.Horizon.End, period)
	}
	// The decided end must sit at the SOI boundary.
	pv, err := o.PVAt(p.Horizon.End)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(pv.R.Norm()-testBody.SOI) > 1 {
		t.Errorf("escape refined to r=%f, want the SOI radius %f", pv.R.Norm(), testBody.SOI)
	}
}

func TestPropagatorSuborbitalCollide(t *testing.T) {
	sys := loneSystem()
	// Start at apoapsis of an orbit dipping below the surface.
	ra, rp := 2000.0, 40.0
	a := (ra + rp) / 2
	va := math.Sqrt(testBody.Mu() * (2/ra - 1/a))
	o, err := NewOrbitFromPV(PV{R: Vec2{-ra, 0}, V: Vec2{0, -va}}, testBody, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !o.IsSuborbital() {
		t.Fatalf("rp=%f should be suborbital", o.PeriapsisR())
	}
	period, _ := o.Period()
	p := NewPropagator(GlobalOrbit{Parent: sys.ID, Orbit: o}, 0)
	if err := p.FinishOrComputeUntil(sys, period); err != nil {
		t.Fatal(err)
	}
	if p.Horizon.Kind != HorizonTerminating || p.Horizon.Event.Kind != EventCollide {
		t.Fatalf("expected collide, got %s", p.Horizon)
	}
	nextPeri, _ := o.NextPeriapsis(0)
	if p.Horizon.End <= 0 || p.Horizon.End >= nextPeri {
		t.Fatalf("impact at %v, want inside (start, next periapsis %v)", p.Horizon.End, nextPeri)
	}
	if ev := p.Horizon.Event; !ev.Terminal() {
		t.Errorf("collide should be terminal, got %s", ev)
	}
}

func TestPropagatorEncounter(t *testing.T) {
	sys := testSystem()
	μ := testBody.Mu()
	// Co-orbital chaser slightly under the moon's radius, starting behind
	// it and drifting forward into its sphere of influence.
	r := 4900.0
	θ0 := -0.2
	vc := math.Sqrt(μ / r)
	pv := PV{
		R: Vec2{r * math.Cos(θ0), r * math.Sin(θ0)},
		V: Vec2{-vc * math.Sin(θ0), vc * math.Cos(θ0)},
	}
	o, err := NewOrbitFromPV(pv, testBody, 0)
	if err != nil {
		t.Fatal(err)
	}
	p := NewPropagator(GlobalOrbit{Parent: sys.ID, Orbit: o}, 0)
	if err := p.FinishOrComputeUntil(sys, StampFromSecs(4000)); err != nil {
		t.Fatal(err)
	}
	if p.Horizon.Kind != HorizonTransition || p.Horizon.Event.Kind != EventEncounter {
		t.Fatalf("expected encounter, got %s", p.Horizon)
	}
	moonID := sys.Children[0].Sys.ID
	if p.Horizon.Event.Target != moonID {
		t.Errorf("encounter target %v, want %v", p.Horizon.Event.Target, moonID)
	}
}

func TestOrbiterStitchesEscape(t *testing.T) {
	sys := testSystem()
	moon := sys.Children[0]
	moonID := moon.Sys.ID
	// Hyperbolic wrt the moon: leaves its SOI and reappears around the
	// primary.
	o, err := NewOrbitFromPV(periapsisPV(50, 1.5, moon.Sys.Primary), moon.Sys.Primary, 0)
	if err != nil {
		t.Fatal(err)
	}
	ob := NewOrbiter(EntityID{KindOrbiter, 7}, "stitcher", GlobalOrbit{Parent: moonID, Orbit: o}, 0)
	if err := ob.PropagateTo(sys, 0, StampFromSecs(4000)); err != nil {
		t.Fatal(err)
	}
	if len(ob.Props) < 2 {
		t.Fatalf("expected a stitched trajectory, got %d segment(s), horizon %s", len(ob.Props), ob.Last().Horizon)
	}
	first, second := &ob.Props[0], &ob.Props[1]
	if first.Horizon.Kind != HorizonTransition || first.Horizon.Event.Kind != EventEscape {
		t.Fatalf("first segment should end in escape, got %s", first.Horizon)
	}
	if second.Orbit.Parent != sys.ID {
		t.Errorf("reparented to %v, want the primary %v", second.Orbit.Parent, sys.ID)
	}
	if second.Start != first.Horizon.End {
		t.Errorf("segments do not share the transition stamp: %v vs %v", second.Start, first.Horizon.End)
	}
	// Global position must be continuous across the stitch.
	at := first.Horizon.End
	lkMoon, _ := sys.Lookup(moonID, at)
	pvBefore, err := first.Orbit.Orbit.PVAt(at)
	if err != nil {
		t.Fatal(err)
	}
	pvAfter, err := second.Orbit.Orbit.PVAt(at)
	if err != nil {
		t.Fatal(err)
	}
	globalBefore := pvBefore.R.Add(lkMoon.PV.R)
	if d := globalBefore.Sub(pvAfter.R).Norm(); d > 1 {
		t.Errorf("position jumped %f m across the SOI transition", d)
	}
}

func TestOrbiterImpulse(t *testing.T) {
	sys := loneSystem()
	o := circularOrbit(t, 2000, testBody)
	ob := NewOrbiter(EntityID{KindOrbiter, 9}, "burner", GlobalOrbit{Parent: sys.ID, Orbit: o}, 0)
	if err := ob.PropagateTo(sys, 0, StampFromSecs(5000)); err != nil {
		t.Fatal(err)
	}
	at := StampFromSecs(100)
	pvBefore, err := ob.PVAt(at)
	if err != nil {
		t.Fatal(err)
	}
	dv := pvBefore.V.Unit().Scale(5)
	if err := ob.ScheduleImpulse(at, dv); err != nil {
		t.Fatal(err)
	}
	if err := ob.PropagateTo(sys, 0, StampFromSecs(5000)); err != nil {
		t.Fatal(err)
	}
	if len(ob.Props) < 2 {
		t.Fatalf("impulse did not split the trajectory: %d segment(s)", len(ob.Props))
	}
	after := ob.Props[1].Orbit.Orbit
	pvAfter, err := after.PVAt(at)
	if err != nil {
		t.Fatal(err)
	}
	if d := pvAfter.V.Sub(pvBefore.V.Add(dv)).Norm(); d > 1e-3 {
		t.Errorf("post-burn velocity off by %f m/s", d)
	}
	if after.SemiMajor <= o.SemiMajor {
		t.Error("prograde burn should raise the semi-major axis")
	}
}

func TestPropagatorSegmentOrdering(t *testing.T) {
	sys := testSystem()
	moon := sys.Children[0]
	o, err := NewOrbitFromPV(periapsisPV(50, 1.5, moon.Sys.Primary), moon.Sys.Primary, 0)
	if err != nil {
		t.Fatal(err)
	}
	ob := NewOrbiter(EntityID{KindOrbiter, 11}, "walker", GlobalOrbit{Parent: moon.Sys.ID, Orbit: o}, 0)
	if err := ob.PropagateTo(sys, 0, StampFromSecs(4000)); err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(ob.Props); i++ {
		prev, cur := &ob.Props[i-1], &ob.Props[i]
		if prev.Horizon.End <= prev.Start {
			t.Errorf("segment %d is empty: start %v end %v", i-1, prev.Start, prev.Horizon.End)
		}
		if cur.Start != prev.Horizon.End {
			t.Errorf("segment %d does not abut its predecessor", i)
		}
	}
}
