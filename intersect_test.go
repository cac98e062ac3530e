package helio

import (
	"testing"

	"github.com/gonum/floats"
)

func TestNearestApproachCrossingOrbits(t *testing.T) {
	// An ellipse from rp=1000 to ra=3000 crosses a circle at r=2000 twice.
	circ := circularOrbit(t, 2000, testBody)
	ell, err := NewOrbitFromPV(periapsisPV(1000, 0.5, testBody), testBody, 0)
	if err != nil {
		t.Fatal(err)
	}
	angles := NearestApproach(ell, circ)
	if len(angles) == 0 {
		t.Fatal("no candidate angles for crossing orbits")
	}
	crossings := 0
	for _, α := range angles {
		if floats.EqualWithinAbs(ell.RadiusAtAngle(α), 2000, 1) {
			crossings++
		}
	}
	if crossings == 0 {
		t.Errorf("no candidate sits on the crossing radius; angles: %v", angles)
	}
}

func TestNextIntersectionOnCrossingOrbits(t *testing.T) {
	circ := circularOrbit(t, 2000, testBody)
	ell, err := NewOrbitFromPV(periapsisPV(1000, 0.5, testBody), testBody, 0)
	if err != nil {
		t.Fatal(err)
	}
	at, pv, ok := NextIntersection(0, ell, circ)
	if !ok {
		t.Fatal("no intersection found for crossing orbits")
	}
	period, _ := ell.Period()
	if at < 0 || at > period {
		t.Fatalf("intersection stamp %v outside the first period", at)
	}
	// The returned state must sit on both orbits.
	if !floats.EqualWithinAbs(pv.R.Norm(), 2000, 2) {
		t.Errorf("intersection at radius %f, want 2000", pv.R.Norm())
	}
	own, err := ell.PVAt(at)
	if err != nil {
		t.Fatal(err)
	}
	if own.R.Sub(pv.R).Norm() > 2 {
		t.Errorf("intersection PV %v disagrees with orbit position %v", pv.R, own.R)
	}
}

func TestNextIntersectionDisjointOrbits(t *testing.T) {
	inner := circularOrbit(t, 1000, testBody)
	outer := circularOrbit(t, 4000, testBody)
	if _, _, ok := NextIntersection(0, inner, outer); ok {
		t.Fatal("disjoint circles should not intersect")
	}
}
