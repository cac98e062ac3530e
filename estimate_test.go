package helio

import (
	"math"
	"testing"
)

func TestTwoBodyPropMatchesConic(t *testing.T) {
	// Captured elliptical state from a live run.
	pv := PV{
		R: Vec2{669.058, -1918.289},
		V: Vec2{74.723, 60.678},
	}
	o, err := NewOrbitFromPV(pv, testBody, 0)
	if err != nil {
		t.Fatal(err)
	}
	e := NewTwoBodyProp(testBody, pv, StampFromSecs(100), nil)
	worst, err := e.VerifyAgainst(o, 0)
	if err != nil {
		t.Fatal(err)
	}
	if worst > 1 {
		t.Errorf("numerical and analytical trajectories diverge by %f m over 100 s", worst)
	}
}

func TestTwoBodyPropBallistic(t *testing.T) {
	o := circularOrbit(t, 2000, testBody)
	pv, err := o.PVAt(0)
	if err != nil {
		t.Fatal(err)
	}
	e := NewTwoBodyProp(testBody, pv, StampFromSecs(500), nil)
	e.Propagate()
	// A circular orbit keeps its radius.
	if r := e.PV.R.Norm(); math.Abs(r-2000) > 1 {
		t.Errorf("radius drifted to %f m", r)
	}
	want, err := o.PVAt(StampFromSecs(500))
	if err != nil {
		t.Fatal(err)
	}
	if d := want.R.Sub(e.PV.R).Norm(); d > 2 {
		t.Errorf("position diverged %f m after 500 s", d)
	}
}

func TestTwoBodyPropThrustRaisesEnergy(t *testing.T) {
	o := circularOrbit(t, 2000, testBody)
	pv, err := o.PVAt(0)
	if err != nil {
		t.Fatal(err)
	}
	μ := testBody.Mu()
	ξ0 := pv.V.Norm()*pv.V.Norm()/2 - μ/pv.R.Norm()
	// A quarter orbit, so the thrust stays roughly prograde throughout.
	e := NewTwoBodyProp(testBody, pv, StampFromSecs(40), nil)
	// Constant thrust along the initial velocity.
	e.Thrust = pv.V.Unit().Scale(50)
	e.Mass = 100
	e.Propagate()
	ξ1 := e.PV.V.Norm()*e.PV.V.Norm()/2 - μ/e.PV.R.Norm()
	if ξ1 <= ξ0 {
		t.Errorf("thrusting did not raise specific energy: %f -> %f", ξ0, ξ1)
	}
}
