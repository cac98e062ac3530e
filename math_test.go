package helio

import (
	"math"
	"testing"
	"time"

	"github.com/gonum/floats"
)

func TestVec2Ops(t *testing.T) {
	a := Vec2{3, 4}
	if a.Norm() != 5 {
		t.Fatalf("|a| = %f", a.Norm())
	}
	if !vecsEqual(a.Unit().Scale(5), a) {
		t.Fatal("unit-scale round trip failed")
	}
	b := Vec2{-1, 2}
	if a.Dot(b) != 5 {
		t.Fatalf("a·b = %f", a.Dot(b))
	}
	if a.Cross(b) != 10 {
		t.Fatalf("a×b = %f", a.Cross(b))
	}
	if !vecsEqual(a.Add(b).Sub(b), a) {
		t.Fatal("add-sub round trip failed")
	}
}

func TestVec2Rotate(t *testing.T) {
	x := Vec2{1, 0}
	if !vecsEqual(x.Rotate(math.Pi/2), Vec2{0, 1}) {
		t.Errorf("quarter turn gave %v", x.Rotate(math.Pi/2))
	}
	if !vecsEqual(x.Rotate(math.Pi), Vec2{-1, 0}) {
		t.Errorf("half turn gave %v", x.Rotate(math.Pi))
	}
	v := Vec2{2.5, -1.2}
	if !vecsEqual(v.Rotate(0.7).Rotate(-0.7), v) {
		t.Error("rotate round trip failed")
	}
	if ok, err := anglesEqual(0.7, VecFromAngle(0.7).Angle()); !ok {
		t.Errorf("angle round trip: %s", err)
	}
}

func TestWraps(t *testing.T) {
	for _, θ := range []float64{-7, -math.Pi, 0, 1, math.Pi, 9} {
		w := WrapPi(θ)
		if w <= -math.Pi || w > math.Pi {
			t.Errorf("WrapPi(%f) = %f out of range", θ, w)
		}
		w2 := Wrap2Pi(θ)
		if w2 < 0 || w2 >= 2*math.Pi {
			t.Errorf("Wrap2Pi(%f) = %f out of range", θ, w2)
		}
		if ok, err := anglesEqual(w, w2); !ok {
			t.Errorf("wraps disagree at %f: %s", θ, err)
		}
	}
}

func TestDegRadConversions(t *testing.T) {
	for i := 0.; i < 360; i += 10 {
		if ok, _ := anglesEqual(Deg2rad(i), Deg2rad(Rad2deg(Deg2rad(i)))); !ok {
			t.Fatalf("degree conversion broken for %f", i)
		}
	}
	if !floats.EqualWithinAbs(Deg2rad(180), math.Pi, 1e-12) {
		t.Fatal("180° is not π")
	}
}

func TestSignAndClamp(t *testing.T) {
	if sign(3) != 1 || sign(-0.2) != -1 {
		t.Fatal("sign broken")
	}
	if sign(0) != 1 {
		t.Fatal("sign of zero should settle positive")
	}
	if clamp(5, 0, 1) != 1 || clamp(-5, 0, 1) != 0 || clamp(0.5, 0, 1) != 0.5 {
		t.Fatal("clamp broken")
	}
}

func TestNewPVZeroesNaN(t *testing.T) {
	pv := NewPV(Vec2{math.NaN(), 1}, Vec2{2, math.NaN()})
	if pv.R.X != 0 || pv.V.Y != 0 {
		t.Fatalf("NaN components not zeroed: %v", pv)
	}
	if !pv.IsFinite() {
		t.Fatal("cleaned PV should be finite")
	}
	if InfinitePV().IsFinite() {
		t.Fatal("infinite PV claims to be finite")
	}
}

func TestTspace(t *testing.T) {
	pts := Tspace(0, StampFromSecs(10), 5)
	if len(pts) != 5 {
		t.Fatalf("got %d points", len(pts))
	}
	if pts[0] != 0 || pts[4] != StampFromSecs(10) {
		t.Fatalf("endpoints wrong: %v", pts)
	}
	for i := 1; i < len(pts); i++ {
		if pts[i] <= pts[i-1] {
			t.Fatalf("not increasing at %d: %v", i, pts)
		}
	}
}

func TestStampSaturation(t *testing.T) {
	if StampMax.Add(1e9) != StampMax {
		t.Fatal("add past max did not saturate")
	}
	if StampMin.AddStamp(-1) != StampMin {
		t.Fatal("subtract past min did not saturate")
	}
	if StampFromSecs(math.Inf(1)) != StampMax {
		t.Fatal("infinite seconds did not saturate")
	}
}

func TestStampFloorCeilMod(t *testing.T) {
	s := StampFromSecs(90)
	if s.Floor(time.Minute) != StampFromSecs(60) {
		t.Fatalf("floor gave %v", s.Floor(time.Minute))
	}
	if s.Ceil(time.Minute) != StampFromSecs(120) {
		t.Fatalf("ceil gave %v", s.Ceil(time.Minute))
	}
	if s.Mod(StampFromSecs(60)) != StampFromSecs(30) {
		t.Fatalf("mod gave %v", s.Mod(StampFromSecs(60)))
	}
}
