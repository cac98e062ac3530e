package helio

import (
	"math"
	"testing"

	"github.com/gonum/floats"
)

func TestStumpffSmallZ(t *testing.T) {
	// Inside the series band both functions must match their exact forms.
	for _, z := range []float64{-0.009, -1e-6, 0, 1e-6, 0.009} {
		wantC := 0.5
		wantS := 1.0 / 6
		if z > 1e-12 {
			wantC = (1 - math.Cos(math.Sqrt(z))) / z
			wantS = (math.Sqrt(z) - math.Sin(math.Sqrt(z))) / math.Pow(z, 1.5)
		} else if z < -1e-12 {
			wantC = (1 - math.Cosh(math.Sqrt(-z))) / z
			wantS = (math.Sinh(math.Sqrt(-z)) - math.Sqrt(-z)) / math.Pow(-z, 1.5)
		}
		if !floats.EqualWithinAbs(StumpffC(z), wantC, 1e-9) {
			t.Errorf("C(%g) = %g, want %g", z, StumpffC(z), wantC)
		}
		if !floats.EqualWithinAbs(StumpffS(z), wantS, 1e-9) {
			t.Errorf("S(%g) = %g, want %g", z, StumpffS(z), wantS)
		}
	}
}

func TestStumpffLargeZ(t *testing.T) {
	if !floats.EqualWithinAbs(StumpffC(4), (1-math.Cos(2))/4, 1e-12) {
		t.Error("elliptic C wrong")
	}
	if !floats.EqualWithinAbs(StumpffS(4), (2-math.Sin(2))/8, 1e-12) {
		t.Error("elliptic S wrong")
	}
	if !floats.EqualWithinAbs(StumpffC(-4), (1-math.Cosh(2))/(-4), 1e-12) {
		t.Error("hyperbolic C wrong")
	}
}

func TestUniversalKeplerZeroTime(t *testing.T) {
	pv := PV{R: Vec2{1000, 200}, V: Vec2{-10, 80}}
	got, err := UniversalKepler(pv, 0, testBody.Mu())
	if err != nil {
		t.Fatal(err)
	}
	if !vecsEqual(got.R, pv.R) || !vecsEqual(got.V, pv.V) {
		t.Fatalf("zero-time propagation changed the state: %v", got)
	}
}

func TestUniversalKeplerEnergyConservation(t *testing.T) {
	μ := testBody.Mu()
	pv := periapsisPV(2000, 0.4, testBody)
	ξ0 := pv.V.Norm()*pv.V.Norm()/2 - μ/pv.R.Norm()
	for _, τ := range []float64{10, 100, 1000, -250} {
		got, err := UniversalKepler(pv, τ, μ)
		if err != nil {
			t.Fatalf("τ=%f: %v", τ, err)
		}
		ξ := got.V.Norm()*got.V.Norm()/2 - μ/got.R.Norm()
		if !floats.EqualWithinRel(ξ0, ξ, 1e-6) {
			t.Errorf("τ=%f: energy drifted from %f to %f", τ, ξ0, ξ)
		}
		h0 := pv.R.Cross(pv.V)
		if !floats.EqualWithinRel(h0, got.R.Cross(got.V), 1e-6) {
			t.Errorf("τ=%f: angular momentum drifted", τ)
		}
	}
}

func TestUniversalKeplerHyperbolic(t *testing.T) {
	μ := testBody.Mu()
	pv := PV{R: Vec2{0, -222.776}, V: Vec2{333.258, 0}}
	got, err := UniversalKepler(pv, 60, μ)
	if err != nil {
		t.Fatal(err)
	}
	if got.R.Norm() <= pv.R.Norm() {
		t.Errorf("hyperbolic departure should gain altitude: %f -> %f", pv.R.Norm(), got.R.Norm())
	}
	// Far in the future, speed approaches v∞ = √(2ξ).
	ξ := pv.V.Norm()*pv.V.Norm()/2 - μ/pv.R.Norm()
	far, err := UniversalKepler(pv, 3600, μ)
	if err != nil {
		t.Fatal(err)
	}
	vInf := math.Sqrt(2 * ξ)
	if !floats.EqualWithinRel(far.V.Norm(), vInf, 0.05) {
		t.Errorf("asymptotic speed %f, want about %f", far.V.Norm(), vInf)
	}
}

func TestUniversalKeplerRejectsBadState(t *testing.T) {
	if _, err := UniversalKepler(PV{}, 100, testBody.Mu()); err == nil {
		t.Error("degenerate state accepted")
	}
}
