package helio

import (
	"errors"
	"math"
)

// Stumpff functions C(z) and S(z). Within a small band around zero the exact
// forms lose precision, so a Taylor development is used there instead
// (cf. Vallado on the universal variable formulation).
const stumpffBand = 0.01

// StumpffC returns the second Stumpff function.
func StumpffC(z float64) float64 {
	if math.Abs(z) < stumpffBand {
		return 1./2 - z/24 + z*z/720 - z*z*z/40320
	}
	if z > 0 {
		sz := math.Sqrt(z)
		return (1 - math.Cos(sz)) / z
	}
	sz := math.Sqrt(-z)
	return (math.Cosh(sz) - 1) / -z
}

// StumpffS returns the third Stumpff function.
func StumpffS(z float64) float64 {
	if math.Abs(z) < stumpffBand {
		return 1./6 - z/120 + z*z/5040 - z*z*z/362880
	}
	if z > 0 {
		sz := math.Sqrt(z)
		return (sz - math.Sin(sz)) / (sz * sz * sz)
	}
	sz := math.Sqrt(-z)
	return (math.Sinh(sz) - sz) / (sz * sz * sz)
}

// ErrUniversalSolver is returned when the universal Kepler equation cannot be
// solved within the search window, or yields a non-finite state.
var ErrUniversalSolver = errors.New("universal variable solver failed")

// universalSearchWindow is the half-width of the χ bisection window.
const universalSearchWindow = 800.0

// UniversalKepler solves Kepler's universal equation for χ given the initial
// state, the time of flight τ in seconds, and μ, then applies the Lagrange
// coefficients to return the new state.
func UniversalKepler(initial PV, τ, μ float64) (PV, error) {
	if τ == 0 {
		return initial, nil
	}
	r0 := initial.R.Norm()
	v0 := initial.V.Norm()
	if r0 == 0 || μ <= 0 {
		return PV{}, ErrUniversalSolver
	}
	sqrtμ := math.Sqrt(μ)
	vr0 := initial.R.Dot(initial.V) / r0
	α := 2/r0 - v0*v0/μ // 1/a, zero for parabolic

	// Universal Kepler residual; monotonically increasing in χ.
	resid := func(χ float64) float64 {
		z := α * χ * χ
		return r0*vr0/sqrtμ*χ*χ*StumpffC(z) + (1-α*r0)*χ*χ*χ*StumpffS(z) + r0*χ - sqrtμ*τ
	}

	// The guess is exact for ellipses; hyperbolic χ grows only
	// logarithmically with τ so zero is always on the periapsis side of the
	// root there. The window doubles until the root is bracketed.
	χ0 := sqrtμ * math.Abs(α) * τ
	if α < 0 {
		χ0 = 0
	}
	w := universalSearchWindow
	lo, hi := χ0-w, χ0+w
	fLo, fHi := resid(lo), resid(hi)
	for i := 0; (fLo > 0 || fHi < 0) && i < 60; i++ {
		w *= 2
		if fLo > 0 {
			lo = χ0 - w
			fLo = resid(lo)
		}
		if fHi < 0 {
			hi = χ0 + w
			fHi = resid(hi)
		}
	}
	if math.IsNaN(fLo) || math.IsNaN(fHi) || fLo > 0 || fHi < 0 {
		return PV{}, ErrUniversalSolver
	}
	var χ float64
	for i := 0; i < 200; i++ {
		χ = (lo + hi) / 2
		fm := resid(χ)
		if math.IsNaN(fm) {
			return PV{}, ErrUniversalSolver
		}
		if fm > 0 {
			hi = χ
		} else {
			lo = χ
		}
		if hi-lo < 1e-9*(1+math.Abs(χ0)) {
			break
		}
	}
	χ = (lo + hi) / 2

	z := α * χ * χ
	fl := 1 - χ*χ*StumpffC(z)/r0
	g := τ - χ*χ*χ*StumpffS(z)/sqrtμ
	newR := initial.R.Scale(fl).Add(initial.V.Scale(g))
	r := newR.Norm()
	if r == 0 {
		return PV{}, ErrUniversalSolver
	}
	fdot := sqrtμ / (r * r0) * χ * (z*StumpffS(z) - 1)
	gdot := 1 - χ*χ*StumpffC(z)/r
	newV := initial.R.Scale(fdot).Add(initial.V.Scale(gdot))
	out := PV{newR, newV}
	if !out.IsFinite() {
		return PV{}, ErrUniversalSolver
	}
	return out, nil
}
