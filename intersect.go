package helio

import (
	"math"
	"time"
)

// Orbit-to-orbit geometry: candidate closest-approach angles and the first
// crossing time. Both work by coarse sampling followed by bisection with the
// predicate inverter, so they tolerate every conic class.

const intersectSamples = 100

// NearestApproach evaluates the radial separation of two orbits around a
// shared focus at sample angles and refines every trend change and sign
// change. It returns the candidate world-frame angles of closest approach or
// crossing.
func NearestApproach(o1, o2 SparseOrbit) []float64 {
	sep := func(θ float64) float64 {
		return o1.RadiusAtAngle(θ) - o2.RadiusAtAngle(θ)
	}
	var out []float64
	prevθ := 0.0
	prevSep := sep(0)
	prevTrendUp := false
	haveTrend := false
	for i := 1; i <= intersectSamples; i++ {
		θ := 2 * math.Pi * float64(i) / intersectSamples
		s := sep(θ)
		if !finite(prevSep) || !finite(s) {
			prevθ, prevSep = θ, s
			continue
		}
		// Sign change: the orbits cross between the samples.
		if (prevSep > 0) != (s > 0) {
			above := prevSep > 0
			if x, err := InvertF(func(a float64) bool { return (sep(a) > 0) == above }, prevθ, θ, 1e-9); err == nil {
				out = append(out, Wrap2Pi(x))
			}
		}
		// Trend change from shrinking to growing: local separation minimum.
		trendUp := math.Abs(s) > math.Abs(prevSep)
		if haveTrend && trendUp && !prevTrendUp {
			mid := (prevθ + θ) / 2
			out = append(out, Wrap2Pi(mid))
		}
		prevTrendUp = trendUp
		haveTrend = true
		prevθ, prevSep = θ, s
	}
	return out
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// nextIntersectionTol is the bisection tolerance of crossing times.
const nextIntersectionTol = Stamp(10) // ns

// NextIntersection finds the first time at or after stamp when o1 crosses o2,
// sampling the signed distance of o1's position to o2 over one period of o1.
// Returns the crossing time and o1's state there.
func NextIntersection(stamp Stamp, o1, o2 SparseOrbit) (Stamp, PV, bool) {
	period, bound := o1.Period()
	if !bound {
		// Open orbit: scan a fixed horizon instead of one revolution.
		period = StampFromDur(240 * time.Hour)
	}
	signedDist := func(t Stamp) (float64, bool) {
		pv, err := o1.PVAt(t)
		if err != nil {
			return 0, false
		}
		r := pv.R.Norm()
		return r - o2.RadiusAtAngle(pv.R.Angle()), true
	}
	prevT := stamp
	prevD, prevOK := signedDist(stamp)
	for i := 1; i <= intersectSamples; i++ {
		t := stamp.AddStamp(period * Stamp(i) / intersectSamples)
		d, ok := signedDist(t)
		if !ok || !prevOK {
			prevT, prevD, prevOK = t, d, ok
			continue
		}
		if (prevD > 0) != (d > 0) {
			above := prevD > 0
			cross, err := InvertStamp(func(x Stamp) bool {
				v, vok := signedDist(x)
				return vok && (v > 0) == above
			}, prevT, t, nextIntersectionTol)
			if err == nil {
				if pv, pvErr := o1.PVAt(cross); pvErr == nil {
					return cross, pv, true
				}
			}
		}
		prevT, prevD, prevOK = t, d, ok
	}
	return 0, PV{}, false
}
