package helio

import (
	"math"
	"sync"

	"github.com/gonum/matrix/mat64"
)

// Anomaly conversions, branched by conic class. All angles in radians.
// Mean anomaly is undefined for a parabola in the elliptical sense; Barker's
// equation takes its place.

const (
	newtonMaxIters = 1000
	newtonTol      = 1e-6
)

// TrueToEcc converts true anomaly to eccentric (or hyperbolic, or parabolic
// D) anomaly.
func TrueToEcc(ν, e float64) float64 {
	switch {
	case e < 1:
		return 2 * math.Atan2(math.Sqrt(1-e)*math.Sin(ν/2), math.Sqrt(1+e)*math.Cos(ν/2))
	case e == 1:
		return math.Tan(ν / 2)
	default:
		return 2 * math.Atanh(clamp(math.Sqrt((e-1)/(e+1))*math.Tan(ν/2), -1+1e-15, 1-1e-15))
	}
}

// EccToTrue converts eccentric (or hyperbolic, or parabolic D) anomaly to
// true anomaly.
func EccToTrue(E, e float64) float64 {
	switch {
	case e < 1:
		return 2 * math.Atan2(math.Sqrt(1+e)*math.Sin(E/2), math.Sqrt(1-e)*math.Cos(E/2))
	case e == 1:
		return 2 * math.Atan(E)
	default:
		return 2 * math.Atan(math.Sqrt((e+1)/(e-1))*math.Tanh(E/2))
	}
}

// EccToMean converts eccentric anomaly to mean anomaly.
func EccToMean(E, e float64) float64 {
	switch {
	case e < 1:
		return E - e*math.Sin(E)
	case e == 1:
		return E + E*E*E/3
	default:
		return e*math.Sinh(E) - E
	}
}

// MeanToEcc converts mean anomaly to eccentric anomaly by Newton iteration.
// Returns ok=false when the iteration does not converge.
func MeanToEcc(M, e float64) (float64, bool) {
	switch {
	case e < 1:
		E := M
		if e > 0.8 {
			E = math.Pi
		}
		for i := 0; i < newtonMaxIters; i++ {
			δ := (E - e*math.Sin(E) - M) / (1 - e*math.Cos(E))
			E -= δ
			if math.Abs(δ) < newtonTol {
				return E, true
			}
		}
		return 0, false
	case e == 1:
		// Barker's equation has a closed form.
		w := 3 * M / 2
		s := math.Cbrt(w + math.Sqrt(w*w+1))
		return s - 1/s, true
	default:
		H := math.Asinh(M / e)
		for i := 0; i < newtonMaxIters; i++ {
			δ := (e*math.Sinh(H) - H - M) / (e*math.Cosh(H) - 1)
			H -= δ
			if math.Abs(δ) < newtonTol {
				return H, true
			}
		}
		return 0, false
	}
}

// TrueToMean converts true anomaly to mean anomaly.
func TrueToMean(ν, e float64) float64 {
	return EccToMean(TrueToEcc(ν, e), e)
}

// MeanToTrue converts mean anomaly to true anomaly.
func MeanToTrue(M, e float64) (float64, bool) {
	E, ok := MeanToEcc(M, e)
	if !ok {
		return 0, false
	}
	return EccToTrue(E, e), true
}

// Mean-to-true lookup table for bound orbits, used by sampling-heavy callers
// (orbit tracing, approach scans) where full Newton convergence is wasted.
// Bins of eccentricity width 0.03 up to 0.97; callers above that must fall
// back to the iterative conversion.

const (
	lutEccStep     = 0.03
	lutEccMax      = 0.97
	lutEccBins     = 33
	lutMeanSamples = 256
)

var (
	lutOnce sync.Once
	lutνs   *mat64.Dense
)

func buildAnomalyLUT() {
	lutνs = mat64.NewDense(lutEccBins, lutMeanSamples, nil)
	for i := 0; i < lutEccBins; i++ {
		e := float64(i) * lutEccStep
		for j := 0; j < lutMeanSamples; j++ {
			M := 2 * math.Pi * float64(j) / lutMeanSamples
			ν, ok := MeanToTrue(M, e)
			if !ok {
				ν = M
			}
			lutνs.Set(i, j, Wrap2Pi(ν))
		}
	}
}

// MeanToTrueLUT is the table-accelerated mean-to-true conversion for bound
// orbits. Returns ok=false above the supported eccentricity; precision is
// bin-interpolated and coarser than MeanToTrue.
func MeanToTrueLUT(M, e float64) (float64, bool) {
	if e < 0 || e > lutEccMax {
		return 0, false
	}
	lutOnce.Do(buildAnomalyLUT)
	M = Wrap2Pi(M)
	fi := e / lutEccStep
	i0 := int(fi)
	if i0 >= lutEccBins-1 {
		i0 = lutEccBins - 2
	}
	fj := M / (2 * math.Pi) * lutMeanSamples
	j0 := int(fj) % lutMeanSamples
	j1 := (j0 + 1) % lutMeanSamples
	ti := fi - float64(i0)
	tj := fj - math.Floor(fj)

	// Interpolate over the unwrapped angle to avoid the 2π seam.
	read := func(i, j int) float64 { return lutνs.At(i, j) }
	interpRow := func(i int) float64 {
		a, b := read(i, j0), read(i, j1)
		if b < a {
			b += 2 * math.Pi
		}
		return a + (b-a)*tj
	}
	ν0, ν1 := interpRow(i0), interpRow(i0+1)
	return Wrap2Pi(ν0 + (ν1-ν0)*ti), true
}
