package helio

import (
	"fmt"
	"math"

	"github.com/gonum/floats"
)

const (
	deg2rad = math.Pi / 180
)

// Vec2 is a plain 2D vector in world or body frame.
type Vec2 struct {
	X, Y float64
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{v.X + o.X, v.Y + o.Y}
}

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{v.X - o.X, v.Y - o.Y}
}

// Scale returns v scaled by f.
func (v Vec2) Scale(f float64) Vec2 {
	return Vec2{v.X * f, v.Y * f}
}

// Dot returns the inner product.
func (v Vec2) Dot(o Vec2) float64 {
	return v.X*o.X + v.Y*o.Y
}

// Cross returns the scalar cross product (the implied z component).
func (v Vec2) Cross(o Vec2) float64 {
	return v.X*o.Y - v.Y*o.X
}

// Norm returns the vector norm.
func (v Vec2) Norm() float64 {
	return math.Hypot(v.X, v.Y)
}

// Unit returns the unit vector, or the zero vector for a near-zero input.
func (v Vec2) Unit() Vec2 {
	n := v.Norm()
	if floats.EqualWithinAbs(n, 0, 1e-12) {
		return Vec2{}
	}
	return Vec2{v.X / n, v.Y / n}
}

// Rotate returns v rotated by θ radians counterclockwise.
func (v Vec2) Rotate(θ float64) Vec2 {
	sin, cos := math.Sincos(θ)
	return Vec2{v.X*cos - v.Y*sin, v.X*sin + v.Y*cos}
}

// Angle returns the polar angle of v.
func (v Vec2) Angle() float64 {
	return math.Atan2(v.Y, v.X)
}

// IsFinite returns whether both components are finite.
func (v Vec2) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}

// VecFromAngle returns the unit vector at polar angle θ.
func VecFromAngle(θ float64) Vec2 {
	sin, cos := math.Sincos(θ)
	return Vec2{cos, sin}
}

func (v Vec2) String() string {
	return fmt.Sprintf("[%.3f, %.3f]", v.X, v.Y)
}

// PV is a position-velocity pair, in meters and meters per second.
type PV struct {
	R, V Vec2
}

// NewPV builds a PV, zeroing any NaN component.
func NewPV(r, v Vec2) PV {
	filter := func(a Vec2) Vec2 {
		if math.IsNaN(a.X) {
			a.X = 0
		}
		if math.IsNaN(a.Y) {
			a.Y = 0
		}
		return a
	}
	return PV{filter(r), filter(v)}
}

// InfinitePV is the sentinel for an undefined state.
func InfinitePV() PV {
	inf := math.Inf(1)
	return PV{Vec2{inf, inf}, Vec2{inf, inf}}
}

// Add returns the component-wise sum.
func (pv PV) Add(o PV) PV {
	return PV{pv.R.Add(o.R), pv.V.Add(o.V)}
}

// Sub returns the component-wise difference.
func (pv PV) Sub(o PV) PV {
	return PV{pv.R.Sub(o.R), pv.V.Sub(o.V)}
}

// IsFinite returns whether all four components are finite.
func (pv PV) IsFinite() bool {
	return pv.R.IsFinite() && pv.V.IsFinite()
}

func (pv PV) String() string {
	return fmt.Sprintf("r=%s v=%s", pv.R, pv.V)
}

// WrapPi wraps an angle to (-π, π].
func WrapPi(θ float64) float64 {
	θ = math.Mod(θ, 2*math.Pi)
	if θ > math.Pi {
		θ -= 2 * math.Pi
	} else if θ <= -math.Pi {
		θ += 2 * math.Pi
	}
	return θ
}

// Wrap2Pi wraps an angle to [0, 2π).
func Wrap2Pi(θ float64) float64 {
	θ = math.Mod(θ, 2*math.Pi)
	if θ < 0 {
		θ += 2 * math.Pi
	}
	return θ
}

// sign returns the sign of a given number, counting zero as positive.
func sign(v float64) float64 {
	if floats.EqualWithinAbs(v, 0, 1e-12) {
		return 1
	}
	return v / math.Abs(v)
}

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Deg2rad converts degrees to radians, and enforces only positive numbers.
func Deg2rad(a float64) float64 {
	if a < 0 {
		a += 360
	}
	return math.Mod(a*deg2rad, 2*math.Pi)
}

// Rad2deg converts radians to degrees, and enforces only positive numbers.
func Rad2deg(a float64) float64 {
	if a < 0 {
		a += 2 * math.Pi
	}
	return math.Mod(a/deg2rad, 360)
}
