package helio

import (
	"fmt"
	"math"
	"testing"

	"github.com/gonum/floats"
)

const angleε = 1e-5

func assertPanic(t *testing.T, f func()) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("code did not panic")
		}
	}()
	f()
}

func vecsEqual(a, b Vec2) bool {
	return floats.EqualWithinAbs(a.X, b.X, 1e-3) && floats.EqualWithinAbs(a.Y, b.Y, 1e-3)
}

// anglesEqual returns whether two angles in radians are equal.
func anglesEqual(a, b float64) (bool, error) {
	diff := math.Mod(math.Abs(a-b), 2*math.Pi)
	if diff < angleε || 2*math.Pi-diff < angleε {
		return true, nil
	}
	return false, fmt.Errorf("difference of %3.10f degrees", math.Abs(Rad2deg(diff)))
}

// testSystem builds the two-planet system the scenario tests use: a heavy
// primary with one close moon.
func testSystem() *PlanetarySystem {
	primary := Body{Radius: 63, Mass: 1000, SOI: 15000}
	moon := Body{Radius: 10, Mass: 8, SOI: 400}
	moonOrbit := SparseOrbit{
		Ecc:       0,
		SemiMajor: 5000,
		Primary:   primary,
		Class:     Circular,
	}
	moonOrbit.Initial = PV{
		R: Vec2{X: 5000},
		V: Vec2{Y: math.Sqrt(primary.Mu() / 5000)},
	}
	return &PlanetarySystem{
		ID:      EntityID{KindPlanet, 1},
		Name:    "testworld",
		Primary: primary,
		Children: []PlanetChild{
			{Orbit: moonOrbit, Sys: &PlanetarySystem{
				ID:      EntityID{KindPlanet, 2},
				Name:    "testmoon",
				Primary: moon,
			}},
		},
	}
}
