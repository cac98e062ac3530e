package helio

import (
	"fmt"
	"math"
	"math/rand"
)

// Randomizer is the universe-owned source of randomness. Nothing in the core
// reads the global rand state, so two universes with the same seed draw the
// same sequences.
type Randomizer struct {
	src *rand.Rand
}

// NewRandomizer returns a seeded randomizer.
func NewRandomizer(seed int64) *Randomizer {
	return &Randomizer{rand.New(rand.NewSource(seed))}
}

// Source exposes the underlying generator for samplers that need one.
func (r *Randomizer) Source() *rand.Rand {
	return r.src
}

// UniformF returns a uniform draw in [lo, hi).
func (r *Randomizer) UniformF(lo, hi float32) float32 {
	return lo + r.src.Float32()*(hi-lo)
}

// UniformInt returns a uniform draw in [0, n).
func (r *Randomizer) UniformInt(n int) int {
	if n <= 0 {
		return 0
	}
	return r.src.Intn(n)
}

// UnitVec returns a unit-length vector with uniform direction.
func (r *Randomizer) UnitVec() Vec2 {
	θ := r.src.Float64() * 2 * math.Pi
	return VecFromAngle(θ)
}

var (
	shipAdjectives = []string{
		"Adamant", "Brazen", "Candid", "Dauntless", "Errant", "Festive",
		"Gallant", "Hasty", "Itinerant", "Jovial", "Keen", "Luminous",
		"Merry", "Nominal", "Oblique", "Patient", "Quarrelsome", "Rickety",
		"Stalwart", "Tenacious", "Unsinkable", "Vagrant", "Wayward",
	}
	shipNouns = []string{
		"Calzone", "Geode", "Halcyon", "Mariner", "Meridian", "Osprey",
		"Pilgrim", "Quasar", "Sojourner", "Sparrow", "Tempest", "Vagabond",
		"Voyager", "Wanderer", "Zephyr",
	}
)

// ShipName draws a two-word craft name.
func (r *Randomizer) ShipName() string {
	adj := shipAdjectives[r.src.Intn(len(shipAdjectives))]
	noun := shipNouns[r.src.Intn(len(shipNouns))]
	return fmt.Sprintf("%s %s", adj, noun)
}
