package helio

import (
	"fmt"
	"math"
)

// G is the gravitational constant of this universe in m^3 kg^-1 s^-2. The
// sandbox runs at toy scale (kilometer-sized planets, kiloton masses), so G
// is scaled up to keep orbital speeds in a playable range.
const G = 1.0e4

// Body defines the immutable physical constants of a massive object.
type Body struct {
	Radius float64 // meters
	Mass   float64 // kg
	SOI    float64 // sphere of influence radius, meters
}

// Mu returns the gravitational parameter μ = G·mass.
func (b Body) Mu() float64 {
	return G * b.Mass
}

// Equals returns whether both bodies share the same constants.
func (b Body) Equals(o Body) bool {
	return b.Radius == o.Radius && b.Mass == o.Mass && b.SOI == o.SOI
}

func (b Body) String() string {
	return fmt.Sprintf("body r=%.0fm m=%.3ekg soi=%.0fm", b.Radius, b.Mass, b.SOI)
}

// EntityKind distinguishes the id spaces of the universe.
type EntityKind uint8

const (
	// KindPlanet identifies a node of the planetary tree.
	KindPlanet EntityKind = iota + 1
	// KindOrbiter identifies an in-space craft.
	KindOrbiter
	// KindVehicle identifies a craft body.
	KindVehicle
	// KindGroup identifies a grouping of entities.
	KindGroup
)

func (k EntityKind) String() string {
	switch k {
	case KindPlanet:
		return "planet"
	case KindOrbiter:
		return "orbiter"
	case KindVehicle:
		return "vehicle"
	case KindGroup:
		return "group"
	}
	panic("cannot stringify unknown entity kind")
}

// EntityID is an opaque 64-bit identifier tagged with its kind.
type EntityID struct {
	Kind EntityKind
	N    uint64
}

func (id EntityID) String() string {
	return fmt.Sprintf("%s-%d", id.Kind, id.N)
}

// IsZero returns whether the id was never issued.
func (id EntityID) IsZero() bool {
	return id.Kind == 0 && id.N == 0
}

// ObjectIdTracker issues new ids monotonically. Freed ids are never reused.
type ObjectIdTracker struct {
	next uint64
}

// Next issues a fresh id of the given kind.
func (t *ObjectIdTracker) Next(kind EntityKind) EntityID {
	t.next++
	return EntityID{kind, t.next}
}

// PlanetChild pairs a child system with the orbit it follows around its parent.
type PlanetChild struct {
	Orbit SparseOrbit
	Sys   *PlanetarySystem
}

// PlanetarySystem is an immutable tree of bodies. It is built once and never
// mutated by the simulation loop.
type PlanetarySystem struct {
	ID       EntityID
	Name     string
	Primary  Body
	Children []PlanetChild
}

// PlanetLookup is the result of resolving a planet id at a stamp.
type PlanetLookup struct {
	Body    Body
	PV      PV // global frame
	Parent  EntityID
	Subtree *PlanetarySystem
}

// Lookup resolves a planet id at a stamp, summing child-orbit PVs along the
// path from the root.
func (ps *PlanetarySystem) Lookup(id EntityID, stamp Stamp) (PlanetLookup, bool) {
	return ps.lookup(id, stamp, PV{}, EntityID{})
}

func (ps *PlanetarySystem) lookup(id EntityID, stamp Stamp, offset PV, parent EntityID) (PlanetLookup, bool) {
	if ps.ID == id {
		return PlanetLookup{ps.Primary, offset, parent, ps}, true
	}
	for i := range ps.Children {
		child := &ps.Children[i]
		pv, err := child.Orbit.PVAt(stamp)
		if err != nil {
			continue
		}
		if found, ok := child.Sys.lookup(id, stamp, offset.Add(pv), ps.ID); ok {
			return found, true
		}
	}
	return PlanetLookup{}, false
}

// Siblings returns the child systems of the given parent along with their
// orbits, for encounter prediction.
func (ps *PlanetarySystem) Siblings(parent EntityID) []PlanetChild {
	if ps.ID == parent {
		return ps.Children
	}
	for i := range ps.Children {
		if sibs := ps.Children[i].Sys.Siblings(parent); sibs != nil {
			return sibs
		}
	}
	return nil
}

// Walk visits every node of the tree depth-first.
func (ps *PlanetarySystem) Walk(visit func(node *PlanetarySystem, parent EntityID)) {
	ps.walk(visit, EntityID{})
}

func (ps *PlanetarySystem) walk(visit func(node *PlanetarySystem, parent EntityID), parent EntityID) {
	visit(ps, parent)
	for i := range ps.Children {
		ps.Children[i].Sys.walk(visit, ps.ID)
	}
}

// potentialClampR avoids the singularity at a body center.
const potentialClampR = 1.0

// PotentialAt returns the summed gravitational potential -Σ μ/r over every
// node of the tree at a world position.
func (ps *PlanetarySystem) PotentialAt(pos Vec2, stamp Stamp) float64 {
	return ps.potentialAt(pos, stamp, PV{})
}

func (ps *PlanetarySystem) potentialAt(pos Vec2, stamp Stamp, offset PV) float64 {
	r := math.Max(pos.Sub(offset.R).Norm(), potentialClampR)
	total := -ps.Primary.Mu() / r
	for i := range ps.Children {
		child := &ps.Children[i]
		pv, err := child.Orbit.PVAt(stamp)
		if err != nil {
			continue
		}
		total += child.Sys.potentialAt(pos, stamp, offset.Add(pv))
	}
	return total
}
