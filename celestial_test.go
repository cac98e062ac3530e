package helio

import (
	"math"
	"testing"

	"github.com/gonum/floats"
)

func TestBodyMu(t *testing.T) {
	if got := testBody.Mu(); got != 1e7 {
		t.Errorf("μ=%e, want 1e7", got)
	}
	if !testBody.Equals(testBody) {
		t.Error("body not equal to itself")
	}
	if testBody.Equals(Body{Radius: 63, Mass: 1000, SOI: 1}) {
		t.Error("bodies with different SOI compare equal")
	}
}

func TestSystemLookupSumsFrames(t *testing.T) {
	sys := testSystem()
	moonID := EntityID{KindPlanet, 2}

	root, ok := sys.Lookup(sys.ID, 0)
	if !ok {
		t.Fatal("root not found")
	}
	if root.PV.R != (Vec2{}) || !root.Parent.IsZero() {
		t.Errorf("root lookup %v parent %v", root.PV.R, root.Parent)
	}

	lk, ok := sys.Lookup(moonID, 0)
	if !ok {
		t.Fatal("moon not found")
	}
	if lk.Parent != sys.ID {
		t.Errorf("moon parent %v", lk.Parent)
	}
	if !vecsEqual(lk.PV.R, Vec2{5000, 0}) {
		t.Errorf("moon at %s at epoch", lk.PV.R)
	}
	// A quarter period later the moon sits on the +Y axis.
	period := 2 * math.Pi * math.Sqrt(math.Pow(5000, 3)/testBody.Mu())
	quarter := StampFromSecs(period / 4)
	lk, ok = sys.Lookup(moonID, quarter)
	if !ok {
		t.Fatal("moon not found at quarter period")
	}
	if math.Abs(lk.PV.R.X) > 5 || math.Abs(lk.PV.R.Y-5000) > 5 {
		t.Errorf("moon at %s after a quarter period", lk.PV.R)
	}

	if _, ok := sys.Lookup(EntityID{KindPlanet, 99}, 0); ok {
		t.Error("found a planet that does not exist")
	}
}

func TestSystemSiblings(t *testing.T) {
	sys := testSystem()
	sibs := sys.Siblings(sys.ID)
	if len(sibs) != 1 || sibs[0].Sys.ID != (EntityID{KindPlanet, 2}) {
		t.Errorf("siblings of root: %v", sibs)
	}
	if sibs := sys.Siblings(EntityID{KindPlanet, 2}); len(sibs) != 0 {
		t.Errorf("leaf node has %d siblings", len(sibs))
	}
}

func TestSystemWalk(t *testing.T) {
	sys := testSystem()
	var visited []EntityID
	sys.Walk(func(node *PlanetarySystem, parent EntityID) {
		visited = append(visited, node.ID)
	})
	if len(visited) != 2 || visited[0] != sys.ID {
		t.Errorf("walk order %v", visited)
	}
}

func TestPotentialAt(t *testing.T) {
	sys := testSystem()
	// Far from everything the potential tends to zero from below.
	far := sys.PotentialAt(Vec2{1e9, 0}, 0)
	near := sys.PotentialAt(Vec2{100, 0}, 0)
	if far >= 0 || near >= far {
		t.Errorf("potential not deepening toward the primary: near=%e far=%e", near, far)
	}
	// The clamp keeps the center finite.
	center := sys.PotentialAt(Vec2{}, 0)
	if math.IsInf(center, 0) || math.IsNaN(center) {
		t.Errorf("potential at a body center is %f", center)
	}
	if !floats.EqualWithinRel(center, -testBody.Mu()-Body{Radius: 10, Mass: 8, SOI: 400}.Mu()/5000, 1e-6) {
		t.Errorf("clamped potential %e", center)
	}
}

func TestObjectIdTracker(t *testing.T) {
	var tr ObjectIdTracker
	a := tr.Next(KindOrbiter)
	b := tr.Next(KindVehicle)
	c := tr.Next(KindOrbiter)
	if a.N >= b.N || b.N >= c.N {
		t.Errorf("ids not monotonic: %v %v %v", a, b, c)
	}
	if a.Kind != KindOrbiter || b.Kind != KindVehicle {
		t.Errorf("kinds wrong: %v %v", a, b)
	}
	if (EntityID{}).IsZero() != true || a.IsZero() {
		t.Error("zero-id detection broken")
	}
}

func TestEntityKindStringPanics(t *testing.T) {
	assertPanic(t, func() { _ = EntityKind(200).String() })
}
