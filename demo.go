package helio

import (
	"fmt"
	"math"
	"time"

	kitlog "github.com/go-kit/kit/log"
)

// DemoIDs names the entities of the stock demo universe.
type DemoIDs struct {
	Planet  EntityID
	Moon    EntityID
	Orbiter EntityID
	Hopper  EntityID
	Mine    EntityID
}

// DemoSystem returns a small two-body system: a terrestrial primary with one
// close moon on a circular orbit.
func DemoSystem() *PlanetarySystem {
	primary := Body{Radius: 1000, Mass: 1000, SOI: 15000}
	moon := Body{Radius: 100, Mass: 8, SOI: 400}
	moonOrbit := SparseOrbit{
		Ecc:       0,
		SemiMajor: 5000,
		Primary:   primary,
		Class:     Circular,
		Initial: PV{
			R: Vec2{X: 5000},
			V: Vec2{Y: math.Sqrt(primary.Mu() / 5000)},
		},
	}
	return &PlanetarySystem{
		ID:      EntityID{KindPlanet, 1},
		Name:    "Ilios",
		Primary: primary,
		Children: []PlanetChild{
			{Orbit: moonOrbit, Sys: &PlanetarySystem{
				ID:      EntityID{KindPlanet, 2},
				Name:    "Selene",
				Primary: moon,
			}},
		},
	}
}

// DemoPartLibrary returns the built-in prototypes the demo craft is made of.
func DemoPartLibrary() map[string]*PartPrototype {
	return map[string]*PartPrototype{
		"hull": {
			Name: "hull", Width: 10, Height: 10,
			Layer: LayerStructural, DryMass: 400, Class: ClassGeneric,
		},
		"engine": {
			Name: "engine", Width: 10, Height: 10,
			Layer: LayerExterior, DryMass: 50, Class: ClassThruster,
			Thruster: &ThrusterProto{MaxThrust: 1000, ExhaustVel: 2000},
		},
		"rcs": {
			Name: "rcs", Width: 5, Height: 5,
			Layer: LayerExterior, DryMass: 5, Class: ClassThruster,
			Thruster: &ThrusterProto{MaxThrust: 50, ExhaustVel: 800, IsRCS: true},
		},
		"tank": {
			Name: "tank", Width: 10, Height: 20,
			Layer: LayerInternal, DryMass: 100, Class: ClassTank,
			Tank: &TankProto{CapacityKg: 200, Fluid: Methane},
		},
	}
}

// demoHopper assembles a small surface hopper from the built-in library.
func demoHopper(lib map[string]*PartPrototype, logger kitlog.Logger) (*Vehicle, error) {
	v := NewVehicle("hopper", logger)
	if _, err := v.AddPart(lib["hull"], GridPos{0, 0}, East); err != nil {
		return nil, err
	}
	if _, err := v.AddPart(lib["engine"], GridPos{-10, 0}, West); err != nil {
		return nil, err
	}
	tankID, err := v.AddPart(lib["tank"], GridPos{0, 10}, East)
	if err != nil {
		return nil, err
	}
	v.Part(tankID).FuelKg = 150
	for _, jet := range []struct {
		at  GridPos
		rot Rotation
	}{
		{GridPos{15, 0}, East},
		{GridPos{-15, 0}, West},
		{GridPos{0, 35}, North},
		{GridPos{0, -10}, South},
	} {
		if _, err := v.AddPart(lib["rcs"], jet.at, jet.rot); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// demoMine wires the ice chain: mine ice, melt it into water.
func demoMine(start Stamp) (*Factory, error) {
	f := NewFactory(start)
	iceBin := f.AddStorage(Ice, 100)
	waterBin := f.AddStorage(Water, 500)
	miner := f.AddPlant(NewPlant(Recipe{
		Name:    "ice miner",
		Outputs: map[Item]int{Ice: 2},
	}, 2*time.Minute))
	heater := f.AddPlant(NewPlant(Recipe{
		Name:    "heater",
		Inputs:  map[Item]int{Ice: 1},
		Outputs: map[Item]int{Water: 1},
	}, 3*time.Minute))
	for _, c := range []struct {
		plant PlantID
		dir   PortDir
		item  Item
		bin   StorageID
	}{
		{miner, PortOut, Ice, iceBin},
		{heater, PortIn, Ice, iceBin},
		{heater, PortOut, Water, waterBin},
	} {
		if err := f.Connect(c.plant, c.dir, c.item, c.bin); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// DemoUniverse builds the stock sandbox: one planet with terrain and an ice
// mine, a moon, an orbiter on a low circular orbit, and a fueled hopper
// parked on the surface.
func DemoUniverse(seed int64, logger kitlog.Logger) (*Universe, DemoIDs, error) {
	sys := DemoSystem()
	u := NewUniverse("demo", sys, seed, logger)
	ids := DemoIDs{Planet: sys.ID, Moon: EntityID{KindPlanet, 2}}

	surf, err := u.AddSurface(ids.Planet, 2048)
	if err != nil {
		return nil, ids, err
	}

	const orbitR = 2000
	pv := PV{
		R: Vec2{X: orbitR},
		V: Vec2{Y: math.Sqrt(sys.Primary.Mu() / orbitR)},
	}
	orbit, err := NewOrbitFromPV(pv, sys.Primary, 0)
	if err != nil {
		return nil, ids, err
	}
	ids.Orbiter, err = u.AddOrbiter("pathfinder", GlobalOrbit{Parent: ids.Planet, Orbit: orbit})
	if err != nil {
		return nil, ids, err
	}

	hopper, err := demoHopper(DemoPartLibrary(), logger)
	if err != nil {
		return nil, ids, fmt.Errorf("demo hopper: %w", err)
	}
	ids.Hopper = u.AddVehicle(hopper, ids.Planet, Vec2{X: 0, Y: surf.Elevation(0) + 2})

	mine, err := demoMine(u.Stamp())
	if err != nil {
		return nil, ids, fmt.Errorf("demo mine: %w", err)
	}
	ids.Mine = u.AddFactory(mine)

	u.Group(ids.Hopper, ids.Mine)
	return u, ids, nil
}
