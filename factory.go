package helio

import (
	"fmt"
	"time"
)

// Item enumerates every discrete resource the sandbox tracks.
type Item uint8

const (
	Iron Item = iota + 1
	Copper
	Mg
	Si
	Ti
	Ice
	Bread
	Water
	Methane
	H2
	CO2
	O2
	People
	Calzones
	Geodes
	Wheat
	Corn
	Milk
	Power
)

var itemNames = map[Item]string{
	Iron: "iron", Copper: "copper", Mg: "mg", Si: "si", Ti: "ti",
	Ice: "ice", Bread: "bread", Water: "water", Methane: "methane",
	H2: "h2", CO2: "co2", O2: "o2", People: "people",
	Calzones: "calzones", Geodes: "geodes", Wheat: "wheat",
	Corn: "corn", Milk: "milk", Power: "power",
}

func (i Item) String() string {
	if s, ok := itemNames[i]; ok {
		return s
	}
	panic("cannot stringify unknown item")
}

// ItemFromName resolves an item by its lowercase name.
func ItemFromName(name string) (Item, bool) {
	for i, s := range itemNames {
		if s == name {
			return i, true
		}
	}
	return 0, false
}

// UnitMass returns the mass of one unit of the item in kg.
func (i Item) UnitMass() float64 {
	switch i {
	case Iron, Copper, Ti:
		return 8.0
	case Mg, Si:
		return 3.0
	case Ice, Water:
		return 1.0
	case Methane, H2, CO2, O2:
		return 0.5
	case People:
		return 80.0
	case Geodes:
		return 12.0
	case Power:
		return 0
	default:
		return 1.0
	}
}

// ItemCount is a stocked quantity with its capacity.
type ItemCount struct {
	Count    int
	Capacity int
}

// Inventory maps items to stocked counts. The invariant 0 ≤ count ≤ capacity
// holds after every operation.
type Inventory map[Item]ItemCount

// Add deposits up to n units, returning how many were actually accepted.
func (inv Inventory) Add(item Item, n int) int {
	ic := inv[item]
	free := ic.Capacity - ic.Count
	if n > free {
		n = free
	}
	if n < 0 {
		n = 0
	}
	ic.Count += n
	inv[item] = ic
	return n
}

// Take withdraws up to n units, returning how many were actually removed.
func (inv Inventory) Take(item Item, n int) int {
	ic := inv[item]
	if n > ic.Count {
		n = ic.Count
	}
	if n < 0 {
		n = 0
	}
	ic.Count -= n
	inv[item] = ic
	return n
}

// CountOf returns the stocked amount of an item.
func (inv Inventory) CountOf(item Item) int {
	return inv[item].Count
}

// MassKg returns the total mass of the stocked items.
func (inv Inventory) MassKg() float64 {
	total := 0.0
	for item, ic := range inv {
		total += float64(ic.Count) * item.UnitMass()
	}
	return total
}

// StorageID keys a storage bin within a factory.
type StorageID uint32

// PlantID keys a plant within a factory.
type PlantID uint32

// Storage is a single-item bin. Adds clamp at capacity; takes saturate at
// zero.
type Storage struct {
	Item     Item
	Count    int
	Capacity int
}

// Add deposits up to n units, returning the accepted amount.
func (s *Storage) Add(n int) int {
	free := s.Capacity - s.Count
	if n > free {
		n = free
	}
	if n < 0 {
		n = 0
	}
	s.Count += n
	return n
}

// Take withdraws up to n units, returning the removed amount.
func (s *Storage) Take(n int) int {
	if n > s.Count {
		n = s.Count
	}
	if n < 0 {
		n = 0
	}
	s.Count -= n
	return n
}

// CanAccept returns whether n units fit.
func (s *Storage) CanAccept(n int) bool {
	return s.Count+n <= s.Capacity
}

func (s *Storage) String() string {
	return fmt.Sprintf("%s %d/%d", s.Item, s.Count, s.Capacity)
}

// Recipe transforms input items into output items.
type Recipe struct {
	Name    string
	Inputs  map[Item]int
	Outputs map[Item]int
}

// PortDir is the direction of a plant port.
type PortDir uint8

const (
	// PortIn feeds a plant input from a storage.
	PortIn PortDir = iota + 1
	// PortOut drains a plant output into a storage.
	PortOut
)

// Plant runs one recipe repeatedly. Ports are unidirectional and typed; at
// most one storage serves a given (item, direction).
type Plant struct {
	Recipe   Recipe
	Duration Stamp
	Enabled  bool
	Blocked  bool
	Starved  bool

	InPorts  map[Item]StorageID
	OutPorts map[Item]StorageID

	working bool
	elapsed Stamp
}

// NewPlant returns an idle, enabled plant.
func NewPlant(recipe Recipe, duration time.Duration) *Plant {
	return &Plant{
		Recipe:   recipe,
		Duration: StampFromDur(duration),
		Enabled:  true,
		InPorts:  make(map[Item]StorageID),
		OutPorts: make(map[Item]StorageID),
	}
}

// Working returns whether a job is in progress.
func (p *Plant) Working() bool {
	return p.working
}

// factoryStep is the catch-up granularity of factory simulation.
const factoryStep = time.Minute

// Factory owns storages and plants and advances them in minute-sized steps
// to catch up to the universe stamp.
type Factory struct {
	storages map[StorageID]*Storage
	plants   map[PlantID]*Plant

	storageOrder []StorageID
	plantOrder   []PlantID

	nextStorage StorageID
	nextPlant   PlantID
	caughtUpTo  Stamp
}

// NewFactory returns an empty factory starting at the given stamp.
func NewFactory(start Stamp) *Factory {
	return &Factory{
		storages:   make(map[StorageID]*Storage),
		plants:     make(map[PlantID]*Plant),
		caughtUpTo: start,
	}
}

// AddStorage installs a bin and returns its id.
func (f *Factory) AddStorage(item Item, capacity int) StorageID {
	f.nextStorage++
	id := f.nextStorage
	f.storages[id] = &Storage{Item: item, Capacity: capacity}
	f.storageOrder = append(f.storageOrder, id)
	return id
}

// Storage returns a bin by id.
func (f *Factory) Storage(id StorageID) *Storage {
	return f.storages[id]
}

// AddPlant installs a plant and returns its id.
func (f *Factory) AddPlant(p *Plant) PlantID {
	f.nextPlant++
	id := f.nextPlant
	f.plants[id] = p
	f.plantOrder = append(f.plantOrder, id)
	return id
}

// Plant returns a plant by id.
func (f *Factory) Plant(id PlantID) *Plant {
	return f.plants[id]
}

func (f *Factory) String() string {
	s := fmt.Sprintf("factory[%d plants", len(f.plantOrder))
	for _, id := range f.storageOrder {
		s += "; " + f.storages[id].String()
	}
	return s + "]"
}

// Connect wires a plant port to a storage. The storage must hold the port's
// item, and only one storage may serve a (plant, item, direction) triple.
func (f *Factory) Connect(plant PlantID, dir PortDir, item Item, storage StorageID) error {
	p, ok := f.plants[plant]
	if !ok {
		return fmt.Errorf("no plant %d", plant)
	}
	s, ok := f.storages[storage]
	if !ok {
		return fmt.Errorf("no storage %d", storage)
	}
	if s.Item != item {
		return fmt.Errorf("storage %d holds %s, not %s", storage, s.Item, item)
	}
	switch dir {
	case PortIn:
		if _, dup := p.InPorts[item]; dup {
			return fmt.Errorf("duplicate input port for %s", item)
		}
		p.InPorts[item] = storage
	case PortOut:
		if _, dup := p.OutPorts[item]; dup {
			return fmt.Errorf("duplicate output port for %s", item)
		}
		p.OutPorts[item] = storage
	default:
		return fmt.Errorf("bad port direction %d", dir)
	}
	return nil
}

// StepTo advances the factory in minute steps until it has caught up to the
// stamp.
func (f *Factory) StepTo(stamp Stamp) {
	step := StampFromDur(factoryStep)
	for f.caughtUpTo.AddStamp(step) <= stamp {
		f.caughtUpTo = f.caughtUpTo.AddStamp(step)
		f.step(step)
	}
}

func (f *Factory) step(dt Stamp) {
	// Start jobs first so a fresh plant begins consuming this step.
	for _, id := range f.plantOrder {
		p := f.plants[id]
		if !p.Enabled || p.working {
			continue
		}
		f.tryStart(p)
	}
	for _, id := range f.plantOrder {
		p := f.plants[id]
		if !p.working {
			continue
		}
		p.elapsed += dt
		if p.elapsed >= p.Duration {
			f.commit(p)
		}
	}
}

// tryStart reserves the recipe inputs. All inputs must be present and all
// outputs must fit, else the plant flags starved or blocked and stays idle.
func (f *Factory) tryStart(p *Plant) {
	for item, n := range p.Recipe.Inputs {
		sid, ok := p.InPorts[item]
		if !ok || f.storages[sid].Count < n {
			p.Starved = true
			return
		}
	}
	for item, n := range p.Recipe.Outputs {
		sid, ok := p.OutPorts[item]
		if !ok || !f.storages[sid].CanAccept(n) {
			p.Blocked = true
			return
		}
	}
	// Reserve inputs up front; the outputs appear on commit.
	for item, n := range p.Recipe.Inputs {
		f.storages[p.InPorts[item]].Take(n)
	}
	p.Starved = false
	p.Blocked = false
	p.working = true
	p.elapsed = 0
}

// commit deposits the outputs and resets the plant to idle. If an output no
// longer fits the plant flags blocked and retries on later steps without
// losing the job.
func (f *Factory) commit(p *Plant) {
	for item, n := range p.Recipe.Outputs {
		sid := p.OutPorts[item]
		if !f.storages[sid].CanAccept(n) {
			p.Blocked = true
			return
		}
	}
	for item, n := range p.Recipe.Outputs {
		f.storages[p.OutPorts[item]].Add(n)
	}
	p.Blocked = false
	p.working = false
	p.elapsed = 0
}
