package helio

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// PixelsPerMeter is the vehicle grid resolution: one grid cell is one pixel.
const PixelsPerMeter = 20.0

// PartLayer stacks parts within a grid cell.
type PartLayer uint8

const (
	// LayerInternal holds tanks, machines, habitats.
	LayerInternal PartLayer = iota + 1
	// LayerStructural holds frames and trusses.
	LayerStructural
	// LayerExterior holds thrusters, radiators, antennas.
	LayerExterior
)

func (l PartLayer) String() string {
	switch l {
	case LayerInternal:
		return "Internal"
	case LayerStructural:
		return "Structural"
	case LayerExterior:
		return "Exterior"
	}
	panic("cannot stringify unknown part layer")
}

func partLayerFromName(s string) (PartLayer, bool) {
	switch s {
	case "Internal":
		return LayerInternal, true
	case "Structural":
		return LayerStructural, true
	case "Exterior":
		return LayerExterior, true
	}
	return 0, false
}

// Rotation is the cardinal orientation of a placed part.
type Rotation uint8

const (
	East Rotation = iota
	North
	West
	South
)

func (r Rotation) String() string {
	switch r {
	case East:
		return "East"
	case North:
		return "North"
	case West:
		return "West"
	case South:
		return "South"
	}
	panic("cannot stringify unknown rotation")
}

// RotationFromName parses a cardinal name.
func RotationFromName(s string) (Rotation, bool) {
	switch s {
	case "East":
		return East, true
	case "North":
		return North, true
	case "West":
		return West, true
	case "South":
		return South, true
	}
	return 0, false
}

// Radians returns the rotation angle.
func (r Rotation) Radians() float64 {
	return float64(r) * math.Pi / 2
}

// Vec returns the unit vector the rotation points along.
func (r Rotation) Vec() Vec2 {
	switch r {
	case East:
		return Vec2{1, 0}
	case North:
		return Vec2{0, 1}
	case West:
		return Vec2{-1, 0}
	default:
		return Vec2{0, -1}
	}
}

// CCW returns the rotation turned 90° counterclockwise.
func (r Rotation) CCW() Rotation {
	return (r + 1) % 4
}

// Part variant payloads.

// TankProto holds fluid up to a capacity, filtered by item type.
type TankProto struct {
	CapacityKg float64
	Fluid      Item
}

// ThrusterProto produces thrust opposite its exhaust direction.
type ThrusterProto struct {
	MaxThrust  float64 // N
	ExhaustVel float64 // m/s
	IsRCS      bool
	PlumeColor [3]uint8
}

// CargoProto stores discrete items in slots.
type CargoProto struct {
	CapacityKg float64
	Slots      int
}

// MachineProto runs a recipe against its local inventory.
type MachineProto struct {
	Recipe Recipe
}

// MagnetorquerProto applies torque without propellant.
type MagnetorquerProto struct {
	MaxTorque float64 // N·m
}

// PartClass tags the variant payload of a prototype.
type PartClass uint8

const (
	ClassGeneric PartClass = iota + 1
	ClassTank
	ClassThruster
	ClassCargo
	ClassMachine
	ClassMagnetorquer
	ClassRadar
)

func (c PartClass) String() string {
	switch c {
	case ClassGeneric:
		return "Generic"
	case ClassTank:
		return "Tank"
	case ClassThruster:
		return "Thruster"
	case ClassCargo:
		return "Cargo"
	case ClassMachine:
		return "Machine"
	case ClassMagnetorquer:
		return "Magnetorquer"
	case ClassRadar:
		return "Radar"
	}
	panic("cannot stringify unknown part class")
}

// PartPrototype is the immutable template of a placeable part. Exactly one
// variant pointer is non-nil for non-generic classes.
type PartPrototype struct {
	Name          string
	Width, Height int // pixels, unrotated
	Layer         PartLayer
	DryMass       float64 // kg
	Class         PartClass

	Tank         *TankProto
	Thruster     *ThrusterProto
	Cargo        *CargoProto
	Machine      *MachineProto
	Magnetorquer *MagnetorquerProto
}

// PartID keys a placed part within its vehicle.
type PartID uint32

// GridPos is an integer grid cell coordinate.
type GridPos struct {
	X, Y int
}

func (g GridPos) String() string {
	return fmt.Sprintf("(%d,%d)", g.X, g.Y)
}

// buildComplete is the build-progress counter value of a finished part.
const buildComplete = 100

// InstantiatedPart is a placed part with its per-instance state.
type InstantiatedPart struct {
	Proto  *PartPrototype
	Origin GridPos
	Rot    Rotation

	BuildProgress int

	// Variant instance data; which fields matter depends on Proto.Class.
	Throttle      float64 // commanded, [0,1]
	CurrentThrust float64 // ramped actual, N
	FuelKg        float64
	CargoItems    Inventory
	Torque        float64 // commanded magnetorquer torque, N·m
	JobElapsed    Stamp
	JobActive     bool
	MachineStock  Inventory
}

// NewPart places a prototype at a cell.
func NewPart(proto *PartPrototype, origin GridPos, rot Rotation) *InstantiatedPart {
	p := &InstantiatedPart{
		Proto:         proto,
		Origin:        origin,
		Rot:           rot,
		BuildProgress: buildComplete,
	}
	if proto.Class == ClassCargo {
		p.CargoItems = make(Inventory)
	}
	if proto.Class == ClassMachine {
		p.MachineStock = make(Inventory)
	}
	return p
}

// Extent returns the rotated footprint in grid cells.
func (p *InstantiatedPart) Extent() (w, h int) {
	if p.Rot == North || p.Rot == South {
		return p.Proto.Height, p.Proto.Width
	}
	return p.Proto.Width, p.Proto.Height
}

// Overlaps returns whether two parts' footprints intersect.
func (p *InstantiatedPart) Overlaps(o *InstantiatedPart) bool {
	pw, ph := p.Extent()
	ow, oh := o.Extent()
	return p.Origin.X < o.Origin.X+ow && o.Origin.X < p.Origin.X+pw &&
		p.Origin.Y < o.Origin.Y+oh && o.Origin.Y < p.Origin.Y+ph
}

// Center returns the part's center in meters from the vehicle origin.
func (p *InstantiatedPart) Center() Vec2 {
	w, h := p.Extent()
	return Vec2{
		(float64(p.Origin.X) + float64(w)/2) / PixelsPerMeter,
		(float64(p.Origin.Y) + float64(h)/2) / PixelsPerMeter,
	}
}

// Corners returns the part AABB corners in meters from the vehicle origin.
func (p *InstantiatedPart) Corners() [4]Vec2 {
	w, h := p.Extent()
	x0 := float64(p.Origin.X) / PixelsPerMeter
	y0 := float64(p.Origin.Y) / PixelsPerMeter
	x1 := x0 + float64(w)/PixelsPerMeter
	y1 := y0 + float64(h)/PixelsPerMeter
	return [4]Vec2{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}}
}

// CurrentMass returns dry mass plus carried fluid, cargo and machine stock.
func (p *InstantiatedPart) CurrentMass() float64 {
	m := p.Proto.DryMass + p.FuelKg
	if p.CargoItems != nil {
		m += p.CargoItems.MassKg()
	}
	if p.MachineStock != nil {
		m += p.MachineStock.MassKg()
	}
	return m
}

// Built returns whether construction has finished.
func (p *InstantiatedPart) Built() bool {
	return p.BuildProgress >= buildComplete
}

// thrustRampRate is the per-second fraction a thruster moves toward its
// commanded output.
const thrustRampRate = 4.0

// tick advances the part's instance state by dt seconds. In editor mode the
// tanks top up and cargo accepts stray items so builds can be exercised
// without logistics.
func (p *InstantiatedPart) tick(dt float64, editorMode bool, rng *Randomizer) {
	switch p.Proto.Class {
	case ClassThruster:
		target := clamp(p.Throttle, 0, 1) * p.Proto.Thruster.MaxThrust
		p.CurrentThrust += (target - p.CurrentThrust) * clamp(thrustRampRate*dt, 0, 1)
	case ClassTank:
		if editorMode {
			p.FuelKg = p.Proto.Tank.CapacityKg
		}
	case ClassCargo:
		if editorMode && rng != nil && rng.UniformF(0, 1) < 0.01 {
			item := Item(1 + rng.UniformInt(int(Power)))
			ic := p.CargoItems[item]
			ic.Capacity = p.Proto.Cargo.Slots
			p.CargoItems[item] = ic
			p.CargoItems.Add(item, 1)
		}
	case ClassMachine:
		if p.JobActive {
			p.JobElapsed += StampFromSecs(dt)
		}
	}
}

// Part metadata files: one YAML document per part directory, the layer and
// class spelled the way the editor spells them. Dimensions come from the
// metadata (`size: [w, h]` in pixels).

type partMetaYAML struct {
	Mass  float32              `yaml:"mass"`
	Layer string               `yaml:"layer"`
	Size  [2]int               `yaml:"size"`
	Class map[string]yaml.Node `yaml:"class"`
}

type thrusterMetaYAML struct {
	MaxThrust  float64  `yaml:"max_thrust"`
	ExhaustVel float64  `yaml:"exhaust_velocity"`
	IsRCS      bool     `yaml:"is_rcs"`
	Plume      [3]uint8 `yaml:"plume"`
}

type tankMetaYAML struct {
	Capacity float64 `yaml:"capacity"`
	Fluid    string  `yaml:"fluid"`
}

type cargoMetaYAML struct {
	Capacity float64 `yaml:"capacity"`
	Slots    int     `yaml:"slots"`
}

type machineMetaYAML struct {
	Recipe  string         `yaml:"recipe"`
	Inputs  map[string]int `yaml:"inputs"`
	Outputs map[string]int `yaml:"outputs"`
}

type magnetorquerMetaYAML struct {
	MaxTorque float64 `yaml:"max_torque"`
}

// ParsePartPrototype decodes a part metadata document.
func ParsePartPrototype(name string, doc []byte) (*PartPrototype, error) {
	var meta partMetaYAML
	if err := yaml.Unmarshal(doc, &meta); err != nil {
		return nil, fmt.Errorf("part %s: %w", name, err)
	}
	layer, ok := partLayerFromName(meta.Layer)
	if !ok {
		return nil, fmt.Errorf("part %s: unknown layer %q", name, meta.Layer)
	}
	if meta.Size[0] <= 0 || meta.Size[1] <= 0 {
		return nil, fmt.Errorf("part %s: bad size %v", name, meta.Size)
	}
	proto := &PartPrototype{
		Name:    name,
		Width:   meta.Size[0],
		Height:  meta.Size[1],
		Layer:   layer,
		DryMass: float64(meta.Mass),
		Class:   ClassGeneric,
	}
	if meta.Mass <= 0 || meta.Mass != meta.Mass {
		return nil, fmt.Errorf("part %s: bad mass %f", name, meta.Mass)
	}
	for className, node := range meta.Class {
		switch className {
		case "Generic":
			proto.Class = ClassGeneric
		case "Radar":
			proto.Class = ClassRadar
		case "Thruster":
			var t thrusterMetaYAML
			if err := node.Decode(&t); err != nil {
				return nil, fmt.Errorf("part %s: %w", name, err)
			}
			proto.Class = ClassThruster
			proto.Thruster = &ThrusterProto{t.MaxThrust, t.ExhaustVel, t.IsRCS, t.Plume}
		case "Tank":
			var t tankMetaYAML
			if err := node.Decode(&t); err != nil {
				return nil, fmt.Errorf("part %s: %w", name, err)
			}
			fluid, ok := ItemFromName(t.Fluid)
			if !ok {
				return nil, fmt.Errorf("part %s: unknown fluid %q", name, t.Fluid)
			}
			proto.Class = ClassTank
			proto.Tank = &TankProto{t.Capacity, fluid}
		case "Cargo":
			var c cargoMetaYAML
			if err := node.Decode(&c); err != nil {
				return nil, fmt.Errorf("part %s: %w", name, err)
			}
			proto.Class = ClassCargo
			proto.Cargo = &CargoProto{c.Capacity, c.Slots}
		case "Machine":
			var m machineMetaYAML
			if err := node.Decode(&m); err != nil {
				return nil, fmt.Errorf("part %s: %w", name, err)
			}
			recipe := Recipe{Name: m.Recipe, Inputs: map[Item]int{}, Outputs: map[Item]int{}}
			for n, count := range m.Inputs {
				item, ok := ItemFromName(n)
				if !ok {
					return nil, fmt.Errorf("part %s: unknown item %q", name, n)
				}
				recipe.Inputs[item] = count
			}
			for n, count := range m.Outputs {
				item, ok := ItemFromName(n)
				if !ok {
					return nil, fmt.Errorf("part %s: unknown item %q", name, n)
				}
				recipe.Outputs[item] = count
			}
			proto.Class = ClassMachine
			proto.Machine = &MachineProto{recipe}
		case "Magnetorquer":
			var m magnetorquerMetaYAML
			if err := node.Decode(&m); err != nil {
				return nil, fmt.Errorf("part %s: %w", name, err)
			}
			proto.Class = ClassMagnetorquer
			proto.Magnetorquer = &MagnetorquerProto{m.MaxTorque}
		default:
			return nil, fmt.Errorf("part %s: unknown class %q", name, className)
		}
	}
	return proto, nil
}

// LoadPartLibrary reads every part directory under dir (one `part.yaml`
// each) and returns the prototypes keyed by directory name.
func LoadPartLibrary(dir string) (map[string]*PartPrototype, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	lib := make(map[string]*PartPrototype)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		doc, err := os.ReadFile(filepath.Join(dir, entry.Name(), "part.yaml"))
		if err != nil {
			continue
		}
		proto, err := ParsePartPrototype(entry.Name(), doc)
		if err != nil {
			return nil, err
		}
		lib[entry.Name()] = proto
	}
	return lib, nil
}
