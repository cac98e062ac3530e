package helio

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func craftLibrary() map[string]*PartPrototype {
	return map[string]*PartPrototype{
		"block":  blockProto,
		"engine": engineProto,
		"rcs":    rcsProto,
		"tank":   tankProto,
	}
}

func TestVehicleSaveLoadRoundTrip(t *testing.T) {
	v := NewVehicle("roundtrip", nil)
	if _, err := v.AddPart(blockProto, GridPos{0, 0}, East); err != nil {
		t.Fatal(err)
	}
	if _, err := v.AddPart(engineProto, GridPos{-10, 0}, West); err != nil {
		t.Fatal(err)
	}
	if _, err := v.AddPart(tankProto, GridPos{0, 10}, North); err != nil {
		t.Fatal(err)
	}
	v.AddPipe(GridPos{3, -1})
	v.AddPipe(GridPos{3, 0})

	var first bytes.Buffer
	if err := SaveVehicle(&first, v); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadVehicle(&first, craftLibrary(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Name != "roundtrip" {
		t.Errorf("name %q", loaded.Name)
	}
	if got, want := len(loaded.PartIDs()), len(v.PartIDs()); got != want {
		t.Fatalf("loaded %d parts, want %d", got, want)
	}
	if got, want := loaded.CurrentMass(), v.CurrentMass(); got != want {
		t.Errorf("mass %f, want %f", got, want)
	}
	if got, want := loaded.CenterOfMass(), v.CenterOfMass(); !vecsEqual(got, want) {
		t.Errorf("com %s, want %s", got, want)
	}

	// Saving the loaded craft reproduces the file byte for byte.
	var second bytes.Buffer
	if err := SaveVehicle(&second, loaded); err != nil {
		t.Fatal(err)
	}
	var again bytes.Buffer
	if err := SaveVehicle(&again, v); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(again.Bytes(), second.Bytes()) {
		t.Errorf("round trip not stable:\n%s\nvs\n%s", again.String(), second.String())
	}
}

func TestLoadVehicleSkipsUnknownParts(t *testing.T) {
	doc := `name: mystery
parts:
  - partname: block
    pos: [0, 0]
    rot: East
  - partname: warpdrive
    pos: [20, 0]
    rot: East
`
	v, err := LoadVehicle(strings.NewReader(doc), craftLibrary(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := len(v.PartIDs()); got != 1 {
		t.Errorf("loaded %d parts, want the known one only", got)
	}
}

func TestLoadVehicleRejectsBadRotation(t *testing.T) {
	doc := `name: twisted
parts:
  - partname: block
    pos: [0, 0]
    rot: Sideways
`
	if _, err := LoadVehicle(strings.NewReader(doc), craftLibrary(), nil); err == nil {
		t.Error("bad rotation accepted")
	}
}

func TestLoadVehicleRejectsOverlap(t *testing.T) {
	doc := `name: clipped
parts:
  - partname: block
    pos: [0, 0]
    rot: East
  - partname: block
    pos: [5, 5]
    rot: East
`
	if _, err := LoadVehicle(strings.NewReader(doc), craftLibrary(), nil); err == nil {
		t.Error("overlapping craft file accepted")
	}
}

func TestSaveVehicleFile(t *testing.T) {
	v := NewVehicle("disk", nil)
	if _, err := v.AddPart(blockProto, GridPos{0, 0}, East); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "disk.yaml")
	if err := SaveVehicleFile(path, v); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadVehicleFile(path, craftLibrary(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Name != "disk" || len(loaded.PartIDs()) != 1 {
		t.Errorf("loaded %q with %d parts", loaded.Name, len(loaded.PartIDs()))
	}
}

func TestParsePartPrototype(t *testing.T) {
	doc := []byte(`mass: 120
layer: Exterior
size: [10, 20]
class:
  Thruster:
    max_thrust: 5000
    exhaust_velocity: 1800
    is_rcs: false
    plume: [255, 160, 20]
`)
	proto, err := ParsePartPrototype("main-engine", doc)
	if err != nil {
		t.Fatal(err)
	}
	if proto.Class != ClassThruster || proto.Thruster == nil {
		t.Fatalf("class %s", proto.Class)
	}
	if proto.Thruster.MaxThrust != 5000 || proto.Thruster.ExhaustVel != 1800 {
		t.Errorf("thruster %+v", proto.Thruster)
	}
	if proto.Width != 10 || proto.Height != 20 || proto.DryMass != 120 {
		t.Errorf("geometry %dx%d mass %f", proto.Width, proto.Height, proto.DryMass)
	}

	if _, err := ParsePartPrototype("bad", []byte("mass: -1\nlayer: Internal\nsize: [1, 1]\n")); err == nil {
		t.Error("negative mass accepted")
	}
	if _, err := ParsePartPrototype("bad", []byte("mass: 1\nlayer: Basement\nsize: [1, 1]\n")); err == nil {
		t.Error("unknown layer accepted")
	}
	if _, err := ParsePartPrototype("bad", []byte("mass: 1\nlayer: Internal\nsize: [0, 1]\n")); err == nil {
		t.Error("zero size accepted")
	}
}

func TestParsePartPrototypeMachine(t *testing.T) {
	doc := []byte(`mass: 300
layer: Internal
size: [20, 20]
class:
  Machine:
    recipe: electrolysis
    inputs:
      water: 1
    outputs:
      h2: 2
      o2: 1
`)
	proto, err := ParsePartPrototype("electrolyser", doc)
	if err != nil {
		t.Fatal(err)
	}
	if proto.Class != ClassMachine || proto.Machine == nil {
		t.Fatalf("class %s", proto.Class)
	}
	r := proto.Machine.Recipe
	if r.Inputs[Water] != 1 || r.Outputs[H2] != 2 || r.Outputs[O2] != 1 {
		t.Errorf("recipe %+v", r)
	}
}
