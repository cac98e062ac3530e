package helio

import (
	"fmt"
	"io"
	"os"

	kitlog "github.com/go-kit/kit/log"
	"gopkg.in/yaml.v3"
)

// craftFileYAML is the on-disk craft description.
type craftFileYAML struct {
	Name  string          `yaml:"name"`
	Parts []craftPartYAML `yaml:"parts"`
	Lines [][2]int        `yaml:"lines,omitempty"`
}

type craftPartYAML struct {
	PartName string `yaml:"partname"`
	Pos      [2]int `yaml:"pos"`
	Rot      string `yaml:"rot"`
}

// SaveVehicle writes the craft description. Part order follows ascending
// part id and pipe cells are sorted, so saving a loaded file reproduces it
// byte for byte.
func SaveVehicle(w io.Writer, v *Vehicle) error {
	file := craftFileYAML{Name: v.Name}
	for _, id := range v.PartIDs() {
		p := v.Part(id)
		file.Parts = append(file.Parts, craftPartYAML{
			PartName: p.Proto.Name,
			Pos:      [2]int{p.Origin.X, p.Origin.Y},
			Rot:      p.Rot.String(),
		})
	}
	for _, c := range v.PipeCells() {
		file.Lines = append(file.Lines, [2]int{c.X, c.Y})
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(file); err != nil {
		return fmt.Errorf("encoding craft %s: %w", v.Name, err)
	}
	return enc.Close()
}

// SaveVehicleFile writes the craft description to a path.
func SaveVehicleFile(path string, v *Vehicle) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return SaveVehicle(f, v)
}

// LoadVehicle reads a craft description, resolving part names against the
// given library. Parts with unknown names are dropped with a warning.
func LoadVehicle(r io.Reader, lib map[string]*PartPrototype, logger kitlog.Logger) (*Vehicle, error) {
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	var file craftFileYAML
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("decoding craft file: %w", err)
	}
	v := NewVehicle(file.Name, logger)
	for _, entry := range file.Parts {
		proto, ok := lib[entry.PartName]
		if !ok {
			v.logger.Log("level", "warning", "subsys", "craft", "message", "unknown part, skipping", "part", entry.PartName)
			continue
		}
		rot, ok := RotationFromName(entry.Rot)
		if !ok {
			return nil, fmt.Errorf("part %s: unknown rotation %q", entry.PartName, entry.Rot)
		}
		if _, err := v.AddPart(proto, GridPos{entry.Pos[0], entry.Pos[1]}, rot); err != nil {
			return nil, fmt.Errorf("part %s at %v: %w", entry.PartName, entry.Pos, err)
		}
	}
	for _, cell := range file.Lines {
		v.AddPipe(GridPos{cell[0], cell[1]})
	}
	return v, nil
}

// LoadVehicleFile reads a craft description from a path.
func LoadVehicleFile(path string, lib map[string]*PartPrototype, logger kitlog.Logger) (*Vehicle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadVehicle(f, lib, logger)
}
