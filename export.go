package helio

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/soniakeys/meeus/julian"
)

// ExportConfig drives trajectory export for external plotting tools.
type ExportConfig struct {
	Filename string
	// Epoch anchors stamp zero on the calendar so the JD column is real.
	Epoch time.Time
	// Cadence is the sampling interval between exported rows.
	Cadence Stamp
	AsCSV   bool
	AsJSON  bool
}

// IsUseless reports a config that would write nothing.
func (c ExportConfig) IsUseless() bool {
	return !c.AsCSV && !c.AsJSON
}

// CatalogItem describes one exported trajectory in the JSON catalog.
type CatalogItem struct {
	Name      string `json:"name"`
	Center    string `json:"center"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Source    string `json:"source"`
	Class     string `json:"class"`
}

// Catalog is the JSON descriptor written next to the CSV trajectories.
type Catalog struct {
	Version string         `json:"version"`
	Name    string         `json:"name"`
	Items   []*CatalogItem `json:"items"`
}

func (c *Catalog) String() string {
	return c.Name + "(" + c.Version + ")"
}

// ExportOrbiter samples one orbiter's decided trajectory at the configured
// cadence and writes a CSV (stamp, JD, position, velocity) and a catalog
// entry. The orbiter must already be propagated over [from, until].
func ExportOrbiter(conf ExportConfig, u *Universe, id EntityID, from, until Stamp) error {
	if conf.IsUseless() {
		return fmt.Errorf("export config for %v writes nothing", id)
	}
	ob, ok := u.Orbiter(id)
	if !ok {
		return fmt.Errorf("no orbiter %v", id)
	}
	cadence := conf.Cadence
	if cadence <= 0 {
		cadence = StampFromDur(time.Minute)
	}

	outDir := ConfiguredOutputDir()
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	var item *CatalogItem
	if conf.AsCSV {
		csvPath := filepath.Join(outDir, conf.Filename+".csv")
		f, err := os.Create(csvPath)
		if err != nil {
			return err
		}
		defer f.Close()
		w := csv.NewWriter(f)
		if err := w.Write([]string{"stamp_s", "jd", "x_m", "y_m", "vx_ms", "vy_ms", "parent"}); err != nil {
			return err
		}
		for at := from; at <= until; at = at.AddStamp(cadence) {
			p := ob.PropagatorAt(at)
			if p == nil {
				break
			}
			pv, err := ob.PVAt(at)
			if err != nil {
				return fmt.Errorf("exporting %s at %v: %w", ob.Name, at, err)
			}
			jd := julian.TimeToJD(conf.Epoch.Add(at.Dur()))
			if err := w.Write([]string{
				strconv.FormatFloat(at.Secs(), 'f', 3, 64),
				strconv.FormatFloat(jd, 'f', 8, 64),
				strconv.FormatFloat(pv.R.X, 'f', 3, 64),
				strconv.FormatFloat(pv.R.Y, 'f', 3, 64),
				strconv.FormatFloat(pv.V.X, 'f', 6, 64),
				strconv.FormatFloat(pv.V.Y, 'f', 6, 64),
				p.Orbit.Parent.String(),
			}); err != nil {
				return err
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return err
		}
		item = &CatalogItem{
			Name:      ob.Name,
			Center:    ob.Props[0].Orbit.Parent.String(),
			StartTime: conf.Epoch.Add(from.Dur()).Format(time.RFC3339),
			EndTime:   conf.Epoch.Add(until.Dur()).Format(time.RFC3339),
			Source:    conf.Filename + ".csv",
			Class:     "spacecraft",
		}
	}

	if conf.AsJSON {
		cat := Catalog{Version: "1.0", Name: u.Name}
		if item != nil {
			cat.Items = append(cat.Items, item)
		}
		blob, err := json.MarshalIndent(cat, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(outDir, conf.Filename+".json"), blob, 0o644); err != nil {
			return err
		}
	}
	return nil
}
