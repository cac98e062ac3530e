package main

import (
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"time"

	"github.com/helio-sandbox/helio"
)

// This command runs the demo universe in real time and broadcasts a JSON
// snapshot over a websocket after every simulation tick.

var (
	addr string
	seed int64
)

func init() {
	flag.StringVar(&addr, "addr", ":8420", "listen address")
	flag.Int64Var(&seed, "seed", 0, "universe seed (0 uses the configured seed)")
}

type orbiterState struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Parent string  `json:"parent"`
	X      float64 `json:"x_m"`
	Y      float64 `json:"y_m"`
	Vx     float64 `json:"vx_ms"`
	Vy     float64 `json:"vy_ms"`
}

type vehicleState struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	X      float64 `json:"x_m"`
	Y      float64 `json:"y_m"`
	Angle  float64 `json:"angle_rad"`
	FuelKg float64 `json:"fuel_kg"`
}

type snapshot struct {
	StampSecs float64        `json:"stamp_s"`
	Ticks     uint64         `json:"ticks"`
	Orbiters  []orbiterState `json:"orbiters"`
	Vehicles  []vehicleState `json:"vehicles"`
}

// takeSnapshot reads universe state. Must run on the tick goroutine.
func takeSnapshot(u *helio.Universe) snapshot {
	snap := snapshot{StampSecs: u.Stamp().Secs(), Ticks: u.Ticks()}
	for _, id := range u.OrbiterIDs() {
		name, pv, parent, err := u.LookupOrbiter(id, u.Stamp())
		if err != nil {
			continue
		}
		snap.Orbiters = append(snap.Orbiters, orbiterState{
			ID: id.String(), Name: name, Parent: parent.String(),
			X: pv.R.X, Y: pv.R.Y, Vx: pv.V.X, Vy: pv.V.Y,
		})
	}
	for _, id := range u.VehicleIDs() {
		v, _ := u.Vehicle(id)
		rb, ok := u.Body(id)
		if v == nil || !ok {
			continue
		}
		snap.Vehicles = append(snap.Vehicles, vehicleState{
			ID: id.String(), Name: v.Name,
			X: rb.PV.R.X, Y: rb.PV.R.Y, Angle: rb.Angle, FuelKg: v.FuelMass(),
		})
	}
	return snap
}

func runSim(u *helio.Universe, h *hub) {
	ticker := time.NewTicker(helio.TickStep.Dur())
	defer ticker.Stop()
	for range ticker.C {
		for _, notice := range u.OnSimTick(helio.ControlSignals{}) {
			log.Printf("removed %s on %s", notice.ID, notice.Event)
		}
		blob, err := json.Marshal(takeSnapshot(u))
		if err != nil {
			log.Printf("snapshot: %s", err)
			continue
		}
		h.broadcast <- blob
	}
}

func main() {
	flag.Parse()
	if seed == 0 {
		seed = helio.ConfiguredSeed()
	}
	u, _, err := helio.DemoUniverse(seed, nil)
	if err != nil {
		log.Fatalf("building demo universe: %s", err)
	}

	h := newHub()
	go h.run()
	go runSim(u, h)

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWs(h, w, r)
	})
	http.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	log.Printf("state server on %s, universe %s seeded with %d", addr, u.Name, seed)
	log.Fatal(http.ListenAndServe(addr, nil))
}
