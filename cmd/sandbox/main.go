package main

import (
	"flag"
	"io"
	"log"
	"os"
	"time"

	kitlog "github.com/go-kit/kit/log"
	"github.com/helio-sandbox/helio"
)

// This command builds the demo universe, runs it for a while, and optionally
// exports the orbiter trajectory and cross-checks it against a numerical
// integration.

var (
	duration time.Duration
	seed     int64
	export   string
	verify   bool
	verbose  bool
)

func init() {
	flag.DurationVar(&duration, "duration", 10*time.Minute, "simulated time to run")
	flag.Int64Var(&seed, "seed", 0, "universe seed (0 uses the configured seed)")
	flag.StringVar(&export, "export", "", "export the orbiter trajectory under this name")
	flag.BoolVar(&verify, "verify", false, "cross-check analytic propagation with RK4")
	flag.BoolVar(&verbose, "verbose", false, "log every subsystem")
}

func main() {
	flag.Parse()
	if seed == 0 {
		seed = helio.ConfiguredSeed()
	}
	var sink io.Writer = os.Stdout
	if !verbose {
		sink = io.Discard
	}
	logger := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(sink))

	u, ids, err := helio.DemoUniverse(seed, logger)
	if err != nil {
		log.Fatalf("building demo universe: %s", err)
	}
	log.Printf("universe %s seeded with %d, running %s", u.Name, seed, duration)

	ticks := int(helio.StampFromDur(duration) / helio.TickStep)
	for i := 0; i < ticks; i++ {
		for _, notice := range u.OnSimTick(helio.ControlSignals{}) {
			log.Printf("removed %s after %s on %s", notice.ID, u.Stamp(), notice.Event)
		}
	}
	log.Printf("ran %d ticks to %s", u.Ticks(), u.Stamp())

	if name, pv, parent, err := u.LookupOrbiter(ids.Orbiter, u.Stamp()); err == nil {
		log.Printf("%s at r=%0.1f m around %s", name, pv.R.Norm(), parent)
	}
	if f, ok := u.Factory(ids.Mine); ok {
		log.Printf("mine: %s", f)
	}

	if verify {
		runVerify(u, ids)
	}

	if export != "" {
		conf := helio.ExportConfig{
			Filename: export,
			Epoch:    time.Now().UTC(),
			Cadence:  helio.StampFromDur(time.Minute),
			AsCSV:    true,
			AsJSON:   true,
		}
		until := u.Stamp().Add(time.Hour)
		if err := helio.ExportOrbiter(conf, u, ids.Orbiter, u.Stamp(), until); err != nil {
			log.Fatalf("export: %s", err)
		}
		log.Printf("exported %s.csv to %s", export, helio.ConfiguredOutputDir())
	}
}

// runVerify integrates the orbiter's current conic numerically and reports
// the worst divergence over a ten-minute window.
func runVerify(u *helio.Universe, ids helio.DemoIDs) {
	p := u.PropagatorAt(ids.Orbiter, u.Stamp())
	if p == nil {
		log.Print("verify: orbiter has no trajectory segment")
		return
	}
	o := p.Orbit.Orbit
	pv, err := o.PVAt(u.Stamp())
	if err != nil {
		log.Fatalf("verify: %s", err)
	}
	prop := helio.NewTwoBodyProp(o.Primary, pv, helio.StampFromDur(10*time.Minute), nil)
	worst, err := prop.VerifyAgainst(o, u.Stamp())
	if err != nil {
		log.Fatalf("verify: %s", err)
	}
	log.Printf("verify: worst RK4 divergence %0.6f m over 10m", worst)
}
