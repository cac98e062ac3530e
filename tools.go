package helio

import (
	"errors"
	"fmt"
	"math"
)

// PlanKind names the transfer family a plan came from.
type PlanKind uint8

const (
	PlanDirectKind PlanKind = iota
	PlanHohmannKind
	PlanBiellipticKind
)

func (k PlanKind) String() string {
	switch k {
	case PlanDirectKind:
		return "direct"
	case PlanHohmannKind:
		return "Hohmann"
	case PlanBiellipticKind:
		return "bielliptic"
	default:
		panic("unknown plan kind")
	}
}

// ManeuverNode is one impulsive burn.
type ManeuverNode struct {
	Stamp Stamp
	Dv    Vec2
}

// ManeuverPlan is a burn series with the coasting arcs between the burns
// materialized so callers can draw them.
type ManeuverPlan struct {
	Kind  PlanKind
	Nodes []ManeuverNode
	Arcs  []SparseOrbit
}

// TotalDv sums the burn magnitudes.
func (p ManeuverPlan) TotalDv() float64 {
	total := 0.0
	for _, n := range p.Nodes {
		total += n.Dv.Norm()
	}
	return total
}

func (p ManeuverPlan) String() string {
	return fmt.Sprintf("%s plan, %d burns, Δv=%.3f m/s", p.Kind, len(p.Nodes), p.TotalDv())
}

// ErrNoTransfer indicates the requested transfer family does not apply to
// the given orbit pair.
var ErrNoTransfer = errors.New("no transfer between these orbits")

// PlanDirect burns at the next geometric crossing of the two orbits,
// matching the destination velocity there in a single impulse.
func PlanDirect(stamp Stamp, from, to SparseOrbit) (ManeuverPlan, error) {
	at, pv, ok := NextIntersection(stamp, from, to)
	if !ok {
		return ManeuverPlan{}, fmt.Errorf("direct: %w", ErrNoTransfer)
	}
	νTo := to.trueAnomalyOf(pv.R)
	dv := to.VelocityAtTrue(νTo).Sub(pv.V)
	return ManeuverPlan{
		Kind:  PlanDirectKind,
		Nodes: []ManeuverNode{{Stamp: at, Dv: dv}},
		Arcs:  []SparseOrbit{from},
	}, nil
}

// PlanHohmann computes the classic two-burn transfer departing at the next
// periapsis of the current orbit. Both orbits must be bound and share the
// orbital direction.
func PlanHohmann(stamp Stamp, from, to SparseOrbit) (ManeuverPlan, error) {
	if from.WillEscape() || to.WillEscape() {
		return ManeuverPlan{}, fmt.Errorf("Hohmann needs two bound orbits: %w", ErrNoTransfer)
	}
	if from.Retrograde != to.Retrograde {
		return ManeuverPlan{}, fmt.Errorf("Hohmann needs matching orbit directions: %w", ErrNoTransfer)
	}
	depart, ok := from.NextPeriapsis(stamp)
	if !ok {
		return ManeuverPlan{}, fmt.Errorf("Hohmann: %w", ErrNoTransfer)
	}
	μ := from.Primary.Mu()
	r1 := from.PeriapsisR()
	r2 := to.RadiusAtAngle(from.ArgPeriapsis + math.Pi)
	aTransfer := (r1 + r2) / 2

	pv1, err := from.PVAt(depart)
	if err != nil {
		return ManeuverPlan{}, err
	}
	v1 := math.Sqrt(μ * (2/r1 - 1/aTransfer))
	dv1 := pv1.V.Unit().Scale(v1).Sub(pv1.V)

	transfer, err := NewOrbitFromPV(PV{R: pv1.R, V: pv1.V.Add(dv1)}, from.Primary, depart)
	if err != nil {
		return ManeuverPlan{}, fmt.Errorf("Hohmann transfer arc: %w", err)
	}
	tPeriod, ok := transfer.Period()
	if !ok {
		return ManeuverPlan{}, fmt.Errorf("Hohmann transfer arc unbound: %w", ErrNoTransfer)
	}
	arrive := depart.AddStamp(tPeriod / 2)

	pv2, err := transfer.PVAt(arrive)
	if err != nil {
		return ManeuverPlan{}, err
	}
	νTo := to.trueAnomalyOf(pv2.R)
	dv2 := to.VelocityAtTrue(νTo).Sub(pv2.V)

	return ManeuverPlan{
		Kind: PlanHohmannKind,
		Nodes: []ManeuverNode{
			{Stamp: depart, Dv: dv1},
			{Stamp: arrive, Dv: dv2},
		},
		Arcs: []SparseOrbit{from, transfer},
	}, nil
}

// PlanBielliptic routes through a high intermediate apoapsis: raise apoapsis
// to the larger of the two orbits' apoapses, transfer there, then drop onto
// the destination. Degenerates to Hohmann when neither apoapsis exceeds the
// transfer ellipse.
func PlanBielliptic(stamp Stamp, from, to SparseOrbit) (ManeuverPlan, error) {
	if from.WillEscape() || to.WillEscape() {
		return ManeuverPlan{}, fmt.Errorf("bielliptic needs two bound orbits: %w", ErrNoTransfer)
	}
	if from.Retrograde != to.Retrograde {
		return ManeuverPlan{}, fmt.Errorf("bielliptic needs matching orbit directions: %w", ErrNoTransfer)
	}
	depart, ok := from.NextPeriapsis(stamp)
	if !ok {
		return ManeuverPlan{}, fmt.Errorf("bielliptic: %w", ErrNoTransfer)
	}
	μ := from.Primary.Mu()
	r1 := from.PeriapsisR()
	rb := math.Max(from.ApoapsisR(), to.ApoapsisR())
	if rb <= r1 {
		return ManeuverPlan{}, fmt.Errorf("bielliptic apoapsis below departure radius: %w", ErrNoTransfer)
	}

	// First burn raises apoapsis to rb.
	pv1, err := from.PVAt(depart)
	if err != nil {
		return ManeuverPlan{}, err
	}
	a1 := (r1 + rb) / 2
	dv1 := pv1.V.Unit().Scale(math.Sqrt(μ * (2/r1 - 1/a1))).Sub(pv1.V)
	leg1, err := NewOrbitFromPV(PV{R: pv1.R, V: pv1.V.Add(dv1)}, from.Primary, depart)
	if err != nil {
		return ManeuverPlan{}, fmt.Errorf("bielliptic first leg: %w", err)
	}
	p1, ok := leg1.Period()
	if !ok {
		return ManeuverPlan{}, fmt.Errorf("bielliptic first leg unbound: %w", ErrNoTransfer)
	}
	mid := depart.AddStamp(p1 / 2)

	// Second burn at rb reshapes periapsis to reach the destination radius.
	pv2, err := leg1.PVAt(mid)
	if err != nil {
		return ManeuverPlan{}, err
	}
	r2 := to.RadiusAtAngle(pv2.R.Angle() + math.Pi)
	a2 := (rb + r2) / 2
	dv2 := pv2.V.Unit().Scale(math.Sqrt(μ * (2/rb - 1/a2))).Sub(pv2.V)
	leg2, err := NewOrbitFromPV(PV{R: pv2.R, V: pv2.V.Add(dv2)}, from.Primary, mid)
	if err != nil {
		return ManeuverPlan{}, fmt.Errorf("bielliptic second leg: %w", err)
	}
	p2, ok := leg2.Period()
	if !ok {
		return ManeuverPlan{}, fmt.Errorf("bielliptic second leg unbound: %w", ErrNoTransfer)
	}
	arrive := mid.AddStamp(p2 / 2)

	// Final burn matches the destination.
	pv3, err := leg2.PVAt(arrive)
	if err != nil {
		return ManeuverPlan{}, err
	}
	νTo := to.trueAnomalyOf(pv3.R)
	dv3 := to.VelocityAtTrue(νTo).Sub(pv3.V)

	return ManeuverPlan{
		Kind: PlanBiellipticKind,
		Nodes: []ManeuverNode{
			{Stamp: depart, Dv: dv1},
			{Stamp: mid, Dv: dv2},
			{Stamp: arrive, Dv: dv3},
		},
		Arcs: []SparseOrbit{from, leg1, leg2},
	}, nil
}

// BestPlan tries every transfer family and keeps the cheapest feasible one.
func BestPlan(stamp Stamp, from, to SparseOrbit) (ManeuverPlan, error) {
	var best ManeuverPlan
	found := false
	try := func(plan ManeuverPlan, err error) {
		if err != nil {
			return
		}
		if !found || plan.TotalDv() < best.TotalDv() {
			best, found = plan, true
		}
	}
	try(PlanDirect(stamp, from, to))
	try(PlanHohmann(stamp, from, to))
	try(PlanBielliptic(stamp, from, to))
	if !found {
		return ManeuverPlan{}, ErrNoTransfer
	}
	return best, nil
}
