package helio

import (
	"fmt"
	"time"
)

// EventKind enumerates what can terminate an orbit segment.
type EventKind uint8

const (
	// EventEscape is a sphere-of-influence exit toward the parent's parent.
	EventEscape EventKind = iota + 1
	// EventEncounter is a sphere-of-influence entry at a child body.
	EventEncounter
	// EventCollide is a surface impact; the orbiter ceases to exist.
	EventCollide
	// EventNumericalError is a solver breakdown; the orbiter ceases to exist.
	EventNumericalError
	// EventImpulse is a commanded instantaneous burn.
	EventImpulse
)

func (k EventKind) String() string {
	switch k {
	case EventEscape:
		return "escape"
	case EventEncounter:
		return "encounter"
	case EventCollide:
		return "collide"
	case EventNumericalError:
		return "numerical-error"
	case EventImpulse:
		return "impulse"
	}
	panic("cannot stringify unknown event kind")
}

// Event is a terminating or transition occurrence on a trajectory.
type Event struct {
	Kind   EventKind
	Target EntityID // encounter target, zero otherwise
	Dv     Vec2     // impulse delta-v, zero otherwise
}

func (e Event) String() string {
	if e.Kind == EventEncounter {
		return fmt.Sprintf("encounter(%s)", e.Target)
	}
	return e.Kind.String()
}

// Terminal returns whether the event removes the orbiter instead of starting
// a new segment.
func (e Event) Terminal() bool {
	return e.Kind == EventCollide || e.Kind == EventNumericalError
}

// HorizonKind is the decidability status of a segment's future.
type HorizonKind uint8

const (
	// HorizonContinuing means the segment is computed up to End, unknown beyond.
	HorizonContinuing HorizonKind = iota + 1
	// HorizonIndefinite means provably nothing terminal will ever happen.
	HorizonIndefinite
	// HorizonTransition means the segment ends at End, followed by another.
	HorizonTransition
	// HorizonTerminating means the segment and its orbiter end at End.
	HorizonTerminating
)

// HorizonState is a segment's decided future.
type HorizonState struct {
	Kind  HorizonKind
	End   Stamp
	Event Event
}

func (h HorizonState) String() string {
	switch h.Kind {
	case HorizonContinuing:
		return fmt.Sprintf("continuing(%s)", h.End)
	case HorizonIndefinite:
		return "indefinite"
	case HorizonTransition:
		return fmt.Sprintf("transition(%s, %s)", h.End, h.Event)
	case HorizonTerminating:
		return fmt.Sprintf("terminating(%s, %s)", h.End, h.Event)
	}
	return "undecided"
}

// Decided returns whether nothing beyond End remains to compute.
func (h HorizonState) Decided() bool {
	return h.Kind != HorizonContinuing
}

// GlobalOrbit roots a conic in the planetary tree.
type GlobalOrbit struct {
	Parent EntityID
	Orbit  SparseOrbit
}

// Propagator is one contiguous segment of a future trajectory.
type Propagator struct {
	Orbit   GlobalOrbit
	Start   Stamp
	Horizon HorizonState
}

// Step sizing for horizon extension.
const (
	stepSuborbital   = time.Hour
	stepEscaping     = 10 * time.Hour
	stepNearSibling  = time.Hour
	stepDefault      = 12 * time.Hour
	startDebounce    = 5 * time.Minute
	suborbitalAltCap = 20.0 // times body radius
	siblingProximity = 3.0  // times sibling SOI
)

// NewPropagator starts a segment at the given stamp. The start debounce
// shrinks on fast orbits so no event can hide inside it.
func NewPropagator(orbit GlobalOrbit, start Stamp) Propagator {
	debounce := StampFromDur(startDebounce)
	if period, ok := orbit.Orbit.Period(); ok && period/16 < debounce {
		debounce = period / 16
	}
	return Propagator{
		Orbit:   orbit,
		Start:   start,
		Horizon: HorizonState{Kind: HorizonContinuing, End: start.AddStamp(debounce)},
	}
}

// End returns the decided-through stamp of the segment.
func (p *Propagator) End() Stamp {
	return p.Horizon.End
}

// Covers returns whether the stamp falls inside the segment.
func (p *Propagator) Covers(stamp Stamp) bool {
	if stamp < p.Start {
		return false
	}
	if p.Horizon.Kind == HorizonIndefinite {
		return true
	}
	return stamp <= p.Horizon.End
}

// stepSize selects the horizon increment at the current end stamp.
func (p *Propagator) stepSize(sys *PlanetarySystem, at Stamp) time.Duration {
	o := &p.Orbit.Orbit
	step := stepDefault
	switch {
	case o.IsSuborbital() && p.lowAltitude(at):
		step = stepSuborbital
	case o.WillEscape():
		step = stepEscaping
	default:
		if pv, err := o.PVAt(at); err == nil {
			for _, sib := range sys.Siblings(p.Orbit.Parent) {
				sibPV, sibErr := sib.Orbit.PVAt(at)
				if sibErr != nil {
					continue
				}
				if pv.R.Sub(sibPV.R).Norm() < siblingProximity*sib.Sys.Primary.SOI {
					step = stepNearSibling
					break
				}
			}
		}
	}
	// A step longer than a fraction of the revolution would let crossings
	// slip between the endpoint checks.
	if period, ok := o.Period(); ok {
		if limit := period.Dur() / 8; limit < step {
			step = limit
		}
	}
	return step
}

func (p *Propagator) lowAltitude(at Stamp) bool {
	pv, err := p.Orbit.Orbit.PVAt(at)
	return err == nil && pv.R.Norm() < suborbitalAltCap*p.Orbit.Orbit.Primary.Radius
}

// cannotMeet reports that no sibling encounter is ever possible: the orbit's
// radial band never overlaps the sibling's band padded by its SOI.
func cannotMeet(o *SparseOrbit, sib PlanetChild) bool {
	apo := o.ApoapsisR()
	peri := o.PeriapsisR()
	sibPeri := sib.Orbit.PeriapsisR()
	sibApo := sib.Orbit.ApoapsisR()
	soi := sib.Sys.Primary.SOI
	if apo > 0 && apo < sibPeri-soi {
		return true
	}
	return peri > sibApo+soi && sibApo > 0
}

// Next extends the horizon by one adaptive step, stopping at the first event.
func (p *Propagator) Next(sys *PlanetarySystem) error {
	if p.Horizon.Decided() {
		return nil
	}
	o := &p.Orbit.Orbit
	t1 := p.Horizon.End
	t2 := t1.Add(p.stepSize(sys, t1))
	siblings := sys.Siblings(p.Orbit.Parent)

	// A bound orbit that neither escapes nor can meet any sibling is settled
	// for good.
	if o.Class.IsBound() && !o.WillEscape() && !o.IsSuborbital() {
		all := true
		for _, sib := range siblings {
			if !cannotMeet(o, sib) {
				all = false
				break
			}
		}
		if all {
			p.Horizon = HorizonState{Kind: HorizonIndefinite, End: StampMax}
			return nil
		}
	}

	pv1, err1 := o.PVAt(t1)
	if err1 != nil {
		p.Horizon = HorizonState{Kind: HorizonTerminating, End: t1, Event: Event{Kind: EventNumericalError}}
		return nil
	}

	// Already under the surface: terminate on the spot.
	if pv1.R.Norm() < o.Primary.Radius {
		p.Horizon = HorizonState{Kind: HorizonTerminating, End: t1, Event: Event{Kind: EventCollide}}
		return nil
	}

	// Suborbital descent below every sibling's minimum approach: bisect
	// around the next periapsis for the surface crossing instant.
	belowSiblings := true
	for _, sib := range siblings {
		if pv1.R.Norm() >= sib.Orbit.PeriapsisR()-sib.Sys.Primary.SOI {
			belowSiblings = false
			break
		}
	}
	if o.IsSuborbital() && belowSiblings && pv1.R.Dot(pv1.V) < 0 {
		if t, ok := p.surfaceCrossing(t1); ok {
			p.Horizon = HorizonState{Kind: HorizonTerminating, End: t, Event: Event{Kind: EventCollide}}
			return nil
		}
	}

	pv2, err2 := o.PVAt(t2)
	if err2 != nil {
		p.Horizon = HorizonState{Kind: HorizonTerminating, End: t2, Event: Event{Kind: EventNumericalError}}
		return nil
	}

	// Escape refinement across (t1, t2).
	if o.WillEscape() && o.Primary.SOI > 0 {
		if pv2.R.Norm() > o.Primary.SOI {
			t := t2
			if cross, err := InvertStamp(func(x Stamp) bool {
				pv, e := o.PVAt(x)
				return e == nil && pv.R.Norm() < o.Primary.SOI
			}, t1, t2, nextIntersectionTol); err == nil {
				t = cross
			}
			p.Horizon = HorizonState{Kind: HorizonTransition, End: t, Event: Event{Kind: EventEscape}}
			return nil
		}
	}

	// Encounter refinement per sibling.
	for _, sib := range siblings {
		if cannotMeet(o, sib) {
			continue
		}
		soi := sib.Sys.Primary.SOI
		separation := func(t Stamp) (float64, bool) {
			pv, err := o.PVAt(t)
			if err != nil {
				return 0, false
			}
			sibPV, err := sib.Orbit.PVAt(t)
			if err != nil {
				return 0, false
			}
			return pv.R.Sub(sibPV.R).Norm(), true
		}
		s2, ok := separation(t2)
		if !ok {
			continue
		}
		if s2 < soi {
			t := t2
			if cross, err := InvertStamp(func(x Stamp) bool {
				s, sok := separation(x)
				return sok && s > soi
			}, t1, t2, nextIntersectionTol); err == nil {
				t = cross
			}
			p.Horizon = HorizonState{
				Kind:  HorizonTransition,
				End:   t,
				Event: Event{Kind: EventEncounter, Target: sib.Sys.ID},
			}
			return nil
		}
	}

	p.Horizon = HorizonState{Kind: HorizonContinuing, End: t2}
	return nil
}

// surfaceCrossing bisects for the instant the orbit crosses the primary's
// surface radius, searching from the stamp to the next periapsis.
func (p *Propagator) surfaceCrossing(from Stamp) (Stamp, bool) {
	o := &p.Orbit.Orbit
	peri, ok := o.NextPeriapsis(from)
	if !ok || peri <= from {
		return 0, false
	}
	above := func(t Stamp) bool {
		pv, err := o.PVAt(t)
		return err == nil && pv.R.Norm() > o.Primary.Radius
	}
	t, err := InvertStamp(above, from, peri, nextIntersectionTol)
	if err != nil {
		return 0, false
	}
	return t, true
}

// FinishOrComputeUntil extends the horizon until the segment is decided
// through the stamp.
func (p *Propagator) FinishOrComputeUntil(sys *PlanetarySystem, stamp Stamp) error {
	for !p.Horizon.Decided() && p.Horizon.End < stamp {
		if err := p.Next(sys); err != nil {
			return err
		}
	}
	return nil
}
