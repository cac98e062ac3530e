package helio

import (
	"errors"
	"fmt"
)

// Orbiter is an in-space craft: an ordered list of trajectory segments.
// Adjacent segments share their endpoint stamp; at any covered stamp exactly
// one segment is active; the last segment carries the most advanced known
// future.
type Orbiter struct {
	ID    EntityID
	Name  string
	Props []Propagator
}

// ErrNoSegment is returned when no propagator covers a stamp.
var ErrNoSegment = errors.New("no trajectory segment at stamp")

// NewOrbiter spawns an orbiter on the given orbit.
func NewOrbiter(id EntityID, name string, orbit GlobalOrbit, start Stamp) *Orbiter {
	return &Orbiter{
		ID:    id,
		Name:  name,
		Props: []Propagator{NewPropagator(orbit, start)},
	}
}

// PropagatorAt returns the segment active at the stamp.
func (ob *Orbiter) PropagatorAt(stamp Stamp) *Propagator {
	for i := range ob.Props {
		if ob.Props[i].Covers(stamp) {
			return &ob.Props[i]
		}
	}
	return nil
}

// Last returns the most advanced segment.
func (ob *Orbiter) Last() *Propagator {
	if len(ob.Props) == 0 {
		return nil
	}
	return &ob.Props[len(ob.Props)-1]
}

// PVAt returns the craft's state in its parent frame at the stamp.
func (ob *Orbiter) PVAt(stamp Stamp) (PV, error) {
	p := ob.PropagatorAt(stamp)
	if p == nil {
		return PV{}, ErrNoSegment
	}
	return p.Orbit.Orbit.PVAt(stamp)
}

// GlobalPVAt returns the craft's state in the root frame at the stamp.
func (ob *Orbiter) GlobalPVAt(sys *PlanetarySystem, stamp Stamp) (PV, error) {
	p := ob.PropagatorAt(stamp)
	if p == nil {
		return PV{}, ErrNoSegment
	}
	local, err := p.Orbit.Orbit.PVAt(stamp)
	if err != nil {
		return PV{}, err
	}
	parent, ok := sys.Lookup(p.Orbit.Parent, stamp)
	if !ok {
		return PV{}, fmt.Errorf("unknown parent %s", p.Orbit.Parent)
	}
	return parent.PV.Add(local), nil
}

// Terminated returns the terminal event if the trajectory ends at or before
// the stamp.
func (ob *Orbiter) Terminated(stamp Stamp) (Event, bool) {
	last := ob.Last()
	if last == nil {
		return Event{}, false
	}
	h := last.Horizon
	if h.Kind == HorizonTerminating && h.End <= stamp {
		return h.Event, true
	}
	return Event{}, false
}

// PropagateTo advances the cached trajectory so it is decided through
// stamp+horizon, appending new segments at transitions.
func (ob *Orbiter) PropagateTo(sys *PlanetarySystem, stamp Stamp, horizon Stamp) error {
	target := stamp.AddStamp(horizon)
	for {
		last := ob.Last()
		if last == nil {
			return ErrNoSegment
		}
		if err := last.FinishOrComputeUntil(sys, target); err != nil {
			return err
		}
		h := last.Horizon
		if h.Kind != HorizonTransition || h.End >= target {
			return nil
		}
		next, ok := ob.transition(sys, last)
		if !ok {
			// Reframing failed; the segment becomes terminal.
			last.Horizon = HorizonState{
				Kind:  HorizonTerminating,
				End:   h.End,
				Event: Event{Kind: EventNumericalError},
			}
			return nil
		}
		ob.Props = append(ob.Props, next)
	}
}

// transition builds the follow-on segment of a decided transition, re-framed
// into the new parent.
func (ob *Orbiter) transition(sys *PlanetarySystem, p *Propagator) (Propagator, bool) {
	t := p.Horizon.End
	ev := p.Horizon.Event
	local, err := p.Orbit.Orbit.PVAt(t)
	if err != nil {
		return Propagator{}, false
	}

	var newParent EntityID
	var newPV PV
	switch ev.Kind {
	case EventEscape:
		cur, ok := sys.Lookup(p.Orbit.Parent, t)
		if !ok || cur.Parent.IsZero() {
			return Propagator{}, false
		}
		grand, ok := sys.Lookup(cur.Parent, t)
		if !ok {
			return Propagator{}, false
		}
		// Current parent's state in the grandparent frame.
		rel := cur.PV.Sub(grand.PV)
		newParent = cur.Parent
		newPV = local.Add(rel)
	case EventEncounter:
		child, ok := sys.Lookup(ev.Target, t)
		if !ok {
			return Propagator{}, false
		}
		parent, ok := sys.Lookup(p.Orbit.Parent, t)
		if !ok {
			return Propagator{}, false
		}
		rel := child.PV.Sub(parent.PV)
		newParent = ev.Target
		newPV = local.Sub(rel)
	case EventImpulse:
		newParent = p.Orbit.Parent
		newPV = PV{local.R, local.V.Add(ev.Dv)}
	default:
		return Propagator{}, false
	}

	parentBody, ok := sys.Lookup(newParent, t)
	if !ok {
		return Propagator{}, false
	}
	orbit, err := NewOrbitFromPV(newPV, parentBody.Body, t)
	if err != nil {
		return Propagator{}, false
	}
	return NewPropagator(GlobalOrbit{newParent, orbit}, t), true
}

// ScheduleImpulse truncates the trajectory at the stamp with a commanded
// burn, so the following segment starts with velocity changed by dv.
func (ob *Orbiter) ScheduleImpulse(stamp Stamp, dv Vec2) error {
	p := ob.PropagatorAt(stamp)
	if p == nil {
		return ErrNoSegment
	}
	// Drop any segment beyond the burn; they describe a future that no
	// longer happens.
	for i := range ob.Props {
		if &ob.Props[i] == p {
			ob.Props = ob.Props[:i+1]
			break
		}
	}
	p.Horizon = HorizonState{
		Kind:  HorizonTransition,
		End:   stamp,
		Event: Event{Kind: EventImpulse, Dv: dv},
	}
	return nil
}

// Prune drops leading segments that ended before the stamp.
func (ob *Orbiter) Prune(stamp Stamp) {
	for len(ob.Props) > 1 {
		first := &ob.Props[0]
		if first.Horizon.Kind == HorizonTransition && first.Horizon.End < stamp {
			ob.Props = ob.Props[1:]
			continue
		}
		break
	}
}
