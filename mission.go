package helio

import (
	"fmt"
	"math"
	"sort"

	kitlog "github.com/go-kit/kit/log"
)

// ControlSignals is the per-tick input bundle from the outer shell.
type ControlSignals struct {
	// GravityOverride scales surface gravity when non-nil (sandbox slider).
	GravityOverride *float64
	// Piloting is direct player input for the piloted vehicle.
	Piloting *VehicleControl
	// Piloted selects which vehicle Piloting applies to.
	Piloted EntityID
	// ToggleMode flips editor/test mode for part updates.
	ToggleMode bool
}

// RemovalNotice reports an orbiter that terminated this tick.
type RemovalNotice struct {
	ID    EntityID
	Event Event
	Orbit SparseOrbit
}

// DefaultHorizon is how far ahead trajectories are kept decided.
const DefaultHorizon = 7 * 24 * 3600 * 1e9 // Stamp ns, 7 days

// Universe owns every simulated entity and advances them in a fixed
// deterministic order, one 25 ms tick at a time.
type Universe struct {
	Name    string
	Horizon Stamp

	stamp Stamp
	ticks uint64

	sys *PlanetarySystem
	ids ObjectIdTracker
	rng *Randomizer

	orbiters  map[EntityID]*Orbiter
	vehicles  map[EntityID]*Vehicle
	bodies    map[EntityID]*RigidBody
	policies  map[EntityID]ControlPolicy
	onSurface map[EntityID]EntityID // vehicle id -> planet id
	surfaces  map[EntityID]*Surface // planet id -> surface
	factories map[EntityID]*Factory
	groups    map[EntityID][]EntityID

	editorMode bool
	logger     kitlog.Logger
}

// NewUniverse builds an empty universe around a planetary system.
func NewUniverse(name string, sys *PlanetarySystem, seed int64, logger kitlog.Logger) *Universe {
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	return &Universe{
		Name:      name,
		Horizon:   DefaultHorizon,
		sys:       sys,
		rng:       NewRandomizer(seed),
		orbiters:  make(map[EntityID]*Orbiter),
		vehicles:  make(map[EntityID]*Vehicle),
		bodies:    make(map[EntityID]*RigidBody),
		policies:  make(map[EntityID]ControlPolicy),
		onSurface: make(map[EntityID]EntityID),
		surfaces:  make(map[EntityID]*Surface),
		factories: make(map[EntityID]*Factory),
		groups:    make(map[EntityID][]EntityID),
		logger:    kitlog.With(logger, "universe", name),
	}
}

// Stamp returns the current simulation time.
func (u *Universe) Stamp() Stamp { return u.stamp }

// Ticks returns how many ticks have run.
func (u *Universe) Ticks() uint64 { return u.ticks }

// System returns the planetary tree.
func (u *Universe) System() *PlanetarySystem { return u.sys }

// Rand returns the universe randomizer.
func (u *Universe) Rand() *Randomizer { return u.rng }

// AddOrbiter registers a free-flying object on the given orbit.
func (u *Universe) AddOrbiter(name string, orbit GlobalOrbit) (EntityID, error) {
	if name == "" {
		name = u.rng.ShipName()
	}
	id := u.ids.Next(KindOrbiter)
	ob := NewOrbiter(id, name, orbit, u.stamp)
	if err := ob.PropagateTo(u.sys, u.stamp, u.Horizon); err != nil {
		return EntityID{}, fmt.Errorf("orbiter %s: %w", name, err)
	}
	u.orbiters[id] = ob
	u.logger.Log("level", "info", "subsys", "scenario", "message", "orbiter added", "id", id, "name", name, "orbit", orbit.Orbit)
	return id, nil
}

// OrbiterIDs returns registered orbiter ids in deterministic order.
func (u *Universe) OrbiterIDs() []EntityID { return sortedIDs(u.orbiters) }

// Orbiter returns a registered orbiter.
func (u *Universe) Orbiter(id EntityID) (*Orbiter, bool) {
	ob, ok := u.orbiters[id]
	return ob, ok
}

// AddVehicle registers a craft resting on a planet's surface.
func (u *Universe) AddVehicle(v *Vehicle, planet EntityID, at Vec2) EntityID {
	id := u.ids.Next(KindVehicle)
	u.vehicles[id] = v
	u.bodies[id] = &RigidBody{PV: PV{R: at}, Angle: math.Pi / 2}
	u.policies[id] = IdlePolicy{}
	u.onSurface[id] = planet
	u.logger.Log("level", "info", "subsys", "scenario", "message", "vehicle added", "id", id, "craft", v.Name, "planet", planet)
	return id
}

// VehicleIDs returns registered vehicle ids in deterministic order.
func (u *Universe) VehicleIDs() []EntityID { return sortedIDs(u.vehicles) }

// Vehicle returns a registered craft.
func (u *Universe) Vehicle(id EntityID) (*Vehicle, bool) {
	v, ok := u.vehicles[id]
	return v, ok
}

// Body returns the rigid-body state of a craft.
func (u *Universe) Body(id EntityID) (*RigidBody, bool) {
	rb, ok := u.bodies[id]
	return rb, ok
}

// AddSurface registers the local environment of a planet.
func (u *Universe) AddSurface(planet EntityID, span float64) (*Surface, error) {
	lk, ok := u.sys.Lookup(planet, u.stamp)
	if !ok {
		return nil, fmt.Errorf("no planet %v in system %s", planet, u.sys.Name)
	}
	s := NewSurface(planet, lk.Body, u.rng, span)
	u.surfaces[planet] = s
	return s, nil
}

// AddFactory registers a production site.
func (u *Universe) AddFactory(f *Factory) EntityID {
	id := u.ids.Next(KindGroup)
	u.factories[id] = f
	return id
}

// Factory returns a registered production site.
func (u *Universe) Factory(id EntityID) (*Factory, bool) {
	f, ok := u.factories[id]
	return f, ok
}

// SetPolicy installs the controller for a vehicle.
func (u *Universe) SetPolicy(id EntityID, p ControlPolicy) {
	if p == nil {
		p = IdlePolicy{}
	}
	u.policies[id] = p
}

// Policy returns the controller for a vehicle.
func (u *Universe) Policy(id EntityID) ControlPolicy {
	return u.policies[id]
}

// StartManeuverPlan puts an orbiter on a burn schedule.
func (u *Universe) StartManeuverPlan(id EntityID, plan ManeuverPlan) error {
	if _, ok := u.orbiters[id]; !ok {
		return fmt.Errorf("no orbiter %v", id)
	}
	u.policies[id] = &ManeuverPolicy{Plan: plan}
	u.logger.Log("level", "info", "subsys", "astro", "message", "plan started", "id", id, "plan", plan)
	return nil
}

// Group binds entity ids under a shared label id.
func (u *Universe) Group(members ...EntityID) EntityID {
	id := u.ids.Next(KindGroup)
	u.groups[id] = append([]EntityID(nil), members...)
	return id
}

// GroupMembers returns the members of a group.
func (u *Universe) GroupMembers(id EntityID) []EntityID {
	return u.groups[id]
}

// LookupOrbiter resolves an orbiter to (name, parent-frame PV, parent id).
func (u *Universe) LookupOrbiter(id EntityID, stamp Stamp) (string, PV, EntityID, error) {
	ob, ok := u.orbiters[id]
	if !ok {
		return "", PV{}, EntityID{}, fmt.Errorf("no orbiter %v", id)
	}
	p := ob.PropagatorAt(stamp)
	if p == nil {
		return "", PV{}, EntityID{}, ErrNoSegment
	}
	pv, err := ob.PVAt(stamp)
	return ob.Name, pv, p.Orbit.Parent, err
}

// LookupPlanet resolves a planet to its body, global PV, parent and subtree.
func (u *Universe) LookupPlanet(id EntityID, stamp Stamp) (PlanetLookup, bool) {
	return u.sys.Lookup(id, stamp)
}

// PropagatorAt returns the orbit segment covering a stamp, if any.
func (u *Universe) PropagatorAt(id EntityID, stamp Stamp) *Propagator {
	ob, ok := u.orbiters[id]
	if !ok {
		return nil
	}
	return ob.PropagatorAt(stamp)
}

// sortedIDs returns map keys in deterministic order.
func sortedIDs[T any](m map[EntityID]T) []EntityID {
	ids := make([]EntityID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if ids[i].Kind != ids[j].Kind {
			return ids[i].Kind < ids[j].Kind
		}
		return ids[i].N < ids[j].N
	})
	return ids
}

// OnSimTick advances the universe by one fixed tick. The mutation order is
// fixed: stamp, trajectories, removals, controllers, vehicles, rigid bodies,
// factories, ambience. Removal notices describe orbiters deleted this tick.
func (u *Universe) OnSimTick(sig ControlSignals) []RemovalNotice {
	u.stamp = u.stamp.AddStamp(TickStep)
	u.ticks++
	dt := TickStep.Secs()
	if sig.ToggleMode {
		u.editorMode = !u.editorMode
		u.logger.Log("level", "info", "subsys", "scenario", "editor", u.editorMode)
	}

	// Trajectories first, so every later observer sees a decided horizon.
	var notices []RemovalNotice
	for _, id := range sortedIDs(u.orbiters) {
		ob := u.orbiters[id]
		if err := ob.PropagateTo(u.sys, u.stamp, u.Horizon); err != nil {
			u.logger.Log("level", "critical", "subsys", "astro", "id", id, "err", err)
		}
		ob.Prune(u.stamp)
	}
	for _, id := range sortedIDs(u.orbiters) {
		ob := u.orbiters[id]
		if ev, done := ob.Terminated(u.stamp); done {
			notices = append(notices, RemovalNotice{ID: id, Event: ev, Orbit: ob.Last().Orbit.Orbit})
			u.logger.Log("level", "notice", "subsys", "scenario", "message", "orbiter removed", "id", id, "name", ob.Name, "event", ev)
			delete(u.orbiters, id)
			delete(u.policies, id)
		}
	}

	// Controllers produce this tick's commands.
	for _, id := range sortedIDs(u.vehicles) {
		v := u.vehicles[id]
		rb := u.bodies[id]
		var ctrl VehicleControl
		if sig.Piloting != nil && sig.Piloted == id {
			ctrl = *sig.Piloting
		} else {
			ctrl = u.policies[id].Control(ControlContext{
				Stamp:   u.stamp,
				Body:    *rb,
				Craft:   v,
				Gravity: u.gravityFor(id, sig),
			})
		}
		v.ApplyControl(ctrl)
	}

	// Burn schedules for on-rails craft.
	for _, id := range sortedIDs(u.orbiters) {
		mp, ok := u.policies[id].(*ManeuverPolicy)
		if !ok {
			continue
		}
		for {
			node, due := mp.Due(u.stamp)
			if !due {
				break
			}
			if err := u.orbiters[id].ScheduleImpulse(node.Stamp, node.Dv); err != nil {
				u.logger.Log("level", "critical", "subsys", "astro", "id", id, "err", err)
				break
			}
			u.logger.Log("level", "info", "subsys", "astro", "id", id, "message", "burn", "Δv(m/s)", node.Dv.Norm())
		}
	}

	// Vehicle part state, then rigid motion against terrain.
	accels := make(map[EntityID]BodyFrameAccel, len(u.vehicles))
	for _, id := range sortedIDs(u.vehicles) {
		accels[id] = u.vehicles[id].Tick(dt, u.editorMode, u.rng)
	}
	for _, id := range sortedIDs(u.bodies) {
		rb := u.bodies[id]
		g := u.gravityFor(id, sig)
		if s, ok := u.surfaces[u.onSurface[id]]; ok {
			if m := u.vehicles[id].CurrentMass(); m > 0 {
				g = g.Add(s.Wind().Scale(1 / m))
			}
		}
		rb.Integrate(dt, accels[id], g)
		if s, ok := u.surfaces[u.onSurface[id]]; ok {
			rb.ContactGround(dt, s.Elevation(rb.PV.R.X))
		}
	}

	for _, id := range sortedIDs(u.factories) {
		u.factories[id].StepTo(u.stamp)
	}
	for _, id := range sortedIDs(u.surfaces) {
		u.surfaces[id].StepAmbience(dt)
	}
	return notices
}

// gravityFor returns the ambient gravity acting on a surface vehicle.
func (u *Universe) gravityFor(id EntityID, sig ControlSignals) Vec2 {
	s, ok := u.surfaces[u.onSurface[id]]
	if !ok {
		return Vec2{}
	}
	g := s.Gravity()
	if sig.GravityOverride != nil {
		g = g.Scale(*sig.GravityOverride)
	}
	return g
}
