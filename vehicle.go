package helio

import (
	"errors"
	"math"
	"sort"

	kitlog "github.com/go-kit/kit/log"
)

// ThrustAxisControl commands the thrusters whose exhaust faces one cardinal.
type ThrustAxisControl struct {
	UseRCS   bool
	Throttle float64 // [0, 1]
}

// VehicleControl is one tick's worth of commands for a vehicle: one control
// per cardinal axis plus a signed attitude torque demand.
type VehicleControl struct {
	Axes     [4]ThrustAxisControl // indexed by Rotation
	Attitude float64              // [-1, 1], positive is counterclockwise
}

// BodyFrameAccel is the net acceleration a vehicle produces in its own frame.
type BodyFrameAccel struct {
	Linear  Vec2    // m/s²
	Angular float64 // rad/s²
}

// ErrPartOverlap rejects a placement that collides on its layer.
var ErrPartOverlap = errors.New("part overlaps an existing part on its layer")

// Vehicle is a named assembly of parts on a pixel grid, plus the pipe cells
// that carry fluids between them.
type Vehicle struct {
	Name  string
	Gains PDGains

	parts    map[PartID]*InstantiatedPart
	pipes    map[GridPos]bool
	nextPart PartID
	logger   kitlog.Logger

	// Derived quantities, recomputed when the structure changes.
	dirty      bool
	mass       float64
	fuelMass   float64
	com        Vec2
	moi        float64
	boundR     float64
	axisThrust [4]float64
	groups     []PipeGroup
}

// PipeGroup is a connected component of pipe cells with the parts it touches.
type PipeGroup struct {
	Cells []GridPos
	Parts []PartID
}

// NewVehicle returns an empty vehicle.
func NewVehicle(name string, logger kitlog.Logger) *Vehicle {
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	return &Vehicle{
		Name:   name,
		Gains:  DefaultGains(),
		parts:  make(map[PartID]*InstantiatedPart),
		pipes:  make(map[GridPos]bool),
		logger: kitlog.With(logger, "craft", name),
	}
}

// AddPart places a prototype, rejecting overlap within the same layer.
func (v *Vehicle) AddPart(proto *PartPrototype, origin GridPos, rot Rotation) (PartID, error) {
	candidate := NewPart(proto, origin, rot)
	for _, existing := range v.parts {
		if existing.Proto.Layer == proto.Layer && existing.Overlaps(candidate) {
			return 0, ErrPartOverlap
		}
	}
	v.nextPart++
	id := v.nextPart
	v.parts[id] = candidate
	v.dirty = true
	return id, nil
}

// RemovePart removes a part by id.
func (v *Vehicle) RemovePart(id PartID) bool {
	if _, ok := v.parts[id]; !ok {
		return false
	}
	delete(v.parts, id)
	v.dirty = true
	return true
}

// PartAt finds the part covering a cell on a layer.
func (v *Vehicle) PartAt(cell GridPos, layer PartLayer) (PartID, bool) {
	for id, p := range v.parts {
		if p.Proto.Layer != layer {
			continue
		}
		w, h := p.Extent()
		if cell.X >= p.Origin.X && cell.X < p.Origin.X+w &&
			cell.Y >= p.Origin.Y && cell.Y < p.Origin.Y+h {
			return id, true
		}
	}
	return 0, false
}

// RemovePartAt removes the part covering a cell on a layer.
func (v *Vehicle) RemovePartAt(cell GridPos, layer PartLayer) bool {
	id, ok := v.PartAt(cell, layer)
	if !ok {
		return false
	}
	return v.RemovePart(id)
}

// Part returns a placed part by id.
func (v *Vehicle) Part(id PartID) *InstantiatedPart {
	return v.parts[id]
}

// PartIDs returns the placed part ids in ascending order.
func (v *Vehicle) PartIDs() []PartID {
	ids := make([]PartID, 0, len(v.parts))
	for id := range v.parts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// AddPipe adds a fluid cell. Pipes occupy cells independently of parts.
func (v *Vehicle) AddPipe(cell GridPos) {
	if !v.pipes[cell] {
		v.pipes[cell] = true
		v.dirty = true
	}
}

// RemovePipe removes a fluid cell.
func (v *Vehicle) RemovePipe(cell GridPos) {
	if v.pipes[cell] {
		delete(v.pipes, cell)
		v.dirty = true
	}
}

// PipeCells returns the pipe cells in deterministic order.
func (v *Vehicle) PipeCells() []GridPos {
	cells := make([]GridPos, 0, len(v.pipes))
	for c := range v.pipes {
		cells = append(cells, c)
	}
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].X != cells[j].X {
			return cells[i].X < cells[j].X
		}
		return cells[i].Y < cells[j].Y
	})
	return cells
}

// RotateCraft turns the whole assembly 90° counterclockwise about the grid
// origin.
func (v *Vehicle) RotateCraft() {
	for _, p := range v.parts {
		_, h := p.Extent()
		p.Origin = GridPos{-p.Origin.Y - h, p.Origin.X}
		p.Rot = p.Rot.CCW()
	}
	rotated := make(map[GridPos]bool, len(v.pipes))
	for c := range v.pipes {
		rotated[GridPos{-c.Y - 1, c.X}] = true
	}
	v.pipes = rotated
	v.dirty = true
}

// Normalize shifts every part so the bounding box is centered on the origin.
func (v *Vehicle) Normalize() {
	if len(v.parts) == 0 {
		return
	}
	minX, minY := math.MaxInt32, math.MaxInt32
	maxX, maxY := math.MinInt32, math.MinInt32
	for _, p := range v.parts {
		w, h := p.Extent()
		minX = min(minX, p.Origin.X)
		minY = min(minY, p.Origin.Y)
		maxX = max(maxX, p.Origin.X+w)
		maxY = max(maxY, p.Origin.Y+h)
	}
	dx := -(minX + maxX) / 2
	dy := -(minY + maxY) / 2
	for _, p := range v.parts {
		p.Origin.X += dx
		p.Origin.Y += dy
	}
	shifted := make(map[GridPos]bool, len(v.pipes))
	for c := range v.pipes {
		shifted[GridPos{c.X + dx, c.Y + dy}] = true
	}
	v.pipes = shifted
	v.dirty = true
}

// refresh recomputes the derived aggregate quantities.
func (v *Vehicle) refresh() {
	if !v.dirty {
		return
	}
	v.dirty = false
	v.mass, v.fuelMass = 0, 0
	var weighted Vec2
	for _, p := range v.parts {
		m := p.CurrentMass()
		v.mass += m
		weighted = weighted.Add(p.Center().Scale(m))
		if p.Proto.Class == ClassTank {
			v.fuelMass += p.FuelKg
		}
	}
	if v.mass > 0 {
		v.com = weighted.Scale(1 / v.mass)
	} else {
		v.com = Vec2{}
	}
	v.moi = 0
	v.boundR = 0
	for _, p := range v.parts {
		d := p.Center().Sub(v.com).Norm()
		v.moi += p.CurrentMass() * d * d
		for _, corner := range p.Corners() {
			if r := corner.Norm(); r > v.boundR {
				v.boundR = r
			}
		}
	}
	for axis := East; axis <= South; axis++ {
		v.axisThrust[axis] = 0
	}
	for _, p := range v.parts {
		if p.Proto.Class == ClassThruster && p.Built() {
			v.axisThrust[p.Rot] += p.Proto.Thruster.MaxThrust
		}
	}
	v.groups = v.computePipeGroups()
}

// computePipeGroups finds connected components of pipe cells and the parts
// whose footprints touch each component.
func (v *Vehicle) computePipeGroups() []PipeGroup {
	seen := make(map[GridPos]bool, len(v.pipes))
	var groups []PipeGroup
	for _, start := range v.PipeCells() {
		if seen[start] {
			continue
		}
		var cells []GridPos
		queue := []GridPos{start}
		seen[start] = true
		for len(queue) > 0 {
			c := queue[0]
			queue = queue[1:]
			cells = append(cells, c)
			for _, n := range [4]GridPos{{c.X + 1, c.Y}, {c.X - 1, c.Y}, {c.X, c.Y + 1}, {c.X, c.Y - 1}} {
				if v.pipes[n] && !seen[n] {
					seen[n] = true
					queue = append(queue, n)
				}
			}
		}
		group := PipeGroup{Cells: cells}
		for _, id := range v.PartIDs() {
			p := v.parts[id]
			if v.partTouchesCells(p, cells) {
				group.Parts = append(group.Parts, id)
			}
		}
		groups = append(groups, group)
	}
	return groups
}

func (v *Vehicle) partTouchesCells(p *InstantiatedPart, cells []GridPos) bool {
	w, h := p.Extent()
	for _, c := range cells {
		if c.X >= p.Origin.X-1 && c.X <= p.Origin.X+w &&
			c.Y >= p.Origin.Y-1 && c.Y <= p.Origin.Y+h {
			return true
		}
	}
	return false
}

// PipeGroups returns the current connectivity groups.
func (v *Vehicle) PipeGroups() []PipeGroup {
	v.refresh()
	return v.groups
}

// CurrentMass returns the total mass including fluids and cargo.
func (v *Vehicle) CurrentMass() float64 {
	v.refresh()
	return v.mass
}

// DryMass returns the mass with all tanks empty.
func (v *Vehicle) DryMass() float64 {
	v.refresh()
	return v.mass - v.fuelMass
}

// FuelMass returns the carried fluid mass.
func (v *Vehicle) FuelMass() float64 {
	v.refresh()
	return v.fuelMass
}

// CenterOfMass returns the mass-weighted center in meters from the origin.
func (v *Vehicle) CenterOfMass() Vec2 {
	v.refresh()
	return v.com
}

// MomentOfInertia returns the point-mass moment about the center of mass.
func (v *Vehicle) MomentOfInertia() float64 {
	v.refresh()
	return v.moi
}

// BoundingRadius returns the largest part-corner distance from the origin.
func (v *Vehicle) BoundingRadius() float64 {
	v.refresh()
	return v.boundR
}

// AABB returns the axis-aligned bounds in meters from the origin.
func (v *Vehicle) AABB() (lo, hi Vec2) {
	first := true
	for _, p := range v.parts {
		for _, c := range p.Corners() {
			if first {
				lo, hi = c, c
				first = false
				continue
			}
			lo.X = math.Min(lo.X, c.X)
			lo.Y = math.Min(lo.Y, c.Y)
			hi.X = math.Max(hi.X, c.X)
			hi.Y = math.Max(hi.Y, c.Y)
		}
	}
	return lo, hi
}

// MaxThrustAlongAxis returns the thrust available from thrusters whose
// exhaust faces the given cardinal; the craft accelerates the opposite way.
func (v *Vehicle) MaxThrustAlongAxis(axis Rotation) float64 {
	v.refresh()
	return v.axisThrust[axis]
}

// MaxThrustAlong returns the total thrust projected onto an arbitrary
// body-frame heading.
func (v *Vehicle) MaxThrustAlong(heading Vec2) float64 {
	v.refresh()
	u := heading.Unit()
	total := 0.0
	for axis := East; axis <= South; axis++ {
		dir := axis.Vec().Scale(-1) // thrust opposes exhaust
		if d := dir.Dot(u); d > 0 {
			total += d * v.axisThrust[axis]
		}
	}
	return total
}

// MaxLinearAccel returns the best acceleration along the craft nose (-X
// exhaust, i.e. thrusters facing West push the nose... thrusters facing East
// push along -X). The nose convention is +X, so forward thrust comes from
// exhaust facing West.
func (v *Vehicle) MaxLinearAccel() float64 {
	m := v.CurrentMass()
	if m == 0 {
		return 0
	}
	return v.MaxThrustAlongAxis(West) / m
}

// RemainingDv applies the rocket equation with the mean exhaust velocity of
// the non-RCS thrusters.
func (v *Vehicle) RemainingDv() float64 {
	var veSum float64
	var n int
	for _, p := range v.parts {
		if p.Proto.Class == ClassThruster && !p.Proto.Thruster.IsRCS {
			veSum += p.Proto.Thruster.ExhaustVel
			n++
		}
	}
	if n == 0 {
		return 0
	}
	ve := veSum / float64(n)
	dry := v.DryMass()
	if dry <= 0 {
		return 0
	}
	return ve * math.Log(v.CurrentMass()/dry)
}

// FuelRate returns the current total propellant consumption in kg/s.
func (v *Vehicle) FuelRate() float64 {
	rate := 0.0
	for _, p := range v.parts {
		if p.Proto.Class == ClassThruster && p.Proto.Thruster.ExhaustVel > 0 {
			rate += p.CurrentThrust / p.Proto.Thruster.ExhaustVel
		}
	}
	return rate
}

// ApplyControl distributes an axis/attitude command to the individual parts.
func (v *Vehicle) ApplyControl(ctrl VehicleControl) {
	v.refresh()
	for _, p := range v.parts {
		switch p.Proto.Class {
		case ClassThruster:
			cmd := ctrl.Axes[p.Rot]
			throttle := 0.0
			if p.Proto.Thruster.IsRCS {
				if cmd.UseRCS {
					throttle = cmd.Throttle
				}
				// An RCS jet joins the attitude command when its lever arm
				// torques the right way.
				lever := p.Center().Sub(v.com)
				tdir := p.Rot.Vec().Scale(-1)
				if ctrl.Attitude != 0 && sign(lever.Cross(tdir)) == sign(ctrl.Attitude) {
					throttle += math.Abs(ctrl.Attitude)
				}
			} else if !cmd.UseRCS {
				throttle = cmd.Throttle
			}
			p.Throttle = clamp(throttle, 0, 1)
		case ClassMagnetorquer:
			p.Torque = clamp(ctrl.Attitude, -1, 1) * p.Proto.Magnetorquer.MaxTorque
		}
	}
}

// Tick advances part instance state by dt seconds and returns the body-frame
// acceleration the craft currently produces. Propellant is drained from the
// tanks at the summed thruster rate.
func (v *Vehicle) Tick(dt float64, editorMode bool, rng *Randomizer) BodyFrameAccel {
	for _, id := range v.PartIDs() {
		v.parts[id].tick(dt, editorMode, rng)
	}
	v.drainFuel(v.FuelRate() * dt)
	v.dirty = true
	v.refresh()
	if v.fuelMass == 0 {
		v.flameOut()
	}

	var accel BodyFrameAccel
	if v.mass == 0 {
		return accel
	}
	for _, p := range v.parts {
		switch p.Proto.Class {
		case ClassThruster:
			tdir := p.Rot.Vec().Scale(-1)
			accel.Linear = accel.Linear.Add(tdir.Scale(p.CurrentThrust / v.mass))
			if v.moi > 0 {
				lever := p.Center().Sub(v.com)
				accel.Angular += lever.Cross(tdir) * p.CurrentThrust / v.moi
			}
		case ClassMagnetorquer:
			if v.moi > 0 {
				accel.Angular += p.Torque / v.moi
			}
		}
	}
	return accel
}

// flameOut shuts down every fuel-consuming thruster. Dry tanks mean no
// thrust; magnetorquers are unaffected.
func (v *Vehicle) flameOut() {
	for _, p := range v.parts {
		if p.Proto.Class == ClassThruster && p.Proto.Thruster.ExhaustVel > 0 {
			p.Throttle = 0
			p.CurrentThrust = 0
		}
	}
}

// drainFuel removes propellant mass evenly from the non-empty tanks.
func (v *Vehicle) drainFuel(kg float64) {
	if kg <= 0 {
		return
	}
	var tanks []*InstantiatedPart
	for _, p := range v.parts {
		if p.Proto.Class == ClassTank && p.FuelKg > 0 {
			tanks = append(tanks, p)
		}
	}
	if len(tanks) == 0 {
		return
	}
	each := kg / float64(len(tanks))
	for _, t := range tanks {
		t.FuelKg = math.Max(0, t.FuelKg-each)
	}
}
