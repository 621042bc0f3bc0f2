package sim

import (
	"math"
	"sort"

	"github.com/Ahnafahad/NeonTank-Test-sub000/internal/protocol"
)

// Noise thresholds: changes smaller than these are not worth a wire update
const (
	deltaPosEpsilon   = 0.1
	deltaAngleEpsilon = 0.01
)

// DeltaTracker diffs each tick's full snapshot against the last broadcast
// one and emits a reduced snapshot: changed and new entities plus an
// explicit removed-id list (under partial updates, absence cannot imply
// removal). Obstacles, pickups and hazards are exempt from per-tick diffing
// and are re-sent in full on a slower cadence instead — one dropped removal
// packet for those classes would otherwise desync the client until the
// round ends.
type DeltaTracker struct {
	last *protocol.Snapshot
}

// NewDeltaTracker creates an empty tracker
func NewDeltaTracker() *DeltaTracker {
	return &DeltaTracker{}
}

// Reset forgets the last broadcast snapshot; the next Compress emits a full
// snapshot. Called on round transitions and when a participant (re)joins.
func (d *DeltaTracker) Reset() {
	d.last = nil
}

// Compress produces the snapshot to broadcast for this tick and records
// full as the new diffing baseline. includeStatics forces the static
// collections into a delta snapshot (the periodic full-resend cadence).
func (d *DeltaTracker) Compress(full *protocol.Snapshot, includeStatics bool) protocol.Snapshot {
	if d.last == nil {
		d.last = full
		out := *full
		out.Delta = false
		out.HasStatics = true
		return out
	}
	prev := d.last

	out := protocol.Snapshot{
		Tick:        full.Tick,
		Time:        full.Time,
		Delta:       true,
		Score:       full.Score,
		Round:       full.Round,
		SuddenDeath: full.SuddenDeath,
	}

	// The diffing baseline is the last SENT state per entity, not the last
	// captured one. An entity omitted this tick keeps its old baseline, so
	// sub-epsilon drift accumulates against what the client actually holds
	// and is flushed the moment it crosses the threshold.
	base := &protocol.Snapshot{
		Obstacles: full.Obstacles,
		Pickups:   full.Pickups,
		Hazards:   full.Hazards,
	}

	prevTanks := make(map[string]protocol.TankState, len(prev.Tanks))
	for _, t := range prev.Tanks {
		prevTanks[t.ID] = t
	}
	for _, t := range full.Tanks {
		old, ok := prevTanks[t.ID]
		if !ok || tankChanged(old, t) {
			out.Tanks = append(out.Tanks, t)
			base.Tanks = append(base.Tanks, t)
		} else {
			base.Tanks = append(base.Tanks, old)
		}
		delete(prevTanks, t.ID)
	}
	for id := range prevTanks {
		out.Removed = append(out.Removed, id)
	}

	prevProj := make(map[string]protocol.ProjectileState, len(prev.Projectiles))
	for _, p := range prev.Projectiles {
		prevProj[p.ID] = p
	}
	for _, p := range full.Projectiles {
		old, ok := prevProj[p.ID]
		if !ok || projectileChanged(old, p) {
			out.Projectiles = append(out.Projectiles, p)
			base.Projectiles = append(base.Projectiles, p)
		} else {
			base.Projectiles = append(base.Projectiles, old)
		}
		delete(prevProj, p.ID)
	}
	for id := range prevProj {
		out.Removed = append(out.Removed, id)
	}
	sort.Strings(out.Removed)
	d.last = base

	if includeStatics {
		out.HasStatics = true
		out.Obstacles = full.Obstacles
		out.Pickups = full.Pickups
		out.Hazards = full.Hazards
	}
	return out
}

func tankChanged(old, cur protocol.TankState) bool {
	if math.Abs(cur.X-old.X) > deltaPosEpsilon || math.Abs(cur.Y-old.Y) > deltaPosEpsilon {
		return true
	}
	if math.Abs(cur.VX-old.VX) > deltaPosEpsilon || math.Abs(cur.VY-old.VY) > deltaPosEpsilon {
		return true
	}
	if math.Abs(cur.Heading-old.Heading) > deltaAngleEpsilon {
		return true
	}
	// Discrete state flips always go out
	if cur.HP != old.HP || cur.Ammo != old.Ammo || cur.Alive != old.Alive {
		return true
	}
	if (cur.Reload > 0) != (old.Reload > 0) || (cur.Shield > 0) != (old.Shield > 0) || (cur.Rapid > 0) != (old.Rapid > 0) {
		return true
	}
	return false
}

func projectileChanged(old, cur protocol.ProjectileState) bool {
	return math.Abs(cur.X-old.X) > deltaPosEpsilon || math.Abs(cur.Y-old.Y) > deltaPosEpsilon
}

// ApplyDelta reconstructs the next full snapshot from a base snapshot and a
// received snapshot. A non-delta snapshot replaces the base wholesale. This
// is the client-side inverse of Compress: full(n) == ApplyDelta(full(n-1),
// Compress(full(n))) for the diffed entity classes, with statics converging
// at the next statics cadence.
func ApplyDelta(base *protocol.Snapshot, recv *protocol.Snapshot) *protocol.Snapshot {
	if base == nil || !recv.Delta {
		out := *recv
		out.Delta = false
		return &out
	}

	out := protocol.Snapshot{
		Tick:        recv.Tick,
		Time:        recv.Time,
		Score:       recv.Score,
		Round:       recv.Round,
		SuddenDeath: recv.SuddenDeath,
	}

	removed := make(map[string]bool, len(recv.Removed))
	for _, id := range recv.Removed {
		removed[id] = true
	}

	updatedTanks := make(map[string]protocol.TankState, len(recv.Tanks))
	for _, t := range recv.Tanks {
		updatedTanks[t.ID] = t
	}
	seen := make(map[string]bool)
	for _, t := range base.Tanks {
		if removed[t.ID] {
			continue
		}
		if upd, ok := updatedTanks[t.ID]; ok {
			out.Tanks = append(out.Tanks, upd)
		} else {
			out.Tanks = append(out.Tanks, t)
		}
		seen[t.ID] = true
	}
	for _, t := range recv.Tanks {
		if !seen[t.ID] && !removed[t.ID] {
			out.Tanks = append(out.Tanks, t)
		}
	}

	updatedProj := make(map[string]protocol.ProjectileState, len(recv.Projectiles))
	for _, p := range recv.Projectiles {
		updatedProj[p.ID] = p
	}
	seenProj := make(map[string]bool)
	for _, p := range base.Projectiles {
		if removed[p.ID] {
			continue
		}
		if upd, ok := updatedProj[p.ID]; ok {
			out.Projectiles = append(out.Projectiles, upd)
		} else {
			out.Projectiles = append(out.Projectiles, p)
		}
		seenProj[p.ID] = true
	}
	for _, p := range recv.Projectiles {
		if !seenProj[p.ID] && !removed[p.ID] {
			out.Projectiles = append(out.Projectiles, p)
		}
	}

	if recv.HasStatics {
		out.HasStatics = true
		out.Obstacles = recv.Obstacles
		out.Pickups = recv.Pickups
		out.Hazards = recv.Hazards
	} else {
		out.HasStatics = base.HasStatics
		out.Obstacles = base.Obstacles
		out.Pickups = base.Pickups
		out.Hazards = base.Hazards
	}
	return &out
}
