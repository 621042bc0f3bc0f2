package sim

import (
	"math"
	"math/rand"
	"sort"

	"github.com/Ahnafahad/NeonTank-Test-sub000/internal/game"
	"github.com/Ahnafahad/NeonTank-Test-sub000/internal/protocol"
)

// maxPressAgeMs bounds how far a client-reported fire-press age can push
// the rewind (input-range sanity, not cheat-proofing)
const maxPressAgeMs = 300

// TickInput is one participant's drained input batch for a tick
type TickInput struct {
	Side      int
	Inputs    []game.Input
	LatencyMs int64
}

// TickResult is what one simulation step reports back to the scheduler
type TickResult struct {
	// Applied maps side -> highest input sequence number applied this tick.
	// Sides with no newly applied input are absent.
	Applied map[int]uint32
	// Dead marks sides whose tank was destroyed this tick (index 0 = side 1)
	Dead [2]bool
}

// Simulator advances one session's world by exactly one fixed step per Tick
// call. It owns no goroutine and takes no locks: the scheduler guarantees
// single-threaded tick execution, and determinism follows from fixed dt,
// ordered input application and the seeded world RNG.
type Simulator struct {
	World       *game.World
	History     *History
	grid        *SpatialGrid
	queryBuf    []EntityRef
	pickupTimer float64

	// PickupInterval seconds between pickup spawns; 0 disables spawning
	PickupInterval float64
}

// NewSimulator creates a simulator over a world with the given lag
// compensation window in ticks
func NewSimulator(w *game.World, historyTicks int) *Simulator {
	return &Simulator{
		World:   w,
		History: NewHistory(historyTicks),
		grid:    NewSpatialGrid(w.W, w.H),
	}
}

// SetWorld swaps in a fresh world for a new round. History is dropped with
// the old entities so no rewind can touch freed state.
func (s *Simulator) SetWorld(w *game.World) {
	s.World = w
	s.History.Reset()
	s.pickupTimer = 0
}

// Tick runs one fixed step: input application in sequence order, entity
// stepping, collision and lag-compensated hit resolution, pickups and
// hazards. nowMs stamps the history frame; suddenDeath doubles hazard
// damage. Gameplay logic itself never reads the wall clock.
func (s *Simulator) Tick(dt float64, nowMs int64, batches []TickInput, suddenDeath bool) TickResult {
	res := TickResult{Applied: make(map[int]uint32)}
	w := s.World

	// Apply each participant's unseen inputs oldest-first; one input is one
	// fixed step, matching the client predictor exactly. No buffered input
	// means an idle step so timers still advance.
	for _, batch := range batches {
		t := w.TankBySide(batch.Side)
		if t == nil {
			continue
		}
		if len(batch.Inputs) == 0 {
			t.Step(game.Input{}, dt, w)
			continue
		}
		for _, in := range batch.Inputs {
			t.Step(in, dt, w)
			res.Applied[batch.Side] = in.Seq
			// Shots spawn from the pose the firing input produced, not the
			// pose after the rest of the batch
			s.spawnShots(w, t, batch.LatencyMs, in.SentAt)
		}
	}

	for _, p := range w.Projectiles {
		p.Step(dt, w)
	}

	s.rebuildGrid()
	s.resolveHits(nowMs)

	// Fixed side order: a pickup both tanks overlap must go to the same
	// tank on every run
	for side := 1; side <= 2; side++ {
		t := w.TankBySide(side)
		if t == nil || !t.Alive {
			continue
		}
		for _, pk := range w.Pickups {
			if pk.Alive && game.CircleOverlap(pk.X, pk.Y, game.PickupRadius, t.X, t.Y, game.TankRadius) {
				pk.Apply(t)
			}
		}
		for _, hz := range w.Hazards {
			if hz.Covers(t.X, t.Y, game.TankRadius) {
				dps := hz.DPS
				if suddenDeath {
					dps *= 2
				}
				t.Burn(dps * dt)
			}
		}
	}

	for id, p := range w.Projectiles {
		if !p.Alive {
			delete(w.Projectiles, id)
		}
	}
	for id, pk := range w.Pickups {
		pk.Step(dt)
		if !pk.Alive {
			delete(w.Pickups, id)
		}
	}

	if s.PickupInterval > 0 {
		s.pickupTimer += dt
		if s.pickupTimer >= s.PickupInterval {
			s.pickupTimer -= s.PickupInterval
			w.SpawnPickup()
		}
	}

	for side := 1; side <= 2; side++ {
		if t := w.TankBySide(side); t != nil && !t.Alive {
			res.Dead[side-1] = true
		}
	}

	s.History.Record(nowMs, w)
	return res
}

// spawnShots turns a tank's pending fire requests into projectiles. The
// rewind depth is the shooter's perceived-time offset: half the measured RTT
// plus the clamped age of the fire press relative to the input that carried
// it. sentAt comes from the same input, never from the client's absolute
// clock alone.
func (s *Simulator) spawnShots(w *game.World, t *game.Tank, latencyMs, sentAt int64) {
	for {
		shot, ok := t.TakeShot()
		if !ok {
			return
		}
		rewind := latencyMs / 2
		if shot.FiredAt > 0 && sentAt > 0 {
			if age := sentAt - shot.FiredAt; age > 0 {
				if age > maxPressAgeMs {
					age = maxPressAgeMs
				}
				rewind += age
			}
		}
		p := game.NewProjectile(w.IDs.Next("p"), t, shot.Charge, rewind)
		w.Projectiles[p.ID] = p
	}
}

// rebuildGrid re-indexes the obstacle field from scratch
func (s *Simulator) rebuildGrid() {
	s.grid.Clear()
	for id, o := range s.World.Obstacles {
		// Half-diagonal, so corner cells are covered too
		s.grid.InsertCircle(o.X, o.Y, math.Hypot(o.W, o.H)/2, EntityRef{Kind: 'o', ID: id})
	}
}

// resolveHits tests every live projectile against nearby obstacles and both
// tanks. Obstacles come from the spatial grid; tanks are tested directly
// because a lag-compensated target is checked at its rewound position,
// which can be arbitrarily far from the cell it currently occupies. Tank
// hits rewind to the shooter's perceived time (now − latency/2 − press
// age), falling back to the current position when no history covers that
// instant.
func (s *Simulator) resolveHits(nowMs int64) {
	w := s.World
	// Id order, not map order: when two shells contend for the same target
	// the outcome must not depend on map iteration.
	ids := make([]string, 0, len(w.Projectiles))
	for id := range w.Projectiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		p := w.Projectiles[id]
		if !p.Alive {
			continue
		}
		s.queryBuf = s.grid.QueryBuf(p.X, p.Y, game.ProjectileRadius, s.queryBuf[:0])
		for _, ref := range s.queryBuf {
			o, ok := w.Obstacles[ref.ID]
			if !ok {
				continue
			}
			if o.OverlapsCircle(p.X, p.Y, game.ProjectileRadius) {
				p.Alive = false
				if o.Damage(p.Damage) {
					delete(w.Obstacles, ref.ID)
				}
				break
			}
		}
		if !p.Alive {
			continue
		}
		for id, t := range w.Tanks {
			if !t.Alive || t.Side == p.OwnerSide {
				continue
			}
			tx, ty := t.X, t.Y
			if p.RewindMs > 0 {
				if past, ok := s.History.At(id, nowMs-p.RewindMs); ok {
					tx, ty = past.X, past.Y
				}
			}
			if game.CircleOverlap(p.X, p.Y, game.ProjectileRadius, tx, ty, game.TankRadius) {
				p.Alive = false
				t.TakeDamage(p.Damage)
				break
			}
		}
	}
}

// Capture serializes the current world into a full snapshot
func (s *Simulator) Capture(tick uint64, nowMs int64, score [2]int, round int, suddenDeath bool) *protocol.Snapshot {
	w := s.World
	snap := &protocol.Snapshot{
		Tick:        tick,
		Time:        nowMs,
		Score:       score,
		Round:       round,
		SuddenDeath: suddenDeath,
	}
	for side := 1; side <= 2; side++ {
		if t := w.TankBySide(side); t != nil {
			snap.Tanks = append(snap.Tanks, t.ToState())
		}
	}
	for _, p := range w.Projectiles {
		snap.Projectiles = append(snap.Projectiles, p.ToState())
	}
	for _, o := range w.Obstacles {
		snap.Obstacles = append(snap.Obstacles, protocol.ObstacleState{
			ID: o.ID, X: o.X, Y: o.Y, W: o.W, H: o.H, HP: o.HP,
		})
	}
	for _, pk := range w.Pickups {
		snap.Pickups = append(snap.Pickups, pk.ToState())
	}
	for _, hz := range w.Hazards {
		snap.Hazards = append(snap.Hazards, hz.ToState())
	}
	sortSnapshot(snap)
	return snap
}

// sortSnapshot orders entity slices by id so capture output is stable for a
// given world state regardless of map iteration order
func sortSnapshot(s *protocol.Snapshot) {
	sortByID(s.Projectiles, func(p protocol.ProjectileState) string { return p.ID })
	sortByID(s.Obstacles, func(o protocol.ObstacleState) string { return o.ID })
	sortByID(s.Pickups, func(p protocol.PickupState) string { return p.ID })
	sortByID(s.Hazards, func(h protocol.HazardState) string { return h.ID })
}

func sortByID[T any](items []T, id func(T) string) {
	sort.Slice(items, func(i, j int) bool { return id(items[i]) < id(items[j]) })
}

// RandomSide picks side 1 or 2 uniformly using the provided source (the
// time-limit tiebreak of last resort)
func RandomSide(rng *rand.Rand) int {
	return 1 + rng.Intn(2)
}
