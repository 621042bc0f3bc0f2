package game

import "math/rand"

const (
	ArenaWidth  = 1600.0
	ArenaHeight = 1200.0

	mapObstaclePairs = 5
	obstacleMinSize  = 60.0
	obstacleMaxSize  = 140.0
	spawnMargin      = 150.0
	hazardRadius     = 110.0
)

// World holds one round's live entity roster and map geometry. The world is
// rebuilt for every round; the id allocator is shared across rounds so ids
// are never reused within a session.
type World struct {
	W, H float64

	Tanks       map[string]*Tank
	Projectiles map[string]*Projectile
	Obstacles   map[string]*Obstacle
	Pickups     map[string]*Pickup
	Hazards     map[string]*Hazard

	IDs *IDAllocator
	rng *rand.Rand
}

// NewWorld creates a world with map geometry generated from the given seed.
// Identical seeds produce identical maps, which keeps round setup
// deterministic and testable.
func NewWorld(ids *IDAllocator, seed int64) *World {
	w := &World{
		W:           ArenaWidth,
		H:           ArenaHeight,
		Tanks:       make(map[string]*Tank),
		Projectiles: make(map[string]*Projectile),
		Obstacles:   make(map[string]*Obstacle),
		Pickups:     make(map[string]*Pickup),
		Hazards:     make(map[string]*Hazard),
		IDs:         ids,
		rng:         rand.New(rand.NewSource(seed)),
	}
	w.generate()
	return w
}

// NewEmptyWorld creates a world with no generated geometry. The client uses
// it to rebuild local collision geometry from received snapshots.
func NewEmptyWorld() *World {
	return &World{
		W:           ArenaWidth,
		H:           ArenaHeight,
		Tanks:       make(map[string]*Tank),
		Projectiles: make(map[string]*Projectile),
		Obstacles:   make(map[string]*Obstacle),
		Pickups:     make(map[string]*Pickup),
		Hazards:     make(map[string]*Hazard),
		IDs:         &IDAllocator{},
		rng:         rand.New(rand.NewSource(0)),
	}
}

// generate lays out a left/right mirrored obstacle field and a central
// hazard. Mirroring keeps the map fair regardless of assigned side.
func (w *World) generate() {
	for i := 0; i < mapObstaclePairs; i++ {
		bw := obstacleMinSize + w.rng.Float64()*(obstacleMaxSize-obstacleMinSize)
		bh := obstacleMinSize + w.rng.Float64()*(obstacleMaxSize-obstacleMinSize)
		// Left half only, clear of both spawn corners
		x := spawnMargin + bw/2 + w.rng.Float64()*(w.W/2-spawnMargin-bw)
		y := spawnMargin + w.rng.Float64()*(w.H-2*spawnMargin)

		left := NewObstacle(w.IDs.Next("o"), x, y, bw, bh)
		w.Obstacles[left.ID] = left
		right := NewObstacle(w.IDs.Next("o"), w.W-x, w.H-y, bw, bh)
		w.Obstacles[right.ID] = right
	}

	hz := NewHazard(w.IDs.Next("h"), w.W/2, w.H/2, hazardRadius)
	w.Hazards[hz.ID] = hz
}

// SpawnTank places a side's tank at its spawn point
func (w *World) SpawnTank(side int) *Tank {
	x := spawnMargin
	if side == 2 {
		x = w.W - spawnMargin
	}
	t := NewTank(side, x, w.H/2)
	w.Tanks[t.ID] = t
	return t
}

// SpawnPickup places a random pickup at a clear position. Returns nil when
// no clear spot was found after a few attempts.
func (w *World) SpawnPickup() *Pickup {
	kind := w.rng.Intn(pickupKinds)
	for attempt := 0; attempt < 8; attempt++ {
		x := spawnMargin + w.rng.Float64()*(w.W-2*spawnMargin)
		y := spawnMargin + w.rng.Float64()*(w.H-2*spawnMargin)
		if !w.clearAt(x, y, PickupRadius) {
			continue
		}
		p := NewPickup(w.IDs.Next("k"), kind, x, y)
		w.Pickups[p.ID] = p
		return p
	}
	return nil
}

// clearAt reports whether a circle is free of obstacles and hazards
func (w *World) clearAt(x, y, r float64) bool {
	for _, o := range w.Obstacles {
		if o.OverlapsCircle(x, y, r) {
			return false
		}
	}
	for _, h := range w.Hazards {
		if h.Covers(x, y, r) {
			return false
		}
	}
	return true
}

// TankBySide returns the live tank for a side, or nil
func (w *World) TankBySide(side int) *Tank {
	return w.Tanks[TankID(side)]
}

// Opponent returns the other side's tank, or nil
func (w *World) Opponent(side int) *Tank {
	if side == 1 {
		return w.TankBySide(2)
	}
	return w.TankBySide(1)
}
