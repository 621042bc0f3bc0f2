package game

import "strconv"

// IDAllocator hands out opaque entity ids from a monotonic counter. An id is
// assigned once at creation and never recomputed or reused within a session,
// so clients can rely on id stability across snapshots. The allocator lives
// for the whole session and is shared across rounds.
type IDAllocator struct {
	n uint64
}

// Next returns the next id with the given one-letter kind prefix
func (a *IDAllocator) Next(prefix string) string {
	a.n++
	return prefix + strconv.FormatUint(a.n, 10)
}

// TankID returns the fixed id for a side's tank. Tanks are the one entity
// class that is logically the same object across rounds, so they keep the
// same id when the entity set is rebuilt — a fresh id per round would make
// the client treat the respawn as a new entity and flicker.
func TankID(side int) string {
	if side == 1 {
		return "tank1"
	}
	return "tank2"
}
