package sim

import "github.com/Ahnafahad/NeonTank-Test-sub000/internal/game"

// PastPos is one entity's recorded position at a past tick
type PastPos struct {
	X, Y    float64
	Heading float64
}

type historyFrame struct {
	time int64 // server clock, unix millis
	pos  map[string]PastPos
}

// History is a bounded ring buffer of per-tick tank positions used for
// lag-compensated hit testing. It retains roughly the last second of ticks;
// a rewind can never read past the retention window, and a lookup with no
// usable history reports a miss so the caller falls back to current state.
type History struct {
	frames []historyFrame
	head   int // next write slot
	size   int
}

// NewHistory creates a history retaining the given number of ticks
func NewHistory(ticks int) *History {
	if ticks < 1 {
		ticks = 1
	}
	return &History{frames: make([]historyFrame, ticks)}
}

// Record stores the current tank positions stamped with the server clock
func (h *History) Record(timeMs int64, w *game.World) {
	pos := make(map[string]PastPos, len(w.Tanks))
	for id, t := range w.Tanks {
		pos[id] = PastPos{X: t.X, Y: t.Y, Heading: t.Heading}
	}
	h.frames[h.head] = historyFrame{time: timeMs, pos: pos}
	h.head = (h.head + 1) % len(h.frames)
	if h.size < len(h.frames) {
		h.size++
	}
}

// At returns the recorded position of an entity closest in time to timeMs.
// Returns false when no frame within the retention window covers the entity
// (cold session, entity spawned later) — the caller must then test against
// the current position instead.
func (h *History) At(id string, timeMs int64) (PastPos, bool) {
	var best PastPos
	bestDelta := int64(-1)
	for i := 0; i < h.size; i++ {
		f := &h.frames[i]
		p, ok := f.pos[id]
		if !ok {
			continue
		}
		delta := f.time - timeMs
		if delta < 0 {
			delta = -delta
		}
		if bestDelta < 0 || delta < bestDelta {
			bestDelta = delta
			best = p
		}
	}
	return best, bestDelta >= 0
}

// Oldest returns the timestamp of the oldest retained frame, or 0 when empty
func (h *History) Oldest() int64 {
	if h.size == 0 {
		return 0
	}
	if h.size < len(h.frames) {
		return h.frames[0].time
	}
	return h.frames[h.head].time
}

// Reset drops all recorded frames (fresh round, fresh history)
func (h *History) Reset() {
	h.head = 0
	h.size = 0
}

// Len returns the number of retained frames
func (h *History) Len() int {
	return h.size
}
