package game

import "sync"

const inputBufferCap = 64

// Input is one immutable control sample from a client. One Input corresponds
// to one fixed simulation step on both the predicting client and the
// authoritative server, which is what makes input replay deterministic.
type Input struct {
	Seq     uint32
	MoveX   float64 // [-1, 1]
	MoveY   float64 // [-1, 1]
	Fire    bool
	Charge  float64 // [0, 1]
	SentAt  int64   // client clock, unix millis
	FiredAt int64   // fire-press time, 0 when absent
}

// Sanitized clamps out-of-range fields. Malformed input is never rejected;
// it is clamped so a hostile or buggy client cannot crash a tick.
func (in Input) Sanitized() Input {
	in.MoveX = Clamp(in.MoveX, -1, 1)
	in.MoveY = Clamp(in.MoveY, -1, 1)
	in.Charge = Clamp(in.Charge, 0, 1)
	if in.FiredAt < 0 {
		in.FiredAt = 0
	}
	return in
}

// InputBuffer is a bounded FIFO of not-yet-applied inputs for one
// participant. Push is the only session state mutation allowed outside the
// tick (it may race with the tick boundary); Drain happens inside the tick.
type InputBuffer struct {
	mu      sync.Mutex
	pending []Input
	lastSeq uint32
	primed  bool
}

// Push enqueues an input. Duplicate and out-of-order sequence numbers are
// dropped so no input can ever be applied twice; when the buffer is full the
// oldest entry is discarded first.
func (b *InputBuffer) Push(in Input) {
	in = in.Sanitized()

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.primed && in.Seq <= b.lastSeq {
		return
	}
	b.lastSeq = in.Seq
	b.primed = true

	if len(b.pending) >= inputBufferCap {
		b.pending = b.pending[1:]
	}
	b.pending = append(b.pending, in)
}

// Drain removes and returns all buffered inputs in sequence order
func (b *InputBuffer) Drain() []Input {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.pending) == 0 {
		return nil
	}
	out := b.pending
	b.pending = nil
	return out
}

// Len returns the number of buffered inputs
func (b *InputBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}
