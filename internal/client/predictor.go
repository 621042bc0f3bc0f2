package client

import (
	"github.com/Ahnafahad/NeonTank-Test-sub000/internal/game"
	"github.com/Ahnafahad/NeonTank-Test-sub000/internal/protocol"
)

const predictionHistoryCap = 128

// predictedStep records one applied input and the position it produced,
// keyed by the input's sequence number
type predictedStep struct {
	input game.Input
	x, y  float64
}

// Predictor applies the local player's input to a local copy of their tank
// immediately, before any server acknowledgment, using the same step
// function as the authoritative simulator. Local control therefore feels
// instantaneous regardless of round-trip time; the reconciler later
// corrects whatever the server disagrees with.
type Predictor struct {
	Tank  *game.Tank
	World *game.World

	dt      float64
	history []predictedStep
}

// NewPredictor creates a predictor stepping at the server tick rate
func NewPredictor(tickRate int) *Predictor {
	return &Predictor{
		dt:    1.0 / float64(tickRate),
		World: game.NewEmptyWorld(),
	}
}

// Reset initializes the predicted tank and collision geometry from a full
// snapshot (join, round start)
func (p *Predictor) Reset(state protocol.TankState, world *game.World) {
	t := &game.Tank{}
	t.ApplyState(state)
	p.Tank = t
	if world != nil {
		p.World = world
	}
	p.history = p.history[:0]
}

// SetWorld swaps the local collision geometry (statics resync)
func (p *Predictor) SetWorld(world *game.World) {
	p.World = world
}

// Apply steps the predicted tank with one input and records the outcome.
// History is bounded; the oldest entry is dropped first.
func (p *Predictor) Apply(in game.Input) {
	if p.Tank == nil {
		return
	}
	p.Tank.Step(in, p.dt, p.World)
	p.Tank.DropShots() // projectiles are authoritative-only

	if len(p.history) >= predictionHistoryCap {
		p.history = p.history[1:]
	}
	p.history = append(p.history, predictedStep{input: in, x: p.Tank.X, y: p.Tank.Y})
}

// PruneAcked drops history up to and including the server's
// last-acknowledged sequence number
func (p *Predictor) PruneAcked(seq uint32) {
	i := 0
	for i < len(p.history) && p.history[i].input.Seq <= seq {
		i++
	}
	if i > 0 {
		p.history = p.history[i:]
	}
}

// Unacked returns the inputs with sequence numbers greater than seq, in
// order, for replay after a snap correction
func (p *Predictor) Unacked(seq uint32) []game.Input {
	var out []game.Input
	for _, h := range p.history {
		if h.input.Seq > seq {
			out = append(out, h.input)
		}
	}
	return out
}

// Replay re-applies inputs on top of the current tank state, rebuilding the
// prediction after a snap, and rewrites the recorded outcomes
func (p *Predictor) Replay(inputs []game.Input) {
	p.history = p.history[:0]
	for _, in := range inputs {
		p.Apply(in)
	}
}

// HistoryLen returns the number of unacknowledged recorded steps
func (p *Predictor) HistoryLen() int {
	return len(p.history)
}
