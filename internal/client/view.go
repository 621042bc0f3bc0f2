package client

import (
	"github.com/Ahnafahad/NeonTank-Test-sub000/internal/game"
	"github.com/Ahnafahad/NeonTank-Test-sub000/internal/protocol"
	"github.com/Ahnafahad/NeonTank-Test-sub000/internal/sim"
)

// WorldView is the client's reconstructed authoritative state: full
// snapshots replace it, delta snapshots are applied on top of it. It is the
// single source the predictor, reconciler and interpolator read from.
type WorldView struct {
	snap     *protocol.Snapshot
	TickRate int
	Acks     map[string]uint32
}

// NewWorldView creates an empty view
func NewWorldView() *WorldView {
	return &WorldView{}
}

// Apply folds a received state message into the view and returns the
// reconstructed full snapshot. Snapshots older than the current view are
// discarded (the tick counter is monotonic; late packets carry stale state).
func (v *WorldView) Apply(msg *protocol.StateMsg) *protocol.Snapshot {
	if v.snap != nil && msg.Snap.Tick <= v.snap.Tick {
		return v.snap
	}
	v.snap = sim.ApplyDelta(v.snap, &msg.Snap)
	if msg.TickRate > 0 {
		v.TickRate = msg.TickRate
	}
	if msg.Acks != nil {
		v.Acks = msg.Acks
	}
	return v.snap
}

// Current returns the latest reconstructed snapshot, or nil
func (v *WorldView) Current() *protocol.Snapshot {
	return v.snap
}

// LastAck returns the server's last-applied input sequence for a participant
func (v *WorldView) LastAck(participantID string) uint32 {
	return v.Acks[participantID]
}

// CollisionWorld builds local collision geometry from the view's statics
// for use by the predictor. Only obstacles matter for movement prediction.
func (v *WorldView) CollisionWorld() *game.World {
	w := game.NewEmptyWorld()
	if v.snap == nil {
		return w
	}
	for _, o := range v.snap.Obstacles {
		w.Obstacles[o.ID] = &game.Obstacle{ID: o.ID, X: o.X, Y: o.Y, W: o.W, H: o.H, HP: o.HP}
	}
	return w
}
