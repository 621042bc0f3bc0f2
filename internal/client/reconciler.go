package client

import (
	"math"

	"github.com/Ahnafahad/NeonTank-Test-sub000/internal/game"
	"github.com/Ahnafahad/NeonTank-Test-sub000/internal/protocol"
)

const (
	// Position error below this is noise: keep the prediction, adopt only
	// the server-authoritative fields
	reconcileIgnore = 5.0
	// Position error above this snaps to server state and replays
	// unacknowledged inputs
	reconcileSnap = 200.0
	// Fraction of the remaining error corrected per frame in the blend band
	reconcileBlend = 0.2
	// Below this remaining error a blend is considered converged
	blendDone = 0.25
)

// Reconciler compares server-confirmed state for the local tank against the
// prediction and corrects divergence: ignore small error, blend medium
// error smoothly, snap-and-replay large error.
type Reconciler struct {
	pred *Predictor

	blending bool
	targetX  float64
	targetY  float64
	targetH  float64
}

// NewReconciler creates a reconciler over a predictor
func NewReconciler(pred *Predictor) *Reconciler {
	return &Reconciler{pred: pred}
}

// OnServerState processes an authoritative update for the local tank.
// lastAck is the server's last-applied input sequence for this participant;
// prediction history is pruned up to it on every update.
func (r *Reconciler) OnServerState(s protocol.TankState, lastAck uint32) {
	t := r.pred.Tank
	if t == nil {
		r.pred.Reset(s, nil)
		return
	}
	r.pred.PruneAcked(lastAck)

	dx := t.X - s.X
	dy := t.Y - s.Y
	err := math.Sqrt(dx*dx + dy*dy)

	switch {
	case err <= reconcileIgnore:
		r.blending = false
		t.AdoptServerFields(s)

	case err <= reconcileSnap:
		t.AdoptServerFields(s)
		r.blending = true
		r.targetX = s.X
		r.targetY = s.Y
		r.targetH = s.Heading

	default:
		// Visible jump, but recoverable: rebuild the prediction on top of
		// the corrected baseline
		r.blending = false
		replay := r.pred.Unacked(lastAck)
		t.ApplyState(s)
		r.pred.Replay(replay)
	}
}

// Smooth advances an active blend by one frame: the remaining error shrinks
// by a fixed fraction, monotonically, and can never overshoot the server
// value. Call once per render frame.
func (r *Reconciler) Smooth() {
	if !r.blending || r.pred.Tank == nil {
		return
	}
	t := r.pred.Tank
	t.X += (r.targetX - t.X) * reconcileBlend
	t.Y += (r.targetY - t.Y) * reconcileBlend
	t.Heading = game.NormalizeAngle(t.Heading + game.NormalizeAngle(r.targetH-t.Heading)*reconcileBlend)

	dx := r.targetX - t.X
	dy := r.targetY - t.Y
	if dx*dx+dy*dy < blendDone*blendDone {
		r.blending = false
	}
}

// Blending reports whether a smooth correction is in progress
func (r *Reconciler) Blending() bool {
	return r.blending
}
