package client

import (
	"github.com/Ahnafahad/NeonTank-Test-sub000/internal/game"
	"github.com/Ahnafahad/NeonTank-Test-sub000/internal/protocol"
)

const (
	interpMinDelayMs   = 50.0
	interpMaxDelayMs   = 250.0
	interpJitterFactor = 1.5  // render delay as a multiple of the smoothed arrival gap
	interpDelaySmooth  = 0.1  // low-pass weight for delay adjustments
	interpGapSmooth    = 0.2  // low-pass weight for the arrival-gap estimate
	extrapolateMaxMs   = 250.0
	interpBufferCap    = 64
)

type remoteSample struct {
	recvAt  int64 // local receipt clock, unix millis
	x, y    float64
	vx, vy  float64
	heading float64
}

// RemotePose is a rendered position for the remote tank
type RemotePose struct {
	X, Y    float64
	Heading float64
	// Extrapolated marks a dead-reckoned pose (no bracketing snapshots)
	Extrapolated bool
}

// RemoteInterpolator smooths the other player's motion by rendering it a
// short, adaptive delay in the past, interpolating between the two buffered
// snapshots bracketing that instant. When snapshots stop arriving it
// dead-reckons forward from the last known velocity for a bounded window,
// then holds the latest known state rather than extrapolating forever.
type RemoteInterpolator struct {
	buf     []remoteSample
	gapMs   float64 // smoothed inter-arrival gap
	delayMs float64 // current render delay
	lastAt  int64   // previous arrival time
}

// NewRemoteInterpolator creates an interpolator with the minimum delay
func NewRemoteInterpolator() *RemoteInterpolator {
	return &RemoteInterpolator{delayMs: interpMinDelayMs}
}

// Observe buffers a received remote-tank state stamped with the local
// receipt time and retunes the adaptive delay from the observed jitter.
// The delay is low-passed so delay changes cannot themselves cause stutter.
func (ri *RemoteInterpolator) Observe(nowMs int64, s protocol.TankState) {
	if ri.lastAt > 0 {
		gap := float64(nowMs - ri.lastAt)
		if ri.gapMs == 0 {
			ri.gapMs = gap
		} else {
			ri.gapMs += (gap - ri.gapMs) * interpGapSmooth
		}
		target := game.Clamp(ri.gapMs*interpJitterFactor, interpMinDelayMs, interpMaxDelayMs)
		ri.delayMs += (target - ri.delayMs) * interpDelaySmooth
	}
	ri.lastAt = nowMs

	ri.buf = append(ri.buf, remoteSample{
		recvAt: nowMs, x: s.X, y: s.Y, vx: s.VX, vy: s.VY, heading: s.Heading,
	})
	if len(ri.buf) > interpBufferCap {
		ri.buf = ri.buf[1:]
	}
}

// Delay returns the current adaptive render delay in milliseconds
func (ri *RemoteInterpolator) Delay() float64 {
	return ri.delayMs
}

// Sample renders the remote pose for the given local time. Returns false
// when nothing has been observed yet.
func (ri *RemoteInterpolator) Sample(nowMs int64) (RemotePose, bool) {
	if len(ri.buf) == 0 {
		return RemotePose{}, false
	}
	renderAt := nowMs - int64(ri.delayMs)

	// Bracketing pair around the render timestamp
	for i := 0; i < len(ri.buf)-1; i++ {
		a, b := &ri.buf[i], &ri.buf[i+1]
		if a.recvAt <= renderAt && renderAt <= b.recvAt {
			ri.trim(i)
			a, b = &ri.buf[0], &ri.buf[1]
			span := float64(b.recvAt - a.recvAt)
			alpha := 0.0
			if span > 0 {
				alpha = float64(renderAt-ri.buf[0].recvAt) / span
			}
			return RemotePose{
				X: a.x + (b.x-a.x)*alpha,
				Y: a.y + (b.y-a.y)*alpha,
				// Orientation snaps to the newer sample so aim never lags
				// behind the projectile spawn angle
				Heading: b.heading,
			}, true
		}
	}

	last := ri.buf[len(ri.buf)-1]
	if renderAt <= ri.buf[0].recvAt {
		// Buffer still filling; hold the oldest known state
		first := ri.buf[0]
		return RemotePose{X: first.x, Y: first.y, Heading: first.heading}, true
	}

	// Burst loss: dead-reckon from the newest sample, bounded
	ahead := float64(renderAt - last.recvAt)
	if ahead > extrapolateMaxMs {
		return RemotePose{X: last.x, Y: last.y, Heading: last.heading}, true
	}
	dt := ahead / 1000.0
	return RemotePose{
		X:            last.x + last.vx*dt,
		Y:            last.y + last.vy*dt,
		Heading:      last.heading,
		Extrapolated: true,
	}, true
}

// trim drops samples older than the current interpolation lower bound
func (ri *RemoteInterpolator) trim(lower int) {
	if lower > 0 {
		ri.buf = ri.buf[lower:]
	}
}
