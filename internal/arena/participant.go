package arena

import (
	"time"

	"github.com/Ahnafahad/NeonTank-Test-sub000/internal/game"
	"github.com/Ahnafahad/NeonTank-Test-sub000/internal/protocol"
)

// latencyEWMA is the smoothing weight of a new RTT sample
const latencyEWMA = 0.2

// maxSaneRTTMs clamps latency probe samples (a hostile pong cannot buy an
// unbounded rewind)
const maxSaneRTTMs = 2000

// Broadcaster delivers messages to one connected client. The transport
// implements it; tests use mocks.
type Broadcaster interface {
	SendJSON(msg interface{})
	SendBinary(data []byte)
}

// Participant is one identity bound to a session and a side. Inputs is the
// only field written outside the session tick; everything else is mutated
// under the session lock.
type Participant struct {
	ID   string
	Name string
	Side int

	Inputs game.InputBuffer

	LatencyMs int64  // smoothed round-trip estimate
	LastAck   uint32 // highest input sequence applied by the simulator

	Connected bool
	LeftAt    time.Time // set when Connected drops

	client Broadcaster
}

// PushInput appends a raw input message to the participant's buffer. This
// is the one session mutation allowed outside the tick; the buffer's own
// lock makes it safe relative to the tick boundary and nothing else is
// touched.
func (p *Participant) PushInput(msg protocol.InputMsg) {
	p.Inputs.Push(game.Input{
		Seq:     msg.Seq,
		MoveX:   msg.MoveX,
		MoveY:   msg.MoveY,
		Fire:    msg.Fire,
		Charge:  msg.Charge,
		SentAt:  msg.SentAt,
		FiredAt: msg.FiredAt,
	})
}

// ObserveRTT folds a latency probe sample into the smoothed estimate
func (p *Participant) ObserveRTT(rttMs int64) {
	if rttMs < 0 {
		rttMs = 0
	}
	if rttMs > maxSaneRTTMs {
		rttMs = maxSaneRTTMs
	}
	if p.LatencyMs == 0 {
		p.LatencyMs = rttMs
		return
	}
	p.LatencyMs = int64(float64(p.LatencyMs)*(1-latencyEWMA) + float64(rttMs)*latencyEWMA)
}

// Send delivers a JSON message if a client is attached
func (p *Participant) Send(msg interface{}) {
	if p.client != nil {
		p.client.SendJSON(msg)
	}
}

// SendBinary delivers a binary frame if a client is attached
func (p *Participant) SendBinary(data []byte) {
	if p.client != nil {
		p.client.SendBinary(data)
	}
}
