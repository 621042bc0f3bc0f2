package game

import "github.com/Ahnafahad/NeonTank-Test-sub000/internal/protocol"

const HazardDPS = 15.0 // HP per second inside the zone

// Hazard is a static circular damage zone. Hazards are part of the round's
// map geometry; they never move and never expire within a round.
type Hazard struct {
	ID     string
	X, Y   float64
	Radius float64
	DPS    float64
}

// NewHazard creates a hazard zone
func NewHazard(id string, x, y, radius float64) *Hazard {
	return &Hazard{ID: id, X: x, Y: y, Radius: radius, DPS: HazardDPS}
}

// Covers checks whether a circle intersects the zone
func (h *Hazard) Covers(x, y, r float64) bool {
	return CircleOverlap(h.X, h.Y, h.Radius, x, y, r)
}

// ToState converts to protocol state
func (h *Hazard) ToState() protocol.HazardState {
	return protocol.HazardState{ID: h.ID, X: h.X, Y: h.Y, Radius: h.Radius, DPS: h.DPS}
}
