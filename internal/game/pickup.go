package game

import "github.com/Ahnafahad/NeonTank-Test-sub000/internal/protocol"

// Pickup kinds
const (
	PickupHealth = 0
	PickupShield = 1
	PickupRapid  = 2
	pickupKinds  = 3
)

const (
	PickupRadius  = 14.0
	PickupHeal    = 30
	PickupTimeout = 20.0 // seconds before an uncollected pickup despawns
)

// Pickup is a collectible power-up
type Pickup struct {
	ID    string
	Kind  int
	X, Y  float64
	Life  float64
	Alive bool
}

// NewPickup creates a pickup of the given kind
func NewPickup(id string, kind int, x, y float64) *Pickup {
	return &Pickup{ID: id, Kind: kind % pickupKinds, X: x, Y: y, Life: PickupTimeout, Alive: true}
}

// Step ticks down the pickup lifetime
func (p *Pickup) Step(dt float64) {
	if !p.Alive {
		return
	}
	p.Life -= dt
	if p.Life <= 0 {
		p.Alive = false
	}
}

// Apply grants the pickup's effect to a tank and consumes the pickup
func (p *Pickup) Apply(t *Tank) {
	switch p.Kind {
	case PickupHealth:
		t.Heal(PickupHeal)
	case PickupShield:
		t.ShieldT = ShieldDuration
	case PickupRapid:
		t.RapidT = RapidDuration
	}
	p.Alive = false
}

// ToState converts to protocol state
func (p *Pickup) ToState() protocol.PickupState {
	return protocol.PickupState{ID: p.ID, Kind: p.Kind, X: p.X, Y: p.Y}
}
