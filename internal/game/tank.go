package game

import (
	"math"

	"github.com/Ahnafahad/NeonTank-Test-sub000/internal/protocol"
)

const (
	TankRadius   = 18.0
	TankMaxHP    = 100
	TankAccel    = 900.0 // units/s²
	TankMaxSpeed = 240.0 // units/s
	TankFriction = 0.90  // velocity multiplier per step
	TankTurn     = 10.0  // radians/s max turn rate
	TankMaxAmmo  = 6
	FireCooldown = 0.5 // seconds between shots
	ReloadTime   = 2.0 // seconds to refill an empty magazine

	ShieldDuration = 5.0
	ShieldFactor   = 0.5 // damage multiplier while shielded
	RapidDuration  = 5.0
	RapidFactor    = 0.5 // cooldown multiplier while rapid is active
)

// Shot records a fire request produced by a tank step, consumed by the
// simulator (which spawns the projectile) or dropped by the client predictor.
type Shot struct {
	Charge  float64
	FiredAt int64 // client press time, unix millis; 0 when absent
}

// Tank is one side's tank
type Tank struct {
	ID       string
	Side     int
	X, Y     float64
	VX, VY   float64
	Heading  float64
	HP       int
	Ammo     int
	Alive    bool
	FireCD   float64 // fire cooldown remaining
	ReloadT  float64 // reload remaining, 0 when magazine is not empty
	ShieldT  float64 // shield effect remaining
	RapidT   float64 // rapid-fire effect remaining
	pending  []Shot
	burnAcc  float64 // fractional hazard damage carried between ticks
}

// NewTank creates a tank for a side at the given spawn position
func NewTank(side int, x, y float64) *Tank {
	heading := 0.0
	if side == 2 {
		heading = math.Pi
	}
	return &Tank{
		ID:      TankID(side),
		Side:    side,
		X:       x,
		Y:       y,
		Heading: heading,
		HP:      TankMaxHP,
		Ammo:    TankMaxAmmo,
		Alive:   true,
	}
}

// Step advances the tank by one fixed step under the given input. The same
// function runs on the authoritative server and inside the client predictor;
// it must stay deterministic — no wall clock, no global randomness.
func (t *Tank) Step(in Input, dt float64, w *World) {
	if !t.Alive {
		return
	}
	in = in.Sanitized()

	mx, my := in.MoveX, in.MoveY
	mag := math.Sqrt(mx*mx + my*my)
	if mag > 1 {
		mx /= mag
		my /= mag
		mag = 1
	}

	if mag > 0 {
		t.Heading = TurnToward(t.Heading, math.Atan2(my, mx), TankTurn*dt)
		t.VX += mx * TankAccel * dt
		t.VY += my * TankAccel * dt
	}

	t.VX *= TankFriction
	t.VY *= TankFriction

	speed := math.Sqrt(t.VX*t.VX + t.VY*t.VY)
	if speed > TankMaxSpeed {
		scale := TankMaxSpeed / speed
		t.VX *= scale
		t.VY *= scale
	}

	t.X += t.VX * dt
	t.Y += t.VY * dt

	// Arena walls are solid, not wrapping
	t.X = Clamp(t.X, TankRadius, w.W-TankRadius)
	t.Y = Clamp(t.Y, TankRadius, w.H-TankRadius)

	for _, o := range w.Obstacles {
		if nx, ny, hit := o.ResolveCircle(t.X, t.Y, TankRadius); hit {
			t.X, t.Y = nx, ny
		}
	}

	t.tickTimers(dt)

	if in.Fire && t.CanFire() {
		t.Ammo--
		cd := FireCooldown
		if t.RapidT > 0 {
			cd *= RapidFactor
		}
		t.FireCD = cd
		if t.Ammo == 0 {
			t.ReloadT = ReloadTime
		}
		t.pending = append(t.pending, Shot{Charge: in.Charge, FiredAt: in.FiredAt})
	}
}

func (t *Tank) tickTimers(dt float64) {
	if t.FireCD > 0 {
		t.FireCD -= dt
	}
	if t.ReloadT > 0 {
		t.ReloadT -= dt
		if t.ReloadT <= 0 {
			t.ReloadT = 0
			t.Ammo = TankMaxAmmo
		}
	}
	if t.ShieldT > 0 {
		t.ShieldT -= dt
	}
	if t.RapidT > 0 {
		t.RapidT -= dt
	}
}

// CanFire reports whether a fire intent would produce a shot right now
func (t *Tank) CanFire() bool {
	return t.Alive && t.FireCD <= 0 && t.Ammo > 0 && t.ReloadT <= 0
}

// TakeShot pops the oldest pending fire request
func (t *Tank) TakeShot() (Shot, bool) {
	if len(t.pending) == 0 {
		return Shot{}, false
	}
	s := t.pending[0]
	t.pending = t.pending[1:]
	return s, true
}

// DropShots discards pending fire requests (the client predictor does not
// spawn authoritative projectiles)
func (t *Tank) DropShots() {
	t.pending = t.pending[:0]
}

// TakeDamage reduces HP, honoring an active shield, and returns true if the
// tank was destroyed
func (t *Tank) TakeDamage(dmg int) bool {
	if !t.Alive {
		return false
	}
	if t.ShieldT > 0 {
		dmg = int(math.Ceil(float64(dmg) * ShieldFactor))
	}
	t.HP -= dmg
	if t.HP <= 0 {
		t.HP = 0
		t.Alive = false
		return true
	}
	return false
}

// Burn accumulates fractional hazard damage and applies it in whole points.
// Returns true if the tank was destroyed.
func (t *Tank) Burn(amount float64) bool {
	if !t.Alive {
		return false
	}
	t.burnAcc += amount
	if t.burnAcc < 1 {
		return false
	}
	whole := int(t.burnAcc)
	t.burnAcc -= float64(whole)
	return t.TakeDamage(whole)
}

// Heal restores HP up to the maximum
func (t *Tank) Heal(amount int) {
	if !t.Alive {
		return
	}
	t.HP += amount
	if t.HP > TankMaxHP {
		t.HP = TankMaxHP
	}
}

// ToState converts to protocol state
func (t *Tank) ToState() protocol.TankState {
	return protocol.TankState{
		ID:      t.ID,
		Side:    t.Side,
		X:       t.X,
		Y:       t.Y,
		VX:      t.VX,
		VY:      t.VY,
		Heading: t.Heading,
		HP:      t.HP,
		Ammo:    t.Ammo,
		Reload:  t.ReloadT,
		Alive:   t.Alive,
		Shield:  t.ShieldT,
		Rapid:   t.RapidT,
	}
}

// ApplyState overwrites the tank from protocol state (client side)
func (t *Tank) ApplyState(s protocol.TankState) {
	t.ID = s.ID
	t.Side = s.Side
	t.X = s.X
	t.Y = s.Y
	t.VX = s.VX
	t.VY = s.VY
	t.Heading = s.Heading
	t.applyServerFields(s)
}

// applyServerFields adopts the non-positional, server-authoritative fields
func (t *Tank) applyServerFields(s protocol.TankState) {
	t.HP = s.HP
	t.Ammo = s.Ammo
	t.ReloadT = s.Reload
	t.Alive = s.Alive
	t.ShieldT = s.Shield
	t.RapidT = s.Rapid
}

// AdoptServerFields is the below-threshold reconciliation path: position and
// heading stay predicted, everything the server owns is copied over.
func (t *Tank) AdoptServerFields(s protocol.TankState) {
	t.applyServerFields(s)
}
