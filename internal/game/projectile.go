package game

import (
	"math"

	"github.com/Ahnafahad/NeonTank-Test-sub000/internal/protocol"
)

const (
	ProjectileRadius       = 4.0
	ProjectileBaseSpeed    = 260.0 // units/s at zero charge
	ProjectileChargeSpeed  = 160.0 // extra speed at full charge
	ProjectileBaseDamage   = 20
	ProjectileChargeDamage = 40 // extra damage at full charge
	ProjectileLifetime     = 3.0
	ProjectileOffset       = 24.0 // spawn distance from tank center
)

// Projectile is one shell in flight
type Projectile struct {
	ID        string
	Owner     string
	OwnerSide int
	X, Y      float64
	VX, VY    float64
	Heading   float64
	Damage    int
	Life      float64
	Alive     bool
	RewindMs  int64 // lag-compensation rewind for this shot's hit tests
}

// NewProjectile spawns a shell from a tank's position and heading. charge
// scales speed and damage; rewindMs is the shooter's perceived-time offset
// captured at fire time.
func NewProjectile(id string, t *Tank, charge float64, rewindMs int64) *Projectile {
	charge = Clamp(charge, 0, 1)
	speed := ProjectileBaseSpeed + charge*ProjectileChargeSpeed
	cos := math.Cos(t.Heading)
	sin := math.Sin(t.Heading)
	return &Projectile{
		ID:        id,
		Owner:     t.ID,
		OwnerSide: t.Side,
		X:         t.X + cos*ProjectileOffset,
		Y:         t.Y + sin*ProjectileOffset,
		VX:        cos * speed,
		VY:        sin * speed,
		Heading:   t.Heading,
		Damage:    ProjectileBaseDamage + int(charge*ProjectileChargeDamage),
		Life:      ProjectileLifetime,
		Alive:     true,
		RewindMs:  rewindMs,
	}
}

// Step moves the projectile one step. Shells die on the arena walls.
func (p *Projectile) Step(dt float64, w *World) {
	if !p.Alive {
		return
	}
	p.X += p.VX * dt
	p.Y += p.VY * dt
	p.Life -= dt

	if p.Life <= 0 || p.X < 0 || p.X > w.W || p.Y < 0 || p.Y > w.H {
		p.Alive = false
	}
}

// ToState converts to protocol state
func (p *Projectile) ToState() protocol.ProjectileState {
	return protocol.ProjectileState{
		ID:      p.ID,
		Owner:   p.Owner,
		X:       p.X,
		Y:       p.Y,
		VX:      p.VX,
		VY:      p.VY,
		Heading: p.Heading,
		Damage:  p.Damage,
	}
}
