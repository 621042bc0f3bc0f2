package game

const ObstacleMaxHP = 40

// Obstacle is a destructible axis-aligned block. X,Y is the center.
type Obstacle struct {
	ID   string
	X, Y float64
	W, H float64
	HP   int
}

// NewObstacle creates an obstacle at full health
func NewObstacle(id string, x, y, w, h float64) *Obstacle {
	return &Obstacle{ID: id, X: x, Y: y, W: w, H: h, HP: ObstacleMaxHP}
}

// Damage reduces HP and returns true when the obstacle is destroyed
func (o *Obstacle) Damage(dmg int) bool {
	o.HP -= dmg
	if o.HP <= 0 {
		o.HP = 0
		return true
	}
	return false
}

// OverlapsCircle checks whether a circle intersects the block
func (o *Obstacle) OverlapsCircle(x, y, r float64) bool {
	cx := Clamp(x, o.X-o.W/2, o.X+o.W/2)
	cy := Clamp(y, o.Y-o.H/2, o.Y+o.H/2)
	dx := x - cx
	dy := y - cy
	return dx*dx+dy*dy <= r*r
}

// ResolveCircle pushes a circle out of the block along the shallowest axis.
// Returns the corrected position and whether a correction happened.
func (o *Obstacle) ResolveCircle(x, y, r float64) (float64, float64, bool) {
	if !o.OverlapsCircle(x, y, r) {
		return x, y, false
	}
	left := (x + r) - (o.X - o.W/2)
	right := (o.X + o.W/2) - (x - r)
	top := (y + r) - (o.Y - o.H/2)
	bottom := (o.Y + o.H/2) - (y - r)

	min := left
	nx, ny := x-left, y
	if right < min {
		min = right
		nx, ny = x+right, y
	}
	if top < min {
		min = top
		nx, ny = x, y-top
	}
	if bottom < min {
		nx, ny = x, y+bottom
	}
	return nx, ny, true
}
