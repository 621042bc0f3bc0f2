package protocol

// TankState is the wire form of one tank
type TankState struct {
	ID      string  `json:"id"`
	Side    int     `json:"side"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	VX      float64 `json:"vx"`
	VY      float64 `json:"vy"`
	Heading float64 `json:"h"`
	HP      int     `json:"hp"`
	Ammo    int     `json:"am"`
	Reload  float64 `json:"rl,omitempty"` // seconds until reload completes
	Alive   bool    `json:"a"`
	Shield  float64 `json:"sh,omitempty"` // shield effect seconds remaining
	Rapid   float64 `json:"rp,omitempty"` // rapid-fire effect seconds remaining
}

// ProjectileState is the wire form of one shell
type ProjectileState struct {
	ID      string  `json:"id"`
	Owner   string  `json:"o"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	VX      float64 `json:"vx"`
	VY      float64 `json:"vy"`
	Heading float64 `json:"h"`
	Damage  int     `json:"dm"`
}

// ObstacleState is the wire form of one destructible block
type ObstacleState struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	W  float64 `json:"w"`
	H  float64 `json:"ht"`
	HP int     `json:"hp"`
}

// PickupState is the wire form of one pickup
type PickupState struct {
	ID   string  `json:"id"`
	Kind int     `json:"k"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// HazardState is the wire form of one hazard zone
type HazardState struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"r"`
	DPS    float64 `json:"d"`
}

// Snapshot is the serialized state of a session at one tick.
//
// A full snapshot (Delta=false) carries every entity and implies removal of
// anything absent. A delta snapshot carries only entities that changed since
// the last broadcast plus explicit Removed ids; absence implies nothing.
// Obstacles, pickups and hazards are exempt from per-tick diffing: they are
// carried only when HasStatics is set, on a slower full-resend cadence.
type Snapshot struct {
	Tick        uint64            `json:"tk"`
	Time        int64             `json:"tm"` // server clock, unix millis
	Delta       bool              `json:"dl,omitempty"`
	Tanks       []TankState       `json:"tn,omitempty"`
	Projectiles []ProjectileState `json:"pj,omitempty"`
	Removed     []string          `json:"rm,omitempty"`
	HasStatics  bool              `json:"hs,omitempty"`
	Obstacles   []ObstacleState   `json:"ob,omitempty"`
	Pickups     []PickupState     `json:"pk,omitempty"`
	Hazards     []HazardState     `json:"hz,omitempty"`
	Score       [2]int            `json:"sc"`
	Round       int               `json:"rd"`
	SuddenDeath bool              `json:"sd,omitempty"`
}

// StateMsg is the per-tick server broadcast: a snapshot plus the
// per-participant last-applied input sequence map and the tick rate.
type StateMsg struct {
	Snap     Snapshot          `json:"s"`
	Acks     map[string]uint32 `json:"ak,omitempty"`
	TickRate int               `json:"tr"`
}

// FindTank returns the tank with the given id, or nil
func (s *Snapshot) FindTank(id string) *TankState {
	for i := range s.Tanks {
		if s.Tanks[i].ID == id {
			return &s.Tanks[i]
		}
	}
	return nil
}

// TankBySide returns the tank on the given side, or nil
func (s *Snapshot) TankBySide(side int) *TankState {
	for i := range s.Tanks {
		if s.Tanks[i].Side == side {
			return &s.Tanks[i]
		}
	}
	return nil
}
