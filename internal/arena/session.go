package arena

import (
	"math/rand"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Ahnafahad/NeonTank-Test-sub000/internal/config"
	"github.com/Ahnafahad/NeonTank-Test-sub000/internal/game"
	"github.com/Ahnafahad/NeonTank-Test-sub000/internal/protocol"
	"github.com/Ahnafahad/NeonTank-Test-sub000/internal/sim"
)

// Session lifecycle states
const (
	StateWaiting   = "waiting"
	StateCountdown = "countdown"
	StatePlaying   = "playing"
	StateRoundOver = "round_over"
	StateGameOver  = "game_over"
)

// GameResult summarizes a finished game for the archive
type GameResult struct {
	SessionID  string
	WinnerSide int
	Score      [2]int
	Rounds     int
	Duration   time.Duration
	Names      [2]string
	Reason     string
}

// Session is one arena instance: two participants, a simulator, and the
// lifecycle state machine waiting → countdown → playing → round_over →
// (playing | game_over). Exactly one tick loop advances a session; the tick
// counter never rewinds in broadcast state. The session lock is held for
// the whole of each tick and for membership changes; input arrival bypasses
// it entirely via the per-participant input buffers.
type Session struct {
	ID string

	mu           sync.Mutex
	state        string
	tick         uint64
	round        int
	score        [2]int
	participants [2]*Participant // index side-1

	cfg        config.Config
	simulator  *sim.Simulator
	tracker    *sim.DeltaTracker
	ids        game.IDAllocator
	rng        *rand.Rand
	seed       int64
	acks       map[string]uint32

	countdownTicks int
	roundTicks     int
	roundOverTicks int
	probeTicks     int
	roundWinner    int

	createdAt  time.Time
	lastActive time.Time
	startedAt  time.Time

	running bool
	stop    chan struct{}

	// now is the session clock; tests inject a fake
	now func() time.Time

	onGameOver func(GameResult)
	logger     *log.Logger
}

// NewSession creates a session in the waiting state
func NewSession(id string, cfg config.Config, seed int64, logger *log.Logger) *Session {
	s := &Session{
		ID:     id,
		state:  StateWaiting,
		cfg:    cfg,
		seed:   seed,
		rng:    rand.New(rand.NewSource(seed)),
		stop:   make(chan struct{}),
		now:    time.Now,
		acks:   make(map[string]uint32),
		logger: logger,
	}
	s.createdAt = s.now()
	s.lastActive = s.createdAt
	world := game.NewWorld(&s.ids, s.nextRoundSeed())
	s.simulator = sim.NewSimulator(world, cfg.HistoryTicks())
	s.simulator.PickupInterval = cfg.PickupInterval
	s.tracker = sim.NewDeltaTracker()
	return s
}

// nextRoundSeed derives a fresh map seed per round from the session RNG
func (s *Session) nextRoundSeed() int64 {
	return s.seed + int64(s.round)*7919
}

// State returns the current lifecycle state
func (s *Session) State() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ParticipantCount returns how many sides are filled
func (s *Session) ParticipantCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.participants {
		if p != nil {
			n++
		}
	}
	return n
}

// Participant returns the participant on a side, or nil
func (s *Session) Participant(side int) *Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	if side < 1 || side > 2 {
		return nil
	}
	return s.participants[side-1]
}

// Join binds a participant to the first free side. Returns the participant
// or false when the session is full or already past waiting for a new
// player. The second join arms the countdown.
func (s *Session) Join(id, name string, client Broadcaster) (*Participant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateWaiting {
		return nil, false
	}
	side := 0
	for i, p := range s.participants {
		if p == nil {
			side = i + 1
			break
		}
	}
	if side == 0 {
		return nil, false
	}

	p := &Participant{ID: id, Name: name, Side: side, Connected: true, client: client}
	s.participants[side-1] = p
	s.touchLocked()

	if other := s.participants[side%2]; other != nil {
		other.Send(protocol.Envelope{T: protocol.MsgPeerJoined, Data: protocol.PeerJoinedMsg{
			ParticipantID: p.ID, Name: p.Name, Side: p.Side,
		}})
	}
	if s.bothPresentLocked() {
		s.enterCountdownLocked()
	}
	return p, true
}

// Rejoin reattaches a disconnected participant within the grace window
func (s *Session) Rejoin(participantID string, client Broadcaster) (*Participant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.participants {
		if p != nil && p.ID == participantID {
			p.Connected = true
			p.client = client
			s.touchLocked()
			// Rejoining client has no baseline; next broadcast must be full
			s.tracker.Reset()
			return p, true
		}
	}
	return nil, false
}

// Disconnect marks a participant's transport as gone. During countdown or
// play the side is held for the rejoin grace window; in other states the
// participant is removed outright. Returns whether the session became empty.
func (s *Session) Disconnect(participantID, reason string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, p := range s.participants {
		if p == nil || p.ID != participantID {
			continue
		}
		inGame := s.state == StateCountdown || s.state == StatePlaying || s.state == StateRoundOver
		if inGame && reason == protocol.LeaveQuit {
			// Deliberate quit forfeits immediately; no grace window
			s.participants[i] = nil
			s.broadcastLocked(protocol.Envelope{T: protocol.MsgPeerLeft, Data: protocol.PeerLeftMsg{
				ParticipantID: p.ID, Reason: reason,
			}})
			s.gameOverLocked(3-p.Side, "forfeit")
			break
		}
		if inGame {
			p.Connected = false
			p.client = nil
			p.LeftAt = s.now()
			s.broadcastLocked(protocol.Envelope{T: protocol.MsgPeerLeft, Data: protocol.PeerLeftMsg{
				ParticipantID: p.ID, Reason: reason,
			}})
		} else {
			s.participants[i] = nil
			s.broadcastLocked(protocol.Envelope{T: protocol.MsgPeerLeft, Data: protocol.PeerLeftMsg{
				ParticipantID: p.ID, Reason: reason,
			}})
		}
		break
	}
	return s.emptyLocked()
}

// HandlePong folds a latency probe echo into the participant's RTT estimate
func (s *Session) HandlePong(participantID string, msg protocol.PongMsg) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.participants {
		if p != nil && p.ID == participantID {
			p.ObserveRTT(s.now().UnixMilli() - msg.SentAt)
			return
		}
	}
}

// SetOnGameOver registers the terminal callback (archive, teardown)
func (s *Session) SetOnGameOver(fn func(GameResult)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onGameOver = fn
}

// Run drives the fixed-rate tick loop until Stop. One loop per session;
// ticks never overlap because the loop body runs to completion.
func (s *Session) Run() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	ticker := time.NewTicker(s.cfg.TickDuration())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Tick()
		case <-s.stop:
			return
		}
	}
}

// Stop terminates the tick loop exactly once. Must be called before the
// session's entities are discarded.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.running = false
		close(s.stop)
	}
}

// Tick advances the session by one scheduler step. Exported so tests drive
// the state machine directly without a real timer.
func (s *Session) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateCountdown:
		s.tickCountdownLocked()
	case StatePlaying:
		s.tickPlayingLocked()
	case StateRoundOver:
		s.tickRoundOverLocked()
	}

	s.tickProbesLocked()
	s.tickGraceLocked()
}

func (s *Session) bothPresentLocked() bool {
	return s.participants[0] != nil && s.participants[1] != nil
}

func (s *Session) emptyLocked() bool {
	for _, p := range s.participants {
		if p != nil && p.Connected {
			return false
		}
	}
	return true
}

func (s *Session) touchLocked() {
	s.lastActive = s.now()
}

// IdleSince reports the last activity time
func (s *Session) IdleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// --- lifecycle transitions -------------------------------------------------

func (s *Session) enterCountdownLocked() {
	s.state = StateCountdown
	s.countdownTicks = s.cfg.CountdownSeconds * s.cfg.TickRate
	s.startedAt = s.now()
	for _, p := range s.participants {
		opp := s.participants[p.Side%2]
		p.Send(protocol.Envelope{T: protocol.MsgMatchFound, Data: protocol.MatchFoundMsg{
			OpponentID: opp.ID, OpponentName: opp.Name, Side: p.Side,
		}})
	}
	s.startRoundLocked()
	if s.logger != nil {
		s.logger.Info("countdown started", "session", s.ID)
	}
}

// startRoundLocked rebuilds the entity set for the upcoming round. Tanks
// keep their fixed per-side ids; all other entities get fresh, never-reused
// ids from the session allocator.
func (s *Session) startRoundLocked() {
	s.round++
	world := game.NewWorld(&s.ids, s.nextRoundSeed())
	world.SpawnTank(1)
	world.SpawnTank(2)
	s.simulator.SetWorld(world)
	s.tracker.Reset()
	s.roundTicks = int(s.cfg.RoundSeconds * float64(s.cfg.TickRate))
	s.roundWinner = 0
	for _, p := range s.participants {
		if p != nil {
			p.Inputs.Drain() // stale pre-round inputs never reach the sim
		}
	}
}

func (s *Session) tickCountdownLocked() {
	prevSecs := (s.countdownTicks + s.cfg.TickRate - 1) / s.cfg.TickRate
	s.countdownTicks--
	secs := (s.countdownTicks + s.cfg.TickRate - 1) / s.cfg.TickRate
	if secs != prevSecs || s.countdownTicks+1 == s.cfg.CountdownSeconds*s.cfg.TickRate {
		s.broadcastLocked(protocol.Envelope{T: protocol.MsgCountdown, Data: protocol.CountdownMsg{SecondsLeft: secs}})
	}
	// Keep the scene warm during countdown so both clients render the map
	s.broadcastStateLocked()
	if s.countdownTicks <= 0 {
		s.state = StatePlaying
		s.broadcastLocked(protocol.Envelope{T: protocol.MsgRoundStart, Data: protocol.RoundStartMsg{Round: s.round}})
	}
}

func (s *Session) tickPlayingLocked() {
	s.tick++
	s.roundTicks--
	dt := 1.0 / float64(s.cfg.TickRate)
	nowMs := s.now().UnixMilli()

	batches := make([]sim.TickInput, 0, 2)
	for _, p := range s.participants {
		if p == nil {
			continue
		}
		batches = append(batches, sim.TickInput{
			Side:      p.Side,
			Inputs:    p.Inputs.Drain(),
			LatencyMs: p.LatencyMs,
		})
	}

	res := s.simulator.Tick(dt, nowMs, batches, s.suddenDeathLocked())

	for _, p := range s.participants {
		if p == nil {
			continue
		}
		if seq, ok := res.Applied[p.Side]; ok && seq > p.LastAck {
			p.LastAck = seq
		}
		s.acks[p.ID] = p.LastAck
	}

	switch {
	case res.Dead[0] && res.Dead[1]:
		s.endRoundLocked(sim.RandomSide(s.rng))
	case res.Dead[0]:
		s.endRoundLocked(2)
	case res.Dead[1]:
		s.endRoundLocked(1)
	case s.roundTicks <= 0:
		s.endRoundLocked(s.timeLimitWinnerLocked())
	}

	s.broadcastStateLocked()
	s.touchLocked()
}

// timeLimitWinnerLocked breaks a time-limit expiry: score, then remaining
// health, then a uniform coin flip
func (s *Session) timeLimitWinnerLocked() int {
	if s.score[0] != s.score[1] {
		if s.score[0] > s.score[1] {
			return 1
		}
		return 2
	}
	w := s.simulator.World
	t1, t2 := w.TankBySide(1), w.TankBySide(2)
	if t1 != nil && t2 != nil && t1.HP != t2.HP {
		if t1.HP > t2.HP {
			return 1
		}
		return 2
	}
	return sim.RandomSide(s.rng)
}

func (s *Session) endRoundLocked(winner int) {
	s.roundWinner = winner
	s.score[winner-1]++
	s.state = StateRoundOver
	s.roundOverTicks = int(s.cfg.RoundOverSeconds * float64(s.cfg.TickRate))
	s.broadcastLocked(protocol.Envelope{T: protocol.MsgRoundOver, Data: protocol.RoundOverMsg{
		Round: s.round, WinnerSide: winner, Score: s.score,
	}})
	if s.logger != nil {
		s.logger.Info("round over", "session", s.ID, "round", s.round, "winner", winner)
	}
}

func (s *Session) tickRoundOverLocked() {
	s.roundOverTicks--
	if s.roundOverTicks > 0 {
		return
	}
	if s.score[0] >= s.cfg.RoundsToWin || s.score[1] >= s.cfg.RoundsToWin {
		winner := 1
		if s.score[1] > s.score[0] {
			winner = 2
		}
		s.gameOverLocked(winner, "score_limit")
		return
	}
	s.state = StatePlaying
	s.startRoundLocked()
	s.broadcastLocked(protocol.Envelope{T: protocol.MsgRoundStart, Data: protocol.RoundStartMsg{Round: s.round}})
}

// gameOverLocked is the terminal transition. The tick loop is stopped by
// the manager after the callback so no scheduled tick can touch the
// discarded entities.
func (s *Session) gameOverLocked(winner int, reason string) {
	if s.state == StateGameOver {
		return
	}
	s.state = StateGameOver
	dur := s.now().Sub(s.startedAt)
	s.broadcastLocked(protocol.Envelope{T: protocol.MsgGameOver, Data: protocol.GameOverMsg{
		WinnerSide: winner,
		Score:      s.score,
		Rounds:     s.round,
		Duration:   dur.Seconds(),
		Reason:     reason,
	}})
	if s.logger != nil {
		s.logger.Info("game over", "session", s.ID, "winner", winner, "reason", reason)
	}
	if s.onGameOver != nil {
		res := GameResult{
			SessionID:  s.ID,
			WinnerSide: winner,
			Score:      s.score,
			Rounds:     s.round,
			Duration:   dur,
			Reason:     reason,
		}
		for i, p := range s.participants {
			if p != nil {
				res.Names[i] = p.Name
			}
		}
		go s.onGameOver(res)
	}
}

func (s *Session) suddenDeathLocked() bool {
	return s.state == StatePlaying &&
		float64(s.roundTicks) <= s.cfg.SuddenDeathAt*float64(s.cfg.TickRate)
}

// tickGraceLocked forfeits the game when a disconnected side's grace
// window expires mid-game
func (s *Session) tickGraceLocked() {
	if s.state != StateCountdown && s.state != StatePlaying && s.state != StateRoundOver {
		return
	}
	for _, p := range s.participants {
		if p == nil || p.Connected {
			continue
		}
		if s.now().Sub(p.LeftAt) >= s.cfg.RejoinGrace {
			winner := p.Side%2 + 1
			s.gameOverLocked(winner, "forfeit")
			return
		}
	}
}

// tickProbesLocked sends the periodic latency probe to both clients
func (s *Session) tickProbesLocked() {
	if s.state == StateGameOver {
		return
	}
	s.probeTicks--
	if s.probeTicks > 0 {
		return
	}
	s.probeTicks = int(s.cfg.ProbeInterval.Seconds() * float64(s.cfg.TickRate))
	if s.probeTicks < 1 {
		s.probeTicks = 1
	}
	nowMs := s.now().UnixMilli()
	for _, p := range s.participants {
		if p != nil && p.Connected {
			p.Send(protocol.Envelope{T: protocol.MsgPing, Data: protocol.PingMsg{
				Nonce: uint32(s.tick), SentAt: nowMs,
			}})
		}
	}
}

// --- broadcast -------------------------------------------------------------

// broadcastStateLocked captures, delta-compresses, encodes and sends the
// tick's state message
func (s *Session) broadcastStateLocked() {
	full := s.simulator.Capture(s.tick, s.now().UnixMilli(), s.score, s.round, s.suddenDeathLocked())

	includeStatics := s.cfg.StaticResendTicks > 0 && s.tick%uint64(s.cfg.StaticResendTicks) == 0
	if s.cfg.FullSnapshotTicks > 0 && s.tick%uint64(s.cfg.FullSnapshotTicks) == 0 {
		s.tracker.Reset()
	}
	snap := s.tracker.Compress(full, includeStatics)

	msg := &protocol.StateMsg{Snap: snap, Acks: s.acks, TickRate: s.cfg.TickRate}
	data, err := protocol.EncodeState(msg)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("state encode failed", "session", s.ID, "err", err)
		}
		return
	}
	for _, p := range s.participants {
		if p != nil && p.Connected {
			p.SendBinary(data)
		}
	}
}

func (s *Session) broadcastLocked(msg interface{}) {
	for _, p := range s.participants {
		if p != nil && p.Connected {
			p.Send(msg)
		}
	}
}

// RosterSnapshot returns the current full snapshot for a join response
func (s *Session) RosterSnapshot() *protocol.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.simulator.Capture(s.tick, s.now().UnixMilli(), s.score, s.round, false)
	snap.HasStatics = true
	return snap
}
