package arena

import (
	"sync"
	"testing"
	"time"

	"github.com/Ahnafahad/NeonTank-Test-sub000/internal/config"
	"github.com/Ahnafahad/NeonTank-Test-sub000/internal/protocol"
)

// mockBroadcaster captures sent messages for testing
type mockBroadcaster struct {
	mu       sync.Mutex
	messages []interface{}
	frames   [][]byte
}

func (m *mockBroadcaster) SendJSON(msg interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
}

func (m *mockBroadcaster) SendBinary(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames = append(m.frames, data)
}

func (m *mockBroadcaster) envelopes(msgType string) []protocol.Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []protocol.Envelope
	for _, raw := range m.messages {
		if env, ok := raw.(protocol.Envelope); ok && env.T == msgType {
			out = append(out, env)
		}
	}
	return out
}

func (m *mockBroadcaster) frameCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.frames)
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.CountdownSeconds = 1
	cfg.RoundSeconds = 5
	cfg.RoundOverSeconds = 1
	cfg.RoundsToWin = 2
	cfg.SuddenDeathAt = 1
	return cfg
}

// testSession builds a session with both sides joined and a controllable
// clock. The tick loop is never started; tests call Tick directly.
func testSession(t *testing.T, cfg config.Config) (*Session, *mockBroadcaster, *mockBroadcaster, *time.Time) {
	t.Helper()
	s := NewSession("s1", cfg, 42, nil)
	clock := time.Now()
	s.now = func() time.Time { return clock }

	m1 := &mockBroadcaster{}
	m2 := &mockBroadcaster{}
	if _, ok := s.Join("pid1", "Alice", m1); !ok {
		t.Fatal("first join failed")
	}
	if _, ok := s.Join("pid2", "Bob", m2); !ok {
		t.Fatal("second join failed")
	}
	return s, m1, m2, &clock
}

func TestSessionJoinFillsSides(t *testing.T) {
	s := NewSession("s1", config.Default(), 1, nil)
	m1 := &mockBroadcaster{}

	p1, ok := s.Join("pid1", "Alice", m1)
	if !ok || p1.Side != 1 {
		t.Fatalf("first join should take side 1, got %+v", p1)
	}
	if s.State() != StateWaiting {
		t.Error("one participant should leave the session waiting")
	}

	p2, ok := s.Join("pid2", "Bob", &mockBroadcaster{})
	if !ok || p2.Side != 2 {
		t.Fatalf("second join should take side 2, got %+v", p2)
	}
	if s.State() != StateCountdown {
		t.Error("second join should arm the countdown")
	}

	if _, ok := s.Join("pid3", "Carol", &mockBroadcaster{}); ok {
		t.Error("third join must be rejected")
	}

	// First participant learned about the second, and both got the match
	if got := m1.envelopes(protocol.MsgPeerJoined); len(got) != 1 {
		t.Errorf("expected 1 peer_joined, got %d", len(got))
	}
	if got := m1.envelopes(protocol.MsgMatchFound); len(got) != 1 {
		t.Errorf("expected 1 match_found, got %d", len(got))
	}
}

func TestSessionCountdownToPlaying(t *testing.T) {
	cfg := testConfig()
	s, m1, _, _ := testSession(t, cfg)

	ticks := cfg.CountdownSeconds * cfg.TickRate
	for i := 0; i < ticks; i++ {
		if s.State() != StateCountdown {
			t.Fatalf("left countdown early at tick %d", i)
		}
		s.Tick()
	}
	if s.State() != StatePlaying {
		t.Fatalf("expected playing, got %s", s.State())
	}
	if got := m1.envelopes(protocol.MsgRoundStart); len(got) != 1 {
		t.Errorf("expected 1 round_start, got %d", len(got))
	}
	if got := m1.envelopes(protocol.MsgCountdown); len(got) == 0 {
		t.Error("expected countdown announcements")
	}
	// Countdown ticks also carried state so clients can render the map
	if m1.frameCount() == 0 {
		t.Error("expected state frames during countdown")
	}
}

func playUntilPlaying(t *testing.T, s *Session, cfg config.Config) {
	t.Helper()
	for i := 0; i < cfg.CountdownSeconds*cfg.TickRate+1 && s.State() == StateCountdown; i++ {
		s.Tick()
	}
	if s.State() != StatePlaying {
		t.Fatalf("never reached playing, stuck in %s", s.State())
	}
}

func TestSessionKillEndsRound(t *testing.T) {
	cfg := testConfig()
	s, m1, _, _ := testSession(t, cfg)
	playUntilPlaying(t, s, cfg)

	s.simulator.World.TankBySide(2).TakeDamage(999)
	s.Tick()

	if s.State() != StateRoundOver {
		t.Fatalf("kill should end the round, state=%s", s.State())
	}
	if s.score != [2]int{1, 0} {
		t.Errorf("side 1 should have scored, score=%v", s.score)
	}
	got := m1.envelopes(protocol.MsgRoundOver)
	if len(got) != 1 {
		t.Fatalf("expected 1 round_over, got %d", len(got))
	}
	if ro := got[0].Data.(protocol.RoundOverMsg); ro.WinnerSide != 1 {
		t.Errorf("expected winner 1, got %d", ro.WinnerSide)
	}
}

func TestSessionNextRoundAfterPause(t *testing.T) {
	cfg := testConfig()
	s, m1, _, _ := testSession(t, cfg)
	playUntilPlaying(t, s, cfg)

	s.simulator.World.TankBySide(2).TakeDamage(999)
	s.Tick()

	pause := int(cfg.RoundOverSeconds * float64(cfg.TickRate))
	for i := 0; i < pause; i++ {
		s.Tick()
	}
	if s.State() != StatePlaying {
		t.Fatalf("expected next round, got %s", s.State())
	}
	if s.round != 2 {
		t.Errorf("expected round 2, got %d", s.round)
	}
	if !s.simulator.World.TankBySide(2).Alive {
		t.Error("round start must respawn the dead tank")
	}
	if got := m1.envelopes(protocol.MsgRoundStart); len(got) != 2 {
		t.Errorf("expected 2 round_start messages, got %d", len(got))
	}
}

func TestSessionGameOverAtScoreLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RoundsToWin = 1
	s, m1, _, _ := testSession(t, cfg)

	results := make(chan GameResult, 1)
	s.SetOnGameOver(func(r GameResult) { results <- r })

	playUntilPlaying(t, s, cfg)
	s.simulator.World.TankBySide(2).TakeDamage(999)
	s.Tick()

	pause := int(cfg.RoundOverSeconds * float64(cfg.TickRate))
	for i := 0; i < pause; i++ {
		s.Tick()
	}
	if s.State() != StateGameOver {
		t.Fatalf("expected game over, got %s", s.State())
	}
	got := m1.envelopes(protocol.MsgGameOver)
	if len(got) != 1 {
		t.Fatalf("expected 1 game_over, got %d", len(got))
	}
	if go1 := got[0].Data.(protocol.GameOverMsg); go1.WinnerSide != 1 || go1.Reason != "score_limit" {
		t.Errorf("unexpected game_over payload: %+v", go1)
	}

	select {
	case res := <-results:
		if res.WinnerSide != 1 || res.Names[0] != "Alice" {
			t.Errorf("unexpected result: %+v", res)
		}
	case <-time.After(time.Second):
		t.Fatal("game over callback never fired")
	}
}

func TestSessionTickCounterMonotonic(t *testing.T) {
	cfg := testConfig()
	s, _, _, _ := testSession(t, cfg)
	playUntilPlaying(t, s, cfg)

	before := s.tick
	for i := 0; i < 10; i++ {
		s.Tick()
	}
	if s.tick != before+10 {
		t.Errorf("tick counter should advance by exactly 10, got %d -> %d", before, s.tick)
	}
}

func TestSessionStateFramesDecode(t *testing.T) {
	cfg := testConfig()
	s, m1, _, _ := testSession(t, cfg)
	playUntilPlaying(t, s, cfg)

	m1.mu.Lock()
	m1.frames = nil
	m1.mu.Unlock()

	s.Tick()
	s.Tick()

	m1.mu.Lock()
	frames := append([][]byte(nil), m1.frames...)
	m1.mu.Unlock()
	if len(frames) != 2 {
		t.Fatalf("expected 2 state frames, got %d", len(frames))
	}

	a, err := protocol.DecodeState(frames[0])
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	b, err := protocol.DecodeState(frames[1])
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b.Snap.Tick <= a.Snap.Tick {
		t.Errorf("broadcast ticks must increase: %d then %d", a.Snap.Tick, b.Snap.Tick)
	}
	if a.TickRate != cfg.TickRate {
		t.Errorf("state must carry the tick rate, got %d", a.TickRate)
	}
}

func TestSessionInputAckReported(t *testing.T) {
	cfg := testConfig()
	s, m1, _, _ := testSession(t, cfg)
	playUntilPlaying(t, s, cfg)

	p1 := s.Participant(1)
	p1.PushInput(protocol.InputMsg{Seq: 1, MoveX: 1})
	p1.PushInput(protocol.InputMsg{Seq: 2, MoveX: 1})

	m1.mu.Lock()
	m1.frames = nil
	m1.mu.Unlock()
	s.Tick()

	if p1.LastAck != 2 {
		t.Errorf("expected last ack 2, got %d", p1.LastAck)
	}
	m1.mu.Lock()
	frame := m1.frames[0]
	m1.mu.Unlock()
	msg, err := protocol.DecodeState(frame)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Acks["pid1"] != 2 {
		t.Errorf("ack not broadcast, got %v", msg.Acks)
	}
}

func TestSessionTimeLimitEndsRound(t *testing.T) {
	cfg := testConfig()
	s, _, _, _ := testSession(t, cfg)
	playUntilPlaying(t, s, cfg)

	// Give side 1 a health edge so the tiebreak is deterministic
	s.simulator.World.TankBySide(2).TakeDamage(30)

	limit := int(cfg.RoundSeconds*float64(cfg.TickRate)) + 1
	for i := 0; i < limit && s.State() == StatePlaying; i++ {
		s.Tick()
	}
	if s.State() != StateRoundOver {
		t.Fatalf("time limit should end the round, state=%s", s.State())
	}
	if s.score != [2]int{1, 0} {
		t.Errorf("healthier side should win the expiry, score=%v", s.score)
	}
}

func TestTimeLimitTiebreakOrder(t *testing.T) {
	cfg := testConfig()
	s, _, _, _ := testSession(t, cfg)
	playUntilPlaying(t, s, cfg)

	// Score difference dominates
	s.score = [2]int{0, 1}
	if w := s.timeLimitWinnerLocked(); w != 2 {
		t.Errorf("score leader should win, got %d", w)
	}

	// Equal score: health decides
	s.score = [2]int{1, 1}
	s.simulator.World.TankBySide(1).TakeDamage(10)
	if w := s.timeLimitWinnerLocked(); w != 2 {
		t.Errorf("healthier tank should win, got %d", w)
	}

	// Dead heat: coin flip must produce both outcomes
	s.simulator.World.TankBySide(2).TakeDamage(10)
	seen := map[int]bool{}
	for i := 0; i < 200; i++ {
		seen[s.timeLimitWinnerLocked()] = true
	}
	if !seen[1] || !seen[2] {
		t.Errorf("coin flip should hit both sides, saw %v", seen)
	}
}

func TestSuddenDeathArms(t *testing.T) {
	cfg := testConfig()
	cfg.RoundSeconds = 2
	cfg.SuddenDeathAt = 1
	s, _, _, _ := testSession(t, cfg)
	playUntilPlaying(t, s, cfg)

	if s.suddenDeathLocked() {
		t.Error("sudden death must not be armed at round start")
	}
	for i := 0; i < cfg.TickRate+1; i++ {
		s.Tick()
	}
	if !s.suddenDeathLocked() {
		t.Error("sudden death should arm inside the final window")
	}
}

func TestSessionDisconnectHoldsSideThenForfeits(t *testing.T) {
	cfg := testConfig()
	cfg.RejoinGrace = 10 * time.Second
	s, _, m2, clock := testSession(t, cfg)
	playUntilPlaying(t, s, cfg)
	_ = m2

	empty := s.Disconnect("pid2", protocol.LeaveDisconnect)
	if empty {
		t.Fatal("session with one connected side is not empty")
	}
	if s.State() != StatePlaying {
		t.Fatalf("grace window should keep the round alive, state=%s", s.State())
	}
	if s.ParticipantCount() != 2 {
		t.Error("disconnected side must stay held")
	}

	// Still within grace
	*clock = clock.Add(5 * time.Second)
	s.Tick()
	if s.State() != StatePlaying {
		t.Fatal("forfeited before the grace window expired")
	}

	*clock = clock.Add(6 * time.Second)
	s.Tick()
	if s.State() != StateGameOver {
		t.Fatalf("grace expiry should forfeit, state=%s", s.State())
	}
}

func TestSessionRejoinWithinGrace(t *testing.T) {
	cfg := testConfig()
	s, _, _, _ := testSession(t, cfg)
	playUntilPlaying(t, s, cfg)

	s.Disconnect("pid2", protocol.LeaveDisconnect)
	m2b := &mockBroadcaster{}
	p, ok := s.Rejoin("pid2", m2b)
	if !ok {
		t.Fatal("rejoin within grace should succeed")
	}
	if !p.Connected || p.Side != 2 {
		t.Errorf("rejoined participant wrong: %+v", p)
	}

	// The rejoined client has no baseline, so its next frame must be full
	s.Tick()
	m2b.mu.Lock()
	frame := m2b.frames[0]
	m2b.mu.Unlock()
	msg, err := protocol.DecodeState(frame)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Snap.Delta {
		t.Error("first frame after rejoin must be a full snapshot")
	}
	if !msg.Snap.HasStatics {
		t.Error("full snapshot must carry statics")
	}
}

func TestSessionQuitForfeitsImmediately(t *testing.T) {
	cfg := testConfig()
	s, m1, _, _ := testSession(t, cfg)
	playUntilPlaying(t, s, cfg)

	s.Disconnect("pid2", protocol.LeaveQuit)
	if s.State() != StateGameOver {
		t.Fatalf("quit should forfeit immediately, state=%s", s.State())
	}
	got := m1.envelopes(protocol.MsgGameOver)
	if len(got) != 1 {
		t.Fatalf("expected 1 game_over, got %d", len(got))
	}
	if go1 := got[0].Data.(protocol.GameOverMsg); go1.WinnerSide != 1 || go1.Reason != "forfeit" {
		t.Errorf("unexpected forfeit payload: %+v", go1)
	}
}

func TestSessionLatencyProbes(t *testing.T) {
	cfg := testConfig()
	s, m1, _, clock := testSession(t, cfg)
	playUntilPlaying(t, s, cfg)

	probeTicks := int(cfg.ProbeInterval.Seconds()*float64(cfg.TickRate)) + 1
	for i := 0; i < probeTicks; i++ {
		s.Tick()
	}
	pings := m1.envelopes(protocol.MsgPing)
	if len(pings) == 0 {
		t.Fatal("expected latency probes")
	}

	ping := pings[0].Data.(protocol.PingMsg)
	*clock = clock.Add(80 * time.Millisecond)
	s.HandlePong("pid1", protocol.PongMsg{Nonce: ping.Nonce, SentAt: ping.SentAt})

	p1 := s.Participant(1)
	if p1.LatencyMs < 50 || p1.LatencyMs > 200 {
		t.Errorf("expected RTT near 80ms, got %d", p1.LatencyMs)
	}
}

func TestObserveRTTClampsAndSmooths(t *testing.T) {
	p := &Participant{}
	p.ObserveRTT(100)
	if p.LatencyMs != 100 {
		t.Errorf("first sample adopts directly, got %d", p.LatencyMs)
	}
	p.ObserveRTT(1000000)
	if p.LatencyMs > maxSaneRTTMs {
		t.Errorf("hostile RTT must clamp, got %d", p.LatencyMs)
	}
	was := p.LatencyMs
	p.ObserveRTT(0)
	if p.LatencyMs >= was {
		t.Error("smoothing should pull the estimate down")
	}
}
