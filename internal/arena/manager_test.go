package arena

import (
	"testing"
	"time"

	"github.com/Ahnafahad/NeonTank-Test-sub000/internal/config"
	"github.com/Ahnafahad/NeonTank-Test-sub000/internal/protocol"
)

type recordingArchiver struct {
	results chan GameResult
}

func (a *recordingArchiver) RecordMatch(res GameResult) error {
	a.results <- res
	return nil
}

func TestManagerCreateAndGet(t *testing.T) {
	m := NewManager(config.Default(), nil, nil)
	defer m.Close()

	s := m.Create(0, 0)
	if s == nil {
		t.Fatal("create failed")
	}
	if m.Get(s.ID) != s {
		t.Error("lookup by id failed")
	}
	if m.Get("nope") != nil {
		t.Error("unknown id should return nil")
	}
	if m.Count() != 1 {
		t.Errorf("expected 1 session, got %d", m.Count())
	}
}

func TestManagerSessionLimit(t *testing.T) {
	cfg := config.Default()
	cfg.MaxSessions = 1
	m := NewManager(cfg, nil, nil)
	defer m.Close()

	if m.Create(0, 0) == nil {
		t.Fatal("first create should succeed")
	}
	if m.Create(0, 0) != nil {
		t.Error("second create should hit the limit")
	}
}

func TestManagerFirstJoinerRulesWin(t *testing.T) {
	m := NewManager(config.Default(), nil, nil)
	defer m.Close()

	s := m.Create(45, 5)
	if s.cfg.RoundSeconds != 45 || s.cfg.RoundsToWin != 5 {
		t.Errorf("overrides not applied: %v / %d", s.cfg.RoundSeconds, s.cfg.RoundsToWin)
	}

	d := m.Create(0, 0)
	if d.cfg.RoundSeconds != config.Default().RoundSeconds {
		t.Error("zero overrides should keep defaults")
	}
}

func TestManagerRemovesEmptySession(t *testing.T) {
	m := NewManager(config.Default(), nil, nil)
	defer m.Close()

	s := m.Create(0, 0)
	p, ok := s.Join(m.NewParticipantID(), "Solo", &mockBroadcaster{})
	if !ok {
		t.Fatal("join failed")
	}

	m.Disconnect(s.ID, p.ID, protocol.LeaveDisconnect)
	if m.Get(s.ID) != nil {
		t.Error("empty waiting session should be reclaimed")
	}
}

func TestManagerArchivesFinishedGame(t *testing.T) {
	arch := &recordingArchiver{results: make(chan GameResult, 1)}
	cfg := config.Default()
	cfg.CountdownSeconds = 1
	cfg.RoundsToWin = 1
	cfg.RoundOverSeconds = 1
	m := NewManager(cfg, nil, arch)
	defer m.Close()

	s := m.Create(0, 0)
	s.Join("pid1", "Alice", &mockBroadcaster{})
	s.Join("pid2", "Bob", &mockBroadcaster{})

	// The running loop will finish the game once the target is destroyed
	// after the countdown; force it from here
	deadline := time.After(10 * time.Second)
	for s.State() != StatePlaying {
		select {
		case <-deadline:
			t.Fatal("session never reached playing")
		case <-time.After(10 * time.Millisecond):
		}
	}
	s.mu.Lock()
	s.simulator.World.TankBySide(2).TakeDamage(999)
	s.mu.Unlock()

	select {
	case res := <-arch.results:
		if res.WinnerSide != 1 || res.SessionID != s.ID {
			t.Errorf("unexpected archived result: %+v", res)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("finished game never archived")
	}
}
