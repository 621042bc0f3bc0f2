package arena

import (
	"math/rand"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/Ahnafahad/NeonTank-Test-sub000/internal/config"
)

// gameOverLinger is how long a finished session stays addressable so both
// clients can read the final messages before teardown
const gameOverLinger = 30 * time.Second

// Archiver records finished games. The sqlite store implements it; a nil
// archiver disables recording.
type Archiver interface {
	RecordMatch(res GameResult) error
}

// Manager owns every live session: creation, lookup, join routing and
// reclamation. Sessions share no mutable state with each other; the manager
// map is the only cross-session structure and it only holds handles.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	cfg     config.Config
	logger  *log.Logger
	archive Archiver
	rng     *rand.Rand
	rngMu   sync.Mutex

	stop     chan struct{}
	stopOnce sync.Once
}

// NewManager creates a session manager and starts its reclamation janitor
func NewManager(cfg config.Config, logger *log.Logger, archive Archiver) *Manager {
	m := &Manager{
		sessions: make(map[string]*Session),
		cfg:      cfg,
		logger:   logger,
		archive:  archive,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		stop:     make(chan struct{}),
	}
	go m.janitor()
	return m
}

// Close stops the janitor and every session loop
func (m *Manager) Close() {
	m.stopOnce.Do(func() { close(m.stop) })
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		s.Stop()
		delete(m.sessions, id)
	}
}

// Create spins up a new session with the given rule overrides (zero values
// keep the configured defaults — first joiner's settings win). Returns nil
// when the session limit is reached.
func (m *Manager) Create(roundSeconds float64, roundsToWin int) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) >= m.cfg.MaxSessions {
		return nil
	}

	cfg := m.cfg
	if roundSeconds > 0 {
		cfg.RoundSeconds = roundSeconds
	}
	if roundsToWin > 0 {
		cfg.RoundsToWin = roundsToWin
	}

	m.rngMu.Lock()
	seed := m.rng.Int63()
	m.rngMu.Unlock()

	s := NewSession(uuid.NewString(), cfg, seed, m.logger)
	s.SetOnGameOver(m.recordGame)
	m.sessions[s.ID] = s
	go s.Run()

	if m.logger != nil {
		m.logger.Info("session created", "session", s.ID)
	}
	return s
}

// Get returns a session by id, or nil
func (m *Manager) Get(id string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[id]
}

// Count returns the number of live sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// NewParticipantID mints a participant identity
func (m *Manager) NewParticipantID() string {
	return uuid.NewString()
}

// Disconnect routes a transport-level disconnect into the session and
// removes the session when it became empty
func (m *Manager) Disconnect(sessionID, participantID, reason string) {
	s := m.Get(sessionID)
	if s == nil {
		return
	}
	if empty := s.Disconnect(participantID, reason); empty {
		m.remove(sessionID)
	}
}

// remove stops a session's loop before discarding it so no scheduled tick
// can touch freed state
func (m *Manager) remove(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	if ok {
		s.Stop()
		if m.logger != nil {
			m.logger.Info("session removed", "session", id)
		}
	}
}

// recordGame archives a finished game
func (m *Manager) recordGame(res GameResult) {
	if m.archive == nil {
		return
	}
	if err := m.archive.RecordMatch(res); err != nil && m.logger != nil {
		m.logger.Error("match archive failed", "session", res.SessionID, "err", err)
	}
}

// janitor reclaims finished and idle sessions
func (m *Manager) janitor() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.sweep()
		case <-m.stop:
			return
		}
	}
}

func (m *Manager) sweep() {
	now := time.Now()
	m.mu.RLock()
	var stale []string
	for id, s := range m.sessions {
		idle := now.Sub(s.IdleSince())
		switch {
		case s.State() == StateGameOver && idle > gameOverLinger:
			stale = append(stale, id)
		case idle > m.cfg.IdleTimeout:
			stale = append(stale, id)
		}
	}
	m.mu.RUnlock()
	for _, id := range stale {
		m.remove(id)
	}
}
