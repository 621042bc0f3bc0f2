package transport

import (
	"sync"

	"github.com/charmbracelet/log"

	"github.com/Ahnafahad/NeonTank-Test-sub000/internal/arena"
	"github.com/Ahnafahad/NeonTank-Test-sub000/internal/config"
	"github.com/Ahnafahad/NeonTank-Test-sub000/internal/protocol"
)

const (
	maxConnsPerIP = 5
	maxTotalConns = 1000
)

// Hub tracks connected clients and hands them off to arena sessions
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client

	manager *arena.Manager
	tokens  *TokenIssuer
	cfg     config.Config
	logger  *log.Logger

	// Connection limiting (mutex-protected, accessed from HTTP handlers)
	connMu     sync.Mutex
	ipConns    map[string]int
	totalConns int

	stop     chan struct{}
	stopOnce sync.Once
}

// NewHub creates a hub bound to a session manager
func NewHub(manager *arena.Manager, tokens *TokenIssuer, cfg config.Config, logger *log.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		manager:    manager,
		tokens:     tokens,
		cfg:        cfg,
		logger:     logger,
		ipConns:    make(map[string]int),
		stop:       make(chan struct{}),
	}
}

// Close terminates the Run loop. Safe to call more than once.
func (h *Hub) Close() {
	h.stopOnce.Do(func() { close(h.stop) })
}

func (h *Hub) CanAccept(ip string) bool {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	if h.totalConns >= maxTotalConns {
		return false
	}
	if h.ipConns[ip] >= maxConnsPerIP {
		return false
	}
	return true
}

func (h *Hub) TrackConnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]++
	h.totalConns++
}

func (h *Hub) TrackDisconnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]--
	if h.ipConns[ip] <= 0 {
		delete(h.ipConns, ip)
	}
	h.totalConns--
}

// Run processes register/unregister events until Close
func (h *Hub) Run() {
	for {
		select {
		case <-h.stop:
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			// Detach from the session; the grace window decides whether
			// the side is held for a rejoin
			if client.session != nil && client.participant != nil {
				h.manager.Disconnect(client.session.ID, client.participant.ID, protocol.LeaveDisconnect)
			}
		}
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// TotalConns returns the tracked connection count
func (h *Hub) TotalConns() int {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	return h.totalConns
}
