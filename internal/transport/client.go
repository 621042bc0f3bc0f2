package transport

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Ahnafahad/NeonTank-Test-sub000/internal/arena"
	"github.com/Ahnafahad/NeonTank-Test-sub000/internal/protocol"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 4096
	sendBufSize       = 256
	maxMessagesPerSec = 50
	maxNameLen        = 16
)

// Client represents a WebSocket connection
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	remoteAddr string
	msgCount   int
	msgResetAt time.Time

	// Set on join/rejoin, read by the hub on unregister
	session     *arena.Session
	participant *arena.Participant
}

// NewClient creates a new Client
func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufSize),
		remoteAddr: remoteAddr,
	}
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump() {
	defer func() {
		c.hub.TrackDisconnect(c.remoteAddr)
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Debug("ws error", "err", err)
			}
			break
		}

		// Rate limiting
		now := time.Now()
		if now.After(c.msgResetAt) {
			c.msgCount = 0
			c.msgResetAt = now.Add(time.Second)
		}
		c.msgCount++
		if c.msgCount > maxMessagesPerSec {
			c.hub.logger.Warn("rate limit exceeded, disconnecting", "addr", c.remoteAddr)
			break
		}

		c.handleMessage(message)
	}
}

// WritePump writes messages to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// Check for binary marker (0xFF prefix from SendBinary)
			var err error
			if len(message) > 0 && message[0] == 0xFF {
				err = c.conn.WriteMessage(websocket.BinaryMessage, message[1:])
			} else {
				err = c.conn.WriteMessage(websocket.TextMessage, message)
			}
			if err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendJSON sends a JSON message to the client
func (c *Client) SendJSON(msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.hub.logger.Error("marshal error", "err", err)
		return
	}
	c.SendRaw(data)
}

// SendRaw sends pre-marshaled bytes as a text message to the client
func (c *Client) SendRaw(data []byte) {
	defer func() { recover() }()
	select {
	case c.send <- data:
	default:
		// Client too slow, drop message
	}
}

// SendBinary sends pre-marshaled bytes as a binary WebSocket message.
// Prefixes with 0xFF marker byte so WritePump can distinguish from text.
func (c *Client) SendBinary(data []byte) {
	defer func() { recover() }()
	msg := make([]byte, len(data)+1)
	msg[0] = 0xFF // binary marker
	copy(msg[1:], data)
	select {
	case c.send <- msg:
	default:
	}
}

// handleMessage routes incoming messages (single-pass decode via InEnvelope)
func (c *Client) handleMessage(raw []byte) {
	var env protocol.InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.hub.logger.Debug("unmarshal error", "err", err)
		return
	}

	switch env.T {
	case protocol.MsgJoin:
		c.handleJoin(env.D)
	case protocol.MsgRejoin:
		c.handleRejoin(env.D)
	case protocol.MsgInput:
		c.handleInput(env.D)
	case protocol.MsgLeave:
		c.handleLeave()
	case protocol.MsgPong:
		c.handlePong(env.D)
	}
}

func (c *Client) sendError(code, msg string) {
	c.SendJSON(protocol.Envelope{T: protocol.MsgError, Data: protocol.ErrorMsg{Code: code, Msg: msg}})
}

func (c *Client) handleJoin(data json.RawMessage) {
	if c.participant != nil {
		return
	}
	var msg protocol.JoinMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	name := msg.Name
	if name == "" {
		name = "Player"
	}
	if len(name) > maxNameLen {
		name = name[:maxNameLen]
	}

	var sess *arena.Session
	if msg.SessionID == "" {
		sess = c.hub.manager.Create(float64(msg.RoundSeconds), msg.RoundsToWin)
		if sess == nil {
			c.sendError(protocol.ErrSessionFull, "too many active sessions")
			return
		}
	} else {
		sess = c.hub.manager.Get(msg.SessionID)
		if sess == nil {
			c.sendError(protocol.ErrUnknownSession, "session not found")
			return
		}
	}

	pid := c.hub.manager.NewParticipantID()
	p, ok := sess.Join(pid, name, c)
	if !ok {
		c.sendError(protocol.ErrSessionFull, "session full")
		return
	}
	c.session = sess
	c.participant = p

	token, err := c.hub.tokens.Issue(sess.ID, pid)
	if err != nil {
		c.hub.logger.Error("token issue failed", "err", err)
	}
	c.SendJSON(protocol.Envelope{T: protocol.MsgJoined, Data: protocol.JoinedMsg{
		SessionID:     sess.ID,
		ParticipantID: pid,
		Side:          p.Side,
		RejoinToken:   token,
		TickRate:      c.hub.cfg.TickRate,
		Roster:        sess.RosterSnapshot(),
	}})
}

func (c *Client) handleRejoin(data json.RawMessage) {
	if c.participant != nil {
		return
	}
	var msg protocol.RejoinMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	sid, pid, err := c.hub.tokens.Validate(msg.Token)
	if err != nil || (msg.SessionID != "" && msg.SessionID != sid) {
		c.sendError(protocol.ErrBadToken, "invalid rejoin token")
		return
	}
	sess := c.hub.manager.Get(sid)
	if sess == nil {
		c.sendError(protocol.ErrUnknownSession, "session not found")
		return
	}
	p, ok := sess.Rejoin(pid, c)
	if !ok {
		c.sendError(protocol.ErrBadToken, "side no longer held")
		return
	}
	c.session = sess
	c.participant = p

	c.SendJSON(protocol.Envelope{T: protocol.MsgJoined, Data: protocol.JoinedMsg{
		SessionID:     sess.ID,
		ParticipantID: pid,
		Side:          p.Side,
		RejoinToken:   msg.Token,
		TickRate:      c.hub.cfg.TickRate,
		Roster:        sess.RosterSnapshot(),
	}})
}

func (c *Client) handleInput(data json.RawMessage) {
	if c.participant == nil {
		return
	}
	var msg protocol.InputMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	c.participant.PushInput(msg)
}

func (c *Client) handlePong(data json.RawMessage) {
	if c.session == nil || c.participant == nil {
		return
	}
	var msg protocol.PongMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	c.session.HandlePong(c.participant.ID, msg)
}

func (c *Client) handleLeave() {
	if c.session == nil || c.participant == nil {
		return
	}
	c.hub.manager.Disconnect(c.session.ID, c.participant.ID, protocol.LeaveQuit)
	c.session = nil
	c.participant = nil
}
