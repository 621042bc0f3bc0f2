package protocol

import "encoding/json"

// Client -> Server message types
const (
	MsgJoin   = "join"
	MsgRejoin = "rejoin"
	MsgInput  = "input"
	MsgLeave  = "leave"
	MsgPong   = "pong"
)

// Server -> Client message types
const (
	MsgJoined     = "joined"
	MsgMatchFound = "match_found"
	MsgCountdown  = "countdown"
	MsgRoundStart = "round_start"
	MsgRoundOver  = "round_over"
	MsgGameOver   = "game_over"
	MsgPeerJoined = "peer_joined"
	MsgPeerLeft   = "peer_left"
	MsgState      = "state"
	MsgPing       = "ping"
	MsgError      = "error"
)

// Reasons carried by PeerLeftMsg
const (
	LeaveDisconnect = "disconnect"
	LeaveQuit       = "quit"
	LeaveTimeout    = "timeout"
)

// Envelope wraps all outgoing JSON messages with a type field
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope is used for incoming messages — json.RawMessage avoids double-unmarshal
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// JoinMsg asks to join (or create) a session
type JoinMsg struct {
	SessionID string `json:"sid"`
	Name      string `json:"n"`
	// First joiner's settings win; zero values mean server defaults
	RoundSeconds int `json:"rs,omitempty"`
	RoundsToWin  int `json:"rw,omitempty"`
}

// RejoinMsg reclaims a held side using a rejoin token
type RejoinMsg struct {
	SessionID string `json:"sid"`
	Token     string `json:"tok"`
}

// InputMsg is the high-frequency fire-and-forget control message
type InputMsg struct {
	Seq     uint32  `json:"q"`
	MoveX   float64 `json:"mx"`
	MoveY   float64 `json:"my"`
	Fire    bool    `json:"f,omitempty"`
	Charge  float64 `json:"c,omitempty"`
	SentAt  int64   `json:"ts"`           // client clock, unix millis
	FiredAt int64   `json:"ft,omitempty"` // fire-press time, for lag compensation
}

// PongMsg echoes a latency probe back to the server
type PongMsg struct {
	Nonce  uint32 `json:"n"`
	SentAt int64  `json:"ts"` // server send time, echoed verbatim
}

// PingMsg is the server-initiated latency probe
type PingMsg struct {
	Nonce  uint32 `json:"n"`
	SentAt int64  `json:"ts"`
}

// JoinedMsg confirms a join and assigns a side
type JoinedMsg struct {
	SessionID     string    `json:"sid"`
	ParticipantID string    `json:"pid"`
	Side          int       `json:"side"`
	RejoinToken   string    `json:"tok"`
	TickRate      int       `json:"tr"`
	Roster        *Snapshot `json:"ros,omitempty"`
}

// MatchFoundMsg announces the opponent once both sides are filled
type MatchFoundMsg struct {
	OpponentID   string `json:"oid"`
	OpponentName string `json:"on"`
	Side         int    `json:"side"`
}

// CountdownMsg is broadcast once per second during the countdown
type CountdownMsg struct {
	SecondsLeft int `json:"s"`
}

// RoundStartMsg announces a fresh round
type RoundStartMsg struct {
	Round int `json:"r"`
}

// RoundOverMsg announces the round winner and running score
type RoundOverMsg struct {
	Round      int    `json:"r"`
	WinnerSide int    `json:"w"` // 0 on a pure draw (never produced; tiebreaks always pick)
	Score      [2]int `json:"sc"`
}

// GameOverMsg is terminal for the session
type GameOverMsg struct {
	WinnerSide int     `json:"w"`
	Score      [2]int  `json:"sc"`
	Rounds     int     `json:"r"`
	Duration   float64 `json:"dur"` // seconds
	Reason     string  `json:"rn,omitempty"`
}

// PeerJoinedMsg notifies the first participant that an opponent arrived
type PeerJoinedMsg struct {
	ParticipantID string `json:"pid"`
	Name          string `json:"n"`
	Side          int    `json:"side"`
}

// PeerLeftMsg notifies the remaining participant
type PeerLeftMsg struct {
	ParticipantID string `json:"pid"`
	Reason        string `json:"rn"`
}

// ErrorMsg reports a typed failure to the client
type ErrorMsg struct {
	Code string `json:"c"`
	Msg  string `json:"msg"`
}

// Error codes carried by ErrorMsg
const (
	ErrSessionFull    = "session_full"
	ErrUnknownSession = "unknown_session"
	ErrBadToken       = "bad_token"
)
