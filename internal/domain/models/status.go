package models

// GameStatus is the status of the current round as announced by the feed.
type GameStatus string

const (
	StatusWaiting  GameStatus = "waiting"
	StatusRolling  GameStatus = "rolling"
	StatusComplete GameStatus = "complete"
	StatusUnknown  GameStatus = "unknown"
)

// ParseGameStatus normalizes a raw feed status.
func ParseGameStatus(s string) GameStatus {
	switch GameStatus(s) {
	case StatusWaiting, StatusRolling, StatusComplete:
		return GameStatus(s)
	default:
		return StatusUnknown
	}
}

// ConnectionStatus is the feed adapter's transport state.
type ConnectionStatus string

const (
	ConnDisconnected ConnectionStatus = "disconnected"
	ConnConnecting   ConnectionStatus = "connecting"
	ConnConnected    ConnectionStatus = "connected"
	ConnError        ConnectionStatus = "error"
)

// FeedEvent is one normalized poll of the current round.
type FeedEvent struct {
	Status  GameStatus `json:"status"`
	Outcome Outcome    `json:"outcome"`
}

// Cursor remembers the last processed (round, status) pair.
type Cursor struct {
	LastRoundID string     `json:"last_round_id"`
	LastStatus  GameStatus `json:"last_status"`
}

// Advance reports whether ev is a new transition and records it.
func (c *Cursor) Advance(ev FeedEvent) bool {
	if ev.Status == c.LastStatus && ev.Outcome.ID == c.LastRoundID {
		return false
	}
	c.LastStatus = ev.Status
	c.LastRoundID = ev.Outcome.ID
	return true
}
