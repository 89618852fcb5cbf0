package models

import (
	"time"

	"github.com/google/uuid"
)

// EventKind identifies a bus event.
type EventKind string

const (
	EventRoundStatus EventKind = "round_status"
	EventConnection  EventKind = "connection"
	EventSignal      EventKind = "signal"
	EventGale        EventKind = "gale"
	EventWin         EventKind = "win"
	EventLoss        EventKind = "loss"
	EventStats       EventKind = "stats"
	EventBotState    EventKind = "bot_state"
)

// Event is published by the core for every decision and status transition.
// Only the fields relevant to Kind are set.
type Event struct {
	ID         string           `json:"id"`
	Kind       EventKind        `json:"kind"`
	Timestamp  time.Time        `json:"timestamp"`
	RoundID    string           `json:"round_id,omitempty"`
	Status     GameStatus       `json:"status,omitempty"`
	Connection ConnectionStatus `json:"connection,omitempty"`
	Target     Color            `json:"target,omitempty"`
	GaleLevel  int              `json:"gale_level"`
	Ceiling    int              `json:"ceiling"`
	PatternID  string           `json:"pattern_id,omitempty"`
	Outcome    *Outcome         `json:"outcome,omitempty"`
	Stats      *Stats           `json:"stats,omitempty"`
	Running    bool             `json:"running"`
}

// NewEvent creates an event with a fresh id and timestamp.
func NewEvent(kind EventKind) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Kind:      kind,
		Timestamp: time.Now().UTC(),
	}
}

// IsDecision reports whether the event belongs to the bet lifecycle.
func (e *Event) IsDecision() bool {
	switch e.Kind {
	case EventSignal, EventGale, EventWin, EventLoss:
		return true
	default:
		return false
	}
}
