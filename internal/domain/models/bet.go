package models

import "time"

// BotState is the bet lifecycle state.
type BotState string

const (
	StateIdle  BotState = "idle"
	StateArmed BotState = "armed"
)

// ActiveBet is the single open simulated stake.
type ActiveBet struct {
	TargetColor Color     `json:"target_color"`
	GaleLevel   int       `json:"gale_level"`
	Ceiling     int       `json:"ceiling"` // escalation ceiling captured when the signal was raised
	PatternID   string    `json:"pattern_id"`
	RoundID     string    `json:"round_id"`
	OpenedAt    time.Time `json:"opened_at"`
}

// Wins reports whether o resolves the bet as a win. White wins any target.
func (b *ActiveBet) Wins(o Outcome) bool {
	return o.Color == ColorWhite || o.Color == b.TargetColor
}

// CanEscalate reports whether another gale is allowed.
func (b *ActiveBet) CanEscalate() bool {
	return b.GaleLevel < b.Ceiling
}

// Stats are monotonically accumulating counters.
type Stats struct {
	Wins             int `json:"wins"`
	Losses           int `json:"losses"`
	WinsWithoutGale  int `json:"wins_without_gale"`
	WinsWithGale     int `json:"wins_with_gale"`
	CurrentWinStreak int `json:"current_win_streak"`
	MaxWinStreak     int `json:"max_win_streak"`
	TotalSignals     int `json:"total_signals"`
}

// WinRate is Wins / TotalSignals, 0 when no signal was raised.
func (s Stats) WinRate() float64 {
	if s.TotalSignals == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.TotalSignals)
}

// Streak is the current run of same-colored outcomes.
type Streak struct {
	Color Color `json:"color"`
	Count int   `json:"count"`
}

// MatchResult is the pattern matcher's decision.
type MatchResult struct {
	Matched   bool   `json:"matched"`
	Target    Color  `json:"target,omitempty"`
	PatternID string `json:"pattern_id,omitempty"`
}
