package models

import "time"

// Snapshot is an immutable read model of the machine, published after every
// handled event.
type Snapshot struct {
	Running    bool             `json:"running"`
	State      BotState         `json:"state"`
	Bet        *ActiveBet       `json:"bet,omitempty"`
	Stats      Stats            `json:"stats"`
	WinRate    float64          `json:"win_rate"`
	Streak     Streak           `json:"streak"`
	History    []Outcome        `json:"history"`
	GameStatus GameStatus       `json:"game_status"`
	Connection ConnectionStatus `json:"connection"`
	Cursor     Cursor           `json:"cursor"`
	UpdatedAt  time.Time        `json:"updated_at"`
}
