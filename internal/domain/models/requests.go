package models

// Requests for dashboard HTTP endpoints.

type HistoryRequest struct {
	Limit int `query:"limit" json:"limit" default:"20" validate:"gte=1,lte=100"`
}

type PatternRequest struct {
	ID       string   `json:"id"`
	Sequence []string `json:"sequence" validate:"required,min=1,max=20,dive,required,pattern_token"`
	Target   string   `json:"target" validate:"required,oneof=V P B red black white"`
}

type ConfigRequest struct {
	EscalationCeiling *int             `json:"escalation_ceiling" validate:"omitempty,gte=0,lte=10"`
	Patterns          []PatternRequest `json:"patterns" validate:"omitempty,max=200,dive"`
}

// ConfigResponse describes the active strategy configuration.
type ConfigResponse struct {
	EscalationCeiling int               `json:"escalation_ceiling"`
	Patterns          []PatternResponse `json:"patterns"`
}

type PatternResponse struct {
	ID       string   `json:"id"`
	Sequence []string `json:"sequence"`
	Target   Color    `json:"target"`
	Valid    bool     `json:"valid"`
}

type DecisionsRequest struct {
	Limit int `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=500"`
}

// StatsResponse is the dashboard view of the counters.
type StatsResponse struct {
	Stats
	WinRate  float64 `json:"win_rate"`
	Accuracy float64 `json:"accuracy_pct"`
	Streak   Streak  `json:"streak"`
}

// BotStateResponse reports the run state after a start or stop request.
type BotStateResponse struct {
	Running bool `json:"running"`
	Changed bool `json:"changed"`
}

type HealthResponse struct {
	Status     string           `json:"status"`
	Running    bool             `json:"running"`
	Connection ConnectionStatus `json:"connection"`
	Journal    string           `json:"journal,omitempty"`
}
