package usecase

import "SpinSignal/internal/domain/models"

// StatsAggregator accumulates counters from machine transitions only.
type StatsAggregator struct {
	s models.Stats
}

// RecordSignal counts a raised signal.
func (a *StatsAggregator) RecordSignal() {
	a.s.TotalSignals++
}

// RecordWin counts a win; escalated reports whether a gale was used.
func (a *StatsAggregator) RecordWin(escalated bool) {
	a.s.Wins++
	if escalated {
		a.s.WinsWithGale++
	} else {
		a.s.WinsWithoutGale++
	}
	a.s.CurrentWinStreak++
	if a.s.CurrentWinStreak > a.s.MaxWinStreak {
		a.s.MaxWinStreak = a.s.CurrentWinStreak
	}
}

// RecordLoss counts a final loss and breaks the win streak.
func (a *StatsAggregator) RecordLoss() {
	a.s.Losses++
	a.s.CurrentWinStreak = 0
}

// Snapshot returns a copy of the counters.
func (a *StatsAggregator) Snapshot() models.Stats {
	return a.s
}

// WinRate is wins over signals, 0 without signals.
func (a *StatsAggregator) WinRate() float64 {
	return a.s.WinRate()
}
