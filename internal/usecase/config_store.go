package usecase

import (
	"sync/atomic"

	"SpinSignal/internal/domain/models"
)

// StrategyConfig is the read-only configuration snapshot consumed per event.
type StrategyConfig struct {
	EscalationCeiling int
	Patterns          []models.Pattern
}

// ConfigStore publishes strategy configuration to the machine. Updates take
// effect on the next handled event.
type ConfigStore struct {
	v atomic.Pointer[StrategyConfig]
}

// NewConfigStore creates a store holding cfg.
func NewConfigStore(cfg StrategyConfig) *ConfigStore {
	s := &ConfigStore{}
	s.Store(cfg)
	return s
}

// Load returns the current snapshot.
func (s *ConfigStore) Load() StrategyConfig {
	if c := s.v.Load(); c != nil {
		return *c
	}
	return StrategyConfig{}
}

// Store replaces the snapshot. The pattern slice is copied.
func (s *ConfigStore) Store(cfg StrategyConfig) {
	if cfg.EscalationCeiling < 0 {
		cfg.EscalationCeiling = 0
	}
	cfg.Patterns = append([]models.Pattern(nil), cfg.Patterns...)
	s.v.Store(&cfg)
}
