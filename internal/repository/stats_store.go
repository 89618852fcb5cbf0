package repository

import (
	"context"
	"fmt"
	"time"

	"SpinSignal/internal/domain/models"
	"SpinSignal/internal/domain/repository"
	"SpinSignal/pkg/cache"
)

var statsKey = cache.Key("stats", "latest")

// StatsSnapshotStore mirrors the stats counters into a cache.
type StatsSnapshotStore struct {
	cache cache.Service
	ttl   time.Duration
}

// NewStatsSnapshotStore creates a store. ttl <= 0 keeps the cache default.
func NewStatsSnapshotStore(c cache.Service, ttl time.Duration) repository.StatsStore {
	return &StatsSnapshotStore{cache: c, ttl: ttl}
}

func (s *StatsSnapshotStore) Save(ctx context.Context, st models.Stats) error {
	if err := s.cache.Set(ctx, statsKey, st, s.ttl); err != nil {
		return fmt.Errorf("save stats: %w", err)
	}
	return nil
}

// Load returns the mirrored stats. A missing snapshot yields cache.ErrCacheMiss.
func (s *StatsSnapshotStore) Load(ctx context.Context) (models.Stats, error) {
	var st models.Stats
	if err := s.cache.Get(ctx, statsKey, &st); err != nil {
		return models.Stats{}, fmt.Errorf("load stats: %w", err)
	}
	return st, nil
}
