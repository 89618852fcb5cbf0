package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SpinSignal/internal/domain/models"
	"SpinSignal/pkg/cache"
)

func TestStatsSnapshotStore_RoundTrip(t *testing.T) {
	mc := cache.NewMemoryCache()
	defer mc.Close()
	store := NewStatsSnapshotStore(mc, time.Minute)
	ctx := context.Background()

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, cache.ErrCacheMiss)

	want := models.Stats{Wins: 7, Losses: 2, WinsWithGale: 3, WinsWithoutGale: 4, TotalSignals: 9, MaxWinStreak: 5}
	require.NoError(t, store.Save(ctx, want))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
