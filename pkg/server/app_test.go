package server

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SpinSignal/internal/domain/models"
	"SpinSignal/internal/handler/api"
	mid "SpinSignal/internal/middleware"
	"SpinSignal/internal/usecase"
	"SpinSignal/pkg/config"
	applogger "SpinSignal/pkg/logger"
	"SpinSignal/pkg/metrics"
)

type waitingFeed struct{ polls atomic.Int32 }

func (f *waitingFeed) Current(context.Context) (models.FeedEvent, error) {
	f.polls.Add(1)
	return models.FeedEvent{
		Status:  models.StatusWaiting,
		Outcome: models.Outcome{ID: "r1", Color: models.ColorNone, Number: -1},
	}, nil
}

func (f *waitingFeed) Recent(context.Context) ([]models.Outcome, error) {
	return []models.Outcome{{ID: "r0", Color: models.ColorRed, Number: 3}}, nil
}

type silentNotifier struct{}

func (silentNotifier) Enabled() bool { return false }
func (silentNotifier) SendMessage(context.Context, string, bool) (int64, error) { return 0, nil }
func (silentNotifier) SendSticker(context.Context, string) error { return nil }
func (silentNotifier) DeleteMessage(context.Context, int64) error { return nil }

type kindLog struct {
	mu    sync.Mutex
	kinds []models.EventKind
}

func (l *kindLog) add(k models.EventKind) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.kinds = append(l.kinds, k)
}

func (l *kindLog) count(k models.EventKind) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, got := range l.kinds {
		if got == k {
			n++
		}
	}
	return n
}

func newTestApp(t *testing.T, autostart bool) (*App, *waitingFeed, *kindLog) {
	t.Helper()
	cfg := config.Default()
	cfg.Bot.Autostart = autostart
	cfg.Server.ShutdownTimeout = 2 * time.Second

	log := applogger.Nop()
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	bus := mid.NewEventBus(m, mid.WithBusLogger(log))
	feed := &waitingFeed{}
	machine := usecase.NewMachine(feed, usecase.NewConfigStore(usecase.StrategyConfig{EscalationCeiling: 2}), bus, m, log)
	collector := usecase.NewFeedCollector(feed, machine, m, log, 5*time.Millisecond)
	dispatcher := usecase.NewNotificationDispatcher(silentNotifier{}, usecase.DispatcherConfig{}, m, log)
	hub := api.NewStreamHub(log, machine.Snapshot)

	kinds := &kindLog{}
	rec := mid.SubscriberFunc{ID: "rec", Fn: func(_ context.Context, ev *models.Event) error {
		kinds.add(ev.Kind)
		return nil
	}}

	app := New(cfg, log, bus, machine, collector, dispatcher, nil, hub, nil, Subscribers{dispatcher, hub, rec}, nil)
	return app, feed, kinds
}

func TestAppRunsAndShutsDownCleanly(t *testing.T) {
	app, feed, kinds := newTestApp(t, true)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.RunContext(ctx) }()

	assert.Eventually(t, func() bool {
		return app.Machine().Running() && feed.polls.Load() > 2
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("app did not stop")
	}

	s := app.Machine().Snapshot()
	assert.Equal(t, models.ConnDisconnected, s.Connection)
	assert.Len(t, s.History, 1)
	assert.Equal(t, 1, kinds.count(models.EventBotState))
	// connecting, connected and the final disconnected reach subscribers
	// even though the run context is already cancelled.
	assert.GreaterOrEqual(t, kinds.count(models.EventConnection), 2)
}

func TestAppWithoutAutostartStaysStopped(t *testing.T) {
	app, feed, kinds := newTestApp(t, false)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.RunContext(ctx) }()

	assert.Eventually(t, func() bool { return feed.polls.Load() > 2 }, 2*time.Second, 5*time.Millisecond)
	assert.False(t, app.Machine().Running())

	cancel()
	require.NoError(t, <-done)
	assert.Zero(t, kinds.count(models.EventBotState))
	assert.Zero(t, kinds.count(models.EventRoundStatus))
}
