package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SpinSignal/internal/domain/models"
	"SpinSignal/internal/services/strategy"
	applogger "SpinSignal/pkg/logger"
)

// scriptedFeed replays a fixed sequence of polls, repeating the last one.
type scriptedFeed struct {
	fakeFeed
	mu     sync.Mutex
	script []models.FeedEvent
	errs   []error
	pos    int
}

func (f *scriptedFeed) Current(context.Context) (models.FeedEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.pos
	if i >= len(f.script) {
		i = len(f.script) - 1
	} else {
		f.pos++
	}
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	return f.script[i], err
}

func TestFeedCollector_DrivesMachine(t *testing.T) {
	feed := &scriptedFeed{
		fakeFeed: fakeFeed{history: tape("V", "V", "V")},
		script: []models.FeedEvent{
			ev(models.StatusComplete, "r1", models.ColorRed),
			ev(models.StatusComplete, "r1", models.ColorRed),
			ev(models.StatusWaiting, "r2", models.ColorNone),
			ev(models.StatusRolling, "r2", models.ColorBlack),
		},
	}
	table, _ := strategy.Build([]strategy.Definition{{Sequence: []string{"V", "V", "V"}, Target: "P"}})
	sink := &recordingSink{}
	m := NewMachine(feed, NewConfigStore(StrategyConfig{EscalationCeiling: 1, Patterns: table}),
		sink, nopMetrics{}, applogger.Nop(), WithRunning(true))

	c := NewFeedCollector(feed, m, nopMetrics{}, applogger.Nop(), 5*time.Millisecond)
	require.NoError(t, c.Start(context.Background()))

	assert.Eventually(t, func() bool {
		return m.Snapshot().Stats.Wins == 1
	}, 2*time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, c.Shutdown(ctx))

	s := m.Snapshot()
	assert.Equal(t, 1, s.Stats.TotalSignals)
	assert.Equal(t, models.ConnDisconnected, s.Connection)
	assert.Len(t, sink.kinds(models.EventWin), 1)
}

func TestFeedCollector_ErrorMarksConnection(t *testing.T) {
	feed := &scriptedFeed{
		script: []models.FeedEvent{{}},
		errs:   []error{errors.New("timeout")},
	}
	sink := &recordingSink{}
	m := NewMachine(feed, NewConfigStore(StrategyConfig{}), sink, nopMetrics{}, applogger.Nop(), WithRunning(true))

	c := NewFeedCollector(feed, m, nopMetrics{}, applogger.Nop(), 5*time.Millisecond)
	require.NoError(t, c.Start(context.Background()))

	assert.Eventually(t, func() bool {
		return m.Snapshot().Connection == models.ConnError
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, c.Shutdown(context.Background()))
	assert.Empty(t, sink.kinds(models.EventRoundStatus))
}

func TestFeedCollector_PrimesHistoryWhileStopped(t *testing.T) {
	feed := &scriptedFeed{
		fakeFeed: fakeFeed{history: tape("P", "V")},
		script:   []models.FeedEvent{ev(models.StatusWaiting, "r1", models.ColorNone)},
	}
	m := NewMachine(feed, NewConfigStore(StrategyConfig{}), &recordingSink{}, nopMetrics{}, applogger.Nop())

	c := NewFeedCollector(feed, m, nopMetrics{}, applogger.Nop(), time.Hour)
	require.NoError(t, c.Start(context.Background()))

	assert.Eventually(t, func() bool {
		return len(m.Snapshot().History) == 2
	}, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, c.Shutdown(context.Background()))
	assert.False(t, m.Snapshot().Running)
}

type staticSource struct{ snap models.Snapshot }

func (s staticSource) Snapshot() models.Snapshot { return s.snap }

func TestStatsBroadcaster_PublishesWhenRunning(t *testing.T) {
	sink := &recordingSink{}
	src := staticSource{snap: models.Snapshot{Running: true, Stats: models.Stats{Wins: 2, TotalSignals: 3}}}

	b := NewStatsBroadcaster("@every 1h", src, sink, applogger.Nop())
	b.Broadcast()

	ev := sink.last(models.EventStats)
	require.NotNil(t, ev)
	assert.Equal(t, 2, ev.Stats.Wins)
}

func TestStatsBroadcaster_SkipsIdleOrEmpty(t *testing.T) {
	sink := &recordingSink{}
	NewStatsBroadcaster("", staticSource{snap: models.Snapshot{Running: false, Stats: models.Stats{TotalSignals: 3}}}, sink, applogger.Nop()).Broadcast()
	NewStatsBroadcaster("", staticSource{snap: models.Snapshot{Running: true}}, sink, applogger.Nop()).Broadcast()
	assert.Empty(t, sink.kinds())
}

func TestStatsBroadcaster_RejectsBadSchedule(t *testing.T) {
	b := NewStatsBroadcaster("not a schedule", staticSource{}, &recordingSink{}, applogger.Nop())
	assert.Error(t, b.Start())
}

func TestStatsBroadcaster_RunsOnSchedule(t *testing.T) {
	sink := &recordingSink{}
	src := staticSource{snap: models.Snapshot{Running: true, Stats: models.Stats{TotalSignals: 1}}}
	b := NewStatsBroadcaster("@every 1s", src, sink, applogger.Nop())
	require.NoError(t, b.Start())
	defer func() { _ = b.Stop(context.Background()) }()

	assert.Eventually(t, func() bool {
		return len(sink.kinds(models.EventStats)) > 0
	}, 3*time.Second, 20*time.Millisecond)
}
