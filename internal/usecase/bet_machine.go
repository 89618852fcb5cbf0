package usecase

import (
	"context"
	"sync/atomic"
	"time"

	"SpinSignal/internal/domain/models"
	domrepo "SpinSignal/internal/domain/repository"
	"SpinSignal/internal/services/strategy"
	applogger "SpinSignal/pkg/logger"
)

// DefaultHistoryLimit bounds the outcome tape.
const DefaultHistoryLimit = 20

// EventSink receives the machine's events. Publish must not block.
type EventSink interface {
	Publish(ev *models.Event)
}

// Machine is the bet state machine. It owns the session (bet, history,
// stats, cursor) exclusively: Handle, Prime and SetConnection must be called
// from a single goroutine. Start, Stop and Snapshot are safe from any
// goroutine.
type Machine struct {
	feed    domrepo.Feed
	cfg     *ConfigStore
	sink    EventSink
	metrics domrepo.Metrics
	logger  *applogger.Logger

	historyLimit int
	now          func() time.Time

	// session, single writer
	bet        *models.ActiveBet
	history    []models.Outcome
	streak     models.Streak
	stats      StatsAggregator
	cursor     models.Cursor
	gameStatus models.GameStatus
	conn       models.ConnectionStatus

	running atomic.Bool
	snap    atomic.Pointer[models.Snapshot]
}

type MachineOption func(*Machine)

// WithHistoryLimit bounds the stored history.
func WithHistoryLimit(n int) MachineOption {
	return func(m *Machine) {
		if n > 0 {
			m.historyLimit = n
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) MachineOption {
	return func(m *Machine) { m.now = now }
}

// WithRunning sets the initial run state.
func WithRunning(running bool) MachineOption {
	return func(m *Machine) { m.running.Store(running) }
}

// WithInitialStats seeds the counters, e.g. from a mirrored snapshot.
func WithInitialStats(s models.Stats) MachineOption {
	return func(m *Machine) { m.stats.s = s }
}

// NewMachine creates an idle machine.
func NewMachine(feed domrepo.Feed, cfg *ConfigStore, sink EventSink, metrics domrepo.Metrics, logger *applogger.Logger, opts ...MachineOption) *Machine {
	m := &Machine{
		feed:         feed,
		cfg:          cfg,
		sink:         sink,
		metrics:      metrics,
		logger:       logger,
		historyLimit: DefaultHistoryLimit,
		now:          time.Now,
		streak:       models.Streak{Color: models.ColorNone},
		gameStatus:   models.StatusUnknown,
		conn:         models.ConnDisconnected,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.publishSnapshot()
	return m
}

// Handle processes one feed event to completion. Repeated (status, round)
// pairs and events received while stopped are ignored.
func (m *Machine) Handle(ctx context.Context, ev models.FeedEvent) {
	if !m.running.Load() {
		return
	}
	if !m.cursor.Advance(ev) {
		return
	}

	start := time.Now()
	defer func() {
		m.publishSnapshot()
		m.metrics.RecordLatency("machine_handle", time.Since(start).Seconds())
	}()

	cfg := m.cfg.Load()
	m.gameStatus = ev.Status
	m.metrics.RecordGameStatus(string(ev.Status))
	m.publishStatus(ev)

	if len(m.history) == 0 && ev.Status != models.StatusComplete {
		m.refreshHistory(ctx)
	}

	switch ev.Status {
	case models.StatusRolling:
		if m.bet != nil {
			m.resolve(ev.Outcome)
		}
	case models.StatusComplete:
		if !m.refreshHistory(ctx) {
			return
		}
		if m.bet == nil {
			m.scan(cfg, ev.Outcome.ID)
		}
	}
}

// resolve settles the active bet against the round's outcome.
func (m *Machine) resolve(o models.Outcome) {
	bet := m.bet
	if bet.Wins(o) {
		m.bet = nil
		m.stats.RecordWin(bet.GaleLevel > 0)
		m.metrics.RecordResult("win", bet.GaleLevel)
		m.metrics.SetArmed(false)
		m.logger.Info("bet won",
			applogger.String("round", o.ID),
			applogger.String("color", string(o.Color)),
			applogger.Int("gale", bet.GaleLevel),
			applogger.Float64("win_rate", m.stats.WinRate()),
		)
		m.sink.Publish(m.decision(models.EventWin, bet, &o))
		return
	}

	if bet.CanEscalate() {
		bet.GaleLevel++
		m.metrics.RecordResult("gale", bet.GaleLevel)
		m.logger.Info("bet escalated",
			applogger.String("round", o.ID),
			applogger.String("color", string(o.Color)),
			applogger.Int("gale", bet.GaleLevel),
		)
		m.sink.Publish(m.decision(models.EventGale, bet, &o))
		return
	}

	m.bet = nil
	m.stats.RecordLoss()
	m.metrics.RecordResult("loss", bet.GaleLevel)
	m.metrics.SetArmed(false)
	m.logger.Info("bet lost",
		applogger.String("round", o.ID),
		applogger.String("color", string(o.Color)),
		applogger.Int("gale", bet.GaleLevel),
	)
	m.sink.Publish(m.decision(models.EventLoss, bet, &o))
}

// scan runs the matcher on the refreshed history and arms a bet on a match.
func (m *Machine) scan(cfg StrategyConfig, roundID string) {
	res := strategy.Match(m.history, cfg.Patterns)
	if !res.Matched {
		return
	}
	bet := &models.ActiveBet{
		TargetColor: res.Target,
		Ceiling:     cfg.EscalationCeiling,
		PatternID:   res.PatternID,
		RoundID:     roundID,
		OpenedAt:    m.now().UTC(),
	}
	m.bet = bet
	m.stats.RecordSignal()
	m.metrics.RecordSignal(res.PatternID)
	m.metrics.SetArmed(true)
	m.logger.Info("signal raised",
		applogger.String("pattern", res.PatternID),
		applogger.String("target", string(res.Target)),
		applogger.Int("ceiling", cfg.EscalationCeiling),
	)
	m.sink.Publish(m.decision(models.EventSignal, bet, nil))
}

// refreshHistory replaces the history with the authoritative tape.
func (m *Machine) refreshHistory(ctx context.Context) bool {
	start := time.Now()
	h, err := m.feed.Recent(ctx)
	if err != nil {
		m.metrics.RecordError("history_refresh")
		m.logger.Warn("history refresh failed", applogger.Error(err))
		return false
	}
	h = models.NormalizeHistory(h, m.historyLimit)
	if len(h) == 0 {
		m.metrics.RecordError("history_empty")
		return false
	}
	m.history = h
	m.streak = strategy.CurrentStreak(h)
	m.metrics.RecordLatency("history_refresh", time.Since(start).Seconds())
	return true
}

// Prime loads the initial history regardless of the run state.
func (m *Machine) Prime(ctx context.Context) {
	if len(m.history) == 0 {
		m.refreshHistory(ctx)
	}
	m.publishSnapshot()
}

// SetConnection records the feed transport state and announces changes.
func (m *Machine) SetConnection(status models.ConnectionStatus) {
	if status == m.conn {
		return
	}
	m.conn = status
	m.metrics.RecordConnection(string(status))
	ev := models.NewEvent(models.EventConnection)
	ev.Connection = status
	m.sink.Publish(ev)
	m.publishSnapshot()
}

// Start resumes event processing. It reports whether the state changed.
func (m *Machine) Start() bool {
	if !m.running.CompareAndSwap(false, true) {
		return false
	}
	m.publishBotState(true)
	return true
}

// Stop suspends event processing without clearing stats or history.
func (m *Machine) Stop() bool {
	if !m.running.CompareAndSwap(true, false) {
		return false
	}
	m.publishBotState(false)
	return true
}

// Running reports whether events are processed.
func (m *Machine) Running() bool { return m.running.Load() }

// Config returns the active strategy configuration.
func (m *Machine) Config() StrategyConfig { return m.cfg.Load() }

// UpdateConfig replaces the strategy configuration for subsequent events.
func (m *Machine) UpdateConfig(cfg StrategyConfig) { m.cfg.Store(cfg) }

// Snapshot returns the latest read model.
func (m *Machine) Snapshot() models.Snapshot {
	var s models.Snapshot
	if p := m.snap.Load(); p != nil {
		s = *p
	}
	s.Running = m.running.Load()
	return s
}

func (m *Machine) publishSnapshot() {
	s := &models.Snapshot{
		State:      models.StateIdle,
		Stats:      m.stats.Snapshot(),
		WinRate:    m.stats.WinRate(),
		Streak:     m.streak,
		History:    m.history,
		GameStatus: m.gameStatus,
		Connection: m.conn,
		Cursor:     m.cursor,
		UpdatedAt:  m.now().UTC(),
	}
	if m.bet != nil {
		b := *m.bet
		s.Bet = &b
		s.State = models.StateArmed
	}
	m.snap.Store(s)
}

func (m *Machine) publishStatus(fe models.FeedEvent) {
	ev := models.NewEvent(models.EventRoundStatus)
	ev.RoundID = fe.Outcome.ID
	ev.Status = fe.Status
	o := fe.Outcome
	ev.Outcome = &o
	m.sink.Publish(ev)
}

func (m *Machine) publishBotState(running bool) {
	ev := models.NewEvent(models.EventBotState)
	ev.Running = running
	m.sink.Publish(ev)
	m.logger.Info("bot state changed", applogger.Bool("running", running))
}

func (m *Machine) decision(kind models.EventKind, bet *models.ActiveBet, o *models.Outcome) *models.Event {
	ev := models.NewEvent(kind)
	ev.Target = bet.TargetColor
	ev.GaleLevel = bet.GaleLevel
	ev.Ceiling = bet.Ceiling
	ev.PatternID = bet.PatternID
	ev.RoundID = bet.RoundID
	if o != nil {
		ev.RoundID = o.ID
		oc := *o
		ev.Outcome = &oc
	}
	st := m.stats.Snapshot()
	ev.Stats = &st
	ev.Running = m.running.Load()
	return ev
}
