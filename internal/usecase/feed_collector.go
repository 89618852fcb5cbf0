package usecase

import (
	"context"
	"sync"
	"time"

	"SpinSignal/internal/domain/models"
	domrepo "SpinSignal/internal/domain/repository"
	applogger "SpinSignal/pkg/logger"
)

// FeedCollector polls the feed on a fixed cadence and hands every event to
// the machine. It is the machine's only writer.
type FeedCollector struct {
	feed     domrepo.Feed
	machine  *Machine
	metrics  domrepo.Metrics
	logger   *applogger.Logger
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewFeedCollector creates a collector polling every interval.
func NewFeedCollector(feed domrepo.Feed, machine *Machine, metrics domrepo.Metrics, logger *applogger.Logger, interval time.Duration) *FeedCollector {
	if interval <= 0 {
		interval = time.Second
	}
	return &FeedCollector{feed: feed, machine: machine, metrics: metrics, logger: logger, interval: interval}
}

// Start primes the history and launches the poll loop.
func (c *FeedCollector) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done != nil {
		return nil
	}
	loopCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})

	go c.run(loopCtx, c.done)
	return nil
}

func (c *FeedCollector) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer c.machine.SetConnection(models.ConnDisconnected)

	c.machine.SetConnection(models.ConnConnecting)
	c.machine.Prime(ctx)
	c.logger.Info("feed polling started", applogger.Duration("interval", c.interval))

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.poll(ctx)
		}
	}
}

// poll fetches the current round. A failed fetch is "no event this tick".
func (c *FeedCollector) poll(ctx context.Context) {
	start := time.Now()
	fe, err := c.feed.Current(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		c.metrics.RecordError("feed")
		c.logger.Debug("feed poll failed", applogger.Error(err))
		c.machine.SetConnection(models.ConnError)
		return
	}
	c.metrics.RecordLatency("feed_poll", time.Since(start).Seconds())
	c.machine.SetConnection(models.ConnConnected)
	c.machine.Handle(ctx, fe)
}

// Shutdown stops the poll loop and waits for the in-flight event.
func (c *FeedCollector) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Machine returns the driven state machine.
func (c *FeedCollector) Machine() *Machine { return c.machine }
