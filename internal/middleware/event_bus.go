package middleware

import (
	"context"
	"sync"
	"time"

	"SpinSignal/internal/domain/models"
	domrepo "SpinSignal/internal/domain/repository"
	applogger "SpinSignal/pkg/logger"
)

// Subscriber consumes bus events on its own goroutine.
type Subscriber interface {
	Name() string
	Handle(ctx context.Context, ev *models.Event) error
}

// SubscriberFunc adapts a function to Subscriber.
type SubscriberFunc struct {
	ID string
	Fn func(ctx context.Context, ev *models.Event) error
}

func (s SubscriberFunc) Name() string { return s.ID }

func (s SubscriberFunc) Handle(ctx context.Context, ev *models.Event) error { return s.Fn(ctx, ev) }

type subscription struct {
	sub Subscriber
	ch  chan *models.Event
}

// EventBus fans events out to independent subscribers. Publish never blocks:
// each subscriber owns a bounded buffer and events are dropped for a
// subscriber whose buffer is full.
type EventBus struct {
	metrics domrepo.Metrics
	logger  *applogger.Logger
	bufSize int

	mu      sync.RWMutex
	subs    []*subscription
	started bool
	wg      sync.WaitGroup
	stopCh  chan struct{}
}

type BusOption func(*EventBus)

// WithBusBufferSize sets the per-subscriber buffer size.
func WithBusBufferSize(n int) BusOption {
	return func(b *EventBus) {
		if n > 0 {
			b.bufSize = n
		}
	}
}

// WithBusLogger sets the logger used for subscriber errors.
func WithBusLogger(l *applogger.Logger) BusOption {
	return func(b *EventBus) { b.logger = l }
}

// NewEventBus creates a bus.
func NewEventBus(metrics domrepo.Metrics, opts ...BusOption) *EventBus {
	b := &EventBus{
		metrics: metrics,
		bufSize: 256,
		stopCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers s. Subscribers added after Start are started immediately.
func (b *EventBus) Subscribe(ctx context.Context, s Subscriber) {
	sn := &subscription{sub: s, ch: make(chan *models.Event, b.bufSize)}
	b.mu.Lock()
	b.subs = append(b.subs, sn)
	started := b.started
	b.mu.Unlock()
	if started {
		b.run(ctx, sn)
	}
}

// Start launches one delivery goroutine per subscriber.
func (b *EventBus) Start(ctx context.Context) {
	b.mu.Lock()
	if b.started {
		b.mu.Unlock()
		return
	}
	b.started = true
	subs := append([]*subscription(nil), b.subs...)
	b.mu.Unlock()

	for _, sn := range subs {
		b.run(ctx, sn)
	}
}

func (b *EventBus) run(ctx context.Context, sn *subscription) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-b.stopCh:
				b.drain(ctx, sn)
				return
			case ev := <-sn.ch:
				b.deliver(ctx, sn, ev)
			}
		}
	}()
}

// drain delivers what is already buffered before shutdown.
func (b *EventBus) drain(ctx context.Context, sn *subscription) {
	for {
		select {
		case ev := <-sn.ch:
			b.deliver(ctx, sn, ev)
		default:
			return
		}
	}
}

func (b *EventBus) deliver(ctx context.Context, sn *subscription, ev *models.Event) {
	if ev == nil {
		return
	}
	start := time.Now()
	if err := sn.sub.Handle(ctx, ev); err != nil {
		b.metrics.RecordError("bus_" + sn.sub.Name())
		if b.logger != nil {
			b.logger.Warn("subscriber failed",
				applogger.String("subscriber", sn.sub.Name()),
				applogger.String("kind", string(ev.Kind)),
				applogger.Error(err),
			)
		}
		return
	}
	b.metrics.RecordLatency("bus_"+sn.sub.Name(), time.Since(start).Seconds())
}

// Publish enqueues ev for every subscriber without blocking.
func (b *EventBus) Publish(ev *models.Event) {
	if ev == nil {
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sn := range b.subs {
		select {
		case sn.ch <- ev:
		default:
			b.metrics.RecordDropped(sn.sub.Name())
		}
	}
}

// Stop drains buffered events and waits for delivery goroutines.
func (b *EventBus) Stop() {
	b.mu.Lock()
	if !b.started {
		b.mu.Unlock()
		return
	}
	b.started = false
	b.mu.Unlock()
	close(b.stopCh)
	b.wg.Wait()
}
