package usecase

import (
	"context"
	"time"

	"SpinSignal/internal/domain/models"
	domrepo "SpinSignal/internal/domain/repository"
)

const sinkTimeout = 5 * time.Second

// EventStreamSink forwards every bus event to an external broker.
type EventStreamSink struct {
	publisher domrepo.EventPublisher
}

func NewEventStreamSink(publisher domrepo.EventPublisher) *EventStreamSink {
	return &EventStreamSink{publisher: publisher}
}

func (s *EventStreamSink) Name() string { return "event_stream" }

func (s *EventStreamSink) Handle(ctx context.Context, ev *models.Event) error {
	ctx, cancel := context.WithTimeout(ctx, sinkTimeout)
	defer cancel()
	return s.publisher.Publish(ctx, ev)
}

// JournalSink records confirmed outcomes and decisions.
type JournalSink struct {
	journal domrepo.Journal
}

func NewJournalSink(journal domrepo.Journal) *JournalSink {
	return &JournalSink{journal: journal}
}

func (s *JournalSink) Name() string { return "journal" }

func (s *JournalSink) Handle(ctx context.Context, ev *models.Event) error {
	ctx, cancel := context.WithTimeout(ctx, sinkTimeout)
	defer cancel()
	switch {
	case ev.Kind == models.EventRoundStatus && ev.Status == models.StatusComplete && ev.Outcome != nil:
		return s.journal.StoreOutcomes(ctx, []models.Outcome{*ev.Outcome})
	case ev.IsDecision():
		return s.journal.StoreEvent(ctx, ev)
	}
	return nil
}

// StatsMirror keeps the latest stats in an external store.
type StatsMirror struct {
	store domrepo.StatsStore
}

func NewStatsMirror(store domrepo.StatsStore) *StatsMirror {
	return &StatsMirror{store: store}
}

func (s *StatsMirror) Name() string { return "stats_mirror" }

func (s *StatsMirror) Handle(ctx context.Context, ev *models.Event) error {
	if !ev.IsDecision() || ev.Stats == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, sinkTimeout)
	defer cancel()
	return s.store.Save(ctx, *ev.Stats)
}
