package repository

import (
	"context"

	"SpinSignal/internal/domain/models"
)

// Feed is the live game source.
type Feed interface {
	Current(ctx context.Context) (models.FeedEvent, error)
	Recent(ctx context.Context) ([]models.Outcome, error)
}

// Notifier delivers formatted messages to the external channel.
type Notifier interface {
	Enabled() bool
	SendMessage(ctx context.Context, text string, withButton bool) (int64, error)
	SendSticker(ctx context.Context, stickerID string) error
	DeleteMessage(ctx context.Context, messageID int64) error
}

// EventPublisher streams bus events to an external broker.
type EventPublisher interface {
	Publish(ctx context.Context, ev *models.Event) error
	Close() error
}

// Journal stores outcomes and decision events for later analysis.
type Journal interface {
	StoreOutcomes(ctx context.Context, outcomes []models.Outcome) error
	StoreEvent(ctx context.Context, ev *models.Event) error
	RecentDecisions(ctx context.Context, limit int) ([]models.Event, error)
	Health(ctx context.Context) error
	Close() error
}

// StatsStore mirrors the latest stats snapshot.
type StatsStore interface {
	Save(ctx context.Context, s models.Stats) error
	Load(ctx context.Context) (models.Stats, error)
}

type Metrics interface {
	RecordSignal(patternID string)
	RecordResult(result string, galeLevel int)
	RecordGameStatus(status string)
	RecordConnection(status string)
	RecordNotification(kind string, ok bool)
	RecordDropped(subscriber string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
	SetArmed(armed bool)
}
