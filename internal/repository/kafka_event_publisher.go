package repository

import (
	"context"

	"SpinSignal/internal/domain/models"
	"SpinSignal/internal/domain/repository"
	pkgkafka "SpinSignal/pkg/kafka"
)

// KafkaEventPublisher implements EventPublisher for Kafka. Events are keyed
// by round so a round's transitions land on one partition in order.
type KafkaEventPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaEventPublisher creates a Kafka event publisher.
func NewKafkaEventPublisher(producer *pkgkafka.Producer, topic string) repository.EventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

func (p *KafkaEventPublisher) Publish(ctx context.Context, ev *models.Event) error {
	return p.producer.Publish(ctx, p.topic, eventKey(ev), ev)
}

// PublishBatch sends several events in one write.
func (p *KafkaEventPublisher) PublishBatch(ctx context.Context, events []*models.Event) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(events))
	for i, ev := range events {
		msgs[i] = pkgkafka.Message{Key: eventKey(ev), Value: ev}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

func eventKey(ev *models.Event) []byte {
	if ev.RoundID != "" {
		return []byte(ev.RoundID)
	}
	return []byte(ev.Kind)
}
