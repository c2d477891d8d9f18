package publisher

import (
	"context"
	"fmt"

	"tenancy/internal/platform/kafka/producer"
	"tenancy/internal/sentinel"
	"tenancy/internal/tenant/models"
)

// Producer is satisfied by *producer.Producer.
type Producer interface {
	Produce(ctx context.Context, msg *producer.Message) error
}

// Kafka publishes events synchronously to one topic, keyed by tenant so a
// tenant's events stay ordered within a partition.
type Kafka struct {
	producer Producer
	topic    string
}

func NewKafka(p Producer, topic string) *Kafka {
	return &Kafka{producer: p, topic: topic}
}

func (k *Kafka) Publish(ctx context.Context, event models.TenantMemberInvited) error {
	env, data, err := encode(event)
	if err != nil {
		return err
	}
	msg := &producer.Message{
		Topic: k.topic,
		Key:   []byte(env.Tenant),
		Value: data,
		Headers: map[string]string{
			"event_id":   env.EventID.String(),
			"event_type": env.EventType,
			"tenant":     env.Tenant,
		},
	}
	if err := k.producer.Produce(ctx, msg); err != nil {
		return fmt.Errorf("%w: kafka: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}
