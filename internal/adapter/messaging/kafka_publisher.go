package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/core/domain"
)

// Producer is satisfied by *kafka.Writer and by the traced writer from
// otel-kafka-konsumer.
type Producer interface {
	WriteMessage(ctx context.Context, msg kafka.Message) error
	Close() error
}

// KafkaPublisher writes order events keyed by order id, so every event of an
// order lands on the same partition.
type KafkaPublisher struct {
	producer Producer
	logger   *zap.Logger
}

func NewKafkaPublisher(producer Producer, logger *zap.Logger) *KafkaPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaPublisher{producer: producer, logger: logger}
}

func (p *KafkaPublisher) PublishOrderPlaced(ctx context.Context, event domain.OrderPlacedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal order placed event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.OrderID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "event_id", Value: []byte(event.EventID)},
		},
	}

	if err := p.producer.WriteMessage(ctx, msg); err != nil {
		return fmt.Errorf("publish order placed event %s: %w", event.EventID, err)
	}

	p.logger.Debug("order placed event published",
		zap.String("event_id", event.EventID),
		zap.String("order_id", event.OrderID),
	)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
