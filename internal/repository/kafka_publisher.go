package repository

import (
	"context"

	"EquityPulse/internal/domain/models"
	"EquityPulse/pkg/kafka"
)

// KafkaPublisher pushes finished predictions onto a Kafka topic, keyed by
// ticker so per-ticker ordering survives partitioning.
type KafkaPublisher struct {
	producer *kafka.Producer
	topic    string
}

// NewKafkaPublisher creates a prediction publisher.
func NewKafkaPublisher(producer *kafka.Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

// PublishPredictions sends one message per prediction as JSON.
func (p *KafkaPublisher) PublishPredictions(ctx context.Context, preds []models.Prediction) error {
	if len(preds) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(preds))
	for _, pred := range preds {
		msgs = append(msgs, kafka.Message{
			Key:   []byte(pred.Ticker),
			Value: pred,
		})
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

// Close closes the underlying producer.
func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
