package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"idlookup/internal/platform/kafka/producer"
)

// Header keys set on every audit record.
const (
	HeaderEventType = "event_type"
	HeaderEventID   = "event_id"
)

// MessageProducer is the subset of the Kafka producer the sink needs.
type MessageProducer interface {
	Produce(ctx context.Context, msg *producer.Message) error
}

// KafkaSink publishes events as JSON records keyed by the identity hash, so
// all events for one subject land on one partition in order.
type KafkaSink struct {
	producer MessageProducer
	topic    string
}

func NewKafkaSink(p MessageProducer, topic string) *KafkaSink {
	return &KafkaSink{producer: p, topic: topic}
}

func (s *KafkaSink) Append(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	msg := &producer.Message{
		Topic: s.topic,
		Key:   []byte(event.IDHash),
		Value: payload,
		Headers: map[string]string{
			HeaderEventType: event.Action,
			HeaderEventID:   event.ID,
		},
	}
	if err := s.producer.Produce(ctx, msg); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}
