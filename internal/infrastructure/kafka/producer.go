// Package kafka publishes storefront events (orders placed, payments
// confirmed, reservations booked) for downstream consumers such as the
// kitchen display and notification senders.
package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// eventTypeHeader names the message header carrying the event type, so
// consumers of the shared topic can dispatch without decoding the payload.
const eventTypeHeader = "event-type"

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}
	return &Producer{writer: writer}
}

// Publish serializes the event as JSON keyed by the aggregate ID. The event
// type travels as a message header.
func (p *Producer) Publish(ctx context.Context, key, eventType string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: eventTypeHeader, Value: []byte(eventType)},
		},
	}); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"key":  key,
		"type": eventType,
	}).Debug("event published")
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
