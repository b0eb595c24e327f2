// Package kafka publishes training events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/papercomputeco/siamese/pkg/eventstream"
)

// Config configures a Kafka publisher.
type Config struct {
	Brokers []string
	Topic   string

	// WriteTimeout bounds a single publish. Zero uses ten seconds.
	WriteTimeout time.Duration
}

// writer is the subset of *kafkago.Writer the publisher uses.
type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher writes JSON encoded events keyed by run ID, so all events of a
// run land on the same partition in order.
type Publisher struct {
	w writer
}

// NewPublisher creates a Kafka publisher.
func NewPublisher(cfg Config) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka publisher requires at least one broker")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka publisher requires a topic")
	}
	timeout := cfg.WriteTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Publisher{
		w: &kafkago.Writer{
			Addr:                   kafkago.TCP(cfg.Brokers...),
			Topic:                  cfg.Topic,
			Balancer:               &kafkago.Hash{},
			RequiredAcks:           kafkago.RequireOne,
			WriteTimeout:           timeout,
			BatchTimeout:           50 * time.Millisecond,
			AllowAutoTopicCreation: true,
		},
	}, nil
}

// Message encodes event as a Kafka message.
func Message(event *eventstream.TrainingEvent) (kafkago.Message, error) {
	if event == nil {
		return kafkago.Message{}, eventstream.ErrNilEvent
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("encoding event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.RunID),
		Value: payload,
		Time:  event.EmittedAt,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "schema_version", Value: []byte(fmt.Sprint(event.SchemaVersion))},
		},
	}, nil
}

// Publish writes event to the topic.
func (p *Publisher) Publish(ctx context.Context, event *eventstream.TrainingEvent) error {
	msg, err := Message(event)
	if err != nil {
		return err
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publishing %s: %w", event.EventType, err)
	}
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *Publisher) Close() error {
	return p.w.Close()
}
