// Package events publishes marker change events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/dev-muradkhan/google-map-multi-marker/internal/core"
	"github.com/dev-muradkhan/google-map-multi-marker/internal/logging"
)

// MessageWriter defines the interface for a Kafka message writer.
// *kafka.Writer implements it.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Config holds the producer settings.
type Config struct {
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
}

// KafkaPublisher writes one JSON message per event, keyed by map ID so that
// the events of a map stay ordered within a partition.
type KafkaPublisher struct {
	writer  MessageWriter
	topic   string
	timeout time.Duration
}

// NewKafkaPublisher creates a publisher backed by a kafka.Writer.
func NewKafkaPublisher(cfg Config) (*KafkaPublisher, error) {
	brokers := make([]string, 0, len(cfg.Brokers))
	for _, b := range cfg.Brokers {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	if len(brokers) == 0 {
		return nil, errors.New("events: at least one broker is required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("events: topic is required")
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return NewWithWriter(w, cfg.Topic, cfg.WriteTimeout), nil
}

// NewWithWriter creates a publisher over an existing writer. A zero timeout
// means the caller's context alone bounds each write.
func NewWithWriter(w MessageWriter, topic string, timeout time.Duration) *KafkaPublisher {
	return &KafkaPublisher{writer: w, topic: topic, timeout: timeout}
}

// Publish encodes ev and writes it synchronously.
func (p *KafkaPublisher) Publish(ctx context.Context, ev core.Event) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", ev.Type, err)
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	msg := kafka.Message{
		Key:   []byte(ev.MapID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(ev.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write %s event to %s: %w", ev.Type, p.topic, err)
	}

	logging.FromContext(ctx).Debug("published marker event",
		"topic", p.topic,
		"event", ev.Type,
		"map_id", ev.MapID,
	)
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher drops every event. It stands in for Kafka when events are disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, core.Event) error { return nil }

// NewPublisher returns a KafkaPublisher when enabled and a NopPublisher
// otherwise, together with a close function that is always safe to call.
func NewPublisher(enabled bool, cfg Config) (core.EventPublisher, func() error, error) {
	if !enabled {
		return NopPublisher{}, func() error { return nil }, nil
	}
	p, err := NewKafkaPublisher(cfg)
	if err != nil {
		return nil, nil, err
	}
	return p, p.Close, nil
}
