package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dev-muradkhan/google-map-multi-marker/internal/core"
)

type mockWriter struct {
	msgs     []kafka.Message
	err      error
	deadline bool
	closed   bool
}

func (m *mockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	_, m.deadline = ctx.Deadline()
	if m.err != nil {
		return m.err
	}
	m.msgs = append(m.msgs, msgs...)
	return nil
}

func (m *mockWriter) Close() error {
	m.closed = true
	return nil
}

func TestPublish(t *testing.T) {
	w := &mockWriter{}
	p := NewWithWriter(w, "map-markers", time.Second)

	ev := core.Event{
		Type:      core.EventMarkerAdded,
		MapID:     "12",
		MarkerIDs: []string{"marker_a"},
		Revision:  3,
		At:        1709942400,
	}
	require.NoError(t, p.Publish(context.Background(), ev))
	require.Len(t, w.msgs, 1)
	assert.True(t, w.deadline, "write timeout applied")

	msg := w.msgs[0]
	assert.Equal(t, "12", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "marker.added", string(msg.Headers[0].Value))

	var got core.Event
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, ev, got)
}

func TestPublishWithoutTimeout(t *testing.T) {
	w := &mockWriter{}
	p := NewWithWriter(w, "map-markers", 0)
	require.NoError(t, p.Publish(context.Background(), core.Event{Type: core.EventOptionsSaved, MapID: "1"}))
	assert.False(t, w.deadline)
}

func TestPublishWriteError(t *testing.T) {
	w := &mockWriter{err: errors.New("leader not available")}
	p := NewWithWriter(w, "map-markers", 0)

	err := p.Publish(context.Background(), core.Event{Type: core.EventMarkerDeleted, MapID: "1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, w.err)
	assert.Contains(t, err.Error(), "map-markers")
}

func TestClose(t *testing.T) {
	w := &mockWriter{}
	require.NoError(t, NewWithWriter(w, "t", 0).Close())
	assert.True(t, w.closed)
}

func TestNewKafkaPublisherValidation(t *testing.T) {
	_, err := NewKafkaPublisher(Config{Topic: "t"})
	assert.Error(t, err)

	_, err = NewKafkaPublisher(Config{Brokers: []string{" ", ""}, Topic: "t"})
	assert.Error(t, err)

	_, err = NewKafkaPublisher(Config{Brokers: []string{"localhost:9092"}})
	assert.Error(t, err)

	p, err := NewKafkaPublisher(Config{Brokers: []string{"localhost:9092"}, Topic: "t"})
	require.NoError(t, err)
	assert.NoError(t, p.Close())
}

func TestNewPublisher(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		p, closeFn, err := NewPublisher(false, Config{})
		require.NoError(t, err)
		assert.IsType(t, NopPublisher{}, p)
		assert.NoError(t, p.Publish(context.Background(), core.Event{Type: core.EventMarkerAdded}))
		assert.NoError(t, closeFn())
	})

	t.Run("enabled", func(t *testing.T) {
		p, closeFn, err := NewPublisher(true, Config{Brokers: []string{"localhost:9092"}, Topic: "markers"})
		require.NoError(t, err)
		assert.IsType(t, &KafkaPublisher{}, p)
		assert.NoError(t, closeFn())
	})

	t.Run("enabled without brokers", func(t *testing.T) {
		_, _, err := NewPublisher(true, Config{Topic: "markers"})
		assert.Error(t, err)
	})
}
