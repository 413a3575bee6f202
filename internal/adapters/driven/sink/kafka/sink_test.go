package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sfmc-extract/internal/core/domain"
)

type mockWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (m *mockWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, msgs...)
	return nil
}

func (m *mockWriter) Close() error {
	m.closed = true
	return nil
}

var clickEvents = domain.StreamDescriptor{
	ObjectType:  "ClickEvent",
	Table:       "clickevents",
	Disposition: domain.DispositionMerge,
	PrimaryKey:  "id",
}

func header(msg kafka.Message, key string) (string, bool) {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value), true
		}
	}
	return "", false
}

func TestSink_WriteBatch(t *testing.T) {
	w := &mockWriter{}
	sink := NewWithWriter(w, "sfmc.")

	err := sink.WriteBatch(context.Background(), clickEvents, []domain.NormalizedRecord{
		{"id": "1_a_10_t", "urlid": int64(10)},
		{"id": nil},
	})
	require.NoError(t, err)
	require.Len(t, w.messages, 2)

	first := w.messages[0]
	assert.Equal(t, "sfmc.clickevents", first.Topic)
	assert.Equal(t, []byte("1_a_10_t"), first.Key)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(first.Value, &payload))
	assert.Equal(t, "1_a_10_t", payload["id"])

	disposition, ok := header(first, HeaderDisposition)
	require.True(t, ok)
	assert.Equal(t, "merge", disposition)
	objectType, _ := header(first, HeaderObjectType)
	assert.Equal(t, "ClickEvent", objectType)
	pk, _ := header(first, HeaderPrimaryKey)
	assert.Equal(t, "id", pk)

	assert.Nil(t, w.messages[1].Key)
}

func TestSink_CloseStreamPublishesMarker(t *testing.T) {
	w := &mockWriter{}
	sink := NewWithWriter(w, "")
	ctx := context.Background()

	require.NoError(t, sink.WriteBatch(ctx, clickEvents, []domain.NormalizedRecord{{"id": "a"}, {"id": "b"}}))
	require.NoError(t, sink.CloseStream(ctx, clickEvents, domain.OutcomeSucceeded))

	require.Len(t, w.messages, 3)
	marker := w.messages[2]
	assert.Equal(t, "clickevents", marker.Topic)
	assert.Nil(t, marker.Value)
	count, ok := header(marker, HeaderEndOfStream)
	require.True(t, ok)
	assert.Equal(t, "2", count)
	status, _ := header(marker, HeaderStatus)
	assert.Equal(t, "succeeded", status)
	complete, _ := header(marker, HeaderComplete)
	assert.Equal(t, "true", complete)
}

func TestSink_CloseStreamFailedIsIncomplete(t *testing.T) {
	w := &mockWriter{}
	sink := NewWithWriter(w, "")
	ctx := context.Background()

	subscribers := domain.StreamDescriptor{
		ObjectType:  "Subscriber",
		Table:       "subscribers",
		Disposition: domain.DispositionReplace,
		PrimaryKey:  "subscriberkey",
	}
	require.NoError(t, sink.WriteBatch(ctx, subscribers, []domain.NormalizedRecord{{"subscriberkey": "k1"}}))
	require.NoError(t, sink.CloseStream(ctx, subscribers, domain.OutcomeFailed))

	require.Len(t, w.messages, 2)
	marker := w.messages[1]
	count, _ := header(marker, HeaderEndOfStream)
	assert.Equal(t, "1", count)
	status, _ := header(marker, HeaderStatus)
	assert.Equal(t, "failed", status)
	complete, ok := header(marker, HeaderComplete)
	require.True(t, ok)
	assert.Equal(t, "false", complete)
	disposition, _ := header(marker, HeaderDisposition)
	assert.Equal(t, "replace", disposition)
}

func TestSink_EmptyBatchIsNoop(t *testing.T) {
	w := &mockWriter{}
	sink := NewWithWriter(w, "")
	require.NoError(t, sink.WriteBatch(context.Background(), clickEvents, nil))
	assert.Empty(t, w.messages)
}

func TestSink_WriteError(t *testing.T) {
	boom := errors.New("broker unavailable")
	sink := NewWithWriter(&mockWriter{err: boom}, "")

	err := sink.WriteBatch(context.Background(), clickEvents, []domain.NormalizedRecord{{"id": "a"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "clickevents")
}

func TestSink_Close(t *testing.T) {
	w := &mockWriter{}
	require.NoError(t, NewWithWriter(w, "").Close())
	assert.True(t, w.closed)
}

func TestNew_ConfiguresWriter(t *testing.T) {
	sink := New(Config{Brokers: []string{"localhost:9092"}, TopicPrefix: "x."})
	w, ok := sink.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, 500, w.BatchSize)
	assert.Equal(t, kafka.RequireAll, w.RequiredAcks)
	assert.Empty(t, w.Topic)
	assert.Equal(t, "x.clickevents", sink.Topic(clickEvents))
}
