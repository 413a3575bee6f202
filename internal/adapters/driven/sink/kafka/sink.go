// Package kafka publishes record streams to Kafka, one topic per table.
//
// Records are keyed by their primary-key value so that a merge consumer sees
// every version of a record on the same partition. Each message carries the
// stream's write disposition and primary key as headers. CloseStream
// publishes an end-of-stream marker carrying the record count and the
// stream's final status. Replace consumers must only apply a stream whose
// marker has sfmc-stream-complete set to "true".
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/custodia-labs/sfmc-extract/internal/core/domain"
	"github.com/custodia-labs/sfmc-extract/internal/core/ports/driven"
)

// Ensure Sink implements the interface.
var _ driven.RecordSink = (*Sink)(nil)

// Message header names.
const (
	HeaderObjectType  = "sfmc-object-type"
	HeaderDisposition = "sfmc-write-disposition"
	HeaderPrimaryKey  = "sfmc-primary-key"
	HeaderEndOfStream = "sfmc-end-of-stream"
	HeaderStatus      = "sfmc-stream-status"
	HeaderComplete    = "sfmc-stream-complete"
)

// MessageWriter is the subset of *kafka.Writer used by the sink.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Config holds Kafka sink configuration.
type Config struct {
	Brokers     []string
	TopicPrefix string
	BatchSize   int
}

// Sink publishes records to Kafka.
type Sink struct {
	writer      MessageWriter
	topicPrefix string

	mu     sync.Mutex
	counts map[string]int
}

// New creates a sink backed by a kafka-go writer.
func New(cfg Config) *Sink {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 500
	}
	writer := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers...),
		Balancer: &kafka.Hash{},

		BatchSize:    batchSize,
		BatchBytes:   1 << 20,
		BatchTimeout: 50 * time.Millisecond,

		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		Compression:            kafka.Snappy,
	}
	return NewWithWriter(writer, cfg.TopicPrefix)
}

// NewWithWriter creates a sink around an existing writer.
// The writer must not have a fixed Topic.
func NewWithWriter(writer MessageWriter, topicPrefix string) *Sink {
	return &Sink{
		writer:      writer,
		topicPrefix: topicPrefix,
		counts:      make(map[string]int),
	}
}

// Topic returns the topic for a stream.
func (s *Sink) Topic(stream domain.StreamDescriptor) string {
	return s.topicPrefix + stream.Table
}

// WriteBatch publishes records synchronously.
func (s *Sink) WriteBatch(ctx context.Context, stream domain.StreamDescriptor, records []domain.NormalizedRecord) error {
	if len(records) == 0 {
		return nil
	}

	topic := s.Topic(stream)
	headers := streamHeaders(stream)
	now := time.Now()

	msgs := make([]kafka.Message, 0, len(records))
	for _, record := range records {
		value, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("encode %s record: %w", stream.Table, err)
		}
		msgs = append(msgs, kafka.Message{
			Topic:   topic,
			Key:     recordKey(record, stream.PrimaryKey),
			Value:   value,
			Headers: headers,
			Time:    now,
		})
	}

	if err := s.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}

	s.mu.Lock()
	s.counts[stream.Table] += len(records)
	s.mu.Unlock()
	return nil
}

// CloseStream publishes the end-of-stream marker with the record count and status.
func (s *Sink) CloseStream(ctx context.Context, stream domain.StreamDescriptor, status domain.OutcomeStatus) error {
	s.mu.Lock()
	count := s.counts[stream.Table]
	delete(s.counts, stream.Table)
	s.mu.Unlock()

	headers := append(streamHeaders(stream),
		kafka.Header{Key: HeaderEndOfStream, Value: []byte(strconv.Itoa(count))},
		kafka.Header{Key: HeaderStatus, Value: []byte(status)},
		kafka.Header{Key: HeaderComplete, Value: []byte(strconv.FormatBool(status.Complete()))},
	)

	topic := s.Topic(stream)
	if err := s.writer.WriteMessages(ctx, kafka.Message{
		Topic:   topic,
		Headers: headers,
		Time:    time.Now(),
	}); err != nil {
		return fmt.Errorf("publish end of stream to %s: %w", topic, err)
	}
	return nil
}

// Close flushes and closes the writer.
func (s *Sink) Close() error {
	return s.writer.Close()
}

func streamHeaders(stream domain.StreamDescriptor) []kafka.Header {
	return []kafka.Header{
		{Key: HeaderObjectType, Value: []byte(stream.ObjectType)},
		{Key: HeaderDisposition, Value: []byte(stream.Disposition)},
		{Key: HeaderPrimaryKey, Value: []byte(stream.PrimaryKey)},
	}
}

func recordKey(record domain.NormalizedRecord, primaryKey string) []byte {
	v, ok := record.KeyValue(primaryKey)
	if !ok {
		return nil
	}
	return []byte(fmt.Sprint(v))
}
