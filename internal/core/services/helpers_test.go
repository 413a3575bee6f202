package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/custodia-labs/sfmc-extract/internal/core/domain"
	"github.com/custodia-labs/sfmc-extract/internal/core/ports/driven"
)

// mockIterator yields objects then ends with err (io.EOF when nil).
type mockIterator struct {
	objects []domain.RawObject
	err     error
	pages   int
	pos     int
}

func (m *mockIterator) Next(ctx context.Context) (domain.RawObject, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.pos < len(m.objects) {
		obj := m.objects[m.pos]
		m.pos++
		return obj, nil
	}
	if m.err != nil {
		return nil, m.err
	}
	return nil, io.EOF
}

func (m *mockIterator) Pages() int             { return m.pages }
func (m *mockIterator) ContinuationID() string { return "cont-1" }

// mockSource serves canned iterators per object type.
type mockSource struct {
	mu        sync.Mutex
	iterators map[string]*mockIterator
	openErr   map[string]error
	opened    []string
}

func newMockSource() *mockSource {
	return &mockSource{
		iterators: make(map[string]*mockIterator),
		openErr:   make(map[string]error),
	}
}

func (m *mockSource) Open(_ context.Context, spec domain.ObjectTypeSpec) (driven.ObjectIterator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opened = append(m.opened, spec.ObjectType)
	if err := m.openErr[spec.ObjectType]; err != nil {
		return nil, err
	}
	if it, ok := m.iterators[spec.ObjectType]; ok {
		return it, nil
	}
	return &mockIterator{pages: 1}, nil
}

func (m *mockSource) Opened() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.opened...)
}

// mockNormaliser copies raw values under lower-case keys and fails on
// objects carrying a "bad" field.
type mockNormaliser struct{}

func (mockNormaliser) Normalise(raw domain.RawObject, properties []string) (domain.NormalizedRecord, error) {
	if _, bad := raw["bad"]; bad {
		return nil, errors.New("bad record")
	}
	record := make(domain.NormalizedRecord, len(properties))
	for _, p := range properties {
		record[strings.ToLower(p)] = raw[p]
	}
	return record, nil
}

// mockSink records batches per table.
type mockSink struct {
	mu        sync.Mutex
	batches   map[string][][]domain.NormalizedRecord
	closed    []string
	statuses  map[string]domain.OutcomeStatus
	failTable string
	closeErr  error
}

func newMockSink() *mockSink {
	return &mockSink{
		batches:  make(map[string][][]domain.NormalizedRecord),
		statuses: make(map[string]domain.OutcomeStatus),
	}
}

func (m *mockSink) WriteBatch(_ context.Context, stream domain.StreamDescriptor, records []domain.NormalizedRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if stream.Table == m.failTable {
		return errors.New("disk full")
	}
	m.batches[stream.Table] = append(m.batches[stream.Table], records)
	return nil
}

func (m *mockSink) CloseStream(_ context.Context, stream domain.StreamDescriptor, status domain.OutcomeStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = append(m.closed, stream.Table)
	m.statuses[stream.Table] = status
	return m.closeErr
}

func (m *mockSink) Close() error { return nil }

func (m *mockSink) records(table string) []domain.NormalizedRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.NormalizedRecord
	for _, b := range m.batches[table] {
		out = append(out, b...)
	}
	return out
}

// mockRunStore keeps saved reports in memory.
type mockRunStore struct {
	saved []*domain.RunReport
}

func (m *mockRunStore) SaveReport(_ context.Context, report *domain.RunReport) error {
	m.saved = append(m.saved, report)
	return nil
}

func (m *mockRunStore) LatestReport(_ context.Context) (*domain.RunReport, error) {
	if len(m.saved) == 0 {
		return nil, domain.ErrNotFound
	}
	return m.saved[len(m.saved)-1], nil
}

func (m *mockRunStore) Close() error { return nil }

func eventSpec(objectType string) domain.ObjectTypeSpec {
	return domain.ObjectTypeSpec{
		ObjectType:     objectType,
		Properties:     []string{"SendID", "SubscriberKey", "EventDate"},
		FilterProperty: "EventDate",
		DaysBack:       4,
	}
}

func eventObjects(n int) []domain.RawObject {
	out := make([]domain.RawObject, n)
	for i := range out {
		out[i] = domain.RawObject{
			"SendID":        int64(i + 1),
			"SubscriberKey": "sub",
			"EventDate":     "2026-10-14T10:00:00Z",
		}
	}
	return out
}
