// Package jsonl writes record streams as newline-delimited JSON files.
//
// Each stream is written to <dir>/<table>.jsonl. Closing the sink writes
// <dir>/_manifest.json describing every stream's write disposition, primary
// key and final status so the loading layer can replace or merge
// accordingly. Files of streams that are not complete hold partial data.
package jsonl

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/custodia-labs/sfmc-extract/internal/core/domain"
	"github.com/custodia-labs/sfmc-extract/internal/core/ports/driven"
)

// Ensure Sink implements the interface.
var _ driven.RecordSink = (*Sink)(nil)

// ManifestFile is the name of the stream manifest written on Close.
const ManifestFile = "_manifest.json"

// ManifestEntry describes one written stream.
type ManifestEntry struct {
	ObjectType  string                  `json:"object_type"`
	Table       string                  `json:"table"`
	File        string                  `json:"file"`
	Disposition domain.WriteDisposition `json:"write_disposition"`
	PrimaryKey  string                  `json:"primary_key"`
	Records     int                     `json:"records"`
	Status      domain.OutcomeStatus    `json:"status"`
	Complete    bool                    `json:"complete"`
}

type streamFile struct {
	file    *os.File
	writer  *bufio.Writer
	encoder *json.Encoder
	entry   ManifestEntry
}

// Sink writes each stream to its own file.
type Sink struct {
	dir string

	mu       sync.Mutex
	open     map[string]*streamFile
	manifest map[string]ManifestEntry
	closed   bool
}

// New creates a sink writing into dir, creating it if needed.
func New(dir string) (*Sink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	return &Sink{
		dir:      dir,
		open:     make(map[string]*streamFile),
		manifest: make(map[string]ManifestEntry),
	}, nil
}

// WriteBatch appends records to the stream's file.
func (s *Sink) WriteBatch(_ context.Context, stream domain.StreamDescriptor, records []domain.NormalizedRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sf, err := s.streamFile(stream)
	if err != nil {
		return err
	}
	for _, record := range records {
		if err := sf.encoder.Encode(record); err != nil {
			return fmt.Errorf("encode %s record: %w", stream.Table, err)
		}
		sf.entry.Records++
	}
	return nil
}

// CloseStream flushes and closes the stream's file and records its status.
// Streams with no records still get an empty file.
func (s *Sink) CloseStream(_ context.Context, stream domain.StreamDescriptor, status domain.OutcomeStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sf, err := s.streamFile(stream)
	if err != nil {
		return err
	}
	delete(s.open, stream.Table)
	sf.entry.Status = status
	sf.entry.Complete = status.Complete()
	s.manifest[stream.Table] = sf.entry
	return closeStreamFile(sf)
}

// Close closes any open streams and writes the manifest.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	var firstErr error
	for table, sf := range s.open {
		s.manifest[table] = sf.entry
		if err := closeStreamFile(sf); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.open = nil

	if err := s.writeManifest(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func (s *Sink) streamFile(stream domain.StreamDescriptor) (*streamFile, error) {
	if s.closed {
		return nil, fmt.Errorf("jsonl sink is closed")
	}
	if sf, ok := s.open[stream.Table]; ok {
		return sf, nil
	}

	name := stream.Table + ".jsonl"
	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", name, err)
	}
	w := bufio.NewWriter(f)
	sf := &streamFile{
		file:    f,
		writer:  w,
		encoder: json.NewEncoder(w),
		entry: ManifestEntry{
			ObjectType:  stream.ObjectType,
			Table:       stream.Table,
			File:        name,
			Disposition: stream.Disposition,
			PrimaryKey:  stream.PrimaryKey,
			Status:      domain.OutcomePending,
		},
	}
	s.open[stream.Table] = sf
	return sf, nil
}

func closeStreamFile(sf *streamFile) error {
	if err := sf.writer.Flush(); err != nil {
		sf.file.Close()
		return fmt.Errorf("flush %s: %w", sf.entry.File, err)
	}
	return sf.file.Close()
}

func (s *Sink) writeManifest() error {
	entries := make([]ManifestEntry, 0, len(s.manifest))
	for _, e := range s.manifest {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Table < entries[j].Table })

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	return os.WriteFile(filepath.Join(s.dir, ManifestFile), data, 0o644)
}
