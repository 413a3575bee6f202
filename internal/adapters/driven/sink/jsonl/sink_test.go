package jsonl

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sfmc-extract/internal/core/domain"
)

var sentEvents = domain.StreamDescriptor{
	ObjectType:  "SentEvent",
	Table:       "sentevents",
	Disposition: domain.DispositionMerge,
	PrimaryKey:  "id",
}

func readLines(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var out []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &m))
		out = append(out, m)
	}
	require.NoError(t, scanner.Err())
	return out
}

func TestSink_WritesRecordsInOrder(t *testing.T) {
	dir := t.TempDir()
	sink, err := New(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, sink.WriteBatch(ctx, sentEvents, []domain.NormalizedRecord{
		{"id": "1_a_x", "sendid": int64(1)},
		{"id": "2_b_y", "sendid": int64(2)},
	}))
	require.NoError(t, sink.WriteBatch(ctx, sentEvents, []domain.NormalizedRecord{
		{"id": "3_c_z", "email_id": nil},
	}))
	require.NoError(t, sink.CloseStream(ctx, sentEvents, domain.OutcomeSucceeded))
	require.NoError(t, sink.Close())

	lines := readLines(t, filepath.Join(dir, "sentevents.jsonl"))
	require.Len(t, lines, 3)
	assert.Equal(t, "1_a_x", lines[0]["id"])
	assert.Equal(t, "2_b_y", lines[1]["id"])
	assert.Contains(t, lines[2], "email_id")
	assert.Nil(t, lines[2]["email_id"])
}

func TestSink_EmptyStreamCreatesFile(t *testing.T) {
	dir := t.TempDir()
	sink, err := New(dir)
	require.NoError(t, err)

	require.NoError(t, sink.CloseStream(context.Background(), sentEvents, domain.OutcomeSucceeded))
	require.NoError(t, sink.Close())

	info, err := os.Stat(filepath.Join(dir, "sentevents.jsonl"))
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}

func TestSink_ManifestDescribesStreams(t *testing.T) {
	dir := t.TempDir()
	sink, err := New(dir)
	require.NoError(t, err)
	ctx := context.Background()

	subscribers := domain.StreamDescriptor{
		ObjectType:  "Subscriber",
		Table:       "subscribers",
		Disposition: domain.DispositionReplace,
		PrimaryKey:  "subscriberkey",
	}
	require.NoError(t, sink.WriteBatch(ctx, subscribers, []domain.NormalizedRecord{{"id": "k1"}}))
	require.NoError(t, sink.WriteBatch(ctx, sentEvents, []domain.NormalizedRecord{{"id": "a"}, {"id": "b"}}))
	require.NoError(t, sink.CloseStream(ctx, sentEvents, domain.OutcomeSucceeded))
	// subscribers left open; Close must still flush and record it.
	require.NoError(t, sink.Close())

	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	require.NoError(t, err)
	var entries []ManifestEntry
	require.NoError(t, json.Unmarshal(data, &entries))

	require.Len(t, entries, 2)
	assert.Equal(t, "sentevents", entries[0].Table)
	assert.Equal(t, domain.DispositionMerge, entries[0].Disposition)
	assert.Equal(t, 2, entries[0].Records)
	assert.Equal(t, domain.OutcomeSucceeded, entries[0].Status)
	assert.True(t, entries[0].Complete)
	assert.Equal(t, "subscribers", entries[1].Table)
	assert.Equal(t, domain.DispositionReplace, entries[1].Disposition)
	assert.Equal(t, "subscriberkey", entries[1].PrimaryKey)
	assert.Equal(t, 1, entries[1].Records)
	assert.Equal(t, domain.OutcomePending, entries[1].Status, "never closed")
	assert.False(t, entries[1].Complete)

	assert.Len(t, readLines(t, filepath.Join(dir, "subscribers.jsonl")), 1)
}

func TestSink_WriteAfterCloseFails(t *testing.T) {
	sink, err := New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, sink.Close())
	require.NoError(t, sink.Close())

	err = sink.WriteBatch(context.Background(), sentEvents, []domain.NormalizedRecord{{"id": "x"}})
	assert.Error(t, err)
}

func TestSink_ManifestMarksFailedStreamIncomplete(t *testing.T) {
	dir := t.TempDir()
	sink, err := New(dir)
	require.NoError(t, err)
	ctx := context.Background()

	subscribers := domain.StreamDescriptor{
		ObjectType:  "Subscriber",
		Table:       "subscribers",
		Disposition: domain.DispositionReplace,
		PrimaryKey:  "subscriberkey",
	}
	require.NoError(t, sink.WriteBatch(ctx, subscribers, []domain.NormalizedRecord{{"subscriberkey": "k1"}}))
	require.NoError(t, sink.CloseStream(ctx, subscribers, domain.OutcomeFailed))
	require.NoError(t, sink.WriteBatch(ctx, sentEvents, []domain.NormalizedRecord{{"id": "a"}}))
	require.NoError(t, sink.CloseStream(ctx, sentEvents, domain.OutcomePartial))
	require.NoError(t, sink.Close())

	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	require.NoError(t, err)
	var entries []ManifestEntry
	require.NoError(t, json.Unmarshal(data, &entries))
	require.Len(t, entries, 2)

	assert.Equal(t, "sentevents", entries[0].Table)
	assert.Equal(t, domain.OutcomePartial, entries[0].Status)
	assert.True(t, entries[0].Complete, "skipped records do not make a stream incomplete")

	assert.Equal(t, "subscribers", entries[1].Table)
	assert.Equal(t, domain.OutcomeFailed, entries[1].Status)
	assert.False(t, entries[1].Complete)
	assert.Equal(t, 1, entries[1].Records)
	assert.Contains(t, string(data), `"complete": false`)
}
