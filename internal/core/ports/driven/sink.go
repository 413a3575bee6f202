package driven

import (
	"context"

	"github.com/custodia-labs/sfmc-extract/internal/core/domain"
)

// RecordSink receives normalised record streams for the loading layer.
// Each stream is identified by its descriptor; implementations must keep
// streams partitioned by table. Implementations must be safe for concurrent
// use when object types are extracted in parallel.
type RecordSink interface {
	// WriteBatch appends records to the stream.
	WriteBatch(ctx context.Context, stream domain.StreamDescriptor, records []domain.NormalizedRecord) error

	// CloseStream ends the stream with its final status. Only a Complete
	// status means every record was delivered; a replace load must not be
	// applied otherwise. It is called once per stream,
	// including streams that ended early or produced no records.
	CloseStream(ctx context.Context, stream domain.StreamDescriptor, status domain.OutcomeStatus) error

	// Close releases sink resources.
	Close() error
}

// RunStore persists extraction run summaries.
type RunStore interface {
	// SaveReport records a finished run and its per-object-type outcomes.
	SaveReport(ctx context.Context, report *domain.RunReport) error

	// LatestReport returns the most recent run.
	// Returns domain.ErrNotFound if no run has been recorded.
	LatestReport(ctx context.Context) (*domain.RunReport, error)

	// Close releases the store.
	Close() error
}
